package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/j-veylop/whoop-dashboard-tui/internal/models"
)

// ErrInvalidWindow is returned when a window would end before it starts.
var ErrInvalidWindow = errors.New("window start is after end")

// Window is an inclusive time range.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow returns the window [start, end]. start must not be after end.
func NewWindow(start, end time.Time) (Window, error) {
	if start.After(end) {
		return Window{}, fmt.Errorf("%w: %s > %s", ErrInvalidWindow,
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return Window{Start: start, End: end}, nil
}

// DayWindow spans whole calendar days, from the first instant of from's date
// to the last instant of to's date, in from's location.
func DayWindow(from, to time.Time) (Window, error) {
	loc := from.Location()
	start := startOfDay(from)
	end := startOfDay(to.In(loc)).AddDate(0, 0, 1).Add(-time.Nanosecond)
	return NewWindow(start, end)
}

// Contains reports whether t lies in the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Days returns the number of calendar days the window touches.
func (w Window) Days() int {
	if w.End.Before(w.Start) {
		return 0
	}
	first := startOfDay(w.Start)
	last := startOfDay(w.End.In(w.Start.Location()))
	return int(last.Sub(first).Hours()/24+0.5) + 1
}

// String formats the window as "Jan 02 - Jan 08".
func (w Window) String() string {
	const layout = "Jan 02"
	if w.Start.Year() != w.End.Year() {
		return w.Start.Format("Jan 02 2006") + " - " + w.End.Format("Jan 02 2006")
	}
	return w.Start.Format(layout) + " - " + w.End.Format(layout)
}

// RoundToTenMinutes truncates now to the previous multiple of ten minutes.
// It is the "today" used to key a load so reloads within ten minutes reuse it.
func RoundToTenMinutes(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), now.Hour(),
		now.Minute()/10*10, 0, 0, now.Location())
}

// ThisWeek returns the current window: the trailing seven calendar days
// ending with today.
func ThisWeek(today time.Time) Window {
	w, _ := DayWindow(today.AddDate(0, 0, -6), today)
	return w
}

// LoadRange returns the range fetched from the API for a baseline of the
// given number of days. One extra day is loaded so the first comparison day
// is complete.
func LoadRange(today time.Time, baselineDays int) Window {
	return Window{Start: today.AddDate(0, 0, -(baselineDays + 1)), End: today}
}

// ComparisonWindow returns the window for a comparison preset.
func ComparisonWindow(p models.ComparisonPeriod, today time.Time, baselineDays int) Window {
	var w Window
	switch p {
	case models.PeriodPreviousWeek:
		w, _ = DayWindow(today.AddDate(0, 0, -13), today.AddDate(0, 0, -7))
	case models.PeriodLast30Days:
		w, _ = DayWindow(today.AddDate(0, 0, -29), today)
	case models.PeriodLast90Days:
		w, _ = DayWindow(today.AddDate(0, 0, -89), today)
	default:
		w, _ = DayWindow(today.AddDate(0, 0, -baselineDays), today)
	}
	return w
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
