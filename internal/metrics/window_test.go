package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/j-veylop/whoop-dashboard-tui/internal/models"
)

func TestNewWindow(t *testing.T) {
	a := date("2024-01-01")
	b := date("2024-01-08")

	if _, err := NewWindow(a, b); err != nil {
		t.Errorf("NewWindow(a, b) error = %v", err)
	}
	if _, err := NewWindow(a, a); err != nil {
		t.Errorf("NewWindow(a, a) error = %v", err)
	}
	if _, err := NewWindow(b, a); !errors.Is(err, ErrInvalidWindow) {
		t.Errorf("NewWindow(b, a) error = %v, want ErrInvalidWindow", err)
	}
}

func TestWindow_ContainsInclusive(t *testing.T) {
	w := Window{Start: date("2024-01-01"), End: date("2024-01-08")}

	tests := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"Start", w.Start, true},
		{"End", w.End, true},
		{"Inside", date("2024-01-04"), true},
		{"JustBefore", w.Start.Add(-time.Nanosecond), false},
		{"JustAfter", w.End.Add(time.Nanosecond), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.Contains(tt.t); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}
}

func TestDayWindow(t *testing.T) {
	loc := time.FixedZone("test", -5*3600)
	from := time.Date(2024, 3, 10, 15, 30, 0, 0, loc)
	to := time.Date(2024, 3, 12, 1, 0, 0, 0, loc)

	w, err := DayWindow(from, to)
	if err != nil {
		t.Fatalf("DayWindow() error = %v", err)
	}
	if !w.Start.Equal(time.Date(2024, 3, 10, 0, 0, 0, 0, loc)) {
		t.Errorf("Start = %v", w.Start)
	}
	if !w.Contains(time.Date(2024, 3, 12, 23, 59, 59, 0, loc)) {
		t.Error("last second of the end day should be inside")
	}
	if w.Contains(time.Date(2024, 3, 13, 0, 0, 0, 0, loc)) {
		t.Error("midnight after the end day should be outside")
	}
	if w.Days() != 3 {
		t.Errorf("Days() = %d, want 3", w.Days())
	}
}

func TestThisWeek(t *testing.T) {
	today := time.Date(2024, 5, 15, 9, 20, 0, 0, time.UTC)
	w := ThisWeek(today)

	if !w.Start.Equal(time.Date(2024, 5, 9, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Start = %v, want May 9", w.Start)
	}
	if !w.Contains(time.Date(2024, 5, 15, 23, 0, 0, 0, time.UTC)) {
		t.Error("today should be inside this week")
	}
	if w.Days() != 7 {
		t.Errorf("Days() = %d, want 7", w.Days())
	}
}

func TestRoundToTenMinutes(t *testing.T) {
	now := time.Date(2024, 5, 15, 9, 27, 45, 123, time.UTC)
	want := time.Date(2024, 5, 15, 9, 20, 0, 0, time.UTC)
	if got := RoundToTenMinutes(now); !got.Equal(want) {
		t.Errorf("RoundToTenMinutes() = %v, want %v", got, want)
	}
}

func TestLoadRange(t *testing.T) {
	today := time.Date(2024, 5, 15, 9, 20, 0, 0, time.UTC)
	w := LoadRange(today, 60)
	if !w.Start.Equal(today.AddDate(0, 0, -61)) || !w.End.Equal(today) {
		t.Errorf("LoadRange() = %v", w)
	}
}

func TestComparisonWindow(t *testing.T) {
	today := time.Date(2024, 5, 15, 9, 20, 0, 0, time.UTC)

	tests := []struct {
		name      string
		p         models.ComparisonPeriod
		wantStart time.Time
		wantDays  int
	}{
		{"Loaded", models.PeriodLoadedRange, time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC), 31},
		{"PrevWeek", models.PeriodPreviousWeek, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), 7},
		{"30Days", models.PeriodLast30Days, time.Date(2024, 4, 16, 0, 0, 0, 0, time.UTC), 30},
		{"90Days", models.PeriodLast90Days, time.Date(2024, 2, 16, 0, 0, 0, 0, time.UTC), 90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ComparisonWindow(tt.p, today, 30)
			if !w.Start.Equal(tt.wantStart) {
				t.Errorf("Start = %v, want %v", w.Start, tt.wantStart)
			}
			if w.Days() != tt.wantDays {
				t.Errorf("Days() = %d, want %d", w.Days(), tt.wantDays)
			}
		})
	}
}

func TestClassifyDay(t *testing.T) {
	tests := []struct {
		day  string
		want DayType
	}{
		{"2024-01-05", Weekday}, // Friday
		{"2024-01-06", Weekend}, // Saturday
		{"2024-01-07", Weekend}, // Sunday
		{"2024-01-08", Weekday}, // Monday
	}
	for _, tt := range tests {
		t.Run(tt.day, func(t *testing.T) {
			if got := ClassifyDay(date(tt.day)); got != tt.want {
				t.Errorf("ClassifyDay(%s) = %v, want %v", tt.day, got, tt.want)
			}
		})
	}
}
