package metrics

import "time"

// DayType buckets a day into weekday or weekend.
type DayType int

const (
	// Weekday is Monday through Friday.
	Weekday DayType = iota
	// Weekend is Saturday and Sunday.
	Weekend
)

// String returns "Weekday" or "Weekend".
func (d DayType) String() string {
	if d == Weekend {
		return "Weekend"
	}
	return "Weekday"
}

// ClassifyDay buckets t by its weekday in t's own location.
func ClassifyDay(t time.Time) DayType {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return Weekend
	default:
		return Weekday
	}
}

// DayTypeSplit holds a metric reduced separately over weekdays and weekends.
type DayTypeSplit struct {
	Metric       string
	Weekday      float64
	Weekend      float64
	WeekdayCount int
	WeekendCount int
}

// SplitByDayType reduces a metric over w, bucketed by the day type of each
// row's window column.
func (e *Engine) SplitByDayType(name string, w Window) (DayTypeSplit, error) {
	def, err := Lookup(name)
	if err != nil {
		return DayTypeSplit{Metric: name}, err
	}

	var weekday, weekend []float64
	tf := def.timeField()
	for _, r := range e.Table(def.Source).Filter(w, tf) {
		v, ok := r.Num(def.Field)
		if !ok {
			continue
		}
		ts, _ := r.Time(tf)
		if ClassifyDay(ts) == Weekend {
			weekend = append(weekend, def.convert(v))
		} else {
			weekday = append(weekday, def.convert(v))
		}
	}

	return DayTypeSplit{
		Metric:       name,
		Weekday:      def.reduce(weekday),
		Weekend:      def.reduce(weekend),
		WeekdayCount: len(weekday),
		WeekendCount: len(weekend),
	}, nil
}
