package models

import "time"

// Dataset is everything fetched for one load range.
type Dataset struct {
	Start     time.Time
	End       time.Time
	FetchedAt time.Time
	Recovery  []Recovery
	Sleep     []Sleep
	Workouts  []Workout
	Cycles    []Cycle
	FromCache bool
}

// Empty reports whether no records were returned at all.
func (d *Dataset) Empty() bool {
	return d == nil ||
		len(d.Recovery)+len(d.Sleep)+len(d.Workouts)+len(d.Cycles) == 0
}

// RecordCounts returns the number of records per collection.
func (d *Dataset) RecordCounts() map[string]int {
	if d == nil {
		return map[string]int{}
	}
	return map[string]int{
		"recovery": len(d.Recovery),
		"sleep":    len(d.Sleep),
		"workout":  len(d.Workouts),
		"cycle":    len(d.Cycles),
	}
}
