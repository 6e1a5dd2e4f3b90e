package models

// ComparisonPeriod is the preset used as the comparison window on the
// metrics board. The current window is always the trailing week.
type ComparisonPeriod int

const (
	// PeriodLoadedRange compares against everything that was loaded.
	PeriodLoadedRange ComparisonPeriod = iota
	// PeriodPreviousWeek compares against the seven days before this week.
	PeriodPreviousWeek
	// PeriodLast30Days compares against the last 30 days.
	PeriodLast30Days
	// PeriodLast90Days compares against the last 90 days.
	PeriodLast90Days
)

// String returns the display name for a period.
func (p ComparisonPeriod) String() string {
	switch p {
	case PeriodLoadedRange:
		return "Loaded Range"
	case PeriodPreviousWeek:
		return "Previous Week"
	case PeriodLast30Days:
		return "Last 30 Days"
	case PeriodLast90Days:
		return "Last 90 Days"
	default:
		return "Unknown"
	}
}

// Next cycles to the next period.
func (p ComparisonPeriod) Next() ComparisonPeriod {
	return (p + 1) % 4
}
