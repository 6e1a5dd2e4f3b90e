package metrics

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnknownMetric is returned for names outside the catalog.
var ErrUnknownMetric = errors.New("unknown metric")

// Reducer collapses the values of a window into one scalar.
type Reducer func(values []float64) float64

// Mean is the arithmetic mean. It returns NaN for no values. There is no
// outlier handling.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Unit conversions applied to raw API values.
func MillisToHours(v float64) float64   { return v / 1000 / 60 / 60 }
func MillisToMinutes(v float64) float64 { return v / 1000 / 60 }
func KilojouleToKcal(v float64) float64 { return v / 4.184 }

// Definition maps a metric name to where its values come from and how they
// are reduced.
type Definition struct {
	Convert       func(float64) float64
	Reduce        Reducer
	Name          string
	Label         string
	Unit          string
	Description   string
	Field         string
	TimeField     string
	Source        Source
	Precision     int
	LowerIsBetter bool
}

// timeField returns the column windows filter on.
func (d Definition) timeField() string {
	if d.TimeField != "" {
		return d.TimeField
	}
	return d.Source.defaultTimeField()
}

func (d Definition) reduce(values []float64) float64 {
	if d.Reduce == nil {
		return Mean(values)
	}
	return d.Reduce(values)
}

func (d Definition) convert(v float64) float64 {
	if d.Convert == nil {
		return v
	}
	return d.Convert(v)
}

// Format renders a value with the metric's precision and unit.
func (d Definition) Format(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	s := fmt.Sprintf("%.*f", d.Precision, v)
	if d.Unit != "" {
		s += " " + d.Unit
	}
	return s
}

// catalog is closed: metrics are added here and nowhere else.
var catalog = []Definition{
	// Sleep
	{Name: "sleep_efficiency", Label: "Sleep Efficiency", Unit: "%", Source: SourceSleep,
		Field: "score.sleep_efficiency_percentage", Precision: 5,
		Description: "Percentage of the time in bed actually spent asleep."},
	{Name: "time_in_bed", Label: "Time in Bed", Unit: "h", Source: SourceSleep,
		Field: "score.stage_summary.total_in_bed_time_milli", Convert: MillisToHours, Precision: 5,
		Description: "Total time in bed per night."},
	{Name: "sleep_consistency", Label: "Sleep Consistency", Unit: "%", Source: SourceSleep,
		Field: "score.sleep_consistency_percentage", Precision: 5,
		Description: "How similar sleep and wake times are over recent days."},
	{Name: "sleep_performance", Label: "Sleep Performance", Unit: "%", Source: SourceSleep,
		Field: "score.sleep_performance_percentage", Precision: 5,
		Description: "Actual sleep duration compared to sleep need."},
	{Name: "respiratory_rate", Label: "Respiratory Rate", Unit: "rpm", Source: SourceSleep,
		Field: "score.respiratory_rate", Precision: 5,
		Description: "Breaths per minute during sleep."},
	{Name: "total_sleep", Label: "Total Sleep Time", Unit: "h", Source: SourceSleep,
		Field: "score.stage_summary.total_sleep_time_milli", Convert: MillisToHours, Precision: 2,
		Description: "Time in bed minus time awake."},
	{Name: "awake_time", Label: "Total Awake Time", Unit: "h", Source: SourceSleep,
		Field: "score.stage_summary.total_awake_time_milli", Convert: MillisToHours, Precision: 2,
		LowerIsBetter: true},
	{Name: "light_sleep", Label: "Light Sleep", Unit: "min", Source: SourceSleep,
		Field: "score.stage_summary.total_light_sleep_time_milli", Convert: MillisToMinutes, Precision: 2},
	{Name: "slow_wave_sleep", Label: "Slow Wave Sleep", Unit: "min", Source: SourceSleep,
		Field: "score.stage_summary.total_slow_wave_sleep_time_milli", Convert: MillisToMinutes, Precision: 2},
	{Name: "rem_sleep", Label: "REM Sleep", Unit: "min", Source: SourceSleep,
		Field: "score.stage_summary.total_rem_sleep_time_milli", Convert: MillisToMinutes, Precision: 2},
	{Name: "sleep_cycles", Label: "Sleep Cycle Count", Source: SourceSleep,
		Field: "score.stage_summary.sleep_cycle_count", Precision: 2},
	{Name: "disturbances", Label: "Disturbance Count", Source: SourceSleep,
		Field: "score.stage_summary.disturbance_count", Precision: 2, LowerIsBetter: true},

	// Recovery
	{Name: "recovery_score", Label: "Recovery Score", Unit: "%", Source: SourceRecovery,
		Field: "score.recovery_score", Precision: 5,
		Description: "How well the body recovered from the previous day's strain."},
	{Name: "hrv_rmssd_milli", Label: "HRV", Unit: "ms", Source: SourceRecovery,
		Field: "score.hrv_rmssd_milli", Precision: 5,
		Description: "Variation in time between heartbeats (RMSSD)."},
	{Name: "rhr", Label: "Resting Heart Rate", Unit: "bpm", Source: SourceRecovery,
		Field: "score.resting_heart_rate", Precision: 2, LowerIsBetter: true,
		Description: "Heart beats per minute at rest."},
	{Name: "spo2", Label: "SpO2", Unit: "%", Source: SourceRecovery,
		Field: "score.spo2_percentage", Precision: 5,
		Description: "Blood oxygen saturation."},
	{Name: "skin_temp", Label: "Skin Temp", Unit: "°C", Source: SourceRecovery,
		Field: "score.skin_temp_celsius", Precision: 5, LowerIsBetter: true,
		Description: "Skin temperature in degrees Celsius."},

	// Workout
	{Name: "strain", Label: "Workout Strain", Source: SourceWorkout,
		Field: "score.strain", Precision: 2,
		Description: "Cardiovascular load of a workout on a 0 to 21 scale."},
	{Name: "kilojoule", Label: "Energy", Unit: "kJ", Source: SourceWorkout,
		Field: "score.kilojoule", Precision: 2},
	{Name: "kilocalories", Label: "Kilocalories", Unit: "kcal", Source: SourceWorkout,
		Field: "score.kilojoule", Convert: KilojouleToKcal, Precision: 2,
		Description: "Calories burned during a workout."},
	{Name: "avg_heart_rate", Label: "Average Heart Rate", Unit: "bpm", Source: SourceWorkout,
		Field: "score.average_heart_rate", Precision: 2},
	{Name: "max_heart_rate", Label: "Max Heart Rate", Unit: "bpm", Source: SourceWorkout,
		Field: "score.max_heart_rate", Precision: 2},
	{Name: "distance", Label: "Distance", Unit: "m", Source: SourceWorkout,
		Field: "score.distance_meter", Precision: 2},
	{Name: "altitude_gain", Label: "Altitude Gain", Unit: "m", Source: SourceWorkout,
		Field: "score.altitude_gain_meter", Precision: 2},
	{Name: "altitude_change", Label: "Altitude Change", Unit: "m", Source: SourceWorkout,
		Field: "score.altitude_change_meter", Precision: 2},
	{Name: "zone_zero", Label: "Zone 0 Duration", Unit: "min", Source: SourceWorkout,
		Field: "score.zone_durations.zone_zero_milli", Convert: MillisToMinutes, Precision: 2},
	{Name: "zone_one", Label: "Zone 1 Duration", Unit: "min", Source: SourceWorkout,
		Field: "score.zone_durations.zone_one_milli", Convert: MillisToMinutes, Precision: 2},
	{Name: "zone_two", Label: "Zone 2 Duration", Unit: "min", Source: SourceWorkout,
		Field: "score.zone_durations.zone_two_milli", Convert: MillisToMinutes, Precision: 2},
	{Name: "zone_three", Label: "Zone 3 Duration", Unit: "min", Source: SourceWorkout,
		Field: "score.zone_durations.zone_three_milli", Convert: MillisToMinutes, Precision: 2},
	{Name: "zone_four", Label: "Zone 4 Duration", Unit: "min", Source: SourceWorkout,
		Field: "score.zone_durations.zone_four_milli", Convert: MillisToMinutes, Precision: 2},
	{Name: "zone_five", Label: "Zone 5 Duration", Unit: "min", Source: SourceWorkout,
		Field: "score.zone_durations.zone_five_milli", Convert: MillisToMinutes, Precision: 2},

	// Cycle
	{Name: "day_strain", Label: "Day Strain", Source: SourceCycle,
		Field: "score.strain", Precision: 2,
		Description: "Strain accumulated over the whole physiological day."},
}

// headline is the order of the period comparison board.
var headline = []string{
	"sleep_efficiency", "time_in_bed", "sleep_consistency", "sleep_performance", "respiratory_rate",
	"recovery_score", "hrv_rmssd_milli", "rhr", "spo2", "skin_temp",
}

var index = mustIndex(catalog)

func mustIndex(defs []Definition) map[string]int {
	idx := make(map[string]int, len(defs))
	for i, d := range defs {
		if _, dup := idx[d.Name]; dup {
			panic("metrics: duplicate metric " + d.Name)
		}
		idx[d.Name] = i
	}
	return idx
}

// Lookup returns the definition for name.
func Lookup(name string) (Definition, error) {
	i, ok := index[name]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q", ErrUnknownMetric, name)
	}
	return catalog[i], nil
}

// Catalog returns every definition in catalog order.
func Catalog() []Definition {
	out := make([]Definition, len(catalog))
	copy(out, catalog)
	return out
}

// BySource returns the definitions sourced from src, in catalog order.
func BySource(src Source) []Definition {
	var out []Definition
	for _, d := range catalog {
		if d.Source == src {
			out = append(out, d)
		}
	}
	return out
}

// Headline returns the metric names shown on the comparison board.
func Headline() []string {
	out := make([]string, len(headline))
	copy(out, headline)
	return out
}
