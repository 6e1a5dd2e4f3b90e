package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/j-veylop/whoop-dashboard-tui/internal/models"
)

// Source names the record collection a table was built from.
type Source string

// Record collections.
const (
	SourceRecovery Source = "recovery"
	SourceSleep    Source = "sleep"
	SourceWorkout  Source = "workout"
	SourceCycle    Source = "cycle"
)

// Sources lists every collection in a stable order.
var Sources = []Source{SourceRecovery, SourceSleep, SourceWorkout, SourceCycle}

// defaultTimeField is the column windows are applied to. Sleeps use "end"
// because a night often starts on the previous calendar day.
func (s Source) defaultTimeField() string {
	switch s {
	case SourceSleep:
		return "end"
	case SourceRecovery:
		return "created_at"
	default:
		return "start"
	}
}

// ColumnKind is the type of values a column holds.
type ColumnKind int

const (
	// ColumnNumber holds float64 values and takes part in aggregation.
	ColumnNumber ColumnKind = iota
	// ColumnTime holds timestamps.
	ColumnTime
	// ColumnText holds strings.
	ColumnText
	// ColumnBool holds booleans.
	ColumnBool
)

// Column describes one flattened record field, e.g. "score.recovery_score".
type Column struct {
	Name string
	Kind ColumnKind
}

// Row is one record. Absent values (unscored records, optional fields) are
// missing from the row rather than zero.
type Row struct {
	times map[string]time.Time
	nums  map[string]float64
	texts map[string]string
	bools map[string]bool
}

// Time returns a timestamp field.
func (r Row) Time(field string) (time.Time, bool) {
	t, ok := r.times[field]
	return t, ok
}

// Num returns a numeric field.
func (r Row) Num(field string) (float64, bool) {
	v, ok := r.nums[field]
	return v, ok
}

// Text returns a string field.
func (r Row) Text(field string) (string, bool) {
	v, ok := r.texts[field]
	return v, ok
}

// Bool returns a boolean field.
func (r Row) Bool(field string) (value, ok bool) {
	value, ok = r.bools[field]
	return value, ok
}

// Value returns the field as its natural Go type, or nil when absent.
func (r Row) Value(c Column) any {
	switch c.Kind {
	case ColumnNumber:
		if v, ok := r.nums[c.Name]; ok {
			return v
		}
	case ColumnTime:
		if v, ok := r.times[c.Name]; ok {
			return v
		}
	case ColumnText:
		if v, ok := r.texts[c.Name]; ok {
			return v
		}
	case ColumnBool:
		if v, ok := r.bools[c.Name]; ok {
			return v
		}
	}
	return nil
}

// Format renders the field for tabular output. Absent values render empty.
func (r Row) Format(c Column) string {
	switch v := r.Value(c).(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case time.Time:
		return v.Format(time.RFC3339)
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// Table is a record collection flattened into named columns.
type Table struct {
	Source    Source
	TimeField string
	Columns   []Column
	Rows      []Row
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Column looks up a column by name.
func (t *Table) Column(name string) (Column, bool) {
	if t == nil {
		return Column{}, false
	}
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// NumericColumns returns the names of number columns in table order.
func (t *Table) NumericColumns() []string {
	if t == nil {
		return nil
	}
	var out []string
	for _, c := range t.Columns {
		if c.Kind == ColumnNumber {
			out = append(out, c.Name)
		}
	}
	return out
}

// Filter returns the rows whose timeField lies in w. An empty timeField
// uses the table's default.
func (t *Table) Filter(w Window, timeField string) []Row {
	if t == nil {
		return nil
	}
	if timeField == "" {
		timeField = t.TimeField
	}
	var out []Row
	for _, r := range t.Rows {
		if ts, ok := r.times[timeField]; ok && w.Contains(ts) {
			out = append(out, r)
		}
	}
	return out
}

// field extracts one column from a typed record.
type field[T any] struct {
	col  Column
	fill func(T, *Row)
}

func timeCol[T any](name string, fn func(T) (time.Time, bool)) field[T] {
	return field[T]{Column{name, ColumnTime}, func(rec T, r *Row) {
		if v, ok := fn(rec); ok {
			r.times[name] = v
		}
	}}
}

func numCol[T any](name string, fn func(T) (float64, bool)) field[T] {
	return field[T]{Column{name, ColumnNumber}, func(rec T, r *Row) {
		if v, ok := fn(rec); ok {
			r.nums[name] = v
		}
	}}
}

func textCol[T any](name string, fn func(T) string) field[T] {
	return field[T]{Column{name, ColumnText}, func(rec T, r *Row) {
		if v := fn(rec); v != "" {
			r.texts[name] = v
		}
	}}
}

func boolCol[T any](name string, fn func(T) (bool, bool)) field[T] {
	return field[T]{Column{name, ColumnBool}, func(rec T, r *Row) {
		if v, ok := fn(rec); ok {
			r.bools[name] = v
		}
	}}
}

func buildTable[T any](src Source, fields []field[T], records []T, offset func(T) string) *Table {
	t := &Table{
		Source:    src,
		TimeField: src.defaultTimeField(),
		Columns:   make([]Column, len(fields)),
		Rows:      make([]Row, 0, len(records)),
	}
	for i, f := range fields {
		t.Columns[i] = f.col
	}

	for _, rec := range records {
		r := Row{
			times: make(map[string]time.Time),
			nums:  make(map[string]float64),
			texts: make(map[string]string),
			bools: make(map[string]bool),
		}
		for _, f := range fields {
			f.fill(rec, &r)
		}
		// Timestamps are shown in the wearer's local offset so calendar
		// grouping follows their day, not UTC.
		if loc := parseOffset(offset(rec)); loc != nil {
			for k, v := range r.times {
				r.times[k] = v.In(loc)
			}
		}
		t.Rows = append(t.Rows, r)
	}
	return t
}

// parseOffset turns "+02:00", "-0500" or "Z" into a fixed zone.
func parseOffset(s string) *time.Location {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if s == "Z" {
		return time.UTC
	}
	t, err := time.Parse("-07:00", s)
	if err != nil {
		if t, err = time.Parse("-0700", s); err != nil {
			return nil
		}
	}
	_, secs := t.Zone()
	return time.FixedZone(s, secs)
}

func present(t time.Time) (time.Time, bool) { return t, !t.IsZero() }

func ptr(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

func ms(v int64) float64 { return float64(v) }

// RecoveryTable flattens recovery records. Recoveries carry no offset of
// their own, so each takes the timezone_offset of its cycle when present.
func RecoveryTable(records []models.Recovery, cycles []models.Cycle) *Table {
	offsets := make(map[int64]string, len(cycles))
	for _, c := range cycles {
		offsets[c.ID] = c.TimezoneOffset
	}
	scored := func(fn func(*models.RecoveryScore) (float64, bool)) func(models.Recovery) (float64, bool) {
		return func(r models.Recovery) (float64, bool) {
			if r.Score == nil {
				return 0, false
			}
			return fn(r.Score)
		}
	}
	fields := []field[models.Recovery]{
		numCol("cycle_id", func(r models.Recovery) (float64, bool) { return float64(r.CycleID), true }),
		textCol("sleep_id", func(r models.Recovery) string { return r.SleepID }),
		numCol("user_id", func(r models.Recovery) (float64, bool) { return float64(r.UserID), true }),
		timeCol("created_at", func(r models.Recovery) (time.Time, bool) { return present(r.CreatedAt) }),
		timeCol("updated_at", func(r models.Recovery) (time.Time, bool) { return present(r.UpdatedAt) }),
		textCol("score_state", func(r models.Recovery) string { return string(r.ScoreState) }),
		boolCol("score.user_calibrating", func(r models.Recovery) (bool, bool) {
			if r.Score == nil {
				return false, false
			}
			return r.Score.UserCalibrating, true
		}),
		numCol("score.recovery_score", scored(func(s *models.RecoveryScore) (float64, bool) { return s.RecoveryScore, true })),
		numCol("score.resting_heart_rate", scored(func(s *models.RecoveryScore) (float64, bool) { return s.RestingHeartRate, true })),
		numCol("score.hrv_rmssd_milli", scored(func(s *models.RecoveryScore) (float64, bool) { return s.HRVRmssdMilli, true })),
		numCol("score.spo2_percentage", scored(func(s *models.RecoveryScore) (float64, bool) { return ptr(s.SpO2Percentage) })),
		numCol("score.skin_temp_celsius", scored(func(s *models.RecoveryScore) (float64, bool) { return ptr(s.SkinTempCelsius) })),
	}
	return buildTable(SourceRecovery, fields, records, func(r models.Recovery) string { return offsets[r.CycleID] })
}

// SleepTable flattens sleep records. Naps are kept; callers filter them.
func SleepTable(records []models.Sleep) *Table {
	scored := func(fn func(*models.SleepScore) (float64, bool)) func(models.Sleep) (float64, bool) {
		return func(s models.Sleep) (float64, bool) {
			if s.Score == nil {
				return 0, false
			}
			return fn(s.Score)
		}
	}
	stage := func(fn func(models.SleepStages) float64) func(models.Sleep) (float64, bool) {
		return scored(func(s *models.SleepScore) (float64, bool) { return fn(s.StageSummary), true })
	}
	need := func(fn func(models.SleepNeeded) float64) func(models.Sleep) (float64, bool) {
		return scored(func(s *models.SleepScore) (float64, bool) { return fn(s.SleepNeeded), true })
	}
	fields := []field[models.Sleep]{
		textCol("id", func(s models.Sleep) string { return s.ID }),
		numCol("cycle_id", func(s models.Sleep) (float64, bool) { return float64(s.CycleID), true }),
		numCol("user_id", func(s models.Sleep) (float64, bool) { return float64(s.UserID), true }),
		timeCol("created_at", func(s models.Sleep) (time.Time, bool) { return present(s.CreatedAt) }),
		timeCol("updated_at", func(s models.Sleep) (time.Time, bool) { return present(s.UpdatedAt) }),
		timeCol("start", func(s models.Sleep) (time.Time, bool) { return present(s.Start) }),
		timeCol("end", func(s models.Sleep) (time.Time, bool) { return present(s.End) }),
		textCol("timezone_offset", func(s models.Sleep) string { return s.TimezoneOffset }),
		boolCol("nap", func(s models.Sleep) (bool, bool) { return s.Nap, true }),
		textCol("score_state", func(s models.Sleep) string { return string(s.ScoreState) }),
		numCol("score.stage_summary.total_in_bed_time_milli", stage(func(st models.SleepStages) float64 { return ms(st.TotalInBedTimeMilli) })),
		numCol("score.stage_summary.total_awake_time_milli", stage(func(st models.SleepStages) float64 { return ms(st.TotalAwakeTimeMilli) })),
		numCol("score.stage_summary.total_no_data_time_milli", stage(func(st models.SleepStages) float64 { return ms(st.TotalNoDataTimeMilli) })),
		numCol("score.stage_summary.total_light_sleep_time_milli", stage(func(st models.SleepStages) float64 { return ms(st.TotalLightSleepTimeMilli) })),
		numCol("score.stage_summary.total_slow_wave_sleep_time_milli", stage(func(st models.SleepStages) float64 { return ms(st.TotalSlowWaveSleepTimeMilli) })),
		numCol("score.stage_summary.total_rem_sleep_time_milli", stage(func(st models.SleepStages) float64 { return ms(st.TotalREMSleepTimeMilli) })),
		numCol("score.stage_summary.total_sleep_time_milli", stage(func(st models.SleepStages) float64 {
			return ms(st.TotalInBedTimeMilli - st.TotalAwakeTimeMilli)
		})),
		numCol("score.stage_summary.sleep_cycle_count", stage(func(st models.SleepStages) float64 { return float64(st.SleepCycleCount) })),
		numCol("score.stage_summary.disturbance_count", stage(func(st models.SleepStages) float64 { return float64(st.DisturbanceCount) })),
		numCol("score.sleep_needed.baseline_milli", need(func(n models.SleepNeeded) float64 { return ms(n.BaselineMilli) })),
		numCol("score.sleep_needed.need_from_sleep_debt_milli", need(func(n models.SleepNeeded) float64 { return ms(n.NeedFromSleepDebtMilli) })),
		numCol("score.sleep_needed.need_from_recent_strain_milli", need(func(n models.SleepNeeded) float64 { return ms(n.NeedFromRecentStrainMilli) })),
		numCol("score.sleep_needed.need_from_recent_nap_milli", need(func(n models.SleepNeeded) float64 { return ms(n.NeedFromRecentNapMilli) })),
		numCol("score.respiratory_rate", scored(func(s *models.SleepScore) (float64, bool) { return ptr(s.RespiratoryRate) })),
		numCol("score.sleep_performance_percentage", scored(func(s *models.SleepScore) (float64, bool) { return ptr(s.SleepPerformancePercentage) })),
		numCol("score.sleep_consistency_percentage", scored(func(s *models.SleepScore) (float64, bool) { return ptr(s.SleepConsistencyPercentage) })),
		numCol("score.sleep_efficiency_percentage", scored(func(s *models.SleepScore) (float64, bool) { return ptr(s.SleepEfficiencyPercentage) })),
	}
	return buildTable(SourceSleep, fields, records, func(s models.Sleep) string { return s.TimezoneOffset })
}

// WorkoutTable flattens workout records.
func WorkoutTable(records []models.Workout) *Table {
	scored := func(fn func(*models.WorkoutScore) (float64, bool)) func(models.Workout) (float64, bool) {
		return func(w models.Workout) (float64, bool) {
			if w.Score == nil {
				return 0, false
			}
			return fn(w.Score)
		}
	}
	zone := func(fn func(models.WorkoutZones) int64) func(models.Workout) (float64, bool) {
		return scored(func(s *models.WorkoutScore) (float64, bool) { return ms(fn(s.ZoneDurations)), true })
	}
	fields := []field[models.Workout]{
		textCol("id", func(w models.Workout) string { return w.ID }),
		numCol("user_id", func(w models.Workout) (float64, bool) { return float64(w.UserID), true }),
		timeCol("created_at", func(w models.Workout) (time.Time, bool) { return present(w.CreatedAt) }),
		timeCol("updated_at", func(w models.Workout) (time.Time, bool) { return present(w.UpdatedAt) }),
		timeCol("start", func(w models.Workout) (time.Time, bool) { return present(w.Start) }),
		timeCol("end", func(w models.Workout) (time.Time, bool) { return present(w.End) }),
		textCol("timezone_offset", func(w models.Workout) string { return w.TimezoneOffset }),
		textCol("sport_name", func(w models.Workout) string { return w.SportName }),
		numCol("sport_id", func(w models.Workout) (float64, bool) {
			if w.SportID == nil {
				return 0, false
			}
			return float64(*w.SportID), true
		}),
		textCol("score_state", func(w models.Workout) string { return string(w.ScoreState) }),
		numCol("score.strain", scored(func(s *models.WorkoutScore) (float64, bool) { return s.Strain, true })),
		numCol("score.average_heart_rate", scored(func(s *models.WorkoutScore) (float64, bool) { return float64(s.AverageHeartRate), true })),
		numCol("score.max_heart_rate", scored(func(s *models.WorkoutScore) (float64, bool) { return float64(s.MaxHeartRate), true })),
		numCol("score.kilojoule", scored(func(s *models.WorkoutScore) (float64, bool) { return s.Kilojoule, true })),
		numCol("score.percent_recorded", scored(func(s *models.WorkoutScore) (float64, bool) { return s.PercentRecorded, true })),
		numCol("score.distance_meter", scored(func(s *models.WorkoutScore) (float64, bool) { return ptr(s.DistanceMeter) })),
		numCol("score.altitude_gain_meter", scored(func(s *models.WorkoutScore) (float64, bool) { return ptr(s.AltitudeGainMeter) })),
		numCol("score.altitude_change_meter", scored(func(s *models.WorkoutScore) (float64, bool) { return ptr(s.AltitudeChangeMeter) })),
		numCol("score.zone_durations.zone_zero_milli", zone(func(z models.WorkoutZones) int64 { return z.ZoneZeroMilli })),
		numCol("score.zone_durations.zone_one_milli", zone(func(z models.WorkoutZones) int64 { return z.ZoneOneMilli })),
		numCol("score.zone_durations.zone_two_milli", zone(func(z models.WorkoutZones) int64 { return z.ZoneTwoMilli })),
		numCol("score.zone_durations.zone_three_milli", zone(func(z models.WorkoutZones) int64 { return z.ZoneThreeMilli })),
		numCol("score.zone_durations.zone_four_milli", zone(func(z models.WorkoutZones) int64 { return z.ZoneFourMilli })),
		numCol("score.zone_durations.zone_five_milli", zone(func(z models.WorkoutZones) int64 { return z.ZoneFiveMilli })),
	}
	return buildTable(SourceWorkout, fields, records, func(w models.Workout) string { return w.TimezoneOffset })
}

// CycleTable flattens cycle records.
func CycleTable(records []models.Cycle) *Table {
	scored := func(fn func(*models.CycleScore) float64) func(models.Cycle) (float64, bool) {
		return func(c models.Cycle) (float64, bool) {
			if c.Score == nil {
				return 0, false
			}
			return fn(c.Score), true
		}
	}
	fields := []field[models.Cycle]{
		numCol("id", func(c models.Cycle) (float64, bool) { return float64(c.ID), true }),
		numCol("user_id", func(c models.Cycle) (float64, bool) { return float64(c.UserID), true }),
		timeCol("created_at", func(c models.Cycle) (time.Time, bool) { return present(c.CreatedAt) }),
		timeCol("updated_at", func(c models.Cycle) (time.Time, bool) { return present(c.UpdatedAt) }),
		timeCol("start", func(c models.Cycle) (time.Time, bool) { return present(c.Start) }),
		timeCol("end", func(c models.Cycle) (time.Time, bool) {
			if c.End == nil {
				return time.Time{}, false
			}
			return *c.End, true
		}),
		textCol("timezone_offset", func(c models.Cycle) string { return c.TimezoneOffset }),
		textCol("score_state", func(c models.Cycle) string { return string(c.ScoreState) }),
		numCol("score.strain", scored(func(s *models.CycleScore) float64 { return s.Strain })),
		numCol("score.kilojoule", scored(func(s *models.CycleScore) float64 { return s.Kilojoule })),
		numCol("score.average_heart_rate", scored(func(s *models.CycleScore) float64 { return float64(s.AverageHeartRate) })),
		numCol("score.max_heart_rate", scored(func(s *models.CycleScore) float64 { return float64(s.MaxHeartRate) })),
	}
	return buildTable(SourceCycle, fields, records, func(c models.Cycle) string { return c.TimezoneOffset })
}
