package metrics

import (
	"math"
	"testing"
)

func TestCatalog_NamesAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, d := range Catalog() {
		if seen[d.Name] {
			t.Errorf("duplicate metric %q", d.Name)
		}
		seen[d.Name] = true
		if d.Field == "" || d.Source == "" || d.Label == "" {
			t.Errorf("metric %q is incomplete: %+v", d.Name, d)
		}
	}
}

func TestCatalog_FieldsExistInTables(t *testing.T) {
	tables := map[Source]*Table{
		SourceRecovery: RecoveryTable(nil, nil),
		SourceSleep:    SleepTable(nil),
		SourceWorkout:  WorkoutTable(nil),
		SourceCycle:    CycleTable(nil),
	}
	for _, d := range Catalog() {
		tbl := tables[d.Source]
		col, ok := tbl.Column(d.Field)
		if !ok {
			t.Errorf("metric %q: column %q missing from %s table", d.Name, d.Field, d.Source)
			continue
		}
		if col.Kind != ColumnNumber {
			t.Errorf("metric %q: column %q is not numeric", d.Name, d.Field)
		}
		if tc, ok := tbl.Column(d.timeField()); !ok || tc.Kind != ColumnTime {
			t.Errorf("metric %q: window column %q is not a time column", d.Name, d.timeField())
		}
	}
}

func TestHeadline(t *testing.T) {
	want := []string{
		"sleep_efficiency", "time_in_bed", "sleep_consistency", "sleep_performance", "respiratory_rate",
		"recovery_score", "hrv_rmssd_milli", "rhr", "spo2", "skin_temp",
	}
	got := Headline()
	if len(got) != len(want) {
		t.Fatalf("Headline() has %d names, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Headline()[%d] = %q, want %q", i, got[i], want[i])
		}
		if _, err := Lookup(got[i]); err != nil {
			t.Errorf("headline metric %q not in catalog", got[i])
		}
	}

	got[0] = "mutated"
	if Headline()[0] != "sleep_efficiency" {
		t.Error("Headline() should return a copy")
	}
}

func TestBySource(t *testing.T) {
	for _, src := range Sources {
		for _, d := range BySource(src) {
			if d.Source != src {
				t.Errorf("BySource(%s) returned %q from %s", src, d.Name, d.Source)
			}
		}
	}
	if len(BySource(SourceRecovery)) != 5 {
		t.Errorf("BySource(recovery) = %d metrics, want 5", len(BySource(SourceRecovery)))
	}
}

func TestConversions(t *testing.T) {
	tests := []struct {
		name string
		fn   func(float64) float64
		in   float64
		want float64
	}{
		{"MillisToHours", MillisToHours, 5_400_000, 1.5},
		{"MillisToMinutes", MillisToMinutes, 90_000, 1.5},
		{"KilojouleToKcal", KilojouleToKcal, 418.4, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.in); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("%s(%v) = %v, want %v", tt.name, tt.in, got, tt.want)
			}
		})
	}
}

func TestDefinition_Format(t *testing.T) {
	rhr, _ := Lookup("rhr")
	if got := rhr.Format(52.456); got != "52.46 bpm" {
		t.Errorf("Format() = %q", got)
	}
	if got := rhr.Format(math.NaN()); got != "n/a" {
		t.Errorf("Format(NaN) = %q, want n/a", got)
	}
	cycles, _ := Lookup("sleep_cycles")
	if got := cycles.Format(4); got != "4.00" {
		t.Errorf("Format() without unit = %q", got)
	}
}

func TestMean(t *testing.T) {
	if !math.IsNaN(Mean(nil)) {
		t.Error("Mean(nil) should be NaN")
	}
	if got := Mean([]float64{1, 2, 3, 100}); got != 26.5 {
		t.Errorf("Mean() = %v, want 26.5 (no outlier handling)", got)
	}
}
