package metrics

import (
	"testing"
	"time"

	"github.com/j-veylop/whoop-dashboard-tui/internal/models"
)

func TestParseOffset(t *testing.T) {
	tests := []struct {
		in       string
		wantSecs int
		wantNil  bool
	}{
		{"+02:00", 7200, false},
		{"-05:00", -18000, false},
		{"-0330", -12600, false},
		{"Z", 0, false},
		{"", 0, true},
		{"garbage", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			loc := parseOffset(tt.in)
			if tt.wantNil {
				if loc != nil {
					t.Errorf("parseOffset(%q) = %v, want nil", tt.in, loc)
				}
				return
			}
			if loc == nil {
				t.Fatalf("parseOffset(%q) = nil", tt.in)
			}
			_, secs := time.Date(2024, 1, 1, 0, 0, 0, 0, loc).Zone()
			if secs != tt.wantSecs {
				t.Errorf("offset = %d, want %d", secs, tt.wantSecs)
			}
		})
	}
}

func TestSleepTable_LocalTimesAndAbsentValues(t *testing.T) {
	end := time.Date(2024, 1, 6, 2, 0, 0, 0, time.UTC)
	tbl := SleepTable([]models.Sleep{
		{ID: "a", End: end, TimezoneOffset: "-05:00", ScoreState: models.ScoreStatePending},
	})

	if tbl.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", tbl.Len())
	}
	row := tbl.Rows[0]

	ts, ok := row.Time("end")
	if !ok {
		t.Fatal("end missing")
	}
	// 02:00 UTC on Saturday is Friday evening at -05:00.
	if ts.Day() != 5 || ClassifyDay(ts) != Weekday {
		t.Errorf("local end = %v, want Friday Jan 5", ts)
	}
	if _, ok := row.Num("score.sleep_efficiency_percentage"); ok {
		t.Error("unscored sleep should have no efficiency value")
	}

	col, _ := tbl.Column("score.sleep_efficiency_percentage")
	if got := row.Format(col); got != "" {
		t.Errorf("Format(absent) = %q, want empty", got)
	}
	idCol, _ := tbl.Column("id")
	if got := row.Format(idCol); got != "a" {
		t.Errorf("Format(id) = %q, want a", got)
	}
}

func TestRecoveryTable_CycleOffset(t *testing.T) {
	// 03:00 UTC on Saturday is still Friday evening at -05:00.
	created := time.Date(2024, 1, 6, 3, 0, 0, 0, time.UTC)
	tbl := RecoveryTable(
		[]models.Recovery{
			{CycleID: 7, CreatedAt: created},
			{CycleID: 8, CreatedAt: created},
		},
		[]models.Cycle{{ID: 7, TimezoneOffset: "-05:00"}},
	)

	tests := []struct {
		name    string
		row     int
		wantDay time.Weekday
		wantTyp DayType
	}{
		{"offset from cycle", 0, time.Friday, Weekday},
		{"no matching cycle", 1, time.Saturday, Weekend},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, ok := tbl.Rows[tt.row].Time("created_at")
			if !ok {
				t.Fatal("created_at missing")
			}
			if ts.Weekday() != tt.wantDay {
				t.Errorf("local created_at = %v, want a %v", ts, tt.wantDay)
			}
			if got := ClassifyDay(ts); got != tt.wantTyp {
				t.Errorf("ClassifyDay() = %v, want %v", got, tt.wantTyp)
			}
			if !ts.Equal(created) {
				t.Errorf("instant changed: %v != %v", ts, created)
			}
		})
	}
}

func TestTable_Filter(t *testing.T) {
	tbl := RecoveryTable([]models.Recovery{
		recovery(1, "2024-01-01", 10),
		recovery(2, "2024-01-05", 20),
		recovery(3, "2024-01-09", 30),
	}, nil)

	rows := tbl.Filter(mustWindow(t, "2024-01-01", "2024-01-05"), "")
	if len(rows) != 2 {
		t.Errorf("Filter() = %d rows, want 2", len(rows))
	}
	if rows := tbl.Filter(mustWindow(t, "2024-01-01", "2024-01-09"), "missing"); len(rows) != 0 {
		t.Errorf("Filter() on absent column = %d rows, want 0", len(rows))
	}

	var nilTable *Table
	if nilTable.Len() != 0 || nilTable.Filter(Window{}, "") != nil {
		t.Error("nil table should behave as empty")
	}
}
