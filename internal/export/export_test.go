package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/j-veylop/whoop-dashboard-tui/internal/metrics"
	"github.com/j-veylop/whoop-dashboard-tui/internal/models"
)

func f(v float64) *float64 { return &v }

func sampleTable() *metrics.Table {
	return metrics.SleepTable([]models.Sleep{
		{
			ID:  "s1",
			End: time.Date(2024, 1, 2, 7, 0, 0, 0, time.UTC),
			Score: &models.SleepScore{
				SleepEfficiencyPercentage: f(88.5),
			},
		},
		{ID: "s2", End: time.Date(2024, 1, 3, 7, 0, 0, 0, time.UTC)},
	})
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"csv", CSV, false},
		{"JSON", JSON, false},
		{".yml", YAML, false},
		{"yaml", YAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
			}
		})
	}
}

func TestWriteTable_CSV(t *testing.T) {
	var buf bytes.Buffer
	tbl := sampleTable()
	if err := WriteTable(&buf, tbl, CSV); err != nil {
		t.Fatalf("WriteTable() error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(records))
	}
	if len(records[0]) != len(tbl.Columns) || records[0][0] != "id" {
		t.Errorf("header = %v", records[0])
	}

	effIdx := -1
	for i, name := range records[0] {
		if name == "score.sleep_efficiency_percentage" {
			effIdx = i
		}
	}
	if effIdx < 0 {
		t.Fatal("efficiency column missing")
	}
	if records[1][effIdx] != "88.5" || records[2][effIdx] != "" {
		t.Errorf("efficiency cells = %q, %q", records[1][effIdx], records[2][effIdx])
	}
}

func TestWriteTable_JSONKeepsColumnOrder(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTable(&buf, sampleTable(), JSON); err != nil {
		t.Fatalf("WriteTable() error = %v", err)
	}

	var rows []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rows); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(rows) != 2 || rows[0]["id"] != "s1" || rows[0]["score.sleep_efficiency_percentage"] != 88.5 {
		t.Errorf("rows = %v", rows)
	}
	if rows[1]["score.sleep_efficiency_percentage"] != nil {
		t.Errorf("absent value = %v, want null", rows[1]["score.sleep_efficiency_percentage"])
	}
	if rows[0]["end"] != "2024-01-02T07:00:00Z" {
		t.Errorf("end = %v", rows[0]["end"])
	}

	out := buf.String()
	if strings.Index(out, `"id"`) > strings.Index(out, `"cycle_id"`) {
		t.Error("columns not written in table order")
	}
}

func TestWriteTable_YAML(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTable(&buf, sampleTable(), YAML); err != nil {
		t.Fatalf("WriteTable() error = %v", err)
	}

	var rows []map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &rows); err != nil {
		t.Fatalf("output is not YAML: %v", err)
	}
	if len(rows) != 2 || rows[0]["id"] != "s1" || rows[0]["nap"] != false {
		t.Errorf("rows = %v", rows)
	}
	if !strings.HasPrefix(buf.String(), "- id: s1") {
		t.Errorf("first line = %q", strings.SplitN(buf.String(), "\n", 2)[0])
	}
}

func TestWriteResults(t *testing.T) {
	results := []metrics.PeriodResult{
		{Metric: "recovery_score", Current: 60, Comparison: 50, DeltaPercent: 20},
		{Metric: "day_strain", Current: 10, Comparison: 0, DeltaPercent: math.Inf(1)},
	}

	var csvBuf bytes.Buffer
	if err := WriteResults(&csvBuf, results, CSV); err != nil {
		t.Fatalf("WriteResults(CSV) error = %v", err)
	}
	if !strings.Contains(csvBuf.String(), "day_strain") || !strings.Contains(csvBuf.String(), "+Inf") {
		t.Errorf("CSV = %q", csvBuf.String())
	}

	var jsonBuf bytes.Buffer
	if err := WriteResults(&jsonBuf, results, JSON); err != nil {
		t.Fatalf("WriteResults(JSON) error = %v", err)
	}
	var rows []map[string]any
	if err := json.Unmarshal(jsonBuf.Bytes(), &rows); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if rows[0]["delta_percent"] != 20.0 || rows[1]["delta_percent"] != nil {
		t.Errorf("deltas = %v, %v", rows[0]["delta_percent"], rows[1]["delta_percent"])
	}
	if rows[0]["label"] == "" {
		t.Error("label missing")
	}
}

func TestWriteTable_UnsupportedFormat(t *testing.T) {
	if err := WriteTable(&bytes.Buffer{}, sampleTable(), Format("xml")); err == nil {
		t.Error("WriteTable(xml) error = nil")
	}
}

func TestSaveTable(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	now := time.Date(2024, 3, 1, 8, 15, 0, 0, time.UTC)

	path, err := SaveTable(dir, sampleTable(), CSV, now)
	if err != nil {
		t.Fatalf("SaveTable() error = %v", err)
	}
	if filepath.Base(path) != "whoop_sleep_20240301-081500.csv" {
		t.Errorf("path = %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.HasPrefix(string(data), "id,cycle_id,") {
		t.Errorf("content = %q", string(data))
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
}

func TestSaveResults(t *testing.T) {
	path, err := SaveResults(t.TempDir(), []metrics.PeriodResult{{Metric: "rhr", Current: 50, Comparison: 55}}, YAML, time.Now())
	if err != nil {
		t.Fatalf("SaveResults() error = %v", err)
	}
	if !strings.HasSuffix(path, ".yaml") || !strings.Contains(path, "whoop_metrics_") {
		t.Errorf("path = %q", path)
	}
}
