package components

import (
	"math"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/whoop-dashboard-tui/internal/metrics"
)

func TestNewSpinner(t *testing.T) {
	s := NewSpinner("Loading")
	if s.label != "Loading" {
		t.Error("Spinner label mismatch")
	}
}

func TestSpinner_Methods(t *testing.T) {
	s := NewSpinner("Init")

	s.SetLabel("Loading 60 days")
	if s.Label() != "Loading 60 days" {
		t.Errorf("Label = %s, want Loading 60 days", s.Label())
	}

	if s.View() == "" {
		t.Error("View returned empty")
	}
	if !strings.Contains(s.ViewWithLabel(), "Loading 60 days") {
		t.Error("ViewWithLabel should contain the label")
	}

	s.SetLabel("")
	if s.ViewWithLabel() != s.View() {
		t.Error("ViewWithLabel without label should equal View")
	}

	// A tick with the spinner's own ID schedules the next one
	msg := s.spinner.Tick()
	if _, cmd := s.Update(msg); cmd == nil {
		t.Error("Update should return command for tick")
	}

	if s.Tick() == nil {
		t.Error("Tick should return command")
	}
}

func TestRenderSpinnerCentered(t *testing.T) {
	s := NewSpinner("Loading...")
	view := RenderSpinnerCentered(s, 20, 5)
	if lipgloss.Height(view) != 5 {
		t.Errorf("height = %d, want 5", lipgloss.Height(view))
	}
}

func TestRenderLineChart(t *testing.T) {
	if s := RenderLineChart([]float64{1, 2, 3, 4}, 20, 5, "Test"); !strings.Contains(s, "Test") {
		t.Error("RenderLineChart should include the caption")
	}
	if s := RenderLineChart([]float64{math.NaN()}, 20, 5, "Test"); !strings.Contains(s, "No data") {
		t.Error("RenderLineChart of NaN only should report no data")
	}
}

func TestRenderDualLineChart(t *testing.T) {
	s := RenderDualLineChart([]float64{1, 2, 3}, []float64{3, 2}, 20, 5, "Title")
	if s == "" || strings.Contains(s, "No data") {
		t.Error("RenderDualLineChart should plot")
	}
	if s := RenderDualLineChart(nil, nil, 20, 5, "Title"); !strings.Contains(s, "No data") {
		t.Error("RenderDualLineChart with no data should say so")
	}
}

func TestRenderBarChart(t *testing.T) {
	s := RenderBarChart([]float64{10, 20, math.NaN()}, []string{"A", "Bee", "C"}, 30)
	lines := strings.Split(s, "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if !strings.HasPrefix(lines[0], "  A │") {
		t.Errorf("labels should be right aligned, got %q", lines[0])
	}
	if !strings.Contains(lines[1], "20.0") {
		t.Errorf("value missing from %q", lines[1])
	}
	if !strings.Contains(lines[2], "n/a") {
		t.Errorf("NaN should render as n/a, got %q", lines[2])
	}
	if RenderBarChart(nil, nil, 20) != "" {
		t.Error("RenderBarChart(nil) should be empty")
	}
}

func TestRenderCorrelationHeatmap(t *testing.T) {
	m := metrics.CorrelationMatrix{
		Columns: []string{"a", "b", "c"},
		Values: [][]float64{
			{1, 0.9, -0.2},
			{0.9, 1, math.NaN()},
			{-0.2, math.NaN(), 1},
		},
	}
	s := RenderCorrelationHeatmap(m, 6)
	lines := strings.Split(s, "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if !strings.Contains(lines[1], "█") {
		t.Errorf("0.9 should render as a full block: %q", lines[1])
	}
	if !strings.Contains(lines[2], "·") {
		t.Errorf("NaN should render as a dot: %q", lines[2])
	}

	one := metrics.CorrelationMatrix{Columns: []string{"a"}, Values: [][]float64{{1}}}
	if !strings.Contains(RenderCorrelationHeatmap(one, 6), "Not enough") {
		t.Error("single column should not render a matrix")
	}
}

func TestRenderSparkline(t *testing.T) {
	s := RenderSparkline([]float64{1, 2, 3}, 10)
	if s != "▁▄█" {
		t.Errorf("RenderSparkline = %q, want ▁▄█", s)
	}
	if got := []rune(RenderSparkline([]float64{1, 2, 3, 4, 5}, 2)); len(got) != 2 {
		t.Errorf("RenderSparkline should keep the last 2 values, got %d", len(got))
	}
	if RenderSparkline(nil, 10) != "" {
		t.Error("RenderSparkline(nil) should be empty")
	}
}

func TestRenderLegend(t *testing.T) {
	items := []LegendItem{
		{Label: "Recovery", Color: ChartRecoveryColor},
		{Label: "Strain", Color: ChartStrainColor},
	}
	s := RenderLegend(items)
	if !strings.Contains(s, "Recovery") || !strings.Contains(s, "Strain") {
		t.Errorf("RenderLegend = %q", s)
	}
}

func TestDeltaText(t *testing.T) {
	tests := []struct {
		delta float64
		want  string
	}{
		{12.5, "+12.50%"},
		{-3, "-3.00%"},
		{0, "+0.00%"},
		{math.NaN(), "n/a"},
		{math.Inf(1), "+inf (zero baseline)"},
		{math.Inf(-1), "-inf (zero baseline)"},
	}
	for _, tt := range tests {
		if got := DeltaText(tt.delta); got != tt.want {
			t.Errorf("DeltaText(%v) = %q, want %q", tt.delta, got, tt.want)
		}
	}
}

func TestRenderDelta(t *testing.T) {
	tests := []struct {
		name string
		r    metrics.PeriodResult
		want string
	}{
		{"up", metrics.PeriodResult{DeltaPercent: 5}, "▲ +5.00%"},
		{"down", metrics.PeriodResult{DeltaPercent: -5}, "▼ -5.00%"},
		{"lower is better", metrics.PeriodResult{DeltaPercent: -5, LowerIsBetter: true}, "▼ -5.00%"},
		{"flat", metrics.PeriodResult{DeltaPercent: 0}, "= +0.00%"},
		{"zero baseline", metrics.PeriodResult{DeltaPercent: math.Inf(1)}, "+inf"},
		{"empty window", metrics.PeriodResult{DeltaPercent: math.NaN()}, "n/a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RenderDelta(tt.r); !strings.Contains(got, tt.want) {
				t.Errorf("RenderDelta = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestRenderRow(t *testing.T) {
	row := RenderRow("Token", "present", 10)
	if !strings.Contains(row, "Token:") || !strings.Contains(row, "present") {
		t.Errorf("RenderRow() = %q", row)
	}
}

func TestRenderCard(t *testing.T) {
	card := RenderCard("Session", 60, "a", "b")
	for _, want := range []string{"Session", "a", "b"} {
		if !strings.Contains(card, want) {
			t.Errorf("card missing %q", want)
		}
	}
}

func TestCardWidth(t *testing.T) {
	tests := []struct{ in, want int }{
		{10, 50},
		{80, 74},
		{300, 100},
	}
	for _, tt := range tests {
		if got := CardWidth(tt.in); got != tt.want {
			t.Errorf("CardWidth(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestRenderNoData(t *testing.T) {
	if got := RenderNoData(true, 60, 10); !strings.Contains(got, "Fetching") {
		t.Errorf("loading view = %q", got)
	}
	if got := RenderNoData(false, 60, 10); !strings.Contains(got, "Press r") {
		t.Errorf("idle view = %q", got)
	}
}
