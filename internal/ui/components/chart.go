// Package components provides reusable UI components for the TUI.
package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/j-veylop/whoop-dashboard-tui/internal/metrics"
	"github.com/j-veylop/whoop-dashboard-tui/internal/ui/styles"
)

// ChartColors defines colors for chart elements.
var (
	ChartRecoveryColor = styles.RecoveryGreen
	ChartStrainColor   = styles.StrainBlue
	ChartPrimaryColor  = styles.Primary
)

// RenderLineChart creates a single-series ASCII line chart.
func RenderLineChart(data []float64, width, height int, caption string) string {
	data = finite(data)
	if len(data) == 0 {
		return styles.HelpStyle.Render("No data available")
	}

	// Ensure minimum dimensions
	if width < 20 {
		width = 20
	}
	if height < 3 {
		height = 3
	}

	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
		asciigraph.Precision(1),
	)
}

// RenderDualLineChart plots two series on the same axis, e.g. recovery
// against day strain. The shorter series is padded with NaN.
func RenderDualLineChart(first, second []float64, width, height int, caption string) string {
	if len(finite(first)) == 0 && len(finite(second)) == 0 {
		return styles.HelpStyle.Render("No data available")
	}

	if width < 20 {
		width = 20
	}
	if height < 3 {
		height = 3
	}

	n := max(len(first), len(second))
	a := padNaN(first, n)
	b := padNaN(second, n)

	return asciigraph.PlotMany([][]float64{a, b},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
		asciigraph.Precision(1),
		asciigraph.SeriesColors(
			asciigraph.Green,
			asciigraph.Blue,
		),
	)
}

func padNaN(values []float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	copy(out, values)
	return out
}

func finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

// RenderBarChart creates a simple horizontal bar chart.
func RenderBarChart(values []float64, labels []string, width int) string {
	if len(values) == 0 {
		return ""
	}

	// Find max value for scaling
	maxVal := 0.0
	for _, v := range values {
		if v > maxVal {
			maxVal = v
		}
	}
	if maxVal == 0 {
		maxVal = 1
	}

	maxLabelLen := 0
	for _, l := range labels {
		maxLabelLen = max(maxLabelLen, lipgloss.Width(l))
	}

	barWidth := max(width-maxLabelLen-10, 10) // Leave room for label and value

	var lines []string
	for i, v := range values {
		label := ""
		if i < len(labels) {
			label = labels[i]
		}
		paddedLabel := strings.Repeat(" ", maxLabelLen-lipgloss.Width(label)) + label

		if math.IsNaN(v) {
			lines = append(lines, paddedLabel+" │ n/a")
			continue
		}

		barLen := max(int((v/maxVal)*float64(barWidth)), 0)
		bar := lipgloss.NewStyle().Foreground(ChartPrimaryColor).Render(strings.Repeat("█", barLen))
		lines = append(lines, paddedLabel+" │"+bar+fmt.Sprintf(" %.1f", v))
	}

	return strings.Join(lines, "\n")
}

// HeatmapBlocks are Unicode block characters for heatmaps (low to high intensity).
var HeatmapBlocks = []rune{'░', '▒', '▓', '█'}

// RenderCorrelationHeatmap draws the lower triangle of a correlation matrix,
// one cell per pair, shaded by |r| and colored by sign.
func RenderCorrelationHeatmap(m metrics.CorrelationMatrix, labelWidth int) string {
	if len(m.Columns) < 2 {
		return styles.HelpStyle.Render("Not enough numeric columns")
	}
	if labelWidth < 4 {
		labelWidth = 4
	}

	var b strings.Builder
	for i, name := range m.Columns {
		b.WriteString(fmt.Sprintf("%2d %-*s ", i+1, labelWidth, truncate(name, labelWidth)))
		for j := 0; j < i; j++ {
			r := m.Values[i][j]
			cell := " ·"
			if !math.IsNaN(r) {
				intensity := min(int(math.Abs(r)*float64(len(HeatmapBlocks))), len(HeatmapBlocks)-1)
				cell = " " + string(HeatmapBlocks[intensity])
			}
			b.WriteString(styles.GetCorrelationStyle(r).Render(cell))
		}
		if i < len(m.Columns)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}

// sparkChars are the levels of a sparkline, low to high.
var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// RenderSparkline creates a compact inline sparkline chart scaled between the
// minimum and maximum of values.
func RenderSparkline(values []float64, width int) string {
	values = finite(values)
	if len(values) == 0 || width <= 0 {
		return ""
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	// Keep the most recent values when there are more than fit
	if len(values) > width {
		values = values[len(values)-width:]
	}

	var result strings.Builder
	for _, v := range values {
		level := int((v - lo) / span * float64(len(sparkChars)-1))
		level = min(max(level, 0), len(sparkChars)-1)
		result.WriteRune(sparkChars[level])
	}
	return result.String()
}

// RenderLegend creates a chart legend.
func RenderLegend(items []LegendItem) string {
	var parts []string
	for _, item := range items {
		colorBox := lipgloss.NewStyle().Foreground(item.Color).Render("■")
		parts = append(parts, fmt.Sprintf("%s %s", colorBox, item.Label))
	}
	return strings.Join(parts, "  ")
}

// LegendItem represents a single legend entry.
type LegendItem struct {
	Label string
	Color lipgloss.Color
}
