package components

import (
	"fmt"
	"math"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/whoop-dashboard-tui/internal/metrics"
	"github.com/j-veylop/whoop-dashboard-tui/internal/ui/styles"
)

// DeltaText renders a percentage change as plain text. An empty comparison
// window gives "n/a"; a zero baseline gives a signed "inf" so it never reads
// as a number.
func DeltaText(delta float64) string {
	switch {
	case math.IsNaN(delta):
		return "n/a"
	case math.IsInf(delta, 1):
		return "+inf (zero baseline)"
	case math.IsInf(delta, -1):
		return "-inf (zero baseline)"
	default:
		return fmt.Sprintf("%+.2f%%", delta)
	}
}

// RenderDelta renders the change of a period result with an arrow, colored by
// whether it went in the good direction for the metric.
func RenderDelta(r metrics.PeriodResult) string {
	text := DeltaText(r.DeltaPercent)
	if !r.DeltaDefined() {
		return styles.DeltaUndefinedStyle.Render(text)
	}

	improved, ok := r.Improved()
	if !ok {
		return styles.DeltaFlatStyle.Render("= " + text)
	}
	arrow := "▼ "
	if r.DeltaPercent > 0 {
		arrow = "▲ "
	}
	return deltaStyle(improved).Render(arrow + text)
}

func deltaStyle(improved bool) lipgloss.Style {
	if improved {
		return styles.DeltaBetterStyle
	}
	return styles.DeltaWorseStyle
}
