package workouts

import (
	"fmt"
	"math"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/whoop-dashboard-tui/internal/metrics"
	"github.com/j-veylop/whoop-dashboard-tui/internal/ui/components"
	"github.com/j-veylop/whoop-dashboard-tui/internal/ui/styles"
)

var zoneMetrics = []string{"zone_zero", "zone_one", "zone_two", "zone_three", "zone_four", "zone_five"}

// View renders the workouts tab.
func (m *Model) View() string {
	res := m.state.Result()
	w, ok := m.window()
	if res == nil || !ok {
		return components.RenderNoData(m.state.IsLoading(), m.width, m.height)
	}

	scope := "Loaded range"
	if m.thisWeek {
		scope = "This week"
	}

	perDay := res.Engine.WorkoutsPerDay(w)
	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.TitleStyle.Render("Workouts"),
		styles.HelpStyle.Render(fmt.Sprintf("%s: %s. Press w to switch.", scope, w)),
		"",
		m.renderSummary(res.Engine, w, perDay),
		m.renderCounts("Workouts per day", perDay),
		"",
		m.renderCounts("Sports", res.Engine.SportDistribution(w)),
		"",
		m.renderZones(res.Engine, w),
	)
	m.viewport.SetContent(content)

	return styles.DocStyle.Render(m.viewport.View())
}

func (m *Model) window() (metrics.Window, bool) {
	if m.thisWeek {
		current, _, ok := m.state.Windows()
		return current, ok
	}
	return m.state.LoadedRange()
}

func (m *Model) renderSummary(e *metrics.Engine, w metrics.Window, perDay []metrics.Count) string {
	total := 0
	for _, c := range perDay {
		total += c.N
	}

	strain, _ := e.Series("strain", w)
	summary := metrics.Summarize(strain)
	kcal, _ := e.Aggregate("kilocalories", w)
	strainDef, _ := metrics.Lookup("strain")
	kcalDef, _ := metrics.Lookup("kilocalories")

	const labelWidth = 18
	return components.RenderCard("Summary", components.CardWidth(m.width),
		components.RenderRow("Workouts", fmt.Sprintf("%d on %d days", total, len(perDay)), labelWidth),
		components.RenderRow("Mean strain", strainDef.Format(summary.Mean), labelWidth),
		components.RenderRow("Hardest", strainDef.Format(summary.Max), labelWidth),
		components.RenderRow("Mean energy", kcalDef.Format(kcal), labelWidth),
	)
}

func (m *Model) renderCounts(title string, counts []metrics.Count) string {
	if len(counts) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left,
			styles.SubTitleStyle.Render(title),
			styles.HelpStyle.Render("No workouts"),
		)
	}

	values := make([]float64, len(counts))
	labels := make([]string, len(counts))
	for i, c := range counts {
		values[i] = float64(c.N)
		labels[i] = c.Label
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		styles.SubTitleStyle.Render(title),
		components.RenderBarChart(values, labels, min(m.width-8, 90)),
	)
}

func (m *Model) renderZones(e *metrics.Engine, w metrics.Window) string {
	var values []float64
	var labels []string
	for _, name := range zoneMetrics {
		def, err := metrics.Lookup(name)
		if err != nil {
			continue
		}
		v, err := e.Aggregate(name, w)
		if err != nil {
			continue
		}
		values = append(values, v)
		labels = append(labels, def.Label)
	}

	allNaN := true
	for _, v := range values {
		if !math.IsNaN(v) {
			allNaN = false
		}
	}
	if allNaN {
		return ""
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		styles.SubTitleStyle.Render("Mean minutes per heart-rate zone"),
		components.RenderBarChart(values, labels, min(m.width-8, 90)),
	)
}
