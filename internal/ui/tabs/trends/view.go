package trends

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/whoop-dashboard-tui/internal/metrics"
	"github.com/j-veylop/whoop-dashboard-tui/internal/ui/components"
	"github.com/j-veylop/whoop-dashboard-tui/internal/ui/styles"
)

// View renders the trends tab.
func (m *Model) View() string {
	res := m.state.Result()
	loaded, ok := m.state.LoadedRange()
	if res == nil || !ok {
		return components.RenderNoData(m.state.IsLoading(), m.width, m.height)
	}

	// One point per night: naps would read as a second night.
	e := res.Engine.WithoutNaps()
	def := m.Selected()
	points, err := e.Series(def.Name, loaded)
	if err != nil {
		return styles.ErrorTextStyle.Render(err.Error())
	}
	split, _ := e.SplitByDayType(def.Name, loaded)

	content := lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(def),
		m.renderChart(def, points),
		renderSummary(def, metrics.Summarize(points)),
		"",
		m.renderSplit(def, split),
	)
	m.viewport.SetContent(content)

	return styles.DocStyle.Render(m.viewport.View())
}

func (m *Model) renderHeader(def metrics.Definition) string {
	title := styles.TitleStyle.Render("Trends")
	badge := styles.BadgeStyle.Render(string(def.Source))

	lines := []string{
		lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", badge),
		styles.SubTitleStyle.Render(def.Label),
	}
	if def.Description != "" {
		lines = append(lines, styles.HelpStyle.Render(def.Description))
	}
	lines = append(lines,
		styles.HelpStyle.Render(fmt.Sprintf("Metric %d of %d · n next · b previous", m.selected+1, len(m.catalog))),
		"",
	)
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m *Model) renderChart(def metrics.Definition, points []metrics.Point) string {
	daily := metrics.DailyMeans(points)
	if len(daily) == 0 {
		return styles.HelpStyle.Render("No values in the loaded range") + "\n"
	}

	caption := "daily mean"
	if def.Unit != "" {
		caption += " (" + def.Unit + ")"
	}
	caption += fmt.Sprintf(", %s to %s", daily[0].Time.Format("Jan 02"), daily[len(daily)-1].Time.Format("Jan 02"))

	return components.RenderLineChart(metrics.Values(daily), max(m.width-16, 30), 12, caption) + "\n"
}

func renderSummary(def metrics.Definition, s metrics.Summary) string {
	const w = 8
	return strings.Join([]string{
		components.RenderRow("Mean", def.Format(s.Mean), w),
		components.RenderRow("Min", def.Format(s.Min), w),
		components.RenderRow("Max", def.Format(s.Max), w),
		components.RenderRow("Values", fmt.Sprintf("%d", s.Count), w),
	}, "\n")
}

func (m *Model) renderSplit(def metrics.Definition, split metrics.DayTypeSplit) string {
	labels := []string{
		fmt.Sprintf("Weekday (%d)", split.WeekdayCount),
		fmt.Sprintf("Weekend (%d)", split.WeekendCount),
	}
	chart := components.RenderBarChart([]float64{split.Weekday, split.Weekend}, labels, min(m.width-8, 80))

	return lipgloss.JoinVertical(lipgloss.Left,
		styles.SubTitleStyle.Render("Weekday vs weekend"),
		chart,
		styles.HelpStyle.Render("Saturday and Sunday count as the weekend. Values in "+unitOrRaw(def)+"."),
	)
}

func unitOrRaw(def metrics.Definition) string {
	if def.Unit == "" {
		return "raw units"
	}
	return def.Unit
}
