package insights

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/whoop-dashboard-tui/internal/metrics"
	"github.com/j-veylop/whoop-dashboard-tui/internal/ui/components"
	"github.com/j-veylop/whoop-dashboard-tui/internal/ui/styles"
)

// excludedColumns are identifiers, not measurements.
var excludedColumns = []string{"cycle_id", "user_id"}

const heatmapLabelWidth = 28

// View renders the insights tab.
func (m *Model) View() string {
	res := m.state.Result()
	loaded, ok := m.state.LoadedRange()
	if res == nil || !ok {
		return components.RenderNoData(m.state.IsLoading(), m.width, m.height)
	}

	sleep := res.Engine.Table(metrics.SourceSleep)
	threshold := m.state.CorrelationThreshold()

	sections := []string{
		styles.TitleStyle.Render("Insights"),
		renderCorrelations(metrics.FindCorrelations(sleep, excludedColumns, threshold), threshold),
		"",
	}
	if m.showHeatmap {
		sections = append(sections, renderHeatmap(metrics.Correlate(sleep, excludedColumns)), "")
	}
	sections = append(sections, renderSplits(res.Engine.WithoutNaps(), loaded))

	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, sections...))

	return styles.DocStyle.Render(m.viewport.View())
}

// shortName drops the nesting prefixes of a sleep column.
func shortName(column string) string {
	column = strings.TrimPrefix(column, "score.")
	column = strings.TrimPrefix(column, "stage_summary.")
	column = strings.TrimPrefix(column, "sleep_needed.")
	return column
}

func renderCorrelations(pairs []metrics.CorrelationPair, threshold float64) string {
	lines := []string{
		styles.SubTitleStyle.Render("Correlated sleep measurements"),
		styles.HelpStyle.Render(fmt.Sprintf("Pearson |r| > %.2f over every loaded night, naps excluded", threshold)),
	}
	if len(pairs) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, append(lines, styles.HelpStyle.Render("No pairs above the threshold"))...)
	}

	width := 0
	for _, p := range pairs {
		width = max(width, len(shortName(p.A)))
	}
	for _, p := range pairs {
		coef := styles.GetCorrelationStyle(p.Coefficient).Render(fmt.Sprintf("%+.3f", p.Coefficient))
		lines = append(lines, fmt.Sprintf("  %-*s ~ %-s  %s", width, shortName(p.A), shortName(p.B), coef))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderHeatmap(m metrics.CorrelationMatrix) string {
	short := metrics.CorrelationMatrix{Columns: make([]string, len(m.Columns)), Values: m.Values}
	for i, c := range m.Columns {
		short.Columns[i] = shortName(c)
	}

	legend := lipgloss.JoinHorizontal(lipgloss.Top,
		styles.GetCorrelationStyle(0.8).Render("█ strong +"), "  ",
		styles.GetCorrelationStyle(-0.8).Render("█ strong -"), "  ",
		styles.GetCorrelationStyle(0).Render("░ weak"), "  ",
		styles.GetCorrelationStyle(0).Render("· undefined"),
	)

	return lipgloss.JoinVertical(lipgloss.Left,
		styles.SubTitleStyle.Render("Correlation heat map"),
		components.RenderCorrelationHeatmap(short, heatmapLabelWidth),
		legend,
	)
}

func renderSplits(e *metrics.Engine, loaded metrics.Window) string {
	const labelWidth, valueWidth = 22, 16

	lines := []string{
		styles.SubTitleStyle.Render("Weekday vs weekend"),
		styles.TableHeaderStyle.Render(fmt.Sprintf("%-*s%-*s%s", labelWidth, "Metric", valueWidth, "Weekday", "Weekend")),
	}
	for _, name := range metrics.Headline() {
		def, err := metrics.Lookup(name)
		if err != nil {
			continue
		}
		split, err := e.SplitByDayType(name, loaded)
		if err != nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("%-*s%-*s%s",
			labelWidth, def.Label,
			valueWidth, def.Format(split.Weekday),
			def.Format(split.Weekend),
		))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
