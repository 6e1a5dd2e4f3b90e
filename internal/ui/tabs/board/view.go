package board

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/whoop-dashboard-tui/internal/metrics"
	"github.com/j-veylop/whoop-dashboard-tui/internal/ui/components"
	"github.com/j-veylop/whoop-dashboard-tui/internal/ui/styles"
)

const (
	labelWidth = 26
	valueWidth = 16
)

// View renders the comparison board.
func (m *Model) View() string {
	res := m.state.Result()
	current, comparison, ok := m.state.Windows()
	if res == nil || !ok {
		return components.RenderNoData(m.state.IsLoading(), m.width, m.height)
	}

	names := metrics.Headline()
	if m.showAll {
		names = names[:0]
		for _, d := range metrics.Catalog() {
			names = append(names, d.Name)
		}
	}
	results := res.Engine.CompareAll(names, current, comparison)

	content := lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(current, comparison),
		renderTable(results, m.state.Period().String()),
		"",
		styles.HelpStyle.Render("Change is (this week - comparison) / comparison. Means over each window, naps excluded."),
	)
	m.viewport.SetContent(content)

	return styles.DocStyle.Render(m.viewport.View())
}

func (m *Model) renderHeader(current, comparison metrics.Window) string {
	title := styles.TitleStyle.Render("Period comparison")
	badge := styles.BadgeStyle.Render(m.state.Period().String())

	scope := "headline metrics"
	if m.showAll {
		scope = "all metrics"
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", badge),
		components.RenderRow("This week", current.String(), 14),
		components.RenderRow("Compared with", comparison.String(), 14),
		styles.HelpStyle.Render(fmt.Sprintf("Showing %s. Press a to switch, p to change the period.", scope)),
		"",
	)
}

func renderTable(results []metrics.PeriodResult, periodName string) string {
	header := styles.TableHeaderStyle.Render(
		pad("Metric", labelWidth) + pad("This week", valueWidth) + pad(periodName, valueWidth) + "Change",
	)

	rows := []string{header}
	for _, r := range results {
		def, err := metrics.Lookup(r.Metric)
		if err != nil {
			continue
		}
		rows = append(rows,
			pad(def.Label, labelWidth)+
				pad(def.Format(r.Current), valueWidth)+
				pad(def.Format(r.Comparison), valueWidth)+
				components.RenderDelta(r),
		)
	}
	if len(results) == 0 {
		rows = append(rows, styles.HelpStyle.Render("No metrics"))
	}
	return strings.Join(rows, "\n")
}

func pad(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s + " "
}
