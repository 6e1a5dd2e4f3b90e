package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/whoop-dashboard-tui/internal/ui/styles"
)

// RenderRow renders a label/value pair with the label padded to labelWidth.
func RenderRow(label, value string, labelWidth int) string {
	return styles.LabelStyle.Width(labelWidth).Render(label+":") + " " + styles.ValueStyle.Render(value)
}

// RenderCard wraps rows in a bordered card under a title.
func RenderCard(title string, width int, rows ...string) string {
	content := append([]string{styles.CardTitleStyle.Render(title), ""}, rows...)
	return styles.CardStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, content...))
}

// CardWidth clamps the usable width of a full-width card.
func CardWidth(width int) int {
	return min(max(width-6, 50), 100)
}

// RenderNoData is what a tab shows before any records are loaded.
func RenderNoData(loading bool, width, height int) string {
	var lines []string
	if loading {
		lines = append(lines, styles.InfoTextStyle.Render("Fetching records from WHOOP..."))
	} else {
		lines = append(lines, styles.HelpStyle.Render("No data loaded."))
		lines = append(lines, styles.HelpStyle.Render("Press r to load, or ? for help."))
	}
	return styles.CenterBoth(strings.Join(lines, "\n"), width, max(height, 3))
}
