package overview

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/whoop-dashboard-tui/internal/metrics"
	"github.com/j-veylop/whoop-dashboard-tui/internal/services"
	"github.com/j-veylop/whoop-dashboard-tui/internal/ui/components"
	"github.com/j-veylop/whoop-dashboard-tui/internal/ui/styles"
)

const (
	cardWidth      = 22
	sparklineWidth = 16
	maxDayStrain   = 21.0
)

// View renders the overview tab.
func (m *Model) View() string {
	res := m.state.Result()
	loaded, ok := m.state.LoadedRange()
	if res == nil || !ok {
		return components.RenderNoData(m.state.IsLoading(), m.width, m.height)
	}

	nights := res.Engine.WithoutNaps()
	sections := []string{
		m.renderHeader(res, loaded),
		m.renderSnapshots(nights, loaded),
		m.renderRecoveryChart(nights, loaded),
		m.renderWeeklyReport(res.Engine, loaded),
	}

	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, sections...))

	return styles.DocStyle.Render(m.viewport.View())
}

func (m *Model) renderHeader(res *services.LoadResult, loaded metrics.Window) string {
	title := styles.TitleStyle.Render("Overview")

	who := "Logged in"
	if res.Profile != nil {
		who = fmt.Sprintf("Logged in as %s (user %d)", res.Profile.DisplayName(), res.Profile.UserID)
	}

	counts := res.Dataset.RecordCounts()
	parts := make([]string, 0, len(counts))
	for _, name := range []string{"recovery", "sleep", "workout", "cycle"} {
		parts = append(parts, fmt.Sprintf("%s %d", name, counts[name]))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		styles.ValueStyle.Render(who),
		styles.HelpStyle.Render(fmt.Sprintf("%s (%d days) · %s", loaded, loaded.Days(), strings.Join(parts, " · "))),
		"",
	)
}

func (m *Model) renderSnapshots(e *metrics.Engine, loaded metrics.Window) string {
	cards := make([]string, 0, len(snapshotMetrics))
	for _, name := range snapshotMetrics {
		cards = append(cards, renderSnapshotCard(e, name, loaded))
	}

	perRow := max((m.width-4)/(cardWidth+4), 1)
	var rows []string
	for chunk := range slices.Chunk(cards, perRow) {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, chunk...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func renderSnapshotCard(e *metrics.Engine, name string, loaded metrics.Window) string {
	def, err := metrics.Lookup(name)
	if err != nil {
		return ""
	}
	snap, err := e.Snapshot(name, loaded)
	if err != nil {
		return ""
	}

	valueStyle := styles.ValueStyle.Bold(true)
	if name == "recovery_score" {
		valueStyle = styles.GetRecoveryStyle(snap.Latest.Value).Bold(true)
	}

	value := def.Format(snap.Latest.Value)

	change := styles.HelpStyle.Render("no baseline")
	if !math.IsNaN(snap.Delta) {
		change = styles.HelpStyle.Render(fmt.Sprintf("%+.*f vs avg", def.Precision, snap.Delta))
	}

	points, _ := e.Series(name, loaded)
	spark := components.RenderSparkline(metrics.Values(metrics.DailyMeans(points)), sparklineWidth)

	lines := []string{
		styles.CardTitleStyle.Render(def.Label),
		valueStyle.Render(value),
		change,
		styles.InfoTextStyle.Render(spark),
	}
	return styles.CardStyle.Width(cardWidth).MarginRight(1).Render(strings.Join(lines, "\n"))
}

func (m *Model) renderRecoveryChart(e *metrics.Engine, loaded metrics.Window) string {
	recovery, _ := e.Series("recovery_score", loaded)
	strain, _ := e.Series("day_strain", loaded)

	rec, str := alignDaily(metrics.DailyMeans(recovery), metrics.DailyMeans(strain))
	for i, v := range str {
		str[i] = v / maxDayStrain * 100
	}

	width := max(m.width-16, 30)
	chart := components.RenderDualLineChart(rec, str, width, 10, "")
	if chart == "" {
		chart = styles.HelpStyle.Render("No scored recoveries in range")
	}

	legend := components.RenderLegend([]components.LegendItem{
		{Label: "Recovery %", Color: components.ChartRecoveryColor},
		{Label: "Day strain (% of 21)", Color: components.ChartStrainColor},
	})

	return lipgloss.JoinVertical(lipgloss.Left,
		styles.SubTitleStyle.Render("Recovery vs day strain"),
		chart,
		legend,
		"",
	)
}

// alignDaily lines two daily series up by date. Days missing from one side
// are NaN on that side.
func alignDaily(a, b []metrics.Point) ([]float64, []float64) {
	days := make(map[time.Time][2]float64)
	var order []time.Time
	add := func(points []metrics.Point, side int) {
		for _, p := range points {
			day := p.Time.UTC().Truncate(24 * time.Hour)
			v, ok := days[day]
			if !ok {
				v = [2]float64{math.NaN(), math.NaN()}
				order = append(order, day)
			}
			v[side] = p.Value
			days[day] = v
		}
	}
	add(a, 0)
	add(b, 1)
	slices.SortFunc(order, func(x, y time.Time) int { return x.Compare(y) })

	left := make([]float64, len(order))
	right := make([]float64, len(order))
	for i, day := range order {
		left[i] = days[day][0]
		right[i] = days[day][1]
	}
	return left, right
}

func (m *Model) renderWeeklyReport(e *metrics.Engine, loaded metrics.Window) string {
	weeks := e.WeeklyRecovery(loaded)

	var rows []string
	rows = append(rows, styles.SubTitleStyle.Render("Weekly recovery"))
	if len(weeks) == 0 {
		rows = append(rows, styles.HelpStyle.Render("No recoveries matched to a cycle"))
		return lipgloss.JoinVertical(lipgloss.Left, rows...)
	}

	for _, w := range slices.Backward(weeks) {
		rows = append(rows, fmt.Sprintf("%d-W%02d  %s - %s  %s  %s",
			w.Year, w.Week,
			w.Start.Format("Jan 02"), w.End.Format("Jan 02"),
			styles.GetRecoveryStyle(w.Mean).Render(fmt.Sprintf("%5.1f%%", w.Mean)),
			styles.HelpStyle.Render(fmt.Sprintf("(%d days)", w.Count)),
		))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
