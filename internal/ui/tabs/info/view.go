package info

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/j-veylop/whoop-dashboard-tui/internal/session"
	"github.com/j-veylop/whoop-dashboard-tui/internal/ui/components"
	"github.com/j-veylop/whoop-dashboard-tui/internal/ui/styles"
	"github.com/j-veylop/whoop-dashboard-tui/internal/version"
)

const labelWidth = 18

// View renders the info tab.
func (m *Model) View() string {
	m.refresh()

	var sections []string

	sections = append(sections, m.renderTitle())
	sections = append(sections, m.renderConfigCard())
	if m.backend != nil {
		sections = append(sections, m.renderSessionCard())
		sections = append(sections, m.renderCacheCard())
	}
	sections = append(sections, m.renderAboutCard())

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	m.viewport.SetContent(content)

	return styles.DocStyle.Render(m.viewport.View())
}

// renderTitle renders the info tab title.
func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Configuration, session and cache")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

// mask hides all but the last four characters of a secret.
func mask(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

// renderConfigCard renders the configuration card.
func (m *Model) renderConfigCard() string {
	if m.backend == nil || m.backend.Config() == nil {
		return components.RenderCard("Configuration", components.CardWidth(m.width),
			styles.HelpStyle.Render("Configuration not loaded"))
	}
	cfg := m.backend.Config()

	clientID := mask(cfg.ClientID)
	if m.reveal {
		clientID = cfg.ClientID
	}

	rows := []string{
		components.RenderRow("Client ID", clientID, labelWidth),
		components.RenderRow("Redirect URI", cfg.RedirectURI, labelWidth),
		components.RenderRow("Client file", orNone(cfg.ClientFile), labelWidth),
		components.RenderRow("Token file", cfg.TokenPath, labelWidth),
		components.RenderRow("API", cfg.APIBaseURL, labelWidth),
		components.RenderRow("Export dir", cfg.ExportDir, labelWidth),
		components.RenderRow("Log file", orNone(cfg.LogPath), labelWidth),
		components.RenderRow("Baseline", fmt.Sprintf("%d days (now %d)", cfg.BaselineDays, m.state.BaselineDays()), labelWidth),
		components.RenderRow("Correlation", fmt.Sprintf("|r| > %.2f", m.state.CorrelationThreshold()), labelWidth),
		components.RenderRow("Request timeout", cfg.RequestTimeout.String(), labelWidth),
		components.RenderRow("Notifications", fmt.Sprintf("%t", cfg.Notifications), labelWidth),
	}
	return components.RenderCard("Configuration", components.CardWidth(m.width), rows...)
}

// renderSessionCard renders the credential record status.
func (m *Model) renderSessionCard() string {
	st := m.status

	stateStyle := styles.WarningTextStyle
	if st.State == session.StateAuthorized {
		stateStyle = styles.SuccessTextStyle
	}

	rows := []string{
		components.RenderRow("State", stateStyle.Render(st.State.String()), labelWidth),
	}

	switch {
	case !st.Exists:
		rows = append(rows, components.RenderRow("Token file", "not present", labelWidth))
	case st.Corrupt != nil:
		rows = append(rows, components.RenderRow("Token file", styles.ErrorTextStyle.Render("unreadable"), labelWidth))
		rows = append(rows, styles.ErrorTextStyle.Render(st.Corrupt.Error()))
	default:
		expiry := "never"
		if !st.ExpiresAt.IsZero() {
			expiry = fmt.Sprintf("%s (%s)", st.ExpiresAt.Local().Format("Jan 02 15:04"), humanize.RelTime(st.ExpiresAt, m.now(), "ago", "from now"))
		}
		rows = append(rows,
			components.RenderRow("Token file", "present", labelWidth),
			components.RenderRow("Access expires", expiry, labelWidth),
			components.RenderRow("Refreshable", fmt.Sprintf("%t", st.Refreshing), labelWidth),
		)
		if !st.SavedAt.IsZero() {
			rows = append(rows, components.RenderRow("Saved", humanize.RelTime(st.SavedAt, m.now(), "ago", "from now"), labelWidth))
		}
	}
	return components.RenderCard("Session", components.CardWidth(m.width), rows...)
}

// renderCacheCard lists the loads kept in memory.
func (m *Model) renderCacheCard() string {
	var rows []string
	switch {
	case m.fetchErr != nil:
		rows = append(rows, styles.ErrorTextStyle.Render(m.fetchErr.Error()))
	case len(m.fetches) == 0:
		rows = append(rows, styles.HelpStyle.Render("Nothing cached yet"))
	default:
		for _, f := range m.fetches {
			rows = append(rows, fmt.Sprintf("%-24s %s records, fetched %s",
				f.Key,
				humanize.Comma(int64(f.Records)),
				humanize.RelTime(f.FetchedAt, m.now(), "ago", "from now"),
			))
		}
	}
	return components.RenderCard("Cached loads", components.CardWidth(m.width), rows...)
}

// renderAboutCard renders the version information card.
func (m *Model) renderAboutCard() string {
	rows := []string{
		components.RenderRow("Version", version.GetVersion(), labelWidth),
		components.RenderRow("Commit", version.GetCommit(), labelWidth),
		components.RenderRow("Build Date", version.GetDate(), labelWidth),
		components.RenderRow("Go Version", runtime.Version(), labelWidth),
		components.RenderRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH), labelWidth),
	}
	return components.RenderCard("About "+version.Name, components.CardWidth(m.width), rows...)
}
