// Package styles defines the visual styling for the application.
package styles

import (
	"math"

	"github.com/charmbracelet/lipgloss"
)

// Color definitions for the WHOOP theme.
var (
	// Primary colors
	Primary   = lipgloss.Color("43")  // Teal
	Secondary = lipgloss.Color("63")  // Purple
	Subtle    = lipgloss.Color("240") // Gray

	// Recovery zone colors
	RecoveryGreen  = lipgloss.Color("#16EC06")
	RecoveryYellow = lipgloss.Color("#FFDE00")
	RecoveryRed    = lipgloss.Color("#FF0026")
	StrainBlue     = lipgloss.Color("#0093E7")

	// Status colors
	Success = lipgloss.Color("42")  // Green
	Error   = lipgloss.Color("196") // Red
	Warning = lipgloss.Color("220") // Yellow
	Info    = lipgloss.Color("39")  // Blue

	// Background colors
	BgDark   = lipgloss.Color("235")
	BgLight  = lipgloss.Color("237")
	BgAccent = lipgloss.Color("236")

	// Text colors
	TextPrimary   = lipgloss.Color("252")
	TextSecondary = lipgloss.Color("245")
	TextMuted     = lipgloss.Color("240")

	// ToastStyle for floating notifications.
	ToastStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(0, 1).
			MarginBottom(1)
)

// TitleStyle is used for main headings.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	MarginBottom(1)

// SubTitleStyle is used for section headings.
var SubTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Secondary)

// DocStyle provides consistent document margins.
var DocStyle = lipgloss.NewStyle().
	Margin(1, 2).
	Padding(0, 1)

// CardStyle creates a bordered card container.
var CardStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Subtle).
	Padding(1, 2).
	MarginBottom(1)

// CardTitleStyle styles card headers.
var CardTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary)

// LabelStyle styles the left column of key/value rows.
var LabelStyle = lipgloss.NewStyle().
	Foreground(TextMuted)

// ValueStyle styles values in key/value rows.
var ValueStyle = lipgloss.NewStyle().
	Foreground(TextPrimary)

// HelpStyle is the base style for help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(TextMuted)

// HelpPanelStyle creates the help overlay panel.
var HelpPanelStyle = lipgloss.NewStyle().
	Border(lipgloss.DoubleBorder()).
	BorderForeground(Primary).
	Padding(1, 3).
	Background(BgDark)

// ModalContentStyle styles modal content.
var ModalContentStyle = lipgloss.NewStyle().
	Border(lipgloss.DoubleBorder()).
	BorderForeground(Warning).
	Padding(1, 2).
	Background(BgDark)

// TableHeaderStyle styles table headers.
var TableHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	BorderStyle(lipgloss.NormalBorder()).
	BorderBottom(true).
	BorderForeground(Subtle)

// TableSelectedStyle styles selected table rows.
var TableSelectedStyle = lipgloss.NewStyle().
	Background(BgAccent).
	Foreground(TextPrimary).
	Bold(true)

// BadgeStyle styles small inline indicators such as the selected period.
var BadgeStyle = lipgloss.NewStyle().
	Foreground(Primary).
	Bold(true).
	Padding(0, 1).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Primary)

// Delta styles.
var (
	DeltaBetterStyle    = lipgloss.NewStyle().Foreground(Success)
	DeltaWorseStyle     = lipgloss.NewStyle().Foreground(Error)
	DeltaFlatStyle      = lipgloss.NewStyle().Foreground(TextSecondary)
	DeltaUndefinedStyle = lipgloss.NewStyle().Foreground(Warning).Italic(true)
)

// ErrorTextStyle for error messages.
var ErrorTextStyle = lipgloss.NewStyle().
	Foreground(Error)

// SuccessTextStyle for success messages.
var SuccessTextStyle = lipgloss.NewStyle().
	Foreground(Success)

// WarningTextStyle for warning messages.
var WarningTextStyle = lipgloss.NewStyle().
	Foreground(Warning)

// InfoTextStyle for info messages.
var InfoTextStyle = lipgloss.NewStyle().
	Foreground(Info)

// GetRecoveryStyle returns the WHOOP zone color for a recovery score.
func GetRecoveryStyle(score float64) lipgloss.Style {
	switch {
	case math.IsNaN(score):
		return lipgloss.NewStyle().Foreground(Subtle)
	case score >= 67:
		return lipgloss.NewStyle().Foreground(RecoveryGreen)
	case score >= 34:
		return lipgloss.NewStyle().Foreground(RecoveryYellow)
	default:
		return lipgloss.NewStyle().Foreground(RecoveryRed)
	}
}

// GetCorrelationStyle colors a coefficient by sign and strength.
func GetCorrelationStyle(r float64) lipgloss.Style {
	switch {
	case math.IsNaN(r):
		return lipgloss.NewStyle().Foreground(Subtle)
	case r >= 0.7:
		return lipgloss.NewStyle().Foreground(Success).Bold(true)
	case r >= 0.3:
		return lipgloss.NewStyle().Foreground(Success)
	case r <= -0.7:
		return lipgloss.NewStyle().Foreground(Error).Bold(true)
	case r <= -0.3:
		return lipgloss.NewStyle().Foreground(Error)
	default:
		return lipgloss.NewStyle().Foreground(TextSecondary)
	}
}

// CenterHorizontal centers content horizontally within a given width.
func CenterHorizontal(content string, width int) string {
	return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render(content)
}

// CenterBoth centers content both horizontally and vertically.
func CenterBoth(content string, width, height int) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center).
		AlignVertical(lipgloss.Center).
		Render(content)
}
