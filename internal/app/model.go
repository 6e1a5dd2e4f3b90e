package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/whoop-dashboard-tui/internal/logger"
	"github.com/j-veylop/whoop-dashboard-tui/internal/services"
	"github.com/j-veylop/whoop-dashboard-tui/internal/ui/components"
	"github.com/j-veylop/whoop-dashboard-tui/internal/ui/styles"
)

// TabID represents the identifier for a tab in the application.
type TabID int

const (
	// TabOverview shows the latest values and the weekly recovery report.
	TabOverview TabID = iota
	// TabMetrics is the period comparison board.
	TabMetrics
	// TabTrends plots one metric over the loaded range.
	TabTrends
	// TabInsights shows correlations and the weekday/weekend split.
	TabInsights
	// TabWorkouts shows workout frequency and sports.
	TabWorkouts
	// TabInfo shows configuration, session and cache details.
	TabInfo
)

var tabNames = []string{"Overview", "Metrics", "Trends", "Insights", "Workouts", "Info"}

// String returns the string representation of the TabID.
func (t TabID) String() string {
	if t < 0 || int(t) >= len(tabNames) {
		return "Unknown"
	}
	return tabNames[t]
}

// Tab defines the interface that all tabs must implement.
type Tab interface {
	// Init initializes the tab and returns any initial commands.
	Init() tea.Cmd

	// Update handles messages and returns the updated tab and any commands.
	Update(msg tea.Msg) (Tab, tea.Cmd)

	// View renders the tab content.
	View() string

	// SetSize sets the available size for the tab.
	SetSize(width, height int)

	// ShortHelp returns key bindings for the short help view.
	ShortHelp() []key.Binding

	// FullHelp returns key bindings for the full help view.
	FullHelp() [][]key.Binding
}

// Styles defines the application styles.
type Styles struct {
	TabBar      lipgloss.Style
	ActiveTab   lipgloss.Style
	InactiveTab lipgloss.Style
	StatusBar   lipgloss.Style

	NotificationSuccess lipgloss.Style
	NotificationError   lipgloss.Style
	NotificationWarning lipgloss.Style
	NotificationInfo    lipgloss.Style

	Content lipgloss.Style
	Toast   lipgloss.Style

	Title     lipgloss.Style
	Subtle    lipgloss.Style
	Highlight lipgloss.Style
	Error     lipgloss.Style
}

// DefaultStyles returns the default application styles.
func DefaultStyles() Styles {
	subtle := lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}
	highlight := lipgloss.AdaptiveColor{Light: "#00897B", Dark: "#26C6DA"}
	success := lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#04B575"}
	warning := lipgloss.AdaptiveColor{Light: "#FF8C00", Dark: "#FF8C00"}
	errorColor := lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"}
	info := lipgloss.AdaptiveColor{Light: "#0087D7", Dark: "#5FAFFF"}

	s := Styles{}
	s.TabBar = lipgloss.NewStyle().Padding(0, 1).BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).BorderForeground(subtle)
	s.ActiveTab = lipgloss.NewStyle().Bold(true).Foreground(highlight).Padding(0, 2)
	s.InactiveTab = lipgloss.NewStyle().Foreground(subtle).Padding(0, 2)
	s.StatusBar = lipgloss.NewStyle().Foreground(subtle).Padding(0, 1)

	s.NotificationSuccess = lipgloss.NewStyle().Foreground(success).Padding(0, 1)
	s.NotificationError = lipgloss.NewStyle().Foreground(errorColor).Bold(true).Padding(0, 1)
	s.NotificationWarning = lipgloss.NewStyle().Foreground(warning).Padding(0, 1)
	s.NotificationInfo = lipgloss.NewStyle().Foreground(info).Padding(0, 1)

	s.Content = lipgloss.NewStyle().Padding(1, 2)
	s.Toast = styles.ToastStyle

	s.Title = lipgloss.NewStyle().Bold(true).Foreground(highlight)
	s.Subtle = lipgloss.NewStyle().Foreground(subtle)
	s.Highlight = lipgloss.NewStyle().Foreground(highlight)
	s.Error = lipgloss.NewStyle().Foreground(errorColor)

	return s
}

// Model is the main application model.
type Model struct {
	activeTab TabID
	tabs      []Tab

	state    *State
	services *services.Manager
	commands *Commands
	keymap   KeyMap
	styles   Styles

	spinner   components.LoadingSpinner
	authInput textinput.Model

	width  int
	height int

	showHelp bool
	ready    bool

	eventChannel chan services.ServiceEvent
}

// NewModel initializes a new application model. mgr may be nil in tests.
func NewModel(mgr *services.Manager) *Model {
	state := NewState()
	if mgr != nil {
		state = NewStateFromConfig(mgr.Config())
	}

	input := textinput.New()
	input.Placeholder = "authorization code or redirect URL"
	input.Prompt = "> "
	input.CharLimit = 2048

	return &Model{
		activeTab: TabOverview,
		tabs:      make([]Tab, len(tabNames)), // Placeholder - tabs will be set externally
		state:     state,
		services:  mgr,
		commands:  NewCommands(mgr),
		keymap:    DefaultKeyMap(),
		styles:    DefaultStyles(),
		spinner:   components.NewSpinner(""),
		authInput: input,
	}
}

// SetTabs sets the tabs for the model.
func (m *Model) SetTabs(tabs []Tab) {
	m.tabs = tabs
	if m.width > 0 && m.height > 0 {
		m.updateTabSizes()
	}
}

// GetState returns the application state.
func (m *Model) GetState() *State {
	return m.state
}

// GetServices returns the service manager.
func (m *Model) GetServices() *services.Manager {
	return m.services
}

// GetCommands returns the commands helper.
func (m *Model) GetCommands() *Commands {
	return m.commands
}

// GetActiveTab returns the currently active tab ID.
func (m *Model) GetActiveTab() TabID {
	return m.activeTab
}

// IsReady returns true if the model is ready (window size received).
func (m *Model) IsReady() bool {
	return m.ready
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.spinner.Tick(),
		defaultTickCmd(),
	}

	if m.services != nil {
		cmds = append(cmds, subscribeToServicesCmd(m.services))
		cmds = append(cmds, m.startLoad(false))
	}

	for _, tab := range m.tabs {
		if tab != nil {
			cmds = append(cmds, tab.Init())
		}
	}

	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.handleWindowSize(msg)
	case tea.KeyMsg:
		if m.state.Auth().Active {
			// The overlay owns the keyboard.
			return m, m.handleAuthKey(msg)
		}
		if cmd := m.handleKeyMsg(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	default:
		cmds = append(cmds, m.handleAppMsg(msg)...)
	}

	if cmd := m.updateActiveTab(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleAppMsg(msg tea.Msg) []tea.Cmd {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case TickMsg:
		m.state.ClearExpiredNotifications()
		cmds = append(cmds, defaultTickCmd())
	case SubscriptionEventMsg:
		m.eventChannel = msg.Channel
		cmds = append(cmds, waitForServiceEventCmd(m.eventChannel))
	case ServiceEventMsg:
		cmds = append(cmds, m.handleServiceEvent(msg.Event))
		if m.eventChannel != nil {
			cmds = append(cmds, waitForServiceEventCmd(m.eventChannel))
		}
	case LoadRequestMsg:
		cmds = append(cmds, m.startLoad(msg.Force))
	case DataLoadedMsg:
		cmds = append(cmds, m.handleDataLoaded(msg))
	case SubmitCodeResultMsg:
		if msg.Error != nil {
			cmds = append(cmds, notifyErrorCmd(fmt.Sprintf("Could not submit code: %v", msg.Error)))
		}
	case ExportResultMsg:
		cmds = append(cmds, m.handleExportResult(msg))
	case LogoutResultMsg:
		if msg.Error != nil {
			cmds = append(cmds, notifyErrorCmd(fmt.Sprintf("Logout failed: %v", msg.Error)))
		} else {
			m.state.SetResult(nil)
			cmds = append(cmds, notifyInfoCmd("Logged out. Press r to sign in again."))
		}
	case AddNotificationMsg:
		id := m.state.AddNotification(msg.Type, msg.Message, msg.Duration)
		if msg.Duration > 0 {
			cmds = append(cmds, clearNotificationCmd(id, msg.Duration))
		}
	case RemoveNotificationMsg:
		m.state.RemoveNotification(msg.ID)
	case ClearExpiredNotificationsMsg:
		m.state.ClearExpiredNotifications()
	case ErrorMsg:
		cmds = append(cmds, notifyErrorCmd(msg.Error.Error()))
	case TabSwitchMsg:
		m.activeTab = msg.Tab
		m.updateTabSizes()
	case ToggleHelpMsg:
		m.showHelp = !m.showHelp
	}
	return cmds
}

func (m *Model) handleWindowSize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height
	m.ready = true
	m.authInput.Width = max(msg.Width-20, 20)
	m.updateTabSizes()
}

// startLoad runs a load unless one is already running.
func (m *Model) startLoad(force bool) tea.Cmd {
	if m.services == nil || m.state.IsLoading() {
		return nil
	}
	days := m.state.BaselineDays()
	m.state.SetLoading(true)
	label := fmt.Sprintf("Loading %d days...", days)
	m.spinner.SetLabel(label)
	m.state.SetLoadingNotification(label)
	return loadDataCmd(m.services, days, force)
}

func (m *Model) handleDataLoaded(msg DataLoadedMsg) tea.Cmd {
	m.state.SetLoading(false)
	m.state.ClearLoadingNotification()
	m.spinner.SetLabel("")

	if msg.Error != nil {
		m.state.FinishInitialLoad()
		// Failures other than these are broadcast as ErrorEvent.
		if errors.Is(msg.Error, context.Canceled) || errors.Is(msg.Error, services.ErrClosed) {
			return nil
		}
		logger.Warn("load failed", "error", msg.Error)
		return nil
	}

	m.state.SetResult(msg.Result)
	text := fmt.Sprintf("Loaded %d days", msg.Result.BaselineDays)
	if msg.Result.Dataset.FromCache {
		text += " (cached)"
	}
	return tea.Batch(notifySuccessCmd(text), func() tea.Msg { return SettingsChangedMsg{} })
}

func (m *Model) handleExportResult(msg ExportResultMsg) tea.Cmd {
	if msg.Error != nil {
		return notifyErrorCmd(fmt.Sprintf("Export failed: %v", msg.Error))
	}
	dir := ""
	if m.services != nil {
		dir = m.services.Config().ExportDir
	}
	return notifySuccessCmd(fmt.Sprintf("Exported %d files to %s", len(msg.Paths), dir))
}

func (m *Model) updateActiveTab(msg tea.Msg) tea.Cmd {
	if int(m.activeTab) < len(m.tabs) && m.tabs[m.activeTab] != nil {
		var cmd tea.Cmd
		m.tabs[m.activeTab], cmd = m.tabs[m.activeTab].Update(msg)
		return cmd
	}
	return nil
}

func (m *Model) updateTabSizes() {
	// Navbar (2 lines) and status bar (1 line)
	contentHeight := max(m.height-3, 0)

	for _, tab := range m.tabs {
		if tab != nil {
			tab.SetSize(m.width, contentHeight)
		}
	}
}

func (m *Model) switchTab(t TabID) {
	m.activeTab = t
	m.updateTabSizes()
}

// handleKeyMsg handles keyboard input.
func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	// Global keybindings (work regardless of tab)
	switch {
	case key.Matches(msg, m.keymap.Quit):
		return tea.Quit

	case key.Matches(msg, m.keymap.Help):
		m.showHelp = !m.showHelp

	case key.Matches(msg, m.keymap.Escape):
		m.showHelp = false

	case key.Matches(msg, m.keymap.Tab1):
		m.switchTab(TabOverview)
	case key.Matches(msg, m.keymap.Tab2):
		m.switchTab(TabMetrics)
	case key.Matches(msg, m.keymap.Tab3):
		m.switchTab(TabTrends)
	case key.Matches(msg, m.keymap.Tab4):
		m.switchTab(TabInsights)
	case key.Matches(msg, m.keymap.Tab5):
		m.switchTab(TabWorkouts)
	case key.Matches(msg, m.keymap.Tab6):
		m.switchTab(TabInfo)

	case key.Matches(msg, m.keymap.NextTab):
		if !m.showHelp && len(m.tabs) > 0 {
			m.switchTab(TabID((int(m.activeTab) + 1) % len(m.tabs)))
		}

	case key.Matches(msg, m.keymap.PrevTab):
		if !m.showHelp && len(m.tabs) > 0 {
			m.switchTab(TabID((int(m.activeTab) - 1 + len(m.tabs)) % len(m.tabs)))
		}

	case key.Matches(msg, m.keymap.Refresh):
		return m.startLoad(true)

	case key.Matches(msg, m.keymap.BaselineDown):
		return m.adjustBaseline(-baselineStep)

	case key.Matches(msg, m.keymap.BaselineUp):
		return m.adjustBaseline(baselineStep)

	case key.Matches(msg, m.keymap.Period):
		p := m.state.CyclePeriod()
		return tea.Batch(
			notifyInfoCmd("Comparing this week with: "+p.String()),
			func() tea.Msg { return SettingsChangedMsg{} },
		)

	case key.Matches(msg, m.keymap.ExportFormat):
		return notifyInfoCmd("Export format: " + string(m.state.CycleExportFormat()))

	case key.Matches(msg, m.keymap.Export):
		res := m.state.Result()
		if res == nil {
			return notifyWarningCmd("Nothing loaded to export yet")
		}
		if m.services == nil {
			return nil
		}
		return exportCmd(m.services, res.Dataset, m.state.ExportFormat())

	case key.Matches(msg, m.keymap.Logout):
		if m.services == nil {
			return nil
		}
		return logoutCmd(m.services)
	}

	// Let the tab handle other keys
	return nil
}

func (m *Model) adjustBaseline(delta int) tea.Cmd {
	before := m.state.BaselineDays()
	after := m.state.AdjustBaselineDays(delta)
	if after == before {
		return notifyInfoCmd(fmt.Sprintf("Baseline stays at %d days", after))
	}
	return m.startLoad(false)
}

// handleAuthKey handles keys while the authorization overlay is shown.
func (m *Model) handleAuthKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return tea.Quit
	case key.Matches(msg, m.keymap.Escape):
		m.authInput.Reset()
		return nil
	case key.Matches(msg, m.keymap.Enter):
		input := m.authInput.Value()
		if input == "" || m.services == nil {
			return nil
		}
		m.authInput.Reset()
		m.state.SetLoadingNotification("Checking authorization code...")
		return submitCodeCmd(m.services, input)
	}

	var cmd tea.Cmd
	m.authInput, cmd = m.authInput.Update(msg)
	return cmd
}

func (m *Model) handleServiceEvent(event services.ServiceEvent) tea.Cmd {
	switch e := event.(type) {
	case services.AuthRequiredEvent:
		m.state.SetAuthPrompt(e.URL, e.LastError)
		m.authInput.Reset()
		focus := m.authInput.Focus()
		if e.LastError != nil {
			m.state.ClearLoadingNotification()
			return tea.Batch(focus, notifyErrorCmd(fmt.Sprintf("Authorization failed: %v", e.LastError)))
		}
		return focus

	case services.AuthorizedEvent:
		m.state.ClearAuthPrompt()
		m.authInput.Blur()
		if e.Interactive {
			return notifySuccessCmd("Connected to WHOOP")
		}

	case services.CredentialChangedEvent:
		if !e.Exists && m.state.Result() != nil {
			return notifyWarningCmd("Credential file removed. Press r to sign in again.")
		}

	case services.LoggedOutEvent:
		m.state.SetResult(nil)

	case services.ErrorEvent:
		return notifyErrorCmd(fmt.Sprintf("[%s] %v", e.Service, e.Error))
	}

	return nil
}
