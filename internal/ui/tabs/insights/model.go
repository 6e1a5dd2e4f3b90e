// Package insights provides the tab with correlation discovery over the
// sleep table and the weekday/weekend split of the headline metrics.
package insights

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/whoop-dashboard-tui/internal/app"
)

type keyMap struct {
	ToggleHeatmap key.Binding
	Up            key.Binding
	Down          key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		ToggleHeatmap: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "toggle heat map"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
	}
}

// Model represents the insights tab state.
type Model struct {
	state       *app.State
	keys        keyMap
	viewport    viewport.Model
	showHeatmap bool
	width       int
	height      int
}

// New creates a new insights model.
func New(state *app.State) *Model {
	return &Model{
		state:       state,
		keys:        defaultKeyMap(),
		viewport:    viewport.New(0, 0),
		showHeatmap: true,
	}
}

// Init initializes the insights tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the insights tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if key.Matches(keyMsg, m.keys.ToggleHeatmap) {
		m.showHeatmap = !m.showHeatmap
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(keyMsg)
	return m, cmd
}

// SetSize sets the available size for the insights tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.ToggleHeatmap, m.keys.Up, m.keys.Down}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{{m.keys.ToggleHeatmap}, {m.keys.Up, m.keys.Down}}
}
