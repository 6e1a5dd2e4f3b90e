// Package trends provides the tab that plots a single metric over the
// loaded range.
package trends

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/whoop-dashboard-tui/internal/app"
	"github.com/j-veylop/whoop-dashboard-tui/internal/metrics"
)

type keyMap struct {
	NextMetric key.Binding
	PrevMetric key.Binding
	Up         key.Binding
	Down       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		NextMetric: key.NewBinding(
			key.WithKeys("n", "j", "down"),
			key.WithHelp("n/j", "next metric"),
		),
		PrevMetric: key.NewBinding(
			key.WithKeys("b", "k", "up"),
			key.WithHelp("b/k", "previous metric"),
		),
		Up: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdown", "scroll down"),
		),
	}
}

// Model represents the trends tab state.
type Model struct {
	state    *app.State
	keys     keyMap
	viewport viewport.Model
	catalog  []metrics.Definition
	selected int
	width    int
	height   int
}

// New creates a new trends model.
func New(state *app.State) *Model {
	return &Model{
		state:    state,
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
		catalog:  metrics.Catalog(),
	}
}

// Init initializes the trends tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Selected returns the metric being plotted.
func (m *Model) Selected() metrics.Definition {
	return m.catalog[m.selected]
}

// Update handles messages for the trends tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.NextMetric):
		m.selected = (m.selected + 1) % len(m.catalog)
		m.viewport.GotoTop()
	case key.Matches(keyMsg, m.keys.PrevMetric):
		m.selected = (m.selected - 1 + len(m.catalog)) % len(m.catalog)
		m.viewport.GotoTop()
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(keyMsg)
		return m, cmd
	}
	return m, nil
}

// SetSize sets the available size for the trends tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.NextMetric, m.keys.PrevMetric}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{{m.keys.NextMetric, m.keys.PrevMetric}, {m.keys.Up, m.keys.Down}}
}
