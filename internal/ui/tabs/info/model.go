// Package info provides the info tab: configuration, the credential record,
// the record cache and build details.
package info

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/whoop-dashboard-tui/internal/app"
	"github.com/j-veylop/whoop-dashboard-tui/internal/config"
	"github.com/j-veylop/whoop-dashboard-tui/internal/db"
	"github.com/j-veylop/whoop-dashboard-tui/internal/logger"
	"github.com/j-veylop/whoop-dashboard-tui/internal/services"
)

// statusTTL is how long the token status and cache listing are reused
// between renders.
const statusTTL = 2 * time.Second

// Backend is what the info tab reads. *services.Manager implements it.
type Backend interface {
	Config() *config.Config
	TokenStatus() services.TokenStatus
	Database() *db.DB
}

// keyMap defines the key bindings specific to the info tab.
type keyMap struct {
	Reveal key.Binding
	Up     key.Binding
	Down   key.Binding
}

// defaultKeyMap returns the default key bindings for the info tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Reveal: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "show client id"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
	}
}

// Model represents the info tab state.
type Model struct {
	state    *app.State
	backend  Backend
	width    int
	height   int
	keys     keyMap
	viewport viewport.Model
	reveal   bool

	status    services.TokenStatus
	fetches   []db.FetchInfo
	fetchErr  error
	checkedAt time.Time
	now       func() time.Time
}

// New creates a new info model. backend may be nil.
func New(state *app.State, backend Backend) *Model {
	return &Model{
		state:    state,
		backend:  backend,
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
		now:      time.Now,
	}
}

// Init initializes the info tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the info tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case app.DataLoadedMsg, app.LogoutResultMsg:
		m.checkedAt = time.Time{}
	case app.ServiceEventMsg:
		if _, ok := msg.Event.(services.CredentialChangedEvent); ok {
			m.checkedAt = time.Time{}
		}
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Reveal) {
			m.reveal = !m.reveal
			return m, nil
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// refresh rereads the token file and the cache when the last read is stale.
func (m *Model) refresh() {
	if m.backend == nil {
		return
	}
	now := m.now()
	if !m.checkedAt.IsZero() && now.Sub(m.checkedAt) < statusTTL {
		return
	}
	m.checkedAt = now
	m.status = m.backend.TokenStatus()
	m.fetches, m.fetchErr = m.backend.Database().ListFetches()
	if m.fetchErr != nil {
		logger.Warn("failed to list cached fetches", "error", m.fetchErr)
	}
}

// SetSize sets the available size for the info tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Reveal}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Reveal},
		{m.keys.Up, m.keys.Down},
	}
}
