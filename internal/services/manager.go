// Package services wires the session, the WHOOP client, the record cache and
// the metrics engine together and broadcasts what happens to the TUI.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"

	"github.com/j-veylop/whoop-dashboard-tui/internal/config"
	"github.com/j-veylop/whoop-dashboard-tui/internal/db"
	"github.com/j-veylop/whoop-dashboard-tui/internal/export"
	"github.com/j-veylop/whoop-dashboard-tui/internal/logger"
	"github.com/j-veylop/whoop-dashboard-tui/internal/metrics"
	"github.com/j-veylop/whoop-dashboard-tui/internal/models"
	"github.com/j-veylop/whoop-dashboard-tui/internal/session"
	"github.com/j-veylop/whoop-dashboard-tui/internal/whoop"
)

// maxCachedFetches bounds how many load windows the cache keeps.
const maxCachedFetches = 4

// ErrClosed is returned by calls made after Close.
var ErrClosed = errors.New("service manager closed")

type (
	// AuthRequiredEvent is emitted when the user has to authorize access.
	AuthRequiredEvent struct {
		URL       string
		LastError error
	}

	// AuthorizedEvent is emitted once a session is established.
	AuthorizedEvent struct {
		Interactive bool
	}

	// DataLoadedEvent is emitted after a load finishes.
	DataLoadedEvent struct {
		Result *LoadResult
	}

	// CredentialChangedEvent is emitted when the credential file changes on
	// disk. Exists is false after it was removed.
	CredentialChangedEvent struct {
		Exists bool
	}

	// LoggedOutEvent is emitted after Logout.
	LoggedOutEvent struct{}

	// ErrorEvent is emitted when an error occurs in any service.
	ErrorEvent struct {
		Service string
		Error   error
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (AuthRequiredEvent) isServiceEvent()      {}
func (AuthorizedEvent) isServiceEvent()        {}
func (DataLoadedEvent) isServiceEvent()        {}
func (CredentialChangedEvent) isServiceEvent() {}
func (LoggedOutEvent) isServiceEvent()         {}
func (ErrorEvent) isServiceEvent()             {}

// Fetcher loads records from the API.
type Fetcher interface {
	Fetch(ctx context.Context, start, end time.Time) (*models.Dataset, error)
	Profile(ctx context.Context) (*models.UserProfile, error)
}

// LoadResult is one loaded window ready for display.
type LoadResult struct {
	Dataset      *models.Dataset
	Engine       *metrics.Engine
	Profile      *models.UserProfile
	Today        time.Time
	BaselineDays int
	Key          string
}

// TokenStatus describes the credential record without touching the network.
type TokenStatus struct {
	State      session.State
	Path       string
	Exists     bool
	Corrupt    error
	ExpiresAt  time.Time
	Refreshing bool
	SavedAt    time.Time
}

// Option customizes a Manager.
type Option func(*Manager)

// WithHTTPClient sets the base HTTP client for token and API requests.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) { m.httpClient = c }
}

// WithFetcher replaces the WHOOP client built for each session.
func WithFetcher(fn func(*http.Client) Fetcher) Option {
	return func(m *Manager) { m.newFetcher = fn }
}

// WithPrompter replaces the TUI prompter, e.g. with a terminal prompter.
func WithPrompter(p session.Prompter) Option {
	return func(m *Manager) { m.externalPrompter = p }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithoutWatcher disables watching the credential file.
func WithoutWatcher() Option {
	return func(m *Manager) { m.noWatch = true }
}

// Manager orchestrates services and event routing.
type Manager struct {
	mu               sync.RWMutex
	cfg              *config.Config
	store            *session.Store
	session          *session.Manager
	database         *db.DB
	prompter         *tuiPrompter
	externalPrompter session.Prompter
	httpClient       *http.Client
	newFetcher       func(*http.Client) Fetcher
	now              func() time.Time
	noWatch          bool
	subscribers      []chan<- ServiceEvent
	stopChan         chan struct{}
	closed           bool
	notify           func(title, message string)
}

// NewManager creates a new service manager. It does not authorize; the first
// Load or Authorize does.
func NewManager(cfg *config.Config, opts ...Option) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &Manager{
		cfg:      cfg,
		store:    session.NewStore(cfg.TokenPath),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.newFetcher == nil {
		m.newFetcher = func(c *http.Client) Fetcher {
			return whoop.New(c, cfg.APIBaseURL, cfg.RequestTimeout)
		}
	}
	m.notify = func(title, message string) {
		if !cfg.Notifications {
			return
		}
		if err := beeep.Notify(title, message, ""); err != nil {
			logger.Debug("desktop notification failed", "error", err)
		}
	}

	var prompter session.Prompter = m.externalPrompter
	if prompter == nil {
		m.prompter = newTUIPrompter(m)
		prompter = m.prompter
	}

	var err error
	m.session, err = session.NewManager(session.Options{
		Credentials: session.Credentials{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURI:  cfg.RedirectURI,
		},
		Store:      m.store,
		Prompter:   prompter,
		HTTPClient: m.httpClient,
	})
	if err != nil {
		return nil, err
	}

	m.database, err = db.New(db.MemoryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}

	if !m.noWatch {
		if err := m.store.Watch(m.handleCredentialChange); err != nil {
			logger.Warn("not watching credential file", "error", err)
		}
	}

	return m, nil
}

// Config returns the configuration the manager was built with.
func (m *Manager) Config() *config.Config {
	return m.cfg
}

// Session returns the session manager.
func (m *Manager) Session() *session.Manager {
	return m.session
}

// Database returns the record cache.
func (m *Manager) Database() *db.DB {
	return m.database
}

// AuthState returns where the authorization flow is.
func (m *Manager) AuthState() session.State {
	return m.session.State()
}

// TokenStatus reads the credential record.
func (m *Manager) TokenStatus() TokenStatus {
	st := TokenStatus{
		State:  m.session.State(),
		Path:   m.store.Path(),
		Exists: m.store.Exists(),
	}
	if !st.Exists {
		return st
	}
	rec, err := m.store.Load()
	if err != nil {
		st.Corrupt = err
		return st
	}
	st.ExpiresAt = rec.ExpiresAt
	st.SavedAt = rec.SavedAt
	st.Refreshing = rec.RefreshToken != ""
	return st
}

// Authorize returns the session, running the authorization flow if needed.
func (m *Manager) Authorize(ctx context.Context) (*session.Session, error) {
	before := m.session.State()
	s, err := m.session.Get(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, ErrClosed) {
			return nil, err
		}
		m.broadcast(ErrorEvent{Service: "session", Error: err})
		return nil, err
	}
	if before != session.StateAuthorized {
		interactive := m.prompter != nil && m.prompter.prompted()
		m.broadcast(AuthorizedEvent{Interactive: interactive})
		if interactive {
			m.notify("WHOOP connected", "Authorization succeeded.")
		}
	}
	return s, nil
}

// SubmitCode hands a pasted code or redirect URL to a waiting authorization.
func (m *Manager) SubmitCode(input string) error {
	if m.prompter == nil {
		return errors.New("codes are read from the terminal")
	}
	return m.prompter.submit(input)
}

// FetchKey identifies a load: the baseline length and the ten-minute slot.
func FetchKey(baselineDays int, today time.Time) string {
	return fmt.Sprintf("%dd@%s", baselineDays, today.Format("2006-01-02T15:04"))
}

// Load returns the records for the baseline window ending now. A load with
// the same key is served from the cache unless force is set.
func (m *Manager) Load(ctx context.Context, baselineDays int, force bool) (*LoadResult, error) {
	baselineDays = config.ClampBaselineDays(baselineDays)
	today := metrics.RoundToTenMinutes(m.now())
	key := FetchKey(baselineDays, today)

	if !force {
		ds, ok, err := m.database.GetDataset(key)
		if err != nil {
			logger.Warn("cache read failed", "key", key, "error", err)
		}
		if ok {
			profile, _ := m.database.GetProfile()
			res := newLoadResult(ds, profile, today, baselineDays, key)
			m.broadcast(DataLoadedEvent{Result: res})
			return res, nil
		}
	}

	s, err := m.Authorize(ctx)
	if err != nil {
		return nil, err
	}
	fetcher := m.newFetcher(s.Client())

	rng := metrics.LoadRange(today, baselineDays)
	start := time.Now()
	ds, err := fetcher.Fetch(ctx, rng.Start, rng.End)
	if err != nil {
		if errors.Is(err, whoop.ErrUnauthorized) {
			logger.Warn("API rejected the session, dropping it", "error", err)
			if invErr := m.session.Invalidate(); invErr != nil {
				logger.Error("failed to invalidate session", "error", invErr)
			}
		}
		err = fmt.Errorf("failed to load records: %w", err)
		m.broadcast(ErrorEvent{Service: "whoop", Error: err})
		return nil, err
	}
	logger.Info("loaded records", "key", key, "duration", time.Since(start), "counts", ds.RecordCounts())

	if err := m.database.PutDataset(key, ds); err != nil {
		logger.Warn("cache write failed", "key", key, "error", err)
	} else if _, err := m.database.PruneFetches(maxCachedFetches); err != nil {
		logger.Warn("cache prune failed", "error", err)
	}

	profile := m.loadProfile(ctx, fetcher)
	res := newLoadResult(ds, profile, today, baselineDays, key)
	m.broadcast(DataLoadedEvent{Result: res})
	return res, nil
}

func (m *Manager) loadProfile(ctx context.Context, f Fetcher) *models.UserProfile {
	if p, err := m.database.GetProfile(); err == nil && p != nil {
		return p
	}
	p, err := f.Profile(ctx)
	if err != nil {
		logger.Warn("profile request failed", "error", err)
		return nil
	}
	if err := m.database.PutProfile(p); err != nil {
		logger.Warn("failed to cache profile", "error", err)
	}
	return p
}

func newLoadResult(ds *models.Dataset, p *models.UserProfile, today time.Time, days int, key string) *LoadResult {
	return &LoadResult{
		Dataset:      ds,
		Engine:       metrics.NewEngine(ds),
		Profile:      p,
		Today:        today,
		BaselineDays: days,
		Key:          key,
	}
}

// Export writes the four record tables of ds to the export directory.
func (m *Manager) Export(ds *models.Dataset, f export.Format) ([]string, error) {
	if ds == nil {
		return nil, errors.New("nothing loaded to export")
	}
	now := m.now()
	tables := []*metrics.Table{
		metrics.RecoveryTable(ds.Recovery, ds.Cycles),
		metrics.SleepTable(ds.Sleep),
		metrics.WorkoutTable(ds.Workouts),
		metrics.CycleTable(ds.Cycles),
	}

	var paths []string
	for _, t := range tables {
		path, err := export.SaveTable(m.cfg.ExportDir, t, f, now)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	logger.Info("exported tables", "dir", m.cfg.ExportDir, "format", f, "files", len(paths))
	return paths, nil
}

// Logout deletes the credential record and forgets everything cached.
func (m *Manager) Logout() error {
	err := errors.Join(m.session.Invalidate(), m.database.Clear())
	if err != nil {
		return err
	}
	m.broadcast(LoggedOutEvent{})
	return nil
}

// handleCredentialChange runs after the credential file changed on disk.
func (m *Manager) handleCredentialChange() {
	exists := m.store.Exists()
	if !exists && m.session.State() == session.StateAuthorized {
		logger.Warn("credential record removed outside the dashboard, dropping session")
		if err := m.session.Invalidate(); err != nil {
			logger.Error("failed to invalidate session", "error", err)
		}
	}
	m.broadcast(CredentialChangedEvent{Exists: exists})
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, WaitForEvent(ch)
}

// WaitForEvent returns a tea.Cmd that waits for the next event on ch.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return event
	}
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// Close stops watching, releases waiting prompts and closes the cache.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	close(m.stopChan)
	for _, sub := range m.subscribers {
		close(sub)
	}
	m.subscribers = nil
	m.mu.Unlock()

	var errs []error
	if err := m.store.Close(); err != nil {
		errs = append(errs, err)
	}
	if c, ok := m.externalPrompter.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if m.database != nil {
		if err := m.database.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
