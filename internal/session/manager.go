package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/oauth2"

	"github.com/j-veylop/whoop-dashboard-tui/internal/logger"
)

// State is where the manager is in the authorization flow.
type State int32

const (
	// StateNoToken means no session has been established yet.
	StateNoToken State = iota
	// StateAwaitingCode means the user has been asked for an authorization code.
	StateAwaitingCode
	// StateAuthorized means a session is live.
	StateAuthorized
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateAwaitingCode:
		return "awaiting code"
	case StateAuthorized:
		return "authorized"
	default:
		return "no token"
	}
}

// Prompter shows the authorization URL and returns what the user pasted:
// the code or the full redirect URL. lastErr is the reason the previous
// attempt failed, nil on the first one. PromptCode must not call Manager.Get.
type Prompter interface {
	PromptCode(ctx context.Context, authURL string, lastErr error) (string, error)
}

// PromptFunc adapts a function to Prompter.
type PromptFunc func(ctx context.Context, authURL string, lastErr error) (string, error)

// PromptCode calls f.
func (f PromptFunc) PromptCode(ctx context.Context, authURL string, lastErr error) (string, error) {
	return f(ctx, authURL, lastErr)
}

// Session is an authorized handle to the WHOOP API.
type Session struct {
	client   *http.Client
	source   oauth2.TokenSource
	clientID string
}

// Client returns an HTTP client that authorizes every request and refreshes
// the access token when it expires.
func (s *Session) Client() *http.Client {
	return s.client
}

// ClientID returns the OAuth client the session was issued to.
func (s *Session) ClientID() string {
	return s.clientID
}

// Token returns the current token, refreshing it first if needed.
func (s *Session) Token() (*oauth2.Token, error) {
	return s.source.Token()
}

// Options configure a Manager.
type Options struct {
	Credentials Credentials
	Store       *Store
	Prompter    Prompter
	// Endpoint overrides the WHOOP OAuth endpoint.
	Endpoint oauth2.Endpoint
	// HTTPClient is used for token requests and as the base transport of
	// session clients.
	HTTPClient *http.Client
}

// Manager lazily builds the one session of the process. The first Get
// restores it from the credential file or runs the authorization-code flow;
// later calls return the same handle until Invalidate.
type Manager struct {
	mu         sync.Mutex
	cfg        *oauth2.Config
	store      *Store
	prompter   Prompter
	httpClient *http.Client
	session    *Session
	state      atomic.Int32
	now        func() time.Time
}

// NewManager validates the client credentials. It performs no I/O.
func NewManager(opts Options) (*Manager, error) {
	if err := opts.Credentials.Validate(); err != nil {
		return nil, err
	}
	if opts.Store == nil {
		return nil, errors.New("session: store is required")
	}
	if opts.Prompter == nil {
		return nil, errors.New("session: prompter is required")
	}
	return &Manager{
		cfg:        OAuthConfig(opts.Credentials, opts.Endpoint),
		store:      opts.Store,
		prompter:   opts.Prompter,
		httpClient: opts.HTTPClient,
		now:        time.Now,
	}, nil
}

// State returns the current state without blocking.
func (m *Manager) State() State {
	return State(m.state.Load())
}

// Store returns the credential store.
func (m *Manager) Store() *Store {
	return m.store
}

// AuthCodeURL returns an authorization URL for state.
func (m *Manager) AuthCodeURL(state string) string {
	return m.cfg.AuthCodeURL(state)
}

// Get returns the session, creating it on first use. When the credential
// file is missing, or cannot be restored, Get blocks on the prompter until a
// code is exchanged, ctx is done, or the prompter fails.
func (m *Manager) Get(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != nil {
		return m.session, nil
	}

	s, err := m.restore()
	switch {
	case err == nil:
		logger.Info("restored session", "path", m.store.Path())
	case errors.Is(err, ErrNoRecord):
		logger.Info("no credential record, authorization required", "path", m.store.Path())
	default:
		logger.Warn("discarding credential record", "path", m.store.Path(), "error", err)
		if rmErr := m.store.Remove(); rmErr != nil {
			logger.Error("failed to remove credential record", "error", rmErr)
		}
	}

	if s == nil {
		if s, err = m.authorize(ctx); err != nil {
			m.state.Store(int32(StateNoToken))
			return nil, err
		}
	}

	m.session = s
	m.state.Store(int32(StateAuthorized))
	return s, nil
}

// Invalidate drops the live session and deletes the credential record. The
// next Get starts over.
func (m *Manager) Invalidate() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.session = nil
	m.state.Store(int32(StateNoToken))
	return m.store.Remove()
}

// restore loads the record and makes sure its token is usable, refreshing it
// if it has expired.
func (m *Manager) restore() (*Session, error) {
	rec, err := m.store.Load()
	if err != nil {
		return nil, err
	}
	if rec.ClientID != "" && rec.ClientID != m.cfg.ClientID {
		return nil, fmt.Errorf("%w: issued to client %q", ErrTokenStoreCorrupt, rec.ClientID)
	}

	s := m.newSession(rec.Token())
	if _, err := s.Token(); err != nil {
		return nil, fmt.Errorf("%w: refresh failed: %w", ErrTokenStoreCorrupt, err)
	}
	return s, nil
}

func (m *Manager) authorize(ctx context.Context) (*Session, error) {
	m.state.Store(int32(StateAwaitingCode))

	state := NewState()
	authURL := m.cfg.AuthCodeURL(state)

	var lastErr error
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		input, err := m.prompter.PromptCode(ctx, authURL, lastErr)
		if err != nil {
			return nil, err
		}

		code, err := ExtractCode(input, state)
		if err != nil {
			logger.Warn("rejected authorization input", "error", err)
			lastErr = err
			continue
		}

		tok, err := m.cfg.Exchange(m.clientContext(ctx), code)
		if err != nil {
			lastErr = fmt.Errorf("%w: %w", ErrAuthorizationFailed, err)
			logger.Warn("authorization code exchange failed", "error", err)
			continue
		}

		if err := m.store.Save(newRecord(tok, m.cfg.ClientID, m.now())); err != nil {
			// The session still works for this run.
			logger.Error("failed to persist credential record", "error", err)
		}
		logger.Info("authorized", "expires", tok.Expiry)
		return m.newSession(tok), nil
	}
}

// clientContext carries the configured HTTP client to oauth2.
func (m *Manager) clientContext(ctx context.Context) context.Context {
	if m.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
}

// newSession wraps tok in a token source that writes refreshed tokens back
// to the store. The source outlives any single call, so it is bound to a
// background context.
func (m *Manager) newSession(tok *oauth2.Token) *Session {
	ctx := m.clientContext(context.Background())
	src := &persistingSource{
		base: m.cfg.TokenSource(ctx, tok),
		last: tok.AccessToken,
		save: func(t *oauth2.Token) error {
			return m.store.Save(newRecord(t, m.cfg.ClientID, m.now()))
		},
	}
	return &Session{
		client:   oauth2.NewClient(ctx, src),
		source:   src,
		clientID: m.cfg.ClientID,
	}
}

// persistingSource saves every token whose access token differs from the
// last one seen.
type persistingSource struct {
	mu   sync.Mutex
	base oauth2.TokenSource
	last string
	save func(*oauth2.Token) error
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if tok.AccessToken != p.last {
		p.last = tok.AccessToken
		if err := p.save(tok); err != nil {
			logger.Error("failed to persist refreshed token", "error", err)
		} else {
			logger.Debug("persisted refreshed token", "expires", tok.Expiry)
		}
	}
	return tok, nil
}

// ErrPrompterClosed is returned by a prompt on a closed StdinPrompter.
var ErrPrompterClosed = errors.New("prompter closed")

// StdinPrompter asks for the code on a terminal. Input is read one line per
// prompt, so lines typed after the last prompt are left unread.
type StdinPrompter struct {
	out       io.Writer
	in        *bufio.Scanner
	want      chan struct{}
	lines     chan string
	errs      chan error
	done      chan struct{}
	once      sync.Once
	closeOnce sync.Once
}

// NewStdinPrompter reads answers from in and writes instructions to out.
func NewStdinPrompter(in io.Reader, out io.Writer) *StdinPrompter {
	return &StdinPrompter{
		out:   out,
		in:    bufio.NewScanner(in),
		want:  make(chan struct{}),
		lines: make(chan string),
		errs:  make(chan error, 1),
		done:  make(chan struct{}),
	}
}

// readLoop scans one line for each request on want.
func (p *StdinPrompter) readLoop() {
	for {
		select {
		case <-p.want:
		case <-p.done:
			return
		}
		if !p.in.Scan() {
			err := p.in.Err()
			if err == nil {
				err = io.ErrUnexpectedEOF
			}
			p.errs <- fmt.Errorf("no authorization code entered: %w", err)
			return
		}
		select {
		case p.lines <- p.in.Text():
		case <-p.done:
			return
		}
	}
}

// PromptCode prints authURL and waits for one line of input.
func (p *StdinPrompter) PromptCode(ctx context.Context, authURL string, lastErr error) (string, error) {
	p.once.Do(func() { go p.readLoop() })

	if lastErr != nil {
		_, _ = fmt.Fprintf(p.out, "\n%v\nTry again.\n", lastErr)
	}
	_, _ = fmt.Fprintf(p.out, "\nOpen this URL in a browser and approve access:\n\n  %s\n\n", authURL)
	_, _ = fmt.Fprint(p.out, "Paste the code or the full redirect URL: ")

	// A line read for an abandoned prompt answers this one.
	select {
	case p.want <- struct{}{}:
	case line := <-p.lines:
		return line, nil
	case err := <-p.errs:
		p.errs <- err
		return "", err
	case <-p.done:
		return "", ErrPrompterClosed
	case <-ctx.Done():
		return "", ctx.Err()
	}

	select {
	case line := <-p.lines:
		return line, nil
	case err := <-p.errs:
		p.errs <- err
		return "", err
	case <-p.done:
		return "", ErrPrompterClosed
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Close stops the reader goroutine. A read already in progress finishes
// when its line arrives and is dropped.
func (p *StdinPrompter) Close() error {
	p.closeOnce.Do(func() { close(p.done) })
	return nil
}
