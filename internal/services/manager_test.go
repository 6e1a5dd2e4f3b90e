package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/j-veylop/whoop-dashboard-tui/internal/config"
	"github.com/j-veylop/whoop-dashboard-tui/internal/export"
	"github.com/j-veylop/whoop-dashboard-tui/internal/models"
	"github.com/j-veylop/whoop-dashboard-tui/internal/session"
	"github.com/j-veylop/whoop-dashboard-tui/internal/whoop"
)

// MockRoundTripper implements http.RoundTripper for testing.
type MockRoundTripper struct {
	RoundTripFunc func(req *http.Request) (*http.Response, error)
}

func (m *MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.RoundTripFunc(req)
}

// tokenEndpoint accepts the code "good" and nothing else.
func tokenEndpoint() *http.Client {
	return &http.Client{Transport: &MockRoundTripper{
		RoundTripFunc: func(req *http.Request) (*http.Response, error) {
			body, _ := io.ReadAll(req.Body)
			form, _ := url.ParseQuery(string(body))
			status, payload := 400, `{"error":"invalid_grant"}`
			if form.Get("grant_type") == "authorization_code" && form.Get("code") == "good" {
				status, payload = 200, `{"access_token":"fresh","refresh_token":"r1","token_type":"bearer","expires_in":3600}`
			}
			return &http.Response{
				StatusCode: status,
				Header:     http.Header{"Content-Type": []string{"application/json"}},
				Body:       io.NopCloser(strings.NewReader(payload)),
			}, nil
		},
	}}
}

type fakeFetcher struct {
	mu       sync.Mutex
	ds       *models.Dataset
	err      error
	fetches  int
	profiles int
}

func (f *fakeFetcher) Fetch(_ context.Context, start, end time.Time) (*models.Dataset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.err != nil {
		return nil, f.err
	}
	ds := *f.ds
	ds.Start, ds.End = start, end
	return &ds, nil
}

func (f *fakeFetcher) Profile(context.Context) (*models.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles++
	return &models.UserProfile{UserID: 7, FirstName: "Ada", LastName: "L"}, nil
}

func (f *fakeFetcher) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches, f.profiles
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func sampleDataset() *models.Dataset {
	day := time.Date(2024, 5, 14, 7, 0, 0, 0, time.UTC)
	return &models.Dataset{
		Recovery: []models.Recovery{{
			CycleID:    1,
			CreatedAt:  day,
			ScoreState: models.ScoreStateScored,
			Score:      &models.RecoveryScore{RecoveryScore: 66},
		}},
		Sleep:    []models.Sleep{{ID: "s1", Start: day.Add(-8 * time.Hour), End: day}},
		Workouts: []models.Workout{{ID: "w1", Start: day, End: day.Add(time.Hour), SportName: "running"}},
		Cycles:   []models.Cycle{{ID: 1, Start: day}},
	}
}

type testEnv struct {
	mgr     *Manager
	cfg     *config.Config
	fetcher *fakeFetcher
	clock   *clock
}

func newTestManager(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		ClientID:       "client",
		ClientSecret:   "secret",
		RedirectURI:    "https://localhost/callback",
		TokenPath:      filepath.Join(dir, "token.json"),
		ExportDir:      filepath.Join(dir, "exports"),
		BaselineDays:   30,
		RequestTimeout: time.Second,
	}
	env := &testEnv{
		cfg:     cfg,
		fetcher: &fakeFetcher{ds: sampleDataset()},
		clock:   &clock{now: time.Date(2024, 5, 15, 9, 3, 0, 0, time.UTC)},
	}

	all := append([]Option{
		WithoutWatcher(),
		WithHTTPClient(tokenEndpoint()),
		WithClock(env.clock.Now),
		WithFetcher(func(*http.Client) Fetcher { return env.fetcher }),
	}, opts...)

	mgr, err := NewManager(cfg, all...)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	t.Cleanup(func() { mgr.Close() })
	env.mgr = mgr
	return env
}

func seedRecord(t *testing.T, path string) {
	t.Helper()
	err := session.NewStore(path).Save(&session.Record{
		AccessToken:  "stored",
		RefreshToken: "r0",
		TokenType:    "Bearer",
		ExpiresAt:    time.Now().Add(time.Hour),
		ClientID:     "client",
	})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
}

// nextEvent returns the first event of type T, skipping others.
func nextEvent[T ServiceEvent](t *testing.T, ch <-chan ServiceEvent) T {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case e, ok := <-ch:
			if !ok {
				t.Fatalf("event channel closed waiting for %T", *new(T))
			}
			if got, ok := e.(T); ok {
				return got
			}
		case <-timeout:
			t.Fatalf("timeout waiting for %T", *new(T))
		}
	}
}

func TestNewManager_ConfigMissing(t *testing.T) {
	_, err := NewManager(&config.Config{ClientID: "id"})
	if !errors.Is(err, config.ErrConfigMissing) {
		t.Fatalf("err = %v, want ErrConfigMissing", err)
	}
}

func TestNewManager(t *testing.T) {
	env := newTestManager(t)

	if env.mgr.Session() == nil {
		t.Error("Session manager should be initialized")
	}
	if env.mgr.Database() == nil || !env.mgr.Database().InMemory() {
		t.Error("Cache should be an in-memory database")
	}
	if env.mgr.AuthState() != session.StateNoToken {
		t.Errorf("AuthState = %v, want %v", env.mgr.AuthState(), session.StateNoToken)
	}
}

func TestFetchKey(t *testing.T) {
	now := time.Date(2024, 5, 15, 9, 0, 0, 0, time.UTC)
	if got := FetchKey(30, now); got != "30d@2024-05-15T09:00" {
		t.Errorf("FetchKey = %q", got)
	}
}

func TestManager_LoadRestoresAndCaches(t *testing.T) {
	env := newTestManager(t)
	seedRecord(t, env.cfg.TokenPath)

	ch, _ := env.mgr.Subscribe()
	ctx := context.Background()

	res, err := env.mgr.Load(ctx, 30, false)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if res.Key != "30d@2024-05-15T09:00" {
		t.Errorf("Key = %q", res.Key)
	}
	if res.Engine == nil || res.Dataset == nil {
		t.Fatal("result should carry a dataset and an engine")
	}
	if res.Profile == nil || res.Profile.DisplayName() != "Ada L" {
		t.Errorf("Profile = %+v", res.Profile)
	}
	if got := res.Dataset.End.Sub(res.Dataset.Start); got < 30*24*time.Hour {
		t.Errorf("fetched range %v is shorter than the baseline", got)
	}

	authorized := nextEvent[AuthorizedEvent](t, ch)
	if authorized.Interactive {
		t.Error("restored session should not count as interactive")
	}
	nextEvent[DataLoadedEvent](t, ch)

	// Same ten-minute slot: served from the cache.
	env.clock.Advance(5 * time.Minute)
	cached, err := env.mgr.Load(ctx, 30, false)
	if err != nil {
		t.Fatalf("cached Load failed: %v", err)
	}
	if !cached.Dataset.FromCache {
		t.Error("second load should come from the cache")
	}
	if cached.Profile == nil {
		t.Error("cached load should carry the cached profile")
	}
	if fetches, profiles := env.fetcher.counts(); fetches != 1 || profiles != 1 {
		t.Errorf("fetches = %d, profiles = %d, want 1, 1", fetches, profiles)
	}

	if _, err := env.mgr.Load(ctx, 30, true); err != nil {
		t.Fatalf("forced Load failed: %v", err)
	}
	env.clock.Advance(10 * time.Minute)
	if _, err := env.mgr.Load(ctx, 30, false); err != nil {
		t.Fatalf("next-slot Load failed: %v", err)
	}
	if fetches, profiles := env.fetcher.counts(); fetches != 3 || profiles != 1 {
		t.Errorf("fetches = %d, profiles = %d, want 3, 1", fetches, profiles)
	}
}

func TestManager_LoadClampsBaseline(t *testing.T) {
	env := newTestManager(t)
	seedRecord(t, env.cfg.TokenPath)

	res, err := env.mgr.Load(context.Background(), 10_000, false)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if res.BaselineDays != config.MaxBaselineDays {
		t.Errorf("BaselineDays = %d, want %d", res.BaselineDays, config.MaxBaselineDays)
	}
}

func TestManager_AuthorizeThroughSubmitCode(t *testing.T) {
	env := newTestManager(t)
	ch, _ := env.mgr.Subscribe()

	if err := env.mgr.SubmitCode("good"); !errors.Is(err, ErrNotAwaitingCode) {
		t.Fatalf("SubmitCode before prompt = %v, want ErrNotAwaitingCode", err)
	}

	type result struct {
		res *LoadResult
		err error
	}
	done := make(chan result, 1)
	go func() {
		res, err := env.mgr.Load(context.Background(), 30, false)
		done <- result{res, err}
	}()

	first := nextEvent[AuthRequiredEvent](t, ch)
	if first.URL == "" || first.LastError != nil {
		t.Fatalf("first prompt = %+v", first)
	}
	if env.mgr.AuthState() != session.StateAwaitingCode {
		t.Errorf("AuthState = %v, want %v", env.mgr.AuthState(), session.StateAwaitingCode)
	}

	select {
	case <-done:
		t.Fatal("Load returned before a code was supplied")
	default:
	}

	if err := env.mgr.SubmitCode("bad"); err != nil {
		t.Fatalf("SubmitCode failed: %v", err)
	}
	second := nextEvent[AuthRequiredEvent](t, ch)
	if !errors.Is(second.LastError, session.ErrAuthorizationFailed) {
		t.Errorf("LastError = %v, want ErrAuthorizationFailed", second.LastError)
	}
	if second.URL != first.URL {
		t.Error("authorization URL should not change between attempts")
	}

	if err := env.mgr.SubmitCode("good"); err != nil {
		t.Fatalf("SubmitCode failed: %v", err)
	}

	select {
	case r := <-done:
		if r.err != nil {
			t.Fatalf("Load failed: %v", r.err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Load did not finish after a good code")
	}

	if !nextEvent[AuthorizedEvent](t, ch).Interactive {
		t.Error("AuthorizedEvent should be interactive")
	}
	if env.mgr.AuthState() != session.StateAuthorized {
		t.Errorf("AuthState = %v, want %v", env.mgr.AuthState(), session.StateAuthorized)
	}
	st := env.mgr.TokenStatus()
	if !st.Exists || st.Corrupt != nil || !st.Refreshing {
		t.Errorf("TokenStatus = %+v", st)
	}
}

func TestManager_CloseReleasesPrompt(t *testing.T) {
	env := newTestManager(t)
	ch, _ := env.mgr.Subscribe()

	done := make(chan error, 1)
	go func() {
		_, err := env.mgr.Load(context.Background(), 30, false)
		done <- err
	}()
	nextEvent[AuthRequiredEvent](t, ch)

	if err := env.mgr.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	select {
	case err := <-done:
		if !errors.Is(err, ErrClosed) {
			t.Errorf("err = %v, want ErrClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Load still blocked after Close")
	}
	if err := env.mgr.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}

func TestManager_LoadCancelled(t *testing.T) {
	env := newTestManager(t)
	ch, _ := env.mgr.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := env.mgr.Load(ctx, 30, false)
		done <- err
	}()
	nextEvent[AuthRequiredEvent](t, ch)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Load still blocked after cancel")
	}
	if env.mgr.AuthState() != session.StateNoToken {
		t.Errorf("AuthState = %v, want %v", env.mgr.AuthState(), session.StateNoToken)
	}
}

func TestManager_UnauthorizedDropsSession(t *testing.T) {
	env := newTestManager(t)
	seedRecord(t, env.cfg.TokenPath)
	env.fetcher.err = fmt.Errorf("recovery: %w", &whoop.APIError{StatusCode: 401, Path: "/developer/v2/recovery"})

	ch, _ := env.mgr.Subscribe()
	_, err := env.mgr.Load(context.Background(), 30, false)
	if !errors.Is(err, whoop.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if env.mgr.AuthState() != session.StateNoToken {
		t.Errorf("AuthState = %v, want %v", env.mgr.AuthState(), session.StateNoToken)
	}
	if _, statErr := os.Stat(env.cfg.TokenPath); !os.IsNotExist(statErr) {
		t.Error("credential record should be removed")
	}
	if e := nextEvent[ErrorEvent](t, ch); e.Service != "whoop" {
		t.Errorf("ErrorEvent.Service = %q", e.Service)
	}
}

func TestManager_Logout(t *testing.T) {
	env := newTestManager(t)
	seedRecord(t, env.cfg.TokenPath)

	if _, err := env.mgr.Load(context.Background(), 30, false); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	ch, _ := env.mgr.Subscribe()

	if err := env.mgr.Logout(); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	nextEvent[LoggedOutEvent](t, ch)

	if env.mgr.TokenStatus().Exists {
		t.Error("credential record should be gone")
	}
	fetches, err := env.mgr.Database().ListFetches()
	if err != nil {
		t.Fatalf("ListFetches failed: %v", err)
	}
	if len(fetches) != 0 {
		t.Errorf("cache holds %d fetches after logout", len(fetches))
	}
}

func TestManager_CredentialRemovedExternally(t *testing.T) {
	env := newTestManager(t)
	seedRecord(t, env.cfg.TokenPath)
	if _, err := env.mgr.Authorize(context.Background()); err != nil {
		t.Fatalf("Authorize failed: %v", err)
	}
	ch, _ := env.mgr.Subscribe()

	if err := os.Remove(env.cfg.TokenPath); err != nil {
		t.Fatal(err)
	}
	env.mgr.handleCredentialChange()

	if e := nextEvent[CredentialChangedEvent](t, ch); e.Exists {
		t.Error("CredentialChangedEvent.Exists should be false")
	}
	if env.mgr.AuthState() != session.StateNoToken {
		t.Errorf("AuthState = %v, want %v", env.mgr.AuthState(), session.StateNoToken)
	}
}

func TestManager_TokenStatusCorrupt(t *testing.T) {
	env := newTestManager(t)
	if err := os.WriteFile(env.cfg.TokenPath, []byte("{"), 0o600); err != nil {
		t.Fatal(err)
	}
	st := env.mgr.TokenStatus()
	if !st.Exists || !errors.Is(st.Corrupt, session.ErrTokenStoreCorrupt) {
		t.Errorf("TokenStatus = %+v", st)
	}
}

func TestManager_Export(t *testing.T) {
	env := newTestManager(t)

	if _, err := env.mgr.Export(nil, export.CSV); err == nil {
		t.Error("Export(nil) should fail")
	}

	paths, err := env.mgr.Export(sampleDataset(), export.JSON)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if len(paths) != 4 {
		t.Fatalf("got %d files, want 4", len(paths))
	}
	for _, name := range []string{"recovery", "sleep", "workout", "cycle"} {
		want := filepath.Join(env.cfg.ExportDir, "whoop_"+name+"_20240515-090300.json")
		if _, err := os.Stat(want); err != nil {
			t.Errorf("missing export %s: %v", want, err)
		}
	}
}

func TestManager_WithPrompter(t *testing.T) {
	prompter := session.PromptFunc(func(context.Context, string, error) (string, error) {
		return "good", nil
	})
	env := newTestManager(t, WithPrompter(prompter))

	if err := env.mgr.SubmitCode("good"); err == nil {
		t.Error("SubmitCode should fail when codes come from an external prompter")
	}
	if _, err := env.mgr.Authorize(context.Background()); err != nil {
		t.Fatalf("Authorize failed: %v", err)
	}
	if env.mgr.AuthState() != session.StateAuthorized {
		t.Errorf("AuthState = %v", env.mgr.AuthState())
	}
}

func TestManager_CloseStopsTerminalPrompter(t *testing.T) {
	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })
	prompter := session.NewStdinPrompter(pr, io.Discard)
	env := newTestManager(t, WithPrompter(prompter))

	if err := env.mgr.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := prompter.PromptCode(context.Background(), "u", nil); !errors.Is(err, session.ErrPrompterClosed) {
		t.Errorf("PromptCode after Close error = %v, want ErrPrompterClosed", err)
	}
}

func TestManager_Subscription(t *testing.T) {
	env := newTestManager(t)

	ch, cmd := env.mgr.Subscribe()
	if ch == nil {
		t.Error("Subscribe returned nil channel")
	}
	if cmd == nil {
		t.Error("Subscribe returned nil command")
	}

	env.mgr.Unsubscribe(ch)

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("Channel should be closed")
		}
	case <-time.After(time.Second):
		t.Error("Channel should be closed after Unsubscribe")
	}
}

func TestManager_Broadcast(t *testing.T) {
	env := newTestManager(t)

	ch, _ := env.mgr.Subscribe()
	defer env.mgr.Unsubscribe(ch)

	event := CredentialChangedEvent{Exists: true}
	env.mgr.broadcast(event)

	select {
	case e := <-ch:
		if e != event {
			t.Errorf("Got event %v, want %v", e, event)
		}
	case <-time.After(time.Second):
		t.Error("Timeout waiting for broadcast")
	}
}

func TestWaitForEvent(t *testing.T) {
	ch := make(chan ServiceEvent, 1)
	ch <- LoggedOutEvent{}

	if msg := WaitForEvent(ch)(); msg != (LoggedOutEvent{}) {
		t.Errorf("WaitForEvent = %v", msg)
	}
	close(ch)
	if msg := WaitForEvent(ch)(); msg != nil {
		t.Errorf("WaitForEvent on closed channel = %v, want nil", msg)
	}
}
