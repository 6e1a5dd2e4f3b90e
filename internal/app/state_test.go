package app

import (
	"errors"
	"testing"
	"time"

	"github.com/j-veylop/whoop-dashboard-tui/internal/config"
	"github.com/j-veylop/whoop-dashboard-tui/internal/export"
	"github.com/j-veylop/whoop-dashboard-tui/internal/metrics"
	"github.com/j-veylop/whoop-dashboard-tui/internal/models"
	"github.com/j-veylop/whoop-dashboard-tui/internal/services"
)

var testToday = time.Date(2024, 5, 15, 9, 0, 0, 0, time.UTC)

func testResult(days int) *services.LoadResult {
	ds := &models.Dataset{
		Recovery: []models.Recovery{{
			CycleID:    1,
			CreatedAt:  testToday.Add(-2 * time.Hour),
			ScoreState: models.ScoreStateScored,
			Score:      &models.RecoveryScore{RecoveryScore: 70},
		}},
	}
	return &services.LoadResult{
		Dataset:      ds,
		Engine:       metrics.NewEngine(ds),
		Today:        testToday,
		BaselineDays: days,
	}
}

func TestNewState(t *testing.T) {
	s := NewState()
	if s == nil {
		t.Fatal("NewState returned nil")
	}
	if s.Result() != nil {
		t.Error("Result should be nil")
	}
	if !s.IsInitialLoading() {
		t.Error("Initial loading should be true")
	}
	if s.BaselineDays() != config.DefaultBaselineDays {
		t.Errorf("BaselineDays = %d, want %d", s.BaselineDays(), config.DefaultBaselineDays)
	}
	if s.CorrelationThreshold() != config.DefaultCorrelationThreshold {
		t.Errorf("CorrelationThreshold = %v", s.CorrelationThreshold())
	}
	if s.Period() != models.PeriodLoadedRange {
		t.Errorf("Period = %v, want loaded range", s.Period())
	}
}

func TestNewStateFromConfig(t *testing.T) {
	s := NewStateFromConfig(&config.Config{BaselineDays: 1000, CorrelationThreshold: 0.7})
	if s.BaselineDays() != config.MaxBaselineDays {
		t.Errorf("BaselineDays = %d, want clamped %d", s.BaselineDays(), config.MaxBaselineDays)
	}
	if s.CorrelationThreshold() != 0.7 {
		t.Errorf("CorrelationThreshold = %v, want 0.7", s.CorrelationThreshold())
	}

	if NewStateFromConfig(nil).BaselineDays() != config.DefaultBaselineDays {
		t.Error("nil config should keep the defaults")
	}
}

func TestState_Result(t *testing.T) {
	s := NewState()

	if _, _, ok := s.Windows(); ok {
		t.Error("Windows should not be available before a load")
	}
	if _, ok := s.LoadedRange(); ok {
		t.Error("LoadedRange should not be available before a load")
	}

	s.SetResult(testResult(30))
	if s.IsInitialLoading() {
		t.Error("SetResult should end the initial load")
	}
	if s.LastUpdated().IsZero() {
		t.Error("LastUpdated should be set")
	}

	current, comparison, ok := s.Windows()
	if !ok {
		t.Fatal("Windows should be available")
	}
	if want := metrics.ThisWeek(testToday); current != want {
		t.Errorf("current = %v, want %v", current, want)
	}
	if want := metrics.ComparisonWindow(models.PeriodLoadedRange, testToday, 30); comparison != want {
		t.Errorf("comparison = %v, want %v", comparison, want)
	}

	loaded, ok := s.LoadedRange()
	if !ok || loaded != metrics.LoadRange(testToday, 30) {
		t.Errorf("LoadedRange = %v, %v", loaded, ok)
	}

	s.SetResult(nil)
	if s.Result() != nil {
		t.Error("SetResult(nil) should forget the result")
	}
}

func TestState_CyclePeriod(t *testing.T) {
	s := NewState()
	s.SetResult(testResult(30))

	want := []models.ComparisonPeriod{
		models.PeriodPreviousWeek,
		models.PeriodLast30Days,
		models.PeriodLast90Days,
		models.PeriodLoadedRange,
	}
	for _, p := range want {
		if got := s.CyclePeriod(); got != p {
			t.Fatalf("CyclePeriod() = %v, want %v", got, p)
		}
	}

	s.CyclePeriod()
	_, comparison, _ := s.Windows()
	if want := metrics.ComparisonWindow(models.PeriodPreviousWeek, testToday, 30); comparison != want {
		t.Errorf("comparison = %v, want previous week %v", comparison, want)
	}
}

func TestState_AdjustBaselineDays(t *testing.T) {
	s := NewState()

	tests := []struct {
		delta int
		want  int
	}{
		{7, config.DefaultBaselineDays + 7},
		{-1000, config.MinBaselineDays},
		{1000, config.MaxBaselineDays},
	}
	for _, tt := range tests {
		if got := s.AdjustBaselineDays(tt.delta); got != tt.want {
			t.Errorf("AdjustBaselineDays(%d) = %d, want %d", tt.delta, got, tt.want)
		}
	}
}

func TestState_CycleExportFormat(t *testing.T) {
	s := NewState()
	if s.ExportFormat() != export.CSV {
		t.Fatalf("default format = %s, want csv", s.ExportFormat())
	}

	seen := map[export.Format]bool{s.ExportFormat(): true}
	for range len(export.Formats) - 1 {
		seen[s.CycleExportFormat()] = true
	}
	if len(seen) != len(export.Formats) {
		t.Errorf("cycled through %d formats, want %d", len(seen), len(export.Formats))
	}
	if s.CycleExportFormat() != export.CSV {
		t.Error("cycling should wrap back to csv")
	}
}

func TestState_AuthPrompt(t *testing.T) {
	s := NewState()
	if s.Auth().Active {
		t.Fatal("auth prompt should start hidden")
	}

	failure := errors.New("bad code")
	s.SetAuthPrompt("https://auth.example/authorize", failure)
	auth := s.Auth()
	if !auth.Active || auth.URL != "https://auth.example/authorize" || !errors.Is(auth.LastError, failure) {
		t.Errorf("Auth() = %+v", auth)
	}

	s.ClearAuthPrompt()
	if s.Auth().Active {
		t.Error("ClearAuthPrompt should hide the prompt")
	}
}

func TestState_Loading(t *testing.T) {
	s := NewState()
	s.SetLoading(true)
	if !s.IsLoading() {
		t.Error("IsLoading should be true")
	}
	s.SetLoading(false)
	if s.IsLoading() {
		t.Error("IsLoading should be false")
	}

	s.FinishInitialLoad()
	if s.IsInitialLoading() {
		t.Error("FinishInitialLoad should clear the initial flag")
	}
}

func TestState_Notifications(t *testing.T) {
	s := NewState()

	id := s.AddNotification(NotificationInfo, "hello", time.Minute)
	other := s.AddNotification(NotificationError, "boom", 0)
	if id == other {
		t.Fatal("notification IDs should be unique")
	}
	if n := len(s.GetNotifications()); n != 2 {
		t.Fatalf("got %d notifications, want 2", n)
	}

	s.RemoveNotification(id)
	notifs := s.GetNotifications()
	if len(notifs) != 1 || notifs[0].ID != other {
		t.Errorf("after remove: %+v", notifs)
	}

	s.AddNotification(NotificationInfo, "gone", time.Nanosecond)
	time.Sleep(time.Millisecond)
	s.ClearExpiredNotifications()
	if n := len(s.GetNotifications()); n != 1 {
		t.Errorf("expired notification kept, have %d", n)
	}
}

func TestState_NotificationLimit(t *testing.T) {
	s := NewState()
	for range maxNotifications + 5 {
		s.AddNotification(NotificationInfo, "x", 0)
	}
	if n := len(s.GetNotifications()); n != maxNotifications {
		t.Errorf("got %d notifications, want %d", n, maxNotifications)
	}
}

func TestState_LoadingNotification(t *testing.T) {
	s := NewState()

	s.SetLoadingNotification("Loading 60 days...")
	s.SetLoadingNotification("Loading 67 days...")

	notifs := s.GetNotifications()
	if len(notifs) != 1 {
		t.Fatalf("got %d notifications, want 1", len(notifs))
	}
	if notifs[0].Type != NotificationLoading || notifs[0].Message != "Loading 67 days..." {
		t.Errorf("loading notification = %+v", notifs[0])
	}

	s.ClearLoadingNotification()
	if len(s.GetNotifications()) != 0 {
		t.Error("ClearLoadingNotification should remove it")
	}
}

func TestNotificationType_String(t *testing.T) {
	tests := map[NotificationType]string{
		NotificationSuccess:  "success",
		NotificationError:    "error",
		NotificationWarning:  "warning",
		NotificationInfo:     "info",
		NotificationLoading:  "loading",
		NotificationType(99): "unknown",
	}
	for typ, want := range tests {
		if got := typ.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", typ, got, want)
		}
	}
}
