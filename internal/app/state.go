// Package app provides the main Bubble Tea application model and state management.
package app

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/j-veylop/whoop-dashboard-tui/internal/config"
	"github.com/j-veylop/whoop-dashboard-tui/internal/export"
	"github.com/j-veylop/whoop-dashboard-tui/internal/metrics"
	"github.com/j-veylop/whoop-dashboard-tui/internal/models"
	"github.com/j-veylop/whoop-dashboard-tui/internal/services"
)

// NotificationType defines the type of notification.
type NotificationType int

const (
	// NotificationSuccess represents a success notification.
	NotificationSuccess NotificationType = iota
	// NotificationError represents an error notification.
	NotificationError
	// NotificationWarning represents a warning notification.
	NotificationWarning
	// NotificationInfo represents an informational notification.
	NotificationInfo
	// NotificationLoading represents a loading notification with spinner.
	NotificationLoading
)

const (
	// LoadingNotificationID is the fixed ID for loading notifications.
	LoadingNotificationID = "__loading__"

	maxNotifications = 10
)

// String returns the string representation of a NotificationType.
func (n NotificationType) String() string {
	switch n {
	case NotificationSuccess:
		return "success"
	case NotificationError:
		return "error"
	case NotificationWarning:
		return "warning"
	case NotificationInfo:
		return "info"
	case NotificationLoading:
		return "loading"
	default:
		return "unknown"
	}
}

// Notification represents a user-facing notification message.
type Notification struct {
	ID        string
	Type      NotificationType
	Message   string
	CreatedAt time.Time
	Duration  time.Duration
}

// IsExpired returns true if the notification has expired.
func (n *Notification) IsExpired() bool {
	if n.Duration <= 0 {
		return false
	}
	return time.Since(n.CreatedAt) > n.Duration
}

// AuthPrompt is what the authorization overlay shows.
type AuthPrompt struct {
	Active    bool
	URL       string
	LastError error
}

// State is the shared state every tab renders from.
type State struct {
	mu sync.RWMutex

	result       *services.LoadResult
	period       models.ComparisonPeriod
	baselineDays int
	threshold    float64
	exportFormat export.Format
	auth         AuthPrompt
	loading      bool
	initial      bool
	lastUpdated  time.Time

	notifications []Notification
}

// NewState returns the state for a fresh session.
func NewState() *State {
	return &State{
		baselineDays: config.DefaultBaselineDays,
		threshold:    config.DefaultCorrelationThreshold,
		exportFormat: export.CSV,
		initial:      true,
	}
}

// NewStateFromConfig seeds the adjustable settings from cfg.
func NewStateFromConfig(cfg *config.Config) *State {
	s := NewState()
	if cfg != nil {
		s.baselineDays = config.ClampBaselineDays(cfg.BaselineDays)
		s.threshold = cfg.CorrelationThreshold
	}
	return s
}

// SetResult stores the loaded window. nil forgets it.
func (s *State) SetResult(r *services.LoadResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = r
	s.initial = false
	if r != nil {
		s.lastUpdated = time.Now()
	}
}

// Result returns the loaded window, or nil.
func (s *State) Result() *services.LoadResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

// Windows returns the current week and the selected comparison window for
// the loaded data. ok is false when nothing is loaded.
func (s *State) Windows() (current, comparison metrics.Window, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.result == nil {
		return metrics.Window{}, metrics.Window{}, false
	}
	today := s.result.Today
	return metrics.ThisWeek(today),
		metrics.ComparisonWindow(s.period, today, s.result.BaselineDays),
		true
}

// LoadedRange returns the range of the loaded data.
func (s *State) LoadedRange() (metrics.Window, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.result == nil {
		return metrics.Window{}, false
	}
	return metrics.LoadRange(s.result.Today, s.result.BaselineDays), true
}

// Period returns the selected comparison period.
func (s *State) Period() models.ComparisonPeriod {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.period
}

// CyclePeriod selects the next comparison period and returns it.
func (s *State) CyclePeriod() models.ComparisonPeriod {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.period = s.period.Next()
	return s.period
}

// BaselineDays returns how many days are loaded.
func (s *State) BaselineDays() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.baselineDays
}

// AdjustBaselineDays changes the number of days to load by delta, clamped,
// and returns the new value.
func (s *State) AdjustBaselineDays(delta int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.baselineDays = config.ClampBaselineDays(s.baselineDays + delta)
	return s.baselineDays
}

// CorrelationThreshold returns the minimum |r| shown on the insights tab.
func (s *State) CorrelationThreshold() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.threshold
}

// ExportFormat returns the format used by the export key.
func (s *State) ExportFormat() export.Format {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.exportFormat
}

// CycleExportFormat selects the next export format and returns it.
func (s *State) CycleExportFormat() export.Format {
	s.mu.Lock()
	defer s.mu.Unlock()
	formats := export.Formats
	for i, f := range formats {
		if f == s.exportFormat {
			s.exportFormat = formats[(i+1)%len(formats)]
			return s.exportFormat
		}
	}
	s.exportFormat = formats[0]
	return s.exportFormat
}

// SetAuthPrompt shows the authorization overlay.
func (s *State) SetAuthPrompt(url string, lastErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auth = AuthPrompt{Active: true, URL: url, LastError: lastErr}
}

// ClearAuthPrompt hides the authorization overlay.
func (s *State) ClearAuthPrompt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auth = AuthPrompt{}
}

// Auth returns the authorization overlay state.
func (s *State) Auth() AuthPrompt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.auth
}

// SetLoading marks a load as running or finished.
func (s *State) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = loading
}

// IsLoading reports whether a load is running.
func (s *State) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// IsInitialLoading returns true until the first load finished.
func (s *State) IsInitialLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initial
}

// FinishInitialLoad clears the initial flag after a failed first load.
func (s *State) FinishInitialLoad() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initial = false
}

// LastUpdated returns when data was last loaded.
func (s *State) LastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdated
}

// AddNotification adds a new notification and returns its ID.
func (s *State) AddNotification(notifType NotificationType, message string, duration time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()

	s.notifications = append(s.notifications, Notification{
		ID:        id,
		Type:      notifType,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  duration,
	})

	if len(s.notifications) > maxNotifications {
		s.notifications = s.notifications[len(s.notifications)-maxNotifications:]
	}

	return id
}

// RemoveNotification removes a notification by ID.
func (s *State) RemoveNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// ClearExpiredNotifications removes all expired notifications.
func (s *State) ClearExpiredNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = activeNotifications(s.notifications)
}

// GetNotifications returns a copy of all active notifications.
func (s *State) GetNotifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return activeNotifications(s.notifications)
}

func activeNotifications(all []Notification) []Notification {
	active := make([]Notification, 0, len(all))
	for _, n := range all {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	return active
}

// SetLoadingNotification sets a loading notification message.
func (s *State) SetLoadingNotification(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications[i].Message = message
			return
		}
	}

	s.notifications = append(s.notifications, Notification{
		ID:        LoadingNotificationID,
		Type:      NotificationLoading,
		Message:   message,
		CreatedAt: time.Now(),
	})
}

// ClearLoadingNotification removes the loading notification.
func (s *State) ClearLoadingNotification() {
	s.RemoveNotification(LoadingNotificationID)
}
