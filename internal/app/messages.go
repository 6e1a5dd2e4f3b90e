package app

import (
	"time"

	"github.com/j-veylop/whoop-dashboard-tui/internal/services"
)

// TickMsg is sent periodically to trigger state refresh.
type TickMsg struct {
	Time time.Time
}

// LoadRequestMsg asks for the data to be (re)loaded.
type LoadRequestMsg struct {
	Force bool
}

// DataLoadedMsg carries the result of a load.
type DataLoadedMsg struct {
	Result *services.LoadResult
	Error  error
}

// SubmitCodeResultMsg reports whether a pasted code was handed over.
type SubmitCodeResultMsg struct {
	Error error
}

// ExportResultMsg contains the result of an export operation.
type ExportResultMsg struct {
	Paths []string
	Error error
}

// LogoutResultMsg contains the result of a logout.
type LogoutResultMsg struct {
	Error error
}

// SettingsChangedMsg signals that the period or baseline changed. Tabs that
// cache computed views rebuild them.
type SettingsChangedMsg struct{}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Type     NotificationType
	Message  string
	Duration time.Duration
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// ClearExpiredNotificationsMsg triggers clearing of expired notifications.
type ClearExpiredNotificationsMsg struct{}

// ServiceEventMsg wraps a service event from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// SubscriptionEventMsg is the callback wrapper for service subscription.
type SubscriptionEventMsg struct {
	Channel chan services.ServiceEvent
}

// ErrorMsg represents a general error.
type ErrorMsg struct {
	Error   error
	Context string
}

// TabSwitchMsg requests switching to a specific tab.
type TabSwitchMsg struct {
	Tab TabID
}

// ToggleHelpMsg toggles the help display.
type ToggleHelpMsg struct{}
