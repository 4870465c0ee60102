package domain

import "errors"

// Importance levels for a notification channel.
const (
	ImportanceLow Importance = iota
	ImportanceDefault
	ImportanceHigh
)

// Importance controls how prominently notifications on a channel surface.
type Importance int

// NotificationChannel describes the channel a long-running service publishes
// its presence on. The channel must be registered before the service starts.
type NotificationChannel struct {
	ID          string
	DisplayName string
	Description string
	Importance  Importance
}

// ServiceConfig carries the metadata the foreground scheduler presents while
// running: which channel it posts on and the initial notification content.
type ServiceConfig struct {
	NotificationChannelID string
	InitialTitle          string
	InitialBody           string
	NotificationID        int
}

// ErrChannelNotRegistered indicates a notification was posted on a channel
// that was never registered.
var ErrChannelNotRegistered = errors.New("notification channel is not registered")

// Notifier is the user-visible presence surface of the agent.
type Notifier interface {
	// RegisterChannel makes a channel available for notifications.
	// Registering an existing channel ID replaces its metadata.
	RegisterChannel(channel NotificationChannel) error

	// Notify posts or replaces the notification with the given ID.
	Notify(channelID string, notificationID int, title, body string) error
}
