package infrastructure

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	agentDomain "github.com/geobeacon/geobeacon/agent/domain"
)

const statusFileName = "status"

// StatusNotifier is the agent's user-visible presence surface: notifications
// are written to a status file in the state directory where host tooling (or
// a curious operator) can read them.
type StatusNotifier struct {
	mu       sync.Mutex
	path     string
	channels map[string]agentDomain.NotificationChannel
	logger   agentDomain.Logger
}

// RegisterChannel makes a channel available for notifications. Registering an
// existing channel ID replaces its metadata.
func (n *StatusNotifier) RegisterChannel(channel agentDomain.NotificationChannel) error {
	if channel.ID == "" {
		return errors.New("notification channel id cannot be empty")
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.channels[channel.ID] = channel
	return nil
}

// Notify writes the notification to the status file, replacing the previous
// one. The channel must have been registered first.
func (n *StatusNotifier) Notify(channelID string, notificationID int, title, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.channels[channelID]; !ok {
		return fmt.Errorf("%w: %s", agentDomain.ErrChannelNotRegistered, channelID)
	}

	line := fmt.Sprintf("[%s] #%d %s: %s\n", time.Now().UTC().Format(time.RFC3339), notificationID, title, body)
	if err := os.WriteFile(n.path, []byte(line), 0o644); err != nil {
		return fmt.Errorf("writing status file: %w", err)
	}
	return nil
}

// Probe verifies the notifier can surface notifications at all by touching
// the status file location.
func (n *StatusNotifier) Probe() error {
	if err := os.MkdirAll(filepath.Dir(n.path), 0o700); err != nil {
		return fmt.Errorf("preparing status directory: %w", err)
	}
	f, err := os.OpenFile(n.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening status file: %w", err)
	}
	return f.Close()
}

// NewStatusNotifier creates a notifier writing into the given state directory.
func NewStatusNotifier(stateDir agentDomain.StateDir, logger agentDomain.Logger) *StatusNotifier {
	return &StatusNotifier{
		path:     filepath.Join(string(stateDir), statusFileName),
		channels: make(map[string]agentDomain.NotificationChannel),
		logger:   logger,
	}
}
