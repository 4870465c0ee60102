package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	agentDomain "github.com/geobeacon/geobeacon/agent/domain"
)

const credentialFileName = "device_identity"

// FileCredentialStore is the anonymous-session mechanism of the agent: a
// backend-free credential persisted in the state directory, established on
// first use and stable for the lifetime of that directory.
//
// Identity re-reads the credential on every call rather than caching it: a
// fresh process (or an operator wiping the state directory) may have
// re-established the session since the last call.
type FileCredentialStore struct {
	path   string
	logger agentDomain.Logger
}

// Identity returns the device identity, establishing a new anonymous
// credential when none exists yet.
func (s *FileCredentialStore) Identity(_ context.Context) (agentDomain.DeviceIdentity, error) {
	raw, err := os.ReadFile(s.path)
	if err == nil {
		token := strings.TrimSpace(string(raw))
		if parsed, parseErr := uuid.Parse(token); parseErr == nil {
			return agentDomain.NewDeviceIdentity(parsed.String())
		}
		s.logger.Error("stored credential is malformed, establishing a new one")
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: reading credential: %s", agentDomain.ErrIdentityUnavailable, err.Error())
	}

	token := uuid.NewString()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return "", fmt.Errorf("%w: preparing credential store: %s", agentDomain.ErrIdentityUnavailable, err.Error())
	}
	if err := os.WriteFile(s.path, []byte(token+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("%w: persisting credential: %s", agentDomain.ErrIdentityUnavailable, err.Error())
	}

	s.logger.Info("established new anonymous device identity")
	return agentDomain.NewDeviceIdentity(token)
}

// NewFileCredentialStore creates an identity provider storing its credential
// under the given state directory.
func NewFileCredentialStore(stateDir agentDomain.StateDir, logger agentDomain.Logger) *FileCredentialStore {
	return &FileCredentialStore{
		path:   filepath.Join(string(stateDir), credentialFileName),
		logger: logger,
	}
}
