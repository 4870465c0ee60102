package infrastructure

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	agentDomain "github.com/geobeacon/geobeacon/agent/domain"
)

func tempStateDir(tb testing.TB) agentDomain.StateDir {
	tb.Helper()
	stateDir, err := agentDomain.NewStateDir(tb.TempDir())
	if err != nil {
		tb.Fatalf("creating state dir: %v", err)
	}
	return stateDir
}

func TestFileCredentialStore_EstablishesIdentityOnFirstUse(t *testing.T) {
	stateDir := tempStateDir(t)
	store := NewFileCredentialStore(stateDir, &mockLogger{})

	identity, err := store.Identity(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := uuid.Parse(string(identity)); err != nil {
		t.Errorf("expected a UUID identity, got %q", identity)
	}

	if _, err := os.Stat(filepath.Join(string(stateDir), credentialFileName)); err != nil {
		t.Errorf("expected the credential file to be persisted: %v", err)
	}
}

func TestFileCredentialStore_IdentityIsStable(t *testing.T) {
	stateDir := tempStateDir(t)
	store := NewFileCredentialStore(stateDir, &mockLogger{})

	first, err := store.Identity(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Same store and a fresh store over the same directory must agree.
	second, err := store.Identity(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second != first {
		t.Errorf("identity changed between calls: %s then %s", first, second)
	}

	fresh := NewFileCredentialStore(stateDir, &mockLogger{})
	third, err := fresh.Identity(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if third != first {
		t.Errorf("identity changed across store instances: %s then %s", first, third)
	}
}

func TestFileCredentialStore_MalformedCredentialIsReplaced(t *testing.T) {
	stateDir := tempStateDir(t)
	path := filepath.Join(string(stateDir), credentialFileName)
	if err := os.WriteFile(path, []byte("not-a-uuid\n"), 0o600); err != nil {
		t.Fatalf("seeding malformed credential: %v", err)
	}

	store := NewFileCredentialStore(stateDir, &mockLogger{})
	identity, err := store.Identity(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := uuid.Parse(string(identity)); err != nil {
		t.Errorf("expected a fresh UUID identity, got %q", identity)
	}

	again, err := store.Identity(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again != identity {
		t.Errorf("replacement credential is not stable: %s then %s", identity, again)
	}
}

func TestFileCredentialStore_UnreadableCredential(t *testing.T) {
	stateDir := tempStateDir(t)

	// A directory where the credential file should be makes the read fail
	// with something other than not-exist.
	if err := os.MkdirAll(filepath.Join(string(stateDir), credentialFileName), 0o700); err != nil {
		t.Fatalf("preparing directory: %v", err)
	}

	store := NewFileCredentialStore(stateDir, &mockLogger{})
	_, err := store.Identity(context.Background())
	if !errors.Is(err, agentDomain.ErrIdentityUnavailable) {
		t.Errorf("expected ErrIdentityUnavailable, got %v", err)
	}
}
