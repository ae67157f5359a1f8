package authsdk

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aussiebroadwan/fundme/pkg/kv"
)

// Storage keys. They match the names the web client kept in local storage.
const (
	KeyAccessCredential     = "accessToken"
	KeyRefreshCredential    = "refreshToken"
	KeyRememberedIdentifier = "rememberedUsername"
)

// Session is a snapshot of persisted state. Empty strings mean absent.
type Session struct {
	AccessCredential     string
	RefreshCredential    string
	RememberedIdentifier string
}

// HasCredentials reports whether an access credential is stored.
func (s Session) HasCredentials() bool { return s.AccessCredential != "" }

// CredentialStore persists the credential pair and the remembered identifier
// through a kv.Store. The pair is always written and removed together.
type CredentialStore struct {
	kv kv.Store

	// mu orders pair writes against snapshots within this process.
	mu sync.RWMutex
}

func NewCredentialStore(store kv.Store) *CredentialStore {
	return &CredentialStore{kv: store}
}

// Load reads the current session.
func (s *CredentialStore) Load(ctx context.Context) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.load(ctx)
}

// load reads all session keys in one GetMany so a pair written by another
// process is never seen half applied.
func (s *CredentialStore) load(ctx context.Context) (Session, error) {
	vals, err := s.kv.GetMany(ctx, KeyAccessCredential, KeyRefreshCredential, KeyRememberedIdentifier)
	if err != nil {
		return Session{}, fmt.Errorf("authsdk: read session: %w", err)
	}
	return Session{
		AccessCredential:     vals[KeyAccessCredential],
		RefreshCredential:    vals[KeyRefreshCredential],
		RememberedIdentifier: vals[KeyRememberedIdentifier],
	}, nil
}

func (s *CredentialStore) get(ctx context.Context, key string) (string, error) {
	v, err := s.kv.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("authsdk: read %s: %w", key, err)
	}
	return v, nil
}

// Save stores both credentials in one write.
func (s *CredentialStore) Save(ctx context.Context, access, refresh string) error {
	if access == "" || refresh == "" {
		return errors.New("authsdk: both credentials are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.kv.SetMany(ctx, map[string]string{
		KeyAccessCredential:  access,
		KeyRefreshCredential: refresh,
	})
}

// Clear removes both credentials. The remembered identifier is kept.
func (s *CredentialStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.kv.Delete(ctx, KeyAccessCredential, KeyRefreshCredential)
}

// clearIfCurrent clears the pair only while access is still the stored
// credential, so a purge never discards a pair saved after the snapshot.
func (s *CredentialStore) clearIfCurrent(ctx context.Context, access string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.get(ctx, KeyAccessCredential)
	if err != nil {
		return false, err
	}
	if cur != access {
		return false, nil
	}
	return true, s.kv.Delete(ctx, KeyAccessCredential, KeyRefreshCredential)
}

// SetRememberedIdentifier stores id for prefilling the next login. An empty
// id removes it.
func (s *CredentialStore) SetRememberedIdentifier(ctx context.Context, id string) error {
	if id == "" {
		return s.kv.Delete(ctx, KeyRememberedIdentifier)
	}
	return s.kv.Set(ctx, KeyRememberedIdentifier, id)
}

// RememberedIdentifier returns the remembered identifier, if any.
func (s *CredentialStore) RememberedIdentifier(ctx context.Context) (string, bool) {
	v, err := s.get(ctx, KeyRememberedIdentifier)
	if err != nil || v == "" {
		return "", false
	}
	return v, true
}
