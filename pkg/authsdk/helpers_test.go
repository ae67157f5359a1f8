package authsdk_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/fundme/pkg/authsdk"
	"github.com/aussiebroadwan/fundme/pkg/credential"
	"github.com/aussiebroadwan/fundme/pkg/kv"
	"github.com/stretchr/testify/require"
)

var testSigner = func() *credential.Signer {
	s, err := credential.NewSigner([]byte("authsdk-test-key"), "authsdk-test")
	if err != nil {
		panic(err)
	}
	return s
}()

// mint signs a credential for subject u1 with role that expires at exp.
func mint(t *testing.T, role credential.Role, exp time.Time) string {
	t.Helper()
	raw, err := testSigner.Sign(credential.Claims{SubjectID: "u1", Role: role, ExpiresAt: exp})
	require.NoError(t, err)
	return raw
}

// clock is a settable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock { return &clock{now: time.Unix(1_800_000_000, 0)} }

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

// stubEndpoints implements authsdk.Endpoints with overridable funcs and
// call counters.
type stubEndpoints struct {
	authenticate func(ctx context.Context, id, secret string) (authsdk.TokenPair, error)
	refresh      func(ctx context.Context, rc string) (authsdk.TokenPair, error)
	logout       func(ctx context.Context, rc string) error

	authCalls    atomic.Int32
	refreshCalls atomic.Int32
	logoutCalls  atomic.Int32

	mu            sync.Mutex
	refreshedWith []string
	loggedOutWith []string
}

func (s *stubEndpoints) Authenticate(ctx context.Context, id, secret string) (authsdk.TokenPair, error) {
	s.authCalls.Add(1)
	if s.authenticate == nil {
		return authsdk.TokenPair{}, authsdk.ErrServerError
	}
	return s.authenticate(ctx, id, secret)
}

func (s *stubEndpoints) Refresh(ctx context.Context, rc string) (authsdk.TokenPair, error) {
	s.refreshCalls.Add(1)
	s.mu.Lock()
	s.refreshedWith = append(s.refreshedWith, rc)
	s.mu.Unlock()
	if s.refresh == nil {
		return authsdk.TokenPair{}, authsdk.ErrAuthenticationFailed
	}
	return s.refresh(ctx, rc)
}

func (s *stubEndpoints) Logout(ctx context.Context, rc string) error {
	s.logoutCalls.Add(1)
	s.mu.Lock()
	s.loggedOutWith = append(s.loggedOutWith, rc)
	s.mu.Unlock()
	if s.logout == nil {
		return nil
	}
	return s.logout(ctx, rc)
}

// fixture bundles a memory-backed session with a guard and refresher that
// share one clock and one set of endpoints.
type fixture struct {
	kv        *kv.Memory
	store     *authsdk.CredentialStore
	endpoints *stubEndpoints
	clock     *clock
	guard     *authsdk.Guard
	refresher *authsdk.Refresher
}

func newFixture(t *testing.T, opts ...authsdk.Option) *fixture {
	t.Helper()
	f := &fixture{
		kv:        kv.NewMemory(),
		endpoints: &stubEndpoints{},
		clock:     newClock(),
	}
	f.store = authsdk.NewCredentialStore(f.kv)
	opts = append([]authsdk.Option{authsdk.WithClock(f.clock.Now)}, opts...)
	f.guard = authsdk.NewGuard(f.store, f.endpoints, opts...)
	f.refresher = authsdk.NewRefresher(f.store, f.endpoints, opts...)
	return f
}

func (f *fixture) save(t *testing.T, access, refresh string) {
	t.Helper()
	require.NoError(t, f.store.Save(context.Background(), access, refresh))
}

func (f *fixture) load(t *testing.T) authsdk.Session {
	t.Helper()
	sess, err := f.store.Load(context.Background())
	require.NoError(t, err)
	return sess
}

func (f *fixture) requireCleared(t *testing.T) {
	t.Helper()
	sess := f.load(t)
	require.Empty(t, sess.AccessCredential, "access credential should be cleared")
	require.Empty(t, sess.RefreshCredential, "refresh credential should be cleared")
}
