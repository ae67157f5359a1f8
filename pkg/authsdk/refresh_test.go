package authsdk_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/fundme/pkg/authsdk"
	"github.com/aussiebroadwan/fundme/pkg/credential"
	"github.com/stretchr/testify/require"
)

func TestRefresherSingleFlightSuccess(t *testing.T) {
	f := newFixture(t)
	old := mint(t, credential.RoleUser, f.clock.Now().Add(time.Hour))
	fresh := mint(t, credential.RoleUser, f.clock.Now().Add(2*time.Hour))
	f.save(t, old, "r1")

	release := make(chan struct{})
	f.endpoints.refresh = func(_ context.Context, rc string) (authsdk.TokenPair, error) {
		<-release
		return authsdk.TokenPair{AccessToken: fresh, RefreshToken: "r2"}, nil
	}

	const n = 5
	var (
		wg      sync.WaitGroup
		results = make([]string, n)
		errs    = make([]error, n)
	)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = f.refresher.OnUnauthorized(context.Background(), old)
		}()
	}

	require.Eventually(t, func() bool { return f.endpoints.refreshCalls.Load() == 1 }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	require.EqualValues(t, 1, f.endpoints.refreshCalls.Load())
	for i := range n {
		require.NoError(t, errs[i])
		require.Equal(t, fresh, results[i])
	}
	require.Equal(t, []string{"r1"}, f.endpoints.refreshedWith)

	sess := f.load(t)
	require.Equal(t, fresh, sess.AccessCredential)
	require.Equal(t, "r2", sess.RefreshCredential)
}

func TestRefresherSingleFlightFailure(t *testing.T) {
	f := newFixture(t)
	old := mint(t, credential.RoleUser, f.clock.Now().Add(time.Hour))
	f.save(t, old, "r1")

	release := make(chan struct{})
	f.endpoints.refresh = func(context.Context, string) (authsdk.TokenPair, error) {
		<-release
		return authsdk.TokenPair{}, authsdk.ErrAuthenticationFailed
	}

	const n = 5
	var (
		wg   sync.WaitGroup
		errs = make([]error, n)
	)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.refresher.OnUnauthorized(context.Background(), old)
		}()
	}

	require.Eventually(t, func() bool { return f.endpoints.refreshCalls.Load() == 1 }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	require.EqualValues(t, 1, f.endpoints.refreshCalls.Load())
	for i := range n {
		require.ErrorIs(t, errs[i], authsdk.ErrRefreshFailed)
		require.ErrorIs(t, errs[i], authsdk.ErrAuthenticationFailed)
	}
	f.requireCleared(t)

	// A late trigger for the same credential gets the same failure.
	_, err := f.refresher.OnUnauthorized(context.Background(), old)
	require.ErrorIs(t, err, authsdk.ErrRefreshFailed)
	require.EqualValues(t, 1, f.endpoints.refreshCalls.Load())
}

func TestRefresherReusesNewerCredential(t *testing.T) {
	f := newFixture(t)
	old := mint(t, credential.RoleUser, f.clock.Now().Add(time.Hour))
	newer := mint(t, credential.RoleUser, f.clock.Now().Add(2*time.Hour))
	f.save(t, newer, "r2")

	access, err := f.refresher.OnUnauthorized(context.Background(), old)
	require.NoError(t, err)
	require.Equal(t, newer, access)
	require.Zero(t, f.endpoints.refreshCalls.Load())
}

func TestRefresherFailureClearsSession(t *testing.T) {
	tests := []struct {
		name    string
		refresh func(f *fixture) func(context.Context, string) (authsdk.TokenPair, error)
	}{
		{"rejected", func(*fixture) func(context.Context, string) (authsdk.TokenPair, error) {
			return func(context.Context, string) (authsdk.TokenPair, error) {
				return authsdk.TokenPair{}, authsdk.ErrAuthenticationFailed
			}
		}},
		{"network", func(*fixture) func(context.Context, string) (authsdk.TokenPair, error) {
			return func(context.Context, string) (authsdk.TokenPair, error) {
				return authsdk.TokenPair{}, authsdk.ErrNetwork
			}
		}},
		{"rate limited", func(*fixture) func(context.Context, string) (authsdk.TokenPair, error) {
			return func(context.Context, string) (authsdk.TokenPair, error) {
				return authsdk.TokenPair{}, authsdk.ErrRateLimited
			}
		}},
		{"malformed access", func(*fixture) func(context.Context, string) (authsdk.TokenPair, error) {
			return func(context.Context, string) (authsdk.TokenPair, error) {
				return authsdk.TokenPair{AccessToken: "abc.def", RefreshToken: "r2"}, nil
			}
		}},
		{"missing refresh", func(f *fixture) func(context.Context, string) (authsdk.TokenPair, error) {
			access, _ := testSigner.Sign(credential.Claims{SubjectID: "u1", Role: credential.RoleUser, ExpiresAt: f.clock.Now().Add(time.Hour)})
			return func(context.Context, string) (authsdk.TokenPair, error) {
				return authsdk.TokenPair{AccessToken: access}, nil
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, stored := range []bool{true, false} {
				f := newFixture(t)
				access := ""
				if stored {
					access = mint(t, credential.RoleUser, f.clock.Now().Add(time.Hour))
					f.save(t, access, "r1")
				} else {
					require.NoError(t, f.kv.Set(context.Background(), authsdk.KeyRefreshCredential, "r1"))
				}
				f.endpoints.refresh = tt.refresh(f)

				_, err := f.refresher.OnUnauthorized(context.Background(), access)
				require.ErrorIs(t, err, authsdk.ErrRefreshFailed)
				require.True(t, authsdk.SessionEnded(err))
				require.False(t, f.guard.IsAuthenticated(context.Background()))
				f.requireCleared(t)
			}
		})
	}
}

func TestRefresherNoRefreshCredential(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	access := mint(t, credential.RoleUser, f.clock.Now().Add(time.Hour))
	require.NoError(t, f.kv.Set(ctx, authsdk.KeyAccessCredential, access))

	_, err := f.refresher.OnUnauthorized(ctx, access)
	require.ErrorIs(t, err, authsdk.ErrNoRefreshAvailable)
	require.Zero(t, f.endpoints.refreshCalls.Load())
	f.requireCleared(t)
}

func TestRefresherRefreshExpired(t *testing.T) {
	f := newFixture(t)
	expired := mint(t, credential.RoleAdmin, f.clock.Now().Add(-time.Minute))
	fresh := mint(t, credential.RoleAdmin, f.clock.Now().Add(time.Hour))
	f.save(t, expired, "r1")
	f.endpoints.refresh = func(_ context.Context, rc string) (authsdk.TokenPair, error) {
		return authsdk.TokenPair{AccessToken: fresh, RefreshToken: "r2"}, nil
	}

	access, err := f.refresher.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, fresh, access)
	require.True(t, f.guard.IsAuthorized(context.Background(), credential.RoleAdmin))
}

func TestRefresherCallerCancellationDoesNotAbortSharedCall(t *testing.T) {
	f := newFixture(t)
	old := mint(t, credential.RoleUser, f.clock.Now().Add(time.Hour))
	fresh := mint(t, credential.RoleUser, f.clock.Now().Add(2*time.Hour))
	f.save(t, old, "r1")

	release := make(chan struct{})
	done := make(chan struct{})
	f.endpoints.refresh = func(ctx context.Context, _ string) (authsdk.TokenPair, error) {
		defer close(done)
		<-release
		if ctx.Err() != nil {
			return authsdk.TokenPair{}, ctx.Err()
		}
		return authsdk.TokenPair{AccessToken: fresh, RefreshToken: "r2"}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := f.refresher.OnUnauthorized(ctx, old)
		errc <- err
	}()

	require.Eventually(t, func() bool { return f.endpoints.refreshCalls.Load() == 1 }, time.Second, time.Millisecond)
	cancel()
	require.True(t, errors.Is(<-errc, context.Canceled))

	close(release)
	<-done
	require.Eventually(t, func() bool {
		return f.load(t).AccessCredential == fresh
	}, time.Second, time.Millisecond)
}
