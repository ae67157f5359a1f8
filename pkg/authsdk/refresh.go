package authsdk

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aussiebroadwan/fundme/pkg/credential"
	"golang.org/x/sync/singleflight"
)

// Refresher exchanges the stored refresh credential for a new pair when the
// API rejects the access credential.
//
// Concurrent callers share one refresh call. A caller that arrives after a
// refresh has already replaced the credential it sent reuses the new one;
// a caller that arrives after a failed refresh gets the same failure.
type Refresher struct {
	store     *CredentialStore
	endpoints Endpoints
	opts      options

	group singleflight.Group

	mu   sync.Mutex
	last failure
}

// failure remembers the outcome of the most recent failed refresh by the
// access credential that was current when it ran.
type failure struct {
	access string
	err    error
}

func NewRefresher(store *CredentialStore, endpoints Endpoints, opts ...Option) *Refresher {
	return &Refresher{
		store:     store,
		endpoints: endpoints,
		opts:      newOptions(opts),
	}
}

// OnUnauthorized is called after the API answered 401 to a request that
// carried sent (empty if none was attached). It returns the access credential
// to retry with.
//
// It fails with ErrNoRefreshAvailable when no refresh credential is stored,
// or ErrRefreshFailed when the refresh did not produce a usable pair. In both
// cases the stored pair has been cleared.
func (r *Refresher) OnUnauthorized(ctx context.Context, sent string) (string, error) {
	if access, done, err := r.settled(ctx, sent); done {
		return access, err
	}

	sess, err := r.store.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	// The shared call outlives any single caller's cancellation.
	shared := context.WithoutCancel(ctx)
	ch := r.group.DoChan(sess.RefreshCredential, func() (any, error) {
		if access, done, err := r.settled(shared, sent); done {
			return access, err
		}
		return r.refresh(shared)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Refresh exchanges the stored refresh credential now, for example because
// the stored access credential has expired.
func (r *Refresher) Refresh(ctx context.Context) (string, error) {
	sess, err := r.store.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	return r.OnUnauthorized(ctx, sess.AccessCredential)
}

// settled resolves a trigger from store state alone when possible.
func (r *Refresher) settled(ctx context.Context, sent string) (string, bool, error) {
	sess, err := r.store.Load(ctx)
	if err != nil {
		return "", true, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	if sess.AccessCredential != "" && sess.AccessCredential != sent {
		if c, err := credential.Decode(sess.AccessCredential); err == nil && c.IsLive(r.opts.now()) {
			r.opts.metrics.recordRefresh("reused")
			return sess.AccessCredential, true, nil
		}
	}

	if err := r.failureFor(sent); err != nil {
		return "", true, err
	}

	if sess.RefreshCredential == "" {
		if err := r.store.Clear(ctx); err != nil {
			r.opts.logger.WarnContext(ctx, "failed to clear session", slog.Any("error", err))
		}
		r.opts.metrics.recordRefresh("unavailable")
		return "", true, ErrNoRefreshAvailable
	}

	return "", false, nil
}

// refresh performs the single endpoint call. Any failure clears the session.
func (r *Refresher) refresh(ctx context.Context) (string, error) {
	sess, err := r.store.Load(ctx)
	if err != nil {
		return "", r.fail(ctx, "", err)
	}

	r.opts.metrics.recordRefreshCall()
	pair, err := r.endpoints.Refresh(ctx, sess.RefreshCredential)
	if err != nil {
		return "", r.fail(ctx, sess.AccessCredential, err)
	}
	if _, err := validatePair(pair); err != nil {
		return "", r.fail(ctx, sess.AccessCredential, err)
	}
	if err := r.store.Save(ctx, pair.AccessToken, pair.RefreshToken); err != nil {
		return "", r.fail(ctx, sess.AccessCredential, err)
	}

	r.mu.Lock()
	r.last = failure{}
	r.mu.Unlock()

	r.opts.logger.DebugContext(ctx, "refreshed session")
	r.opts.metrics.recordRefresh("success")
	return pair.AccessToken, nil
}

func (r *Refresher) fail(ctx context.Context, access string, cause error) error {
	err := fmt.Errorf("%w: %w", ErrRefreshFailed, cause)

	if cerr := r.store.Clear(ctx); cerr != nil {
		r.opts.logger.WarnContext(ctx, "failed to clear session after refresh failure", slog.Any("error", cerr))
	}

	if access != "" {
		r.mu.Lock()
		r.last = failure{access: access, err: err}
		r.mu.Unlock()
	}

	r.opts.logger.InfoContext(ctx, "session refresh failed", slog.Any("error", cause))
	r.opts.metrics.recordRefresh("failed")
	return err
}

func (r *Refresher) failureFor(sent string) error {
	if sent == "" {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last.access == sent {
		return r.last.err
	}
	return nil
}
