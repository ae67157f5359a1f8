package authsdk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/fundme/pkg/credential"
)

// Decision is the authentication state derived from the stored credential at
// one instant. It is never cached.
type Decision struct {
	Authenticated bool
	Role          credential.Role
}

// Allows reports whether the decision grants at least required.
func (d Decision) Allows(required credential.Role) bool {
	return d.Authenticated && d.Role.Satisfies(required)
}

// Guard answers authentication and authorization questions from the
// credential store and owns login and logout.
//
// Every question re-reads and re-decodes the stored credential. A malformed
// or expired credential found while answering is purged.
type Guard struct {
	store     *CredentialStore
	endpoints Endpoints
	opts      options
}

func NewGuard(store *CredentialStore, endpoints Endpoints, opts ...Option) *Guard {
	return &Guard{
		store:     store,
		endpoints: endpoints,
		opts:      newOptions(opts),
	}
}

// Store returns the underlying credential store.
func (g *Guard) Store() *CredentialStore { return g.store }

// Check evaluates the stored credential.
func (g *Guard) Check(ctx context.Context) Decision {
	sess, err := g.store.Load(ctx)
	if err != nil {
		g.opts.logger.WarnContext(ctx, "session check failed to read store", slog.Any("error", err))
		g.opts.metrics.recordCheck("error")
		return Decision{}
	}
	if sess.AccessCredential == "" {
		g.opts.metrics.recordCheck("anonymous")
		return Decision{}
	}

	claims, err := credential.Decode(sess.AccessCredential)
	if err != nil {
		g.purge(ctx, sess.AccessCredential, "malformed", err)
		g.opts.metrics.recordCheck("malformed")
		return Decision{}
	}
	if !claims.IsLive(g.opts.now()) {
		g.purge(ctx, sess.AccessCredential, "expired", nil)
		g.opts.metrics.recordCheck("expired")
		return Decision{}
	}

	g.opts.metrics.recordCheck("authenticated")
	return Decision{Authenticated: true, Role: claims.Role}
}

// IsAuthenticated reports whether a live credential is stored.
func (g *Guard) IsAuthenticated(ctx context.Context) bool {
	return g.Check(ctx).Authenticated
}

// Role returns the role of the stored credential if it is live.
func (g *Guard) Role(ctx context.Context) (credential.Role, bool) {
	d := g.Check(ctx)
	return d.Role, d.Authenticated
}

// IsAuthorized reports whether a live credential with at least required is stored.
func (g *Guard) IsAuthorized(ctx context.Context, required credential.Role) bool {
	return g.Check(ctx).Allows(required)
}

// Login authenticates and stores the returned pair. When remember is set
// the identifier is kept for the next login, otherwise it is removed.
//
// On failure the stored pair is cleared for authentication, missing field
// and server errors. Other failures leave the store as it was.
func (g *Guard) Login(ctx context.Context, identifier, secret string, remember bool) (credential.Role, error) {
	l := g.opts.logger.With(slog.String("username", identifier))

	pair, err := g.endpoints.Authenticate(ctx, identifier, secret)
	if err != nil {
		if clearsSessionOnLogin(err) {
			if cerr := g.store.Clear(ctx); cerr != nil {
				l.WarnContext(ctx, "failed to clear session after login failure", slog.Any("error", cerr))
			}
		}
		l.InfoContext(ctx, "login failed", slog.Any("error", err))
		g.opts.metrics.recordLogin("failed")
		return "", err
	}

	claims, err := validatePair(pair)
	if err != nil {
		l.WarnContext(ctx, "login returned unusable credentials", slog.Any("error", err))
		g.opts.metrics.recordLogin("invalid_response")
		return "", err
	}

	if err := g.store.Save(ctx, pair.AccessToken, pair.RefreshToken); err != nil {
		g.opts.metrics.recordLogin("failed")
		return "", fmt.Errorf("authsdk: save session: %w", err)
	}

	remembered := ""
	if remember {
		remembered = identifier
	}
	if err := g.store.SetRememberedIdentifier(ctx, remembered); err != nil {
		l.WarnContext(ctx, "failed to update remembered username", slog.Any("error", err))
	}

	l.DebugContext(ctx, "login succeeded", slog.String("role", claims.Role.String()))
	g.opts.metrics.recordLogin("success")
	return claims.Role, nil
}

// LoginRequiring logs in like Login and then checks the returned role.
// When it does not satisfy required the new session is logged out again,
// revoking the refresh credential, and ErrRoleRequired is returned.
func (g *Guard) LoginRequiring(ctx context.Context, identifier, secret string, remember bool, required credential.Role) (credential.Role, error) {
	role, err := g.Login(ctx, identifier, secret, remember)
	if err != nil {
		return "", err
	}
	if role.Satisfies(required) {
		return role, nil
	}

	g.opts.logger.InfoContext(ctx, "login denied for role",
		slog.String("username", identifier),
		slog.String("role", role.String()),
		slog.String("required", required.String()))
	g.opts.metrics.recordLogin("denied")

	if err := g.Logout(ctx); err != nil {
		return "", fmt.Errorf("%w: %w", ErrRoleRequired, err)
	}
	return "", fmt.Errorf("%w: %s requires %s", ErrRoleRequired, role, required)
}

// Logout revokes the refresh credential on the server when one is stored,
// then clears the pair. The server call is best effort; its failure is
// logged and not returned.
func (g *Guard) Logout(ctx context.Context) error {
	sess, err := g.store.Load(ctx)
	if err != nil {
		g.opts.logger.WarnContext(ctx, "logout could not read session", slog.Any("error", err))
	}
	if sess.RefreshCredential != "" {
		if err := g.endpoints.Logout(ctx, sess.RefreshCredential); err != nil {
			g.opts.logger.WarnContext(ctx, "logout request failed", slog.Any("error", err))
		}
	}
	return g.store.Clear(ctx)
}

// RememberedIdentifier returns the identifier kept by the last remembered login.
func (g *Guard) RememberedIdentifier(ctx context.Context) (string, bool) {
	return g.store.RememberedIdentifier(ctx)
}

// AttachCredential sets the Authorization header on req from the stored
// credential and returns its claims.
//
// No stored credential returns (nil, nil) and leaves req untouched. A
// malformed credential is purged and ErrMalformedCredential returned. An
// expired one returns ErrCredentialExpired and is kept for a refresh.
func (g *Guard) AttachCredential(req *http.Request) (*credential.Claims, error) {
	ctx := req.Context()

	sess, err := g.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if sess.AccessCredential == "" {
		return nil, nil
	}

	claims, err := credential.Decode(sess.AccessCredential)
	if err != nil {
		g.purge(ctx, sess.AccessCredential, "malformed", err)
		return nil, fmt.Errorf("%w: %w", ErrMalformedCredential, err)
	}
	if !claims.IsLive(g.opts.now()) {
		return nil, ErrCredentialExpired
	}

	setBearer(req, sess.AccessCredential)
	return &claims, nil
}

func (g *Guard) purge(ctx context.Context, access, reason string, cause error) {
	l := g.opts.logger.With(slog.String("reason", reason))
	if cause != nil {
		l = l.With(slog.Any("error", cause))
	}

	cleared, err := g.store.clearIfCurrent(ctx, access)
	if err != nil {
		l.WarnContext(ctx, "failed to purge stored credential", slog.Any("purge_error", err))
		return
	}
	if cleared {
		l.DebugContext(ctx, "purged stored credential")
		g.opts.metrics.recordPurge(reason)
	}
}

// validatePair checks a pair returned by login or refresh before it is stored.
func validatePair(pair TokenPair) (credential.Claims, error) {
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		return credential.Claims{}, fmt.Errorf("%w: missing tokens", ErrInvalidServerResponse)
	}
	claims, err := credential.Decode(pair.AccessToken)
	if err != nil {
		return credential.Claims{}, fmt.Errorf("%w: %w", ErrInvalidServerResponse, err)
	}
	return claims, nil
}

func setBearer(req *http.Request, access string) {
	req.Header.Set("Authorization", "Bearer "+access)
}

// bearerOf returns the credential in req's Authorization header, if any.
func bearerOf(req *http.Request) string {
	const prefix = "Bearer "
	h := req.Header.Get("Authorization")
	if len(h) > len(prefix) && h[:len(prefix)] == prefix {
		return h[len(prefix):]
	}
	return ""
}

// SessionEnded reports whether err means the stored session is gone and the
// user has to sign in again.
func SessionEnded(err error) bool {
	return errors.Is(err, ErrMalformedCredential) ||
		errors.Is(err, ErrNoRefreshAvailable) ||
		errors.Is(err, ErrRefreshFailed)
}
