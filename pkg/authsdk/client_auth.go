package authsdk

import (
	"context"
	"net/http"
)

// Paths of the endpoints, relative to BaseURL.
const (
	PathLogin        = "/auth/login"
	PathRefreshToken = "/auth/refresh-token"
	PathLogout       = "/auth/logout"
	PathProfile      = "/auth/profile"
	PathAdminUsers   = "/admin/users"
)

// Endpoints are the authentication calls the Guard and Refresher depend on.
type Endpoints interface {
	// Authenticate exchanges an identifier and secret for a credential pair.
	Authenticate(ctx context.Context, identifier, secret string) (TokenPair, error)

	// Refresh exchanges a refresh credential for a new pair.
	Refresh(ctx context.Context, refreshCredential string) (TokenPair, error)

	// Logout revokes a refresh credential.
	Logout(ctx context.Context, refreshCredential string) error
}

// Authenticate calls POST /auth/login.
func (c *SDKClient) Authenticate(ctx context.Context, identifier, secret string) (TokenPair, error) {
	var pair TokenPair
	err := c.doJSON(ctx, http.MethodPost, PathLogin, LoginRequest{
		Username: identifier,
		Password: secret,
	}, &pair)
	return pair, err
}

// Refresh calls POST /auth/refresh-token.
func (c *SDKClient) Refresh(ctx context.Context, refreshCredential string) (TokenPair, error) {
	var pair TokenPair
	err := c.doJSON(ctx, http.MethodPost, PathRefreshToken, RefreshRequest{
		RefreshToken: refreshCredential,
	}, &pair)
	return pair, err
}

// Logout calls POST /auth/logout.
func (c *SDKClient) Logout(ctx context.Context, refreshCredential string) error {
	return c.doJSON(ctx, http.MethodPost, PathLogout, RefreshRequest{
		RefreshToken: refreshCredential,
	}, nil)
}

// Profile calls GET /auth/profile. c must have been built with WithTransport
// so the stored credential is attached.
func (c *SDKClient) Profile(ctx context.Context) (Profile, error) {
	var p Profile
	err := c.doJSON(ctx, http.MethodGet, PathProfile, nil, &p)
	return p, err
}

// ListUsers calls GET /admin/users. Transport refuses it locally unless the
// stored credential carries an admin role.
func (c *SDKClient) ListUsers(ctx context.Context) ([]UserSummary, error) {
	var list UserList
	if err := c.doJSON(ctx, http.MethodGet, PathAdminUsers, nil, &list); err != nil {
		return nil, err
	}
	return list.Users, nil
}
