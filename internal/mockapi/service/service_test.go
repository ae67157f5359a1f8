package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/fundme/internal/mockapi/service"
	"github.com/aussiebroadwan/fundme/pkg/credential"
	"github.com/aussiebroadwan/fundme/pkg/kv"
	"github.com/stretchr/testify/require"
)

const demoPassword = "demo-pass"

func newServices(t *testing.T) (*service.TokenService, *kv.Memory) {
	t.Helper()
	users := service.NewUserService()
	_, err := service.SeedDemoUsers(context.Background(), users, demoPassword)
	require.NoError(t, err)

	signer, err := credential.NewSigner([]byte("test-key"), "")
	require.NoError(t, err)

	store := kv.NewMemory()
	return &service.TokenService{Signer: signer, Store: store, Users: users}, store
}

func TestSeedDemoUsers(t *testing.T) {
	ctx := context.Background()
	users := service.NewUserService()

	pw, err := service.SeedDemoUsers(ctx, users, "")
	require.NoError(t, err)
	require.Len(t, pw, 12, "a password is generated when none is given")

	list := users.ListUsers(ctx)
	require.Len(t, list, 3)
	require.Equal(t, "admin", list[0].Username)
	require.Equal(t, credential.RoleAdmin, list[0].Role)
	require.Equal(t, "alice", list[1].Username)
	require.Equal(t, "root", list[2].Username)
	require.Equal(t, credential.RoleSuperAdmin, list[2].Role)

	_, err = users.CreateUser(ctx, "ALICE", "x", credential.RoleUser)
	require.ErrorIs(t, err, service.ErrUserExists)
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	users := service.NewUserService()
	created, err := users.CreateUser(ctx, "alice", "pw", credential.RoleUser)
	require.NoError(t, err)

	u, err := users.Authenticate(ctx, " Alice ", "pw")
	require.NoError(t, err)
	require.Equal(t, created.ID, u.ID)

	_, err = users.Authenticate(ctx, "alice", "nope")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = users.Authenticate(ctx, "bob", "pw")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, err = users.CreateUser(ctx, "carol", "pw", credential.Role("root"))
	require.Error(t, err)
}

func TestLoginIssuesVerifiableCredential(t *testing.T) {
	ctx := context.Background()
	tokens, store := newServices(t)

	pair, user, err := tokens.Login(ctx, "admin", demoPassword)
	require.NoError(t, err)
	require.Equal(t, "admin", user.Username)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, 1, store.Len())

	claims, err := tokens.Signer.Verify(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, user.ID.String(), claims.SubjectID)
	require.Equal(t, credential.RoleAdmin, claims.Role)
	require.WithinDuration(t, time.Now().Add(service.DefaultAccessTTL), claims.ExpiresAt, 2*time.Second)

	// What the client decodes without the key must agree.
	decoded, err := credential.Decode(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, claims.SubjectID, decoded.SubjectID)
	require.Equal(t, claims.Role, decoded.Role)

	_, _, err = tokens.Login(ctx, "admin", "wrong")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestRefreshRotatesAndRejectsReuse(t *testing.T) {
	ctx := context.Background()
	tokens, store := newServices(t)

	first, _, err := tokens.Login(ctx, "alice", demoPassword)
	require.NoError(t, err)

	second, err := tokens.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)
	require.Equal(t, 1, store.Len(), "the consumed token is removed")

	_, err = tokens.Refresh(ctx, first.RefreshToken)
	require.ErrorIs(t, err, service.ErrInvalidRefresh)

	_, err = tokens.Refresh(ctx, "")
	require.ErrorIs(t, err, service.ErrInvalidRefresh)
}

func TestRefreshExpired(t *testing.T) {
	ctx := context.Background()
	tokens, _ := newServices(t)
	tokens.RefreshTTL = time.Hour

	pair, _, err := tokens.Login(ctx, "alice", demoPassword)
	require.NoError(t, err)

	tokens.Now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = tokens.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, service.ErrInvalidRefresh)
}

func TestRevoke(t *testing.T) {
	ctx := context.Background()
	tokens, store := newServices(t)

	pair, _, err := tokens.Login(ctx, "alice", demoPassword)
	require.NoError(t, err)

	require.NoError(t, tokens.Revoke(ctx, pair.RefreshToken))
	require.Zero(t, store.Len())
	require.NoError(t, tokens.Revoke(ctx, pair.RefreshToken), "revoking twice is fine")
	require.NoError(t, tokens.Revoke(ctx, ""))

	_, err = tokens.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, service.ErrInvalidRefresh)
}
