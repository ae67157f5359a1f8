package session_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	httpapi "github.com/aussiebroadwan/fundme/internal/mockapi/http"
	"github.com/aussiebroadwan/fundme/internal/mockapi/service"
	"github.com/aussiebroadwan/fundme/pkg/authsdk"
	"github.com/aussiebroadwan/fundme/pkg/credential"
	"github.com/aussiebroadwan/fundme/pkg/kv"
	"github.com/aussiebroadwan/fundme/pkg/kv/sqlite"
	"github.com/stretchr/testify/require"
)

/*
 * The development API runs in process behind httptest; clients talk to it
 * through the real SDK with a persisted session store.
 */

const demoPassword = "demo-pass"

type backend struct {
	URL          string
	Tokens       *service.TokenService
	refreshCalls atomic.Int32
}

func startBackend(t *testing.T, accessTTL time.Duration) *backend {
	t.Helper()
	users := service.NewUserService()
	_, err := service.SeedDemoUsers(context.Background(), users, demoPassword)
	require.NoError(t, err)

	signer, err := credential.NewSigner([]byte("e2e-key"), "")
	require.NoError(t, err)

	b := &backend{
		Tokens: &service.TokenService{
			Signer:    signer,
			Store:     kv.NewMemory(),
			Users:     users,
			AccessTTL: accessTTL,
		},
	}

	r := httpapi.NewRouter(signer, "e2e", slog.New(slog.NewTextHandler(io.Discard, nil)))
	r.UserService = users
	r.TokenService = b.Tokens
	r.ApplyRoutes()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path == httpapi.APIPrefix+authsdk.PathRefreshToken {
			b.refreshCalls.Add(1)
		}
		r.ServeHTTP(w, req)
	}))
	t.Cleanup(srv.Close)

	b.URL = srv.URL + httpapi.APIPrefix
	return b
}

type client struct {
	Store     *authsdk.CredentialStore
	Guard     *authsdk.Guard
	Refresher *authsdk.Refresher
	API       *authsdk.SDKClient
}

func newClient(b *backend, store kv.Store, opts ...authsdk.Option) *client {
	api := authsdk.NewSDKClient(b.URL)
	creds := authsdk.NewCredentialStore(store)
	c := &client{
		Store:     creds,
		Guard:     authsdk.NewGuard(creds, api, opts...),
		Refresher: authsdk.NewRefresher(creds, api, opts...),
	}
	c.API = api.WithTransport(authsdk.NewTransport(c.Guard, c.Refresher, nil))
	return c
}

func openSQLite(t *testing.T) kv.Store {
	t.Helper()
	s, err := sqlite.Open("file:" + filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// behind makes the client see credentials as fresh long after the server
// stops accepting them.
func behind(d time.Duration) authsdk.Option {
	return authsdk.WithClock(func() time.Time { return time.Now().Add(-d) })
}

// ahead makes the client see credentials as expired before the server does.
func ahead(d time.Duration) authsdk.Option {
	return authsdk.WithClock(func() time.Time { return time.Now().Add(d) })
}
