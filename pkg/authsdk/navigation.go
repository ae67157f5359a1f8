package authsdk

import (
	"context"
	"net/http"
	"net/url"

	"github.com/aussiebroadwan/fundme/pkg/credential"
)

// Default redirect targets.
const (
	DefaultLoginPath = "/login"
	DefaultHomePath  = "/dashboard"
)

// Route is a navigation target.
type Route struct {
	Path         string
	RequireAdmin bool
}

// Navigator decides whether a route may be shown and where to go instead.
type Navigator struct {
	Guard     *Guard
	LoginPath string
	HomePath  string
}

func NewNavigator(guard *Guard) *Navigator {
	return &Navigator{
		Guard:     guard,
		LoginPath: DefaultLoginPath,
		HomePath:  DefaultHomePath,
	}
}

// Resolve returns allowed=true when route may be shown. Otherwise redirect is
// the login path for anonymous users and the home path for users lacking the
// admin role.
func (n *Navigator) Resolve(ctx context.Context, route Route) (redirect string, allowed bool) {
	d := n.Guard.Check(ctx)
	if !d.Authenticated {
		return n.LoginPath, false
	}
	if route.RequireAdmin && !d.Role.Satisfies(credential.RoleAdmin) {
		return n.HomePath, false
	}
	return "", true
}

// Middleware guards an http.Handler. Anonymous requests are sent to the
// login path with a from parameter naming the original target.
func (n *Navigator) Middleware(requireAdmin bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			target, ok := n.Resolve(r.Context(), Route{Path: r.URL.Path, RequireAdmin: requireAdmin})
			if ok {
				next.ServeHTTP(w, r)
				return
			}
			if target == n.LoginPath {
				target += "?" + url.Values{"from": {r.URL.RequestURI()}}.Encode()
			}
			http.Redirect(w, r, target, http.StatusSeeOther)
		})
	}
}
