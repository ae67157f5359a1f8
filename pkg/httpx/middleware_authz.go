package httpx

import (
	"net/http"

	"github.com/aussiebroadwan/fundme/pkg/credential"
)

// RequireRole lets the request through when the caller's role satisfies
// required. It must run after AuthnMiddleware.
func RequireRole(required credential.Role) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeBearerError(w, "missing bearer token")
				return
			}
			if !claims.Role.Satisfies(required) {
				w.Header().Set("WWW-Authenticate", `Bearer error="insufficient_scope"`)
				WriteJSON(w, http.StatusForbidden, ErrorBody{
					Error:   "Forbidden",
					Details: "Requires " + required.String() + " role",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
