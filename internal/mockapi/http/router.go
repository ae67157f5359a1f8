package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/fundme/internal/mockapi/service"
	"github.com/aussiebroadwan/fundme/pkg/credential"
	"github.com/aussiebroadwan/fundme/pkg/httpx"
	"github.com/aussiebroadwan/fundme/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// APIPrefix is where the banking API routes are mounted.
const APIPrefix = "/api"

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     httpx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	registry     *prometheus.Registry
	metrics      *metrics

	TokenService *service.TokenService
	UserService  *service.UserService
}

func NewRouter(verifier httpx.Verifier, buildVersion string, logger *slog.Logger) *Router {
	reg := prometheus.NewRegistry()
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		registry:     reg,
		metrics:      newMetrics(reg),
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerAdmin()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	tokens := &TokenHandler{TokenService: r.TokenService, metrics: r.metrics}

	// Login attempts are limited per IP to slow down password guessing.
	r.Mux.Handle("POST "+APIPrefix+"/auth/login",
		httpx.Chain(http.HandlerFunc(tokens.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST "+APIPrefix+"/auth/refresh-token",
		httpx.Chain(http.HandlerFunc(tokens.HandleRefresh),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST "+APIPrefix+"/auth/logout",
		httpx.Chain(http.HandlerFunc(tokens.HandleLogout),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	profile := &ProfileHandler{UserService: r.UserService}
	r.Mux.Handle("GET "+APIPrefix+"/auth/profile",
		httpx.Chain(profile,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerAdmin() {
	h := &AdminUsersHandler{UserService: r.UserService}

	r.Mux.Handle("GET "+APIPrefix+"/admin/users",
		httpx.Chain(h,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireRole(credential.RoleAdmin),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /metrics", promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}))
}
