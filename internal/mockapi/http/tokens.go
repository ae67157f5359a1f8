package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/fundme/internal/mockapi/domain"
	"github.com/aussiebroadwan/fundme/internal/mockapi/service"
	"github.com/aussiebroadwan/fundme/pkg/authsdk"
	"github.com/aussiebroadwan/fundme/pkg/httpx"
	"github.com/aussiebroadwan/fundme/pkg/slogx"
)

const maxRequestBody = 64 << 10

// TokenHandler serves login, refresh-token and logout.
type TokenHandler struct {
	TokenService *service.TokenService
	metrics      *metrics
}

// HandleLogin serves POST /api/auth/login.
func (h *TokenHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		h.metrics.logins.WithLabelValues("missing_fields").Inc()
		httpx.WriteError(w, http.StatusBadRequest, "Missing fields")
		return
	}

	pair, user, err := h.TokenService.Login(r.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		h.metrics.logins.WithLabelValues("invalid").Inc()
		httpx.WriteError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	case err != nil:
		h.metrics.logins.WithLabelValues("error").Inc()
		slogx.FromContext(r.Context()).Error("login failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.metrics.logins.WithLabelValues("success").Inc()
	resp := tokenPairResponse(pair)
	resp.User = &authsdk.UserSummary{ID: user.ID.String(), Username: user.Username, Role: user.Role}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleRefresh serves POST /api/auth/refresh-token.
func (h *TokenHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RefreshRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.RefreshToken) == "" {
		h.metrics.refreshes.WithLabelValues("missing_fields").Inc()
		httpx.WriteError(w, http.StatusBadRequest, "Refresh token required")
		return
	}

	pair, err := h.TokenService.Refresh(r.Context(), req.RefreshToken)
	switch {
	case errors.Is(err, service.ErrInvalidRefresh):
		h.metrics.refreshes.WithLabelValues("invalid").Inc()
		httpx.WriteError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	case err != nil:
		h.metrics.refreshes.WithLabelValues("error").Inc()
		slogx.FromContext(r.Context()).Error("refresh failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.metrics.refreshes.WithLabelValues("success").Inc()
	httpx.WriteJSON(w, http.StatusOK, tokenPairResponse(pair))
}

// HandleLogout serves POST /api/auth/logout. It always succeeds so callers
// cannot probe which refresh tokens exist.
func (h *TokenHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RefreshRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.TokenService.Revoke(r.Context(), req.RefreshToken); err != nil {
		slogx.FromContext(r.Context()).Warn("revoke refresh token failed", "err", err)
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.ErrorResponse{Message: "Logged out"})
}

func tokenPairResponse(p domain.TokenPair) authsdk.TokenPair {
	return authsdk.TokenPair{AccessToken: p.AccessToken, RefreshToken: p.RefreshToken}
}

// decodeBody reads a JSON body into v, answering 400 when it cannot.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		httpx.WriteError(w, http.StatusBadRequest, "Expected application/json")
		return false
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(v); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Missing fields")
		return false
	}
	return true
}
