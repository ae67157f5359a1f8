package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/fundme/internal/mockapi/service"
	"github.com/aussiebroadwan/fundme/pkg/authsdk"
	"github.com/aussiebroadwan/fundme/pkg/httpx"
	"github.com/aussiebroadwan/fundme/pkg/idx"
	"github.com/aussiebroadwan/fundme/pkg/slogx"
)

// ProfileHandler serves GET /api/auth/profile for the bearer's account.
type ProfileHandler struct {
	UserService *service.UserService
}

func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, ok := httpx.ClaimsFromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.UserService.GetUserByID(ctx, idx.ID(claims.SubjectID))
	if errors.Is(err, service.ErrUserNotFound) {
		httpx.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if err != nil {
		slogx.FromContext(ctx).Warn("failed to load user", "user_id", claims.SubjectID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.Profile{
		ID:        user.ID.String(),
		Username:  user.Username,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	})
}

// AdminUsersHandler serves GET /api/admin/users.
type AdminUsersHandler struct {
	UserService *service.UserService
}

func (h *AdminUsersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	users := h.UserService.ListUsers(r.Context())

	list := authsdk.UserList{Users: make([]authsdk.UserSummary, 0, len(users))}
	for _, u := range users {
		list.Users = append(list.Users, authsdk.UserSummary{
			ID:       u.ID.String(),
			Username: u.Username,
			Role:     u.Role,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}
