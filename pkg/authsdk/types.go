package authsdk

import (
	"time"

	"github.com/aussiebroadwan/fundme/pkg/credential"
)

// ============================================================================
// Internal Response Types (used for JSON unmarshaling)
// ============================================================================

// ErrorResponse is the error body returned by the banking API. Different
// endpoints fill different fields; details is the most specific.
type ErrorResponse struct {
	Error   string `json:"error,omitempty"`
	Details string `json:"details,omitempty"`
	Message string `json:"message,omitempty"`
}

// ============================================================================
// Auth Types
// ============================================================================

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshRequest is the body of POST /auth/refresh-token and POST /auth/logout.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// TokenPair is returned by the login and refresh endpoints.
type TokenPair struct {
	// AccessToken is the three segment bearer credential.
	AccessToken string `json:"accessToken"`

	// RefreshToken is opaque to the client.
	RefreshToken string `json:"refreshToken"`

	// User is included by the login endpoint only.
	User *UserSummary `json:"user,omitempty"`
}

// ============================================================================
// Account Types
// ============================================================================

// UserSummary describes an account as listed to administrators.
type UserSummary struct {
	ID       string          `json:"id"`
	Username string          `json:"username"`
	Role     credential.Role `json:"role"`
}

// Profile is returned by GET /auth/profile.
type Profile struct {
	ID        string          `json:"id"`
	Username  string          `json:"username"`
	Role      credential.Role `json:"role"`
	CreatedAt time.Time       `json:"createdAt"`
}

// UserList is returned by GET /admin/users.
type UserList struct {
	Users []UserSummary `json:"users"`
}
