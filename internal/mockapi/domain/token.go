package domain

import (
	"time"

	"github.com/aussiebroadwan/fundme/pkg/idx"
)

// TokenPair is what login and refresh hand out: a signed access credential
// and an opaque refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time // access credential expiry
}

// RefreshToken is the stored record for an issued refresh token, keyed by the
// token's fingerprint.
type RefreshToken struct {
	ID        idx.ID    `json:"id"`
	UserID    idx.ID    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}
