package domain

import (
	"time"

	"github.com/aussiebroadwan/fundme/pkg/credential"
	"github.com/aussiebroadwan/fundme/pkg/idx"
)

// User is a demo banking account.
type User struct {
	ID           idx.ID
	Username     string
	Role         credential.Role
	PasswordHash string // PHC argon2id
	CreatedAt    time.Time
}
