package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/fundme/internal/mockapi/domain"
	"github.com/aussiebroadwan/fundme/pkg/credential"
	"github.com/aussiebroadwan/fundme/pkg/cryptox"
	"github.com/aussiebroadwan/fundme/pkg/idx"
	"github.com/aussiebroadwan/fundme/pkg/slogx"
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrUserNotFound       = errors.New("user_not_found")
	ErrUserExists         = errors.New("user_exists")
)

// DemoAccounts are seeded by SeedDemoUsers, one per role.
var DemoAccounts = []struct {
	Username string
	Role     credential.Role
}{
	{"alice", credential.RoleUser},
	{"admin", credential.RoleAdmin},
	{"root", credential.RoleSuperAdmin},
}

// UserService keeps the demo accounts in memory.
type UserService struct {
	mu     sync.RWMutex
	byID   map[idx.ID]domain.User
	byName map[string]idx.ID
}

func NewUserService() *UserService {
	return &UserService{
		byID:   make(map[idx.ID]domain.User),
		byName: make(map[string]idx.ID),
	}
}

// CreateUser hashes password and adds an account. Usernames are case-insensitive.
func (s *UserService) CreateUser(ctx context.Context, username, password string, role credential.Role) (domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return domain.User{}, errors.New("username and password are required")
	}
	if !role.Valid() {
		return domain.User{}, fmt.Errorf("unknown role %q", role)
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	u := domain.User{
		ID:           idx.NewAt(now),
		Username:     username,
		Role:         role,
		PasswordHash: hash,
		CreatedAt:    now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(username)
	if _, ok := s.byName[key]; ok {
		return domain.User{}, ErrUserExists
	}
	s.byID[u.ID] = u
	s.byName[key] = u.ID

	slogx.FromContext(ctx).Debug("user created", "user_id", u.ID, "role", role)
	return u, nil
}

// Authenticate returns the account when password matches. Unknown users and
// wrong passwords both yield ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (domain.User, error) {
	s.mu.RLock()
	id, ok := s.byName[strings.ToLower(strings.TrimSpace(username))]
	u := s.byID[id]
	s.mu.RUnlock()

	if !ok {
		return domain.User{}, ErrInvalidCredentials
	}
	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		slogx.FromContext(ctx).Info("login rejected", "user_id", u.ID)
		return domain.User{}, ErrInvalidCredentials
	}
	return u, nil
}

func (s *UserService) GetUserByID(_ context.Context, id idx.ID) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return domain.User{}, ErrUserNotFound
	}
	return u, nil
}

// ListUsers returns every account ordered by username.
func (s *UserService) ListUsers(_ context.Context) []domain.User {
	s.mu.RLock()
	users := make([]domain.User, 0, len(s.byID))
	for _, u := range s.byID {
		users = append(users, u)
	}
	s.mu.RUnlock()

	slices.SortFunc(users, func(a, b domain.User) int {
		return strings.Compare(a.Username, b.Username)
	})
	return users
}

// SeedDemoUsers creates DemoAccounts sharing password. An empty password is
// replaced by a generated one, which is returned.
func SeedDemoUsers(ctx context.Context, s *UserService, password string) (string, error) {
	if password == "" {
		generated, err := cryptox.GeneratePassword()
		if err != nil {
			return "", err
		}
		password = generated
	}
	for _, a := range DemoAccounts {
		if _, err := s.CreateUser(ctx, a.Username, password, a.Role); err != nil {
			return "", fmt.Errorf("seed %s: %w", a.Username, err)
		}
	}
	return password, nil
}
