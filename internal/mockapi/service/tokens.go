package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/fundme/internal/mockapi/domain"
	"github.com/aussiebroadwan/fundme/pkg/credential"
	"github.com/aussiebroadwan/fundme/pkg/cryptox"
	"github.com/aussiebroadwan/fundme/pkg/idx"
	"github.com/aussiebroadwan/fundme/pkg/kv"
	"github.com/aussiebroadwan/fundme/pkg/slogx"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour

	refreshKeyPrefix = "refresh:"
)

var ErrInvalidRefresh = errors.New("invalid_refresh_token")

// TokenService issues access credentials and rotates refresh tokens.
//
// Refresh tokens are single use: Refresh deletes the presented token before
// issuing its replacement, so replaying it fails.
type TokenService struct {
	Signer     *credential.Signer
	Store      kv.Store
	Users      *UserService
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Now overrides the clock used for refresh token expiry.
	Now func() time.Time

	// mu serialises lookup and delete of a presented refresh token.
	mu sync.Mutex
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Login checks the password and issues a new pair.
func (s *TokenService) Login(ctx context.Context, username, password string) (domain.TokenPair, domain.User, error) {
	user, err := s.Users.Authenticate(ctx, username, password)
	if err != nil {
		return domain.TokenPair{}, domain.User{}, err
	}
	pair, err := s.issue(ctx, user)
	if err != nil {
		return domain.TokenPair{}, domain.User{}, err
	}
	slogx.FromContext(ctx).Info("login succeeded", "user_id", user.ID, "role", user.Role)
	return pair, user, nil
}

// Refresh consumes refreshToken and issues a new pair for its owner.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	rec, err := s.consume(ctx, refreshToken)
	if err != nil {
		return domain.TokenPair{}, err
	}

	user, err := s.Users.GetUserByID(ctx, rec.UserID)
	if errors.Is(err, ErrUserNotFound) {
		return domain.TokenPair{}, ErrInvalidRefresh
	}
	if err != nil {
		return domain.TokenPair{}, err
	}

	pair, err := s.issue(ctx, user)
	if err != nil {
		return domain.TokenPair{}, err
	}
	slogx.FromContext(ctx).Debug("refresh token rotated", "user_id", user.ID, "previous", rec.ID)
	return pair, nil
}

// Revoke deletes refreshToken. Unknown tokens are not an error.
func (s *TokenService) Revoke(ctx context.Context, refreshToken string) error {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil
	}
	return s.Store.Delete(ctx, refreshKey(refreshToken))
}

func (s *TokenService) issue(ctx context.Context, user domain.User) (domain.TokenPair, error) {
	access, claims, err := s.Signer.Issue(user.ID.String(), user.Role, s.accessTTL())
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("sign access credential: %w", err)
	}

	refresh, err := cryptox.NewRefreshToken()
	if err != nil {
		return domain.TokenPair{}, err
	}

	now := s.now().UTC()
	rec := domain.RefreshToken{
		ID:        idx.NewAt(now),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.refreshTTL()),
		CreatedAt: now,
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return domain.TokenPair{}, err
	}
	if err := s.Store.Set(ctx, refreshKeyPrefix+refresh.Digest, string(b)); err != nil {
		return domain.TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}

	return domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh.Value,
		ExpiresAt:    claims.ExpiresAt,
	}, nil
}

// consume looks up and deletes refreshToken in one step.
func (s *TokenService) consume(ctx context.Context, refreshToken string) (domain.RefreshToken, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return domain.RefreshToken{}, ErrInvalidRefresh
	}
	key := refreshKey(refreshToken)

	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.Store.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		slogx.FromContext(ctx).Info("unknown or reused refresh token")
		return domain.RefreshToken{}, ErrInvalidRefresh
	}
	if err != nil {
		return domain.RefreshToken{}, err
	}
	if err := s.Store.Delete(ctx, key); err != nil {
		return domain.RefreshToken{}, err
	}

	var rec domain.RefreshToken
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return domain.RefreshToken{}, fmt.Errorf("decode refresh token record: %w", err)
	}
	if !s.now().Before(rec.ExpiresAt) {
		return domain.RefreshToken{}, ErrInvalidRefresh
	}
	return rec, nil
}

func (s *TokenService) accessTTL() time.Duration {
	if s.AccessTTL > 0 {
		return s.AccessTTL
	}
	return DefaultAccessTTL
}

func (s *TokenService) refreshTTL() time.Duration {
	if s.RefreshTTL > 0 {
		return s.RefreshTTL
	}
	return DefaultRefreshTTL
}

func refreshKey(token string) string {
	return refreshKeyPrefix + cryptox.RefreshDigest(token)
}
