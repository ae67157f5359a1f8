package credential

import (
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/fundme/pkg/idx"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidSignature = errors.New("credential: invalid signature")
	ErrExpired          = errors.New("credential: expired")
)

// wireClaims is the JSON payload the banking API puts in access credentials.
type wireClaims struct {
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
	jwt.RegisteredClaims
}

// Signer mints and verifies HS256 credentials. It backs the development API
// and tests; the client never holds the key.
type Signer struct {
	key    []byte
	issuer string
	now    func() time.Time
}

// NewSigner returns an HS256 signer. The key must not be empty.
func NewSigner(key []byte, issuer string) (*Signer, error) {
	if len(key) == 0 {
		return nil, errors.New("credential: empty signing key")
	}
	return &Signer{key: key, issuer: issuer, now: time.Now}, nil
}

// Sign encodes c as a signed three segment credential.
func (s *Signer) Sign(c Claims) (string, error) {
	if c.SubjectID == "" {
		return "", fmt.Errorf("credential: empty subject")
	}
	if !c.Role.Valid() {
		return "", fmt.Errorf("credential: invalid role %q", c.Role)
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, wireClaims{
		UserID: c.SubjectID,
		Role:   c.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   c.SubjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(c.ExpiresAt),
			ID:        idx.New().String(),
		},
	})
	return token.SignedString(s.key)
}

// Issue signs a credential for subject and role that expires after ttl.
func (s *Signer) Issue(subject string, role Role, ttl time.Duration) (string, Claims, error) {
	c := Claims{
		SubjectID: subject,
		Role:      role,
		ExpiresAt: s.now().Add(ttl),
	}
	raw, err := s.Sign(c)
	if err != nil {
		return "", Claims{}, err
	}
	// Round to the second precision the token actually carries.
	c.ExpiresAt = c.ExpiresAt.Truncate(time.Second)
	return raw, c, nil
}

// Verify checks signature, algorithm and expiry, then returns the claims.
func (s *Signer) Verify(raw string) (Claims, error) {
	var wc wireClaims
	_, err := jwt.ParseWithClaims(raw, &wc,
		func(*jwt.Token) (any, error) { return s.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return Claims{}, ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return Claims{}, ErrInvalidSignature
	default:
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if wc.UserID == "" || !wc.Role.Valid() {
		return Claims{}, fmt.Errorf("%w: missing claims", ErrMalformed)
	}
	return Claims{
		SubjectID: wc.UserID,
		Role:      wc.Role,
		ExpiresAt: wc.ExpiresAt.Time,
	}, nil
}
