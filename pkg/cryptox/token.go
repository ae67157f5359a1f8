// Package cryptox holds the random secret and password hashing helpers used
// by the development backend.
package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

const (
	// RefreshTokenSize is the entropy of a refresh token in bytes. Encoded it
	// is 43 characters of base64url.
	RefreshTokenSize = 32

	// SigningKeySize is the length of a generated HS256 key in bytes.
	SigningKeySize = 32
)

// RefreshToken is an opaque refresh credential as handed to a client, and
// the digest the server files it under. Only Digest should be persisted.
type RefreshToken struct {
	Value  string
	Digest string
}

// NewRefreshToken draws a fresh refresh token.
func NewRefreshToken() (RefreshToken, error) {
	buf, err := randomBytes(RefreshTokenSize)
	if err != nil {
		return RefreshToken{}, err
	}
	value := base64.RawURLEncoding.EncodeToString(buf)
	return RefreshToken{Value: value, Digest: RefreshDigest(value)}, nil
}

// RefreshDigest returns the base64url SHA-256 of a presented refresh token,
// for looking up the record stored by NewRefreshToken's Digest.
func RefreshDigest(value string) string {
	sum := sha256.Sum256([]byte(value))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// NewSigningKey returns SigningKeySize random bytes for an ephemeral
// credential signer.
func NewSigningKey() ([]byte, error) {
	return randomBytes(SigningKeySize)
}

func randomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("cryptox: read random bytes: %w", err)
	}
	return buf, nil
}
