package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRefreshToken(t *testing.T) {
	tok, err := NewRefreshToken()
	require.NoError(t, err)

	require.Len(t, tok.Value, 43)
	require.NotContains(t, tok.Value, "=")
	require.Equal(t, RefreshDigest(tok.Value), tok.Digest)
	require.NotEqual(t, tok.Value, tok.Digest, "the digest never reveals the token")
}

func TestRefreshDigest(t *testing.T) {
	a := RefreshDigest("refresh-1")

	require.Equal(t, a, RefreshDigest("refresh-1"), "digest is deterministic")
	require.NotEqual(t, a, RefreshDigest("refresh-2"))
	require.Len(t, a, 43, "SHA-256 base64url is 43 chars")
}

func TestNewRefreshTokenUnique(t *testing.T) {
	const count = 100
	seen := make(map[string]bool, count)

	for range count {
		tok, err := NewRefreshToken()
		require.NoError(t, err)
		require.False(t, seen[tok.Value], "duplicate refresh token")
		seen[tok.Value] = true
	}
}

func TestNewSigningKey(t *testing.T) {
	k1, err := NewSigningKey()
	require.NoError(t, err)
	require.Len(t, k1, SigningKeySize)

	k2, err := NewSigningKey()
	require.NoError(t, err)
	require.NotEqual(t, k1, k2)
}
