package credential

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignerRoundTrip(t *testing.T) {
	s, err := NewSigner([]byte("secret"), "fundme-test")
	require.NoError(t, err)

	raw, issued, err := s.Issue("u1", RoleAdmin, time.Hour)
	require.NoError(t, err)

	// The client-side decoder reads what the signer writes.
	decoded, err := Decode(raw)
	require.NoError(t, err)
	requireSameClaims(t, issued, decoded)

	verified, err := s.Verify(raw)
	require.NoError(t, err)
	requireSameClaims(t, issued, verified)
}

func requireSameClaims(t *testing.T, want, got Claims) {
	t.Helper()
	require.Equal(t, want.SubjectID, got.SubjectID)
	require.Equal(t, want.Role, got.Role)
	require.True(t, want.ExpiresAt.Equal(got.ExpiresAt), "expiry %v != %v", want.ExpiresAt, got.ExpiresAt)
}

func TestSignerVerifyFailures(t *testing.T) {
	s, err := NewSigner([]byte("secret"), "fundme-test")
	require.NoError(t, err)

	t.Run("wrong key", func(t *testing.T) {
		other, err := NewSigner([]byte("other"), "fundme-test")
		require.NoError(t, err)
		raw, _, err := other.Issue("u1", RoleUser, time.Hour)
		require.NoError(t, err)

		_, err = s.Verify(raw)
		require.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("expired", func(t *testing.T) {
		raw, err := s.Sign(Claims{SubjectID: "u1", Role: RoleUser, ExpiresAt: time.Now().Add(-time.Minute)})
		require.NoError(t, err)

		_, err = s.Verify(raw)
		require.ErrorIs(t, err, ErrExpired)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := s.Verify("abc.def")
		require.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("clock", func(t *testing.T) {
		raw, _, err := s.Issue("u1", RoleUser, time.Minute)
		require.NoError(t, err)

		s.now = func() time.Time { return time.Now().Add(time.Hour) }
		defer func() { s.now = time.Now }()

		_, err = s.Verify(raw)
		require.ErrorIs(t, err, ErrExpired)
	})
}

func TestSignRejectsBadClaims(t *testing.T) {
	s, err := NewSigner([]byte("secret"), "")
	require.NoError(t, err)

	_, err = s.Sign(Claims{Role: RoleUser, ExpiresAt: time.Now()})
	require.Error(t, err)

	_, err = s.Sign(Claims{SubjectID: "u1", Role: "root", ExpiresAt: time.Now()})
	require.Error(t, err)

	_, err = NewSigner(nil, "")
	require.Error(t, err)
}
