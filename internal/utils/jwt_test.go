package utils_test

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryan2kptit/location-based-services-search/internal/utils"
)

func newTestSigner(t *testing.T, accessTTL, refreshTTL time.Duration) *utils.Signer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return utils.NewSigner(key, &key.PublicKey, accessTTL, refreshTTL)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	s := newTestSigner(t, time.Hour, 7*24*time.Hour)

	at, err := s.NewAccessToken(42, "alice@example.com", "user")
	require.NoError(t, err)
	require.NotEmpty(t, at.Token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), at.Exp, 5*time.Second)

	claims, err := s.ParseAccessToken(at.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "user", claims.Role)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	s := newTestSigner(t, time.Hour, 7*24*time.Hour)

	rt, err := s.NewRefreshToken(7)
	require.NoError(t, err)
	require.NotEmpty(t, rt.Token)
	require.NotEmpty(t, rt.TokenID)

	// The embedded token id is the primary key of the persisted record.
	_, err = uuid.Parse(rt.TokenID)
	require.NoError(t, err)

	claims, err := s.ParseRefreshToken(rt.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), claims.UserID)
	assert.Equal(t, rt.TokenID, claims.TokenID)
}

func TestRefreshTokenIDsAreUnique(t *testing.T) {
	s := newTestSigner(t, time.Hour, 7*24*time.Hour)

	a, err := s.NewRefreshToken(1)
	require.NoError(t, err)
	b, err := s.NewRefreshToken(1)
	require.NoError(t, err)
	assert.NotEqual(t, a.TokenID, b.TokenID)
}

func TestExpiredTokenRejected(t *testing.T) {
	s := newTestSigner(t, -time.Minute, -time.Minute)

	at, err := s.NewAccessToken(1, "a@b.c", "user")
	require.NoError(t, err)
	_, err = s.ParseAccessToken(at.Token)
	assert.ErrorIs(t, err, utils.ErrInvalidToken)

	rt, err := s.NewRefreshToken(1)
	require.NoError(t, err)
	_, err = s.ParseRefreshToken(rt.Token)
	assert.ErrorIs(t, err, utils.ErrInvalidToken)
}

func TestForeignKeyRejected(t *testing.T) {
	issuer := newTestSigner(t, time.Hour, time.Hour)
	verifier := newTestSigner(t, time.Hour, time.Hour)

	at, err := issuer.NewAccessToken(1, "a@b.c", "user")
	require.NoError(t, err)
	_, err = verifier.ParseAccessToken(at.Token)
	assert.ErrorIs(t, err, utils.ErrInvalidToken)
}

func TestGarbageTokenRejected(t *testing.T) {
	s := newTestSigner(t, time.Hour, time.Hour)

	for _, raw := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := s.ParseAccessToken(raw)
		assert.ErrorIs(t, err, utils.ErrInvalidToken)
		_, err = s.ParseRefreshToken(raw)
		assert.ErrorIs(t, err, utils.ErrInvalidToken)
	}
}

func TestAccessTokenLacksRefreshClaims(t *testing.T) {
	s := newTestSigner(t, time.Hour, time.Hour)

	at, err := s.NewAccessToken(1, "a@b.c", "user")
	require.NoError(t, err)
	_, err = s.ParseRefreshToken(at.Token)
	assert.ErrorIs(t, err, utils.ErrInvalidToken)
}
