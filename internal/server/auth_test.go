package server

import (
	"testing"
	"time"

	"ad-rewards-go/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func newTestAuthenticator(t *testing.T, issuer string) *Authenticator {
	t.Helper()
	auth, err := NewAuthenticator(models.AuthConfig{JwtSecret: testSecret, Issuer: issuer, TokenTtl: time.Hour})
	require.NoError(t, err)
	return auth
}

func TestAuthenticator_RoundTrip(t *testing.T) {
	auth := newTestAuthenticator(t, "ad-rewards")

	token, err := auth.IssueToken("oid-1", "Alice", "alice@example.com", "google")
	require.NoError(t, err)

	claims, err := auth.ParseToken(token)
	require.NoError(t, err)
	require.Equal(t, "oid-1", claims.Subject)
	require.Equal(t, "alice@example.com", claims.Email)
	require.Equal(t, "google", claims.LoginMethod)
}

func TestAuthenticator_RejectsBadTokens(t *testing.T) {
	auth := newTestAuthenticator(t, "ad-rewards")

	t.Run("expired", func(t *testing.T) {
		token, err := auth.IssueToken("oid-1", "", "", "")
		require.NoError(t, err)

		auth.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		defer func() { auth.now = time.Now }()

		_, err = auth.ParseToken(token)
		require.Error(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		token, err := newTestAuthenticator(t, "someone-else").IssueToken("oid-1", "", "", "")
		require.NoError(t, err)
		_, err = auth.ParseToken(token)
		require.Error(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewAuthenticator(models.AuthConfig{JwtSecret: "another-secret-value", Issuer: "ad-rewards"})
		require.NoError(t, err)
		token, err := other.IssueToken("oid-1", "", "", "")
		require.NoError(t, err)
		_, err = auth.ParseToken(token)
		require.Error(t, err)
	})

	t.Run("unsigned", func(t *testing.T) {
		claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "oid-1",
			Issuer:    "ad-rewards",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = auth.ParseToken(token)
		require.Error(t, err)
	})

	t.Run("no subject", func(t *testing.T) {
		token, err := auth.IssueToken("", "", "", "")
		require.NoError(t, err)
		_, err = auth.ParseToken(token)
		require.Error(t, err)
	})
}

func TestNewAuthenticator_RequiresSecret(t *testing.T) {
	_, err := NewAuthenticator(models.AuthConfig{JwtSecret: "short"})
	require.Error(t, err)
}

func TestRateLimiter_CleanupDropsIdleKeys(t *testing.T) {
	rl := NewRateLimiter(60, 1)
	start := time.Now()
	rl.now = func() time.Time { return start }

	require.True(t, rl.Allow("a"))
	require.False(t, rl.Allow("a"))

	rl.now = func() time.Time { return start.Add(10 * time.Minute) }
	require.True(t, rl.Allow("b"))

	rl.now = func() time.Time { return start.Add(15 * time.Minute) }
	require.Equal(t, 1, rl.Cleanup(time.Minute*10))
	require.Equal(t, 1, rl.Size())
}
