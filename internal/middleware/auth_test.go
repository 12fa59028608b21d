package middleware

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	t.Setenv("HONG_AUTH_SECRET", "spawn-secret")

	token, err := GenerateToken("electron", time.Hour)
	require.NoError(t, err)
	require.Len(t, strings.Split(token, "."), 3)

	am := NewAuthMiddleware()
	require.NotNil(t, am)

	claims, err := am.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "electron", claims.Source)
	assert.Greater(t, claims.ExpiresAt, claims.IssuedAt)
}

func TestValidateTokenRejections(t *testing.T) {
	t.Setenv("HONG_AUTH_SECRET", "spawn-secret")
	am := NewAuthMiddleware()

	t.Run("malformed", func(t *testing.T) {
		_, err := am.ValidateToken("not-a-token")
		assert.ErrorContains(t, err, "invalid token format")
	})

	t.Run("expired", func(t *testing.T) {
		token, err := GenerateToken("electron", -time.Minute)
		require.NoError(t, err)

		_, err = am.ValidateToken(token)
		assert.ErrorContains(t, err, "token expired")
	})

	t.Run("tampered signature", func(t *testing.T) {
		token, err := GenerateToken("electron", time.Hour)
		require.NoError(t, err)

		parts := strings.Split(token, ".")
		forged := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))
		_, err = am.ValidateToken(forged)
		assert.Error(t, err)
	})

	t.Run("signed with a different secret", func(t *testing.T) {
		token, err := GenerateToken("electron", time.Hour)
		require.NoError(t, err)

		other := &AuthMiddleware{secret: []byte("some-other-secret")}
		_, err = other.ValidateToken(token)
		assert.ErrorContains(t, err, "invalid signature")
	})
}

func TestNewAuthMiddlewareWithoutSecret(t *testing.T) {
	t.Setenv("HONG_AUTH_SECRET", "")
	assert.Nil(t, NewAuthMiddleware())

	_, err := GenerateToken("electron", time.Hour)
	assert.Error(t, err)
}
