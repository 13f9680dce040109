package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adsops/adsops/application/port/outbound"
	"github.com/adsops/adsops/infrastructure/config"
)

func newService(t *testing.T, secret string) *JWTService {
	t.Helper()
	service, err := NewJWTService(&config.Config{
		JWTSecret:      secret,
		JWTAlgorithm:   "HS256",
		JWTIssuer:      "adsops",
		AccessTokenTTL: time.Hour,
	})
	require.NoError(t, err)
	return service
}

func TestJWTService(t *testing.T) {
	service := newService(t, "test-secret")

	t.Run("GenerateAndValidate", func(t *testing.T) {
		token, err := service.GenerateAccessToken(outbound.TokenClaims{Actor: "agent-7", Role: "agent"})
		require.NoError(t, err)
		require.NotEmpty(t, token)

		claims, err := service.ValidateAccessToken(token)
		require.NoError(t, err)
		assert.Equal(t, "agent-7", claims.Actor)
		assert.Equal(t, "agent", claims.Role)
	})

	t.Run("RequiresActor", func(t *testing.T) {
		_, err := service.GenerateAccessToken(outbound.TokenClaims{})
		assert.Error(t, err)
	})

	t.Run("ValidateInvalidToken", func(t *testing.T) {
		_, err := service.ValidateAccessToken("invalid-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("ValidateWrongSecret", func(t *testing.T) {
		token, err := newService(t, "other-secret").GenerateAccessToken(outbound.TokenClaims{Actor: "agent-7"})
		require.NoError(t, err)

		_, err = service.ValidateAccessToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("ValidateExpiredToken", func(t *testing.T) {
		issuer := newService(t, "test-secret")
		issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

		token, err := issuer.GenerateAccessToken(outbound.TokenClaims{Actor: "agent-7"})
		require.NoError(t, err)

		_, err = service.ValidateAccessToken(token)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})
}

func TestNewJWTService_RejectsUnsupportedAlgorithm(t *testing.T) {
	_, err := NewJWTService(&config.Config{JWTSecret: "s", JWTAlgorithm: "RS256"})
	assert.Error(t, err)
}
