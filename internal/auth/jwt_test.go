package auth

import (
	"testing"
	"time"

	"groov/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWTConfig() *config.JWTConfig {
	return &config.JWTConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessExpiry:  60 * time.Minute,
		RefreshExpiry: 7 * 24 * time.Hour,
		Issuer:        "groov-test",
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	cfg := testJWTConfig()
	token, err := GenerateAccessToken(cfg, "user-123")
	require.NoError(t, err)

	sub, err := ParseAccessToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", sub)
}

func TestAccessTokenExpired(t *testing.T) {
	cfg := testJWTConfig()
	cfg.AccessExpiry = -time.Minute
	token, err := GenerateAccessToken(cfg, "user-123")
	require.NoError(t, err)

	_, err = ParseAccessToken(cfg, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAccessTokenWrongSecret(t *testing.T) {
	cfg := testJWTConfig()
	token, err := GenerateAccessToken(cfg, "user-123")
	require.NoError(t, err)

	other := testJWTConfig()
	other.AccessSecret = "a-different-secret"
	_, err = ParseAccessToken(other, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokenUsesSeparateSecret(t *testing.T) {
	cfg := testJWTConfig()
	refresh, err := GenerateRefreshToken(cfg, "user-123", time.Now())
	require.NoError(t, err)

	// a refresh token must never validate as an access token
	_, err = ParseAccessToken(cfg, refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)

	sub, err := ParseRefreshToken(cfg, refresh)
	require.NoError(t, err)
	assert.Equal(t, "user-123", sub)
}

func TestRefreshTokenExpiry(t *testing.T) {
	cfg := testJWTConfig()
	issuedAt := time.Now().Add(-8 * 24 * time.Hour)
	refresh, err := GenerateRefreshToken(cfg, "user-123", issuedAt)
	require.NoError(t, err)

	_, err = ParseRefreshToken(cfg, refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseGarbage(t *testing.T) {
	cfg := testJWTConfig()
	_, err := ParseAccessToken(cfg, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
