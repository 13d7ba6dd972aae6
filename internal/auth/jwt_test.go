package auth

import (
	"testing"
	"time"

	"coinmeet/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	cfg := &config.JWTConfig{AccessSecret: "s3cret", AccessExpiry: time.Hour, Issuer: "coinmeet"}
	tok, err := GenerateAccessToken(cfg, 42, "female")
	require.NoError(t, err)

	claims, err := ParseAccessToken(cfg, tok)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "female", claims.UserType)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "coinmeet", claims.Issuer)
}

func TestParseRejects(t *testing.T) {
	cfg := &config.JWTConfig{AccessSecret: "a", AccessExpiry: time.Hour, Issuer: "coinmeet"}
	good, err := GenerateAccessToken(cfg, 1, "male")
	require.NoError(t, err)

	expired, err := GenerateAccessToken(&config.JWTConfig{AccessSecret: "a", AccessExpiry: -time.Minute, Issuer: "coinmeet"}, 1, "male")
	require.NoError(t, err)
	otherIssuer, err := GenerateAccessToken(&config.JWTConfig{AccessSecret: "a", AccessExpiry: time.Hour, Issuer: "someone-else"}, 1, "male")
	require.NoError(t, err)
	anonymous, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "coinmeet", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("a"))
	require.NoError(t, err)
	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: 1, UserType: "male", RegisteredClaims: jwt.RegisteredClaims{Issuer: "coinmeet"},
	}).SignedString([]byte("a"))
	require.NoError(t, err)

	tests := []struct {
		name string
		cfg  *config.JWTConfig
		tok  string
		want error
	}{
		{"wrong secret", &config.JWTConfig{AccessSecret: "b", Issuer: "coinmeet"}, good, ErrInvalidToken},
		{"expired", cfg, expired, ErrExpiredToken},
		{"issuer", cfg, otherIssuer, ErrInvalidToken},
		{"no subject", cfg, anonymous, ErrInvalidToken},
		{"no expiry", cfg, noExpiry, ErrInvalidToken},
		{"garbage", cfg, "not.a.jwt", ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAccessToken(tt.cfg, tt.tok)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err = ParseAccessToken(&config.JWTConfig{AccessSecret: "a"}, otherIssuer)
	assert.NoError(t, err, "issuer is only enforced when configured")
}
