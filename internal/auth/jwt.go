package auth

import (
	"errors"
	"time"

	"groov/config"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// GenerateAccessToken signs a short-lived token carrying the user id as
// subject. Access and refresh tokens use distinct secrets so one being
// compromised cannot forge the other.
func GenerateAccessToken(cfg *config.JWTConfig, userID string) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(cfg.AccessExpiry)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		Issuer:    cfg.Issuer,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.AccessSecret))
}

func GenerateRefreshToken(cfg *config.JWTConfig, userID string, issuedAt time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(cfg.RefreshExpiry)),
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		Issuer:    cfg.Issuer,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.RefreshSecret))
}

// ParseAccessToken validates signature and expiry and returns the subject
// user id.
func ParseAccessToken(cfg *config.JWTConfig, tokenString string) (string, error) {
	return parse(tokenString, cfg.AccessSecret)
}

// ParseRefreshToken validates a refresh token against the refresh secret.
func ParseRefreshToken(cfg *config.JWTConfig, tokenString string) (string, error) {
	return parse(tokenString, cfg.RefreshSecret)
}

func parse(tokenString, secret string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return "", ErrInvalidToken
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
