package utils

import (
	"fmt"
	"time"

	"refmatch/config"

	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenClaims are the claims carried by an access token
type AccessTokenClaims struct {
	UID         string `json:"uid"`
	DisplayName string `json:"display_name"`
	jwt.RegisteredClaims
}

// GenerateAccessToken creates a signed access token for an authenticated
// identity. Tokens expire after 24 hours.
func GenerateAccessToken(uid, displayName string) (string, error) {
	if config.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret is not configured")
	}
	if uid == "" {
		return "", fmt.Errorf("uid is required")
	}

	now := time.Now()
	claims := AccessTokenClaims{
		UID:         uid,
		DisplayName: displayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    config.AppName,
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %v", err)
	}
	return signedToken, nil
}

// VerifyAccessToken validates a token string and returns its claims
func VerifyAccessToken(tokenString string) (*AccessTokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AccessTokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(config.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %v", err)
	}

	claims, ok := token.Claims.(*AccessTokenClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if claims.UID == "" {
		return nil, fmt.Errorf("token is missing uid claim")
	}
	return claims, nil
}
