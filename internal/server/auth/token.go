// Package auth implements the credential primitives of the server: signed
// access tokens and salted password hashes.
package auth

import (
	"errors"
	"time"

	"github.com/avolkov/minipost/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// GenerateToken signs an HS256 token whose subject is userID, valid for
// validityDuration from now. The token records both issue and expiry
// instants; no other claims are carried.
func GenerateToken(userID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
	})

	return token.SignedString(secretKey)
}

// GetUserIDFromToken verifies tokenString against secretKey and returns the
// subject user id. Only HS256 signatures are accepted. Expired tokens yield
// common.ErrTokenExpired; every other failure (bad signature, malformed
// input, missing subject) collapses to common.ErrInvalidToken.
func GetUserIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return "", common.ErrInvalidToken
	}

	return claims.Subject, nil
}
