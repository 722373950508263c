package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the token claims the client cares about. The token is issued and
// verified server-side; the client only peeks at the registered claims to
// decide whether a refresh is worth attempting before calling the API.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Peek decodes a JWT without verifying its signature and returns the claims.
// Signature verification is the server's job; a forged token is rejected
// there anyway.
func Peek(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	return claims, nil
}

// ExpiresAt returns the token's expiry time and true when the token carries
// an exp claim. Opaque (non-JWT) tokens yield false.
func ExpiresAt(tokenString string) (time.Time, bool) {
	claims, err := Peek(tokenString)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Expired reports whether the token carries an exp claim in the past. Tokens
// without an expiry, or tokens that are not JWTs at all, are never considered
// expired locally.
func Expired(tokenString string) bool {
	exp, ok := ExpiresAt(tokenString)
	if !ok {
		return false
	}
	return time.Now().After(exp)
}
