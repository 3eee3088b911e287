package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrMalformedToken = errors.New("malformed token")

// ExpiresAt reads the exp claim of a JWT without verifying its signature.
// The console never holds the service signing key; expiry checks are local
// hints only and the service stays authoritative. ok is false when the token
// carries no exp claim.
func ExpiresAt(token string) (expiry time.Time, ok bool, err error) {
	if token == "" {
		return time.Time{}, false, ErrMalformedToken
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false, nil
	}
	return claims.ExpiresAt.Time, true, nil
}

// IsExpired reports whether the token is expired at now. Malformed tokens
// count as expired, tokens without exp never expire.
func IsExpired(token string, now time.Time) bool {
	expiry, ok, err := ExpiresAt(token)
	if err != nil {
		return true
	}
	if !ok {
		return false
	}
	return !expiry.After(now)
}
