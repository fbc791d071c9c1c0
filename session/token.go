package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenExpiry decodes the exp claim without verifying the signature. The
// client cannot verify server tokens; the value only drives warnings.
func tokenExpiry(token string) time.Time {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
