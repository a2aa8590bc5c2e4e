package application

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DescribeToken reads the subject and expiry from a JWT bearer token without
// verifying its signature. The values are for display only; the token stays
// opaque to everything else. Non-JWT tokens yield zero values.
func DescribeToken(token string) (subject string, expiresAt time.Time) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", time.Time{}
	}

	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiresAt = exp.Time
	}
	if sub, ok := claims["sub"]; ok && sub != nil {
		subject = fmt.Sprint(sub)
	}
	return subject, expiresAt
}
