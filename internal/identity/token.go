package identity

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// SubjectFromToken verifies an HS256 bearer token and returns its
// subject (the user ID). Used by the local gateway to resolve owners.
func SubjectFromToken(token, secret string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}
	sub, err := parsed.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return sub, nil
}
