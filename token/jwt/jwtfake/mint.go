// Package jwtfake mints unverifiable tokens shaped like the identity provider's,
// for tests.
package jwtfake

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const signingSecret = "jwtfake-secret"

// Identity describes the subject of a minted token.
type Identity struct {
	Sub      string
	Username string
	Email    string
	Groups   []string
}

// Mint signs arbitrary claims with HS256.
func Mint(t *testing.T, claims jwtlib.MapClaims) string {
	t.Helper()
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte(signingSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

// IDToken mints an ID token expiring at exp.
func IDToken(t *testing.T, id Identity, exp time.Time) string {
	t.Helper()
	claims := jwtlib.MapClaims{
		"sub":              id.Sub,
		"email":            id.Email,
		"email_verified":   true,
		"cognito:username": id.Username,
		"token_use":        "id",
		"iat":              exp.Add(-time.Hour).Unix(),
		"exp":              exp.Unix(),
		"jti":              uuid.New().String(),
	}
	if len(id.Groups) > 0 {
		claims["cognito:groups"] = id.Groups
	}
	return Mint(t, claims)
}

// AccessToken mints an access token expiring at exp.
func AccessToken(t *testing.T, sub string, exp time.Time) string {
	t.Helper()
	return Mint(t, jwtlib.MapClaims{
		"sub":       sub,
		"token_use": "access",
		"scope":     "email openid phone profile",
		"iat":       exp.Add(-time.Hour).Unix(),
		"exp":       exp.Unix(),
		"jti":       uuid.New().String(),
	})
}
