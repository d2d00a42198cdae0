package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/homeschool-portal/internal/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Claims is the typed payload of an identity provider token.
// Access tokens populate the registered claims and token_use; ID tokens add
// the identity claims.
type Claims struct {
	jwtlib.RegisteredClaims
	Email         string   `json:"email,omitempty"`
	EmailVerified *bool    `json:"email_verified,omitempty"`
	Username      string   `json:"cognito:username,omitempty"`
	Groups        []string `json:"cognito:groups,omitempty"`
	TokenUse      string   `json:"token_use,omitempty"`
	ClientID      string   `json:"client_id,omitempty"`
}

// Decode extracts the claims from a raw token WITHOUT verifying its signature.
// The result is a display and routing hint only; any security relevant
// decision belongs to the API that receives the token.
func Decode(rawToken string) (*Claims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, apperrors.ErrInvalidToken
	}

	claims := &Claims{}
	if _, _, err := jwtlib.NewParser().ParseUnverified(rawToken, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidToken, err)
	}
	return claims, nil
}

// Expiry returns the exp claim, or an error when absent.
func (c *Claims) Expiry() (time.Time, error) {
	if c.ExpiresAt == nil {
		return time.Time{}, errors.New("token missing exp claim")
	}
	return c.ExpiresAt.Time, nil
}

// IsExpired reports whether a raw token is unusable: undecodable, missing exp,
// or at/after its expiry. It fails closed.
func IsExpired(rawToken string) bool {
	claims, err := Decode(rawToken)
	if err != nil {
		return true
	}
	return claims.IsExpiredAt(NowTimeFunc())
}

// IsExpiredAt compares the exp claim against now.
func (c *Claims) IsExpiredAt(now time.Time) bool {
	exp, err := c.Expiry()
	if err != nil {
		return true
	}
	return !now.Before(exp)
}
