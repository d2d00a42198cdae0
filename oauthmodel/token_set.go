package oauthmodel

// TokenSet is the result of a successful authorization code exchange.
// All three tokens are JWT-shaped strings; they are replaced, never edited.
type TokenSet struct {
	// AccessToken authorizes calls to the identity provider (userinfo, global sign-out).
	// Lifespan: Short-lived (typically 1 hour)
	AccessToken string `json:"access_token"`

	// IDToken carries identity claims (sub, email, cognito:username, cognito:groups).
	// Usage: Sent as the bearer credential to the activity API and decoded for the profile
	// Only present: When "openid" scope was requested
	IDToken string `json:"id_token,omitempty"`

	// RefreshToken can mint new access/ID tokens. Stored, revoked on sign-out, otherwise unused.
	RefreshToken string `json:"refresh_token,omitempty"`

	// TokenType is "Bearer".
	TokenType string `json:"token_type,omitempty"`

	// ExpiresIn is the access token lifetime in seconds.
	// Note: This is a hint - validity is always judged from the JWT's "exp" claim
	ExpiresIn int `json:"expires_in,omitempty"`

	Scope string `json:"scope,omitempty"`
}

// Empty reports whether no access token is present.
func (t TokenSet) Empty() bool {
	return t.AccessToken == ""
}
