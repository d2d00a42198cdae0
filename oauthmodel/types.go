package oauthmodel

import "strings"

// ResponseType represents the OAuth 2.0 response type requested from the hosted UI.
type ResponseType string

const (
	// CodeResponseType indicates the authorization code flow.
	// The hosted UI redirects back with ?code=... which is exchanged at the token endpoint.
	CodeResponseType ResponseType = "code"
)

// GrantType represents the OAuth 2.0 grant type used at the token endpoint.
type GrantType string

const (
	// AuthorizationCodeGrant exchanges an authorization code for tokens.
	// Token request includes: grant_type, client_id, code, redirect_uri
	// Returns: access_token, id_token, refresh_token
	// The portal never uses the refresh_token grant; an expired session goes
	// back through the hosted UI.
	AuthorizationCodeGrant GrantType = "authorization_code"
)

// Scopes requested on every sign-in.
const (
	ScopeEmail   = "email"
	ScopeOpenID  = "openid"
	ScopePhone   = "phone"
	ScopeProfile = "profile"
)

// DefaultScopes is the fixed scope list for the hosted UI.
var DefaultScopes = []string{ScopeEmail, ScopeOpenID, ScopePhone, ScopeProfile}

// ScopeString joins scopes the way they appear on the wire (space separated,
// encoded as '+' in a query string).
func ScopeString(scopes []string) string {
	return strings.Join(scopes, " ")
}

// Hosted UI and token endpoint paths relative to the identity provider domain.
const (
	LoginPath    = "/login"
	LogoutPath   = "/logout"
	TokenPath    = "/oauth2/token"
	RevokePath   = "/oauth2/revoke"
	UserInfoPath = "/oauth2/userInfo"
)
