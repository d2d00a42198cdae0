package config

import "strings"

const (
	IdentityDomainVar      = "IDP_DOMAIN"
	IdentityClientIDVar    = "IDP_CLIENT_ID"
	IdentityRegionVar      = "IDP_REGION"
	IdentityRedirectURIVar = "IDP_REDIRECT_URI"
	IdentityLogoutURIVar   = "IDP_LOGOUT_URI"
)

// IdentityConfig describes the hosted identity provider the portal signs users in with.
type IdentityConfig interface {
	// GetIdentityDomain is the hosted UI host, without scheme (e.g. "auth.example.com").
	GetIdentityDomain() string
	GetClientID() string
	GetRegion() string
	GetRedirectURI() string
	// GetLogoutURI is optional; when empty no hosted-UI logout redirect is offered.
	GetLogoutURI() string
	// MissingIdentitySettings lists required identity variables that are unset.
	MissingIdentitySettings() []string
}

type Identity struct{}

var _ IdentityConfig = Identity{}

func (Identity) GetIdentityDomain() string {
	domain := GetEnv(IdentityDomainVar, "")
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	return strings.TrimSuffix(domain, "/")
}

func (Identity) GetClientID() string {
	return GetEnv(IdentityClientIDVar, "")
}

func (Identity) GetRegion() string {
	return GetEnv(IdentityRegionVar, "")
}

func (Identity) GetRedirectURI() string {
	return GetEnv(IdentityRedirectURIVar, "")
}

func (Identity) GetLogoutURI() string {
	return GetEnv(IdentityLogoutURIVar, "")
}

func (i Identity) MissingIdentitySettings() []string {
	return MissingIdentity(i)
}

// MissingIdentity checks any IdentityConfig, so tests and alternative sources share the rule.
func MissingIdentity(c interface {
	GetIdentityDomain() string
	GetClientID() string
	GetRegion() string
	GetRedirectURI() string
}) []string {
	var missing []string
	if c.GetIdentityDomain() == "" {
		missing = append(missing, IdentityDomainVar)
	}
	if c.GetClientID() == "" {
		missing = append(missing, IdentityClientIDVar)
	}
	if c.GetRegion() == "" {
		missing = append(missing, IdentityRegionVar)
	}
	if c.GetRedirectURI() == "" {
		missing = append(missing, IdentityRedirectURIVar)
	}
	return missing
}

// StaticIdentity is an IdentityConfig with fixed values.
type StaticIdentity struct {
	Domain      string
	ClientID    string
	Region      string
	RedirectURI string
	LogoutURI   string
}

var _ IdentityConfig = StaticIdentity{}

func (s StaticIdentity) GetIdentityDomain() string { return s.Domain }
func (s StaticIdentity) GetClientID() string       { return s.ClientID }
func (s StaticIdentity) GetRegion() string         { return s.Region }
func (s StaticIdentity) GetRedirectURI() string    { return s.RedirectURI }
func (s StaticIdentity) GetLogoutURI() string      { return s.LogoutURI }

func (s StaticIdentity) MissingIdentitySettings() []string {
	return MissingIdentity(s)
}
