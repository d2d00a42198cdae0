package users

import (
	"encoding/json"
	"fmt"

	"github.com/jrsteele09/homeschool-portal/internal/utils"
	"github.com/jrsteele09/homeschool-portal/token/jwt"
)

// Attribute names carried in Profile.Attributes.
const (
	AttrSub           = "sub"
	AttrEmail         = "email"
	AttrEmailVerified = "email_verified"
	AttrGroups        = "cognito:groups"
	AttrUsername      = "cognito:username"
)

// UserStatusConfirmed is reported for every hosted-UI user; the provider only
// issues tokens to confirmed accounts.
const UserStatusConfirmed = "CONFIRMED"

// Profile is a read-only projection of the signed-in user. It is built once per
// sign-in and cached next to the tokens it was derived from.
type Profile struct {
	Username   string         `json:"username"`
	UserID     string         `json:"userId"`
	Email      string         `json:"email"`
	Attributes map[string]any `json:"attributes"`
	UserStatus string         `json:"userStatus,omitempty"`
}

// ProfileFromClaims projects decoded ID token claims.
func ProfileFromClaims(c *jwt.Claims) Profile {
	username := c.Username
	if username == "" {
		username = c.Subject
	}
	groups := c.Groups
	if groups == nil {
		groups = []string{}
	}
	return Profile{
		Username: username,
		UserID:   c.Subject,
		Email:    c.Email,
		Attributes: map[string]any{
			AttrSub:           c.Subject,
			AttrEmail:         c.Email,
			AttrEmailVerified: utils.Value(c.EmailVerified),
			AttrGroups:        groups,
			AttrUsername:      c.Username,
		},
		UserStatus: UserStatusConfirmed,
	}
}

// ProfileFromIDToken decodes an ID token (without verification) into a profile.
func ProfileFromIDToken(rawIDToken string) (Profile, error) {
	claims, err := jwt.Decode(rawIDToken)
	if err != nil {
		return Profile{}, fmt.Errorf("[users ProfileFromIDToken] %w", err)
	}
	if claims.Subject == "" {
		return Profile{}, fmt.Errorf("[users ProfileFromIDToken] token has no sub claim")
	}
	return ProfileFromClaims(claims), nil
}

// ProfileFromUserInfo builds a profile from userinfo endpoint attributes.
func ProfileFromUserInfo(username string, attributes map[string]any) Profile {
	sub, _ := attributes[AttrSub].(string)
	email, _ := attributes[AttrEmail].(string)
	if username == "" {
		username, _ = attributes["username"].(string)
	}
	userID := sub
	if userID == "" {
		userID = username
	}
	if username == "" {
		username = userID
	}
	return Profile{
		Username:   username,
		UserID:     userID,
		Email:      email,
		Attributes: attributes,
		UserStatus: UserStatusConfirmed,
	}
}

// Groups returns the group memberships recorded in the attributes.
// Cached profiles come back from JSON with []any, so both shapes are accepted.
func (p Profile) Groups() []string {
	switch g := p.Attributes[AttrGroups].(type) {
	case []string:
		return g
	case []any:
		return utils.ToStringSlice(g)
	default:
		return nil
	}
}

// Tier is derived from the group claim only.
func (p Profile) Tier() Tier {
	return TierFromGroups(p.Groups())
}

// DisplayName prefers the email, as the app shell greets users by it.
func (p Profile) DisplayName() string {
	if p.Email != "" {
		return p.Email
	}
	return p.Username
}

// Marshal serializes the profile for the session store.
func (p Profile) Marshal() (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("[users Profile.Marshal] %w", err)
	}
	return string(b), nil
}

// UnmarshalProfile restores a cached profile.
func UnmarshalProfile(data string) (Profile, error) {
	var p Profile
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return Profile{}, fmt.Errorf("[users UnmarshalProfile] %w", err)
	}
	if p.UserID == "" {
		return Profile{}, fmt.Errorf("[users UnmarshalProfile] cached profile has no userId")
	}
	return p, nil
}
