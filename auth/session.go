package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/jrsteele09/homeschool-portal/internal/errors"
	"github.com/jrsteele09/homeschool-portal/oauthmodel"
	"github.com/jrsteele09/homeschool-portal/sessions"
	"github.com/jrsteele09/homeschool-portal/token/jwt"
	"github.com/jrsteele09/homeschool-portal/users"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// Session is one browser's view of the session manager. It is cheap to
// create per request.
type Session struct {
	m        *Manager
	deviceID string
	tabID    string
}

// ExchangeCodeForTokens redeems an authorization code and persists the
// resulting tokens and profile. A code this tab already redeemed is answered
// from the store without contacting the identity provider.
func (s *Session) ExchangeCodeForTokens(ctx context.Context, code string) (oauthmodel.TokenSet, error) {
	conf, err := s.m.oauth2Config(ctx)
	if err != nil {
		return oauthmodel.TokenSet{}, err
	}
	if err := ValidateCode(code); err != nil {
		return oauthmodel.TokenSet{}, &apperrors.TokenExchangeError{Code: "invalid_request", Description: err.Error()}
	}

	if s.LastProcessedCode() == code {
		return s.storedTokens(ctx)
	}

	// The code is single-use, so the flight must outlive whichever request started it.
	flightCtx := context.WithoutCancel(ctx)
	result, err, shared := s.m.exchanges.Do(s.deviceID+":"+code, func() (interface{}, error) {
		return s.exchange(flightCtx, conf, code)
	})
	if err != nil {
		return oauthmodel.TokenSet{}, err
	}

	s.m.ledger.Record(s.tabID, code)
	log.Info().Str("code", prefix(code)).Bool("shared", shared).Msg("Authorization code exchanged")
	return result.(oauthmodel.TokenSet), nil
}

func (s *Session) exchange(ctx context.Context, conf *oauth2.Config, code string) (oauthmodel.TokenSet, error) {
	log.Info().
		Str("clientID", prefix(conf.ClientID)).
		Str("redirectURI", conf.RedirectURL).
		Str("code", prefix(code)).
		Msg("Exchanging authorization code for tokens")

	tok, err := conf.Exchange(s.m.clientContext(ctx), code)
	if err != nil {
		exchangeErr := exchangeError(err)
		log.Err(exchangeErr).Msg("Token exchange failed")
		return oauthmodel.TokenSet{}, exchangeErr
	}

	set := tokenSetFrom(tok)
	if err := s.persist(ctx, set); err != nil {
		return oauthmodel.TokenSet{}, err
	}
	return set, nil
}

// persist replaces the device's tokens. The profile is decoded from the ID
// token so it is available as soon as the tokens are.
func (s *Session) persist(ctx context.Context, set oauthmodel.TokenSet) error {
	store := s.m.store
	if err := store.Delete(ctx, s.deviceID, sessions.SessionKeys...); err != nil {
		return fmt.Errorf("[auth Session.persist] clear previous session: %w", err)
	}

	values := map[string]string{
		sessions.KeyAccessToken:  set.AccessToken,
		sessions.KeyIDToken:      set.IDToken,
		sessions.KeyRefreshToken: set.RefreshToken,
	}
	for key, value := range values {
		if value == "" {
			continue
		}
		if err := store.Set(ctx, s.deviceID, key, value); err != nil {
			return fmt.Errorf("[auth Session.persist] %s: %w", key, err)
		}
	}

	if set.IDToken == "" {
		return nil
	}
	profile, err := users.ProfileFromIDToken(set.IDToken)
	if err != nil {
		log.Warn().Err(err).Msg("Could not extract profile from ID token")
		return nil
	}
	if err := s.cacheProfile(ctx, profile); err != nil {
		log.Warn().Err(err).Msg("Could not cache profile")
	}
	return nil
}

func (s *Session) storedTokens(ctx context.Context) (oauthmodel.TokenSet, error) {
	access, ok := s.GetAccessToken(ctx)
	if !ok {
		return oauthmodel.TokenSet{}, &apperrors.TokenExchangeError{
			Code:        "invalid_grant",
			Description: "authorization code already redeemed",
			Hint:        hintInvalidGrant,
		}
	}
	set := oauthmodel.TokenSet{AccessToken: access, TokenType: "Bearer"}
	set.IDToken, _ = s.m.store.Get(ctx, s.deviceID, sessions.KeyIDToken)
	set.RefreshToken, _ = s.m.store.Get(ctx, s.deviceID, sessions.KeyRefreshToken)
	return set, nil
}

// GetCurrentUser returns the signed-in user's profile. It requires an
// unexpired access token and never refreshes one.
func (s *Session) GetCurrentUser(ctx context.Context) (users.Profile, error) {
	accessToken, ok := s.GetAccessToken(ctx)
	if !ok {
		return users.Profile{}, &apperrors.NoValidSessionError{Reason: "no unexpired access token"}
	}

	if cached, err := s.m.store.Get(ctx, s.deviceID, sessions.KeyUserInfo); err == nil {
		profile, err := users.UnmarshalProfile(cached)
		if err == nil {
			return profile, nil
		}
		log.Warn().Err(err).Msg("Cached profile unreadable, rebuilding")
	}

	if idToken, ok := s.GetIdentityToken(ctx); ok {
		if profile, err := users.ProfileFromIDToken(idToken); err == nil {
			if err := s.cacheProfile(ctx, profile); err != nil {
				log.Warn().Err(err).Msg("Could not cache profile")
			}
			return profile, nil
		}
	}

	profile, err := s.fetchUserInfo(ctx, accessToken)
	if err != nil {
		return users.Profile{}, err
	}
	if err := s.cacheProfile(ctx, profile); err != nil {
		log.Warn().Err(err).Msg("Could not cache profile")
	}
	return profile, nil
}

func (s *Session) fetchUserInfo(ctx context.Context, accessToken string) (users.Profile, error) {
	if err := s.m.checkConfig(); err != nil {
		return users.Profile{}, err
	}
	info, err := s.m.provider(ctx).UserInfo(s.m.clientContext(ctx), oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))
	if err != nil {
		return users.Profile{}, fmt.Errorf("[auth Session.GetCurrentUser] userinfo: %w", err)
	}

	attributes := map[string]any{}
	if err := info.Claims(&attributes); err != nil {
		return users.Profile{}, fmt.Errorf("[auth Session.GetCurrentUser] userinfo claims: %w", err)
	}
	username, _ := attributes["username"].(string)
	return users.ProfileFromUserInfo(username, attributes), nil
}

func (s *Session) cacheProfile(ctx context.Context, profile users.Profile) error {
	data, err := profile.Marshal()
	if err != nil {
		return err
	}
	return s.m.store.Set(ctx, s.deviceID, sessions.KeyUserInfo, data)
}

// GetAccessToken returns the stored access token if it has not expired.
func (s *Session) GetAccessToken(ctx context.Context) (string, bool) {
	return s.unexpired(ctx, sessions.KeyAccessToken)
}

// GetIdentityToken returns the stored ID token if it has not expired.
func (s *Session) GetIdentityToken(ctx context.Context) (string, bool) {
	return s.unexpired(ctx, sessions.KeyIDToken)
}

func (s *Session) unexpired(ctx context.Context, key string) (string, bool) {
	raw, err := s.m.store.Get(ctx, s.deviceID, key)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			log.Warn().Err(err).Str("key", key).Msg("Session store read failed")
		}
		return "", false
	}
	if jwt.IsExpired(raw) {
		return "", false
	}
	return raw, true
}

// IsAuthenticated reports whether an unexpired access token is stored.
func (s *Session) IsAuthenticated(ctx context.Context) bool {
	_, ok := s.GetAccessToken(ctx)
	return ok
}

// LastProcessedCode is the last authorization code this tab redeemed.
func (s *Session) LastProcessedCode() string {
	return s.m.ledger.Last(s.tabID)
}

func tokenSetFrom(tok *oauth2.Token) oauthmodel.TokenSet {
	set := oauthmodel.TokenSet{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
	}
	if !tok.Expiry.IsZero() {
		set.ExpiresIn = int(time.Until(tok.Expiry).Round(time.Second).Seconds())
	}
	if idToken, ok := tok.Extra("id_token").(string); ok {
		set.IDToken = idToken
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		set.Scope = scope
	}
	return set
}
