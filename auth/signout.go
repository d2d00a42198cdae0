package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/homeschool-portal/oauthmodel"
	"github.com/jrsteele09/homeschool-portal/sessions"
	"github.com/rs/zerolog/log"
)

const globalSignOutTarget = "AWSCognitoIdentityProviderService.GlobalSignOut"

// SignOut invalidates the session remotely on a best-effort basis and then
// always erases the local tokens, profile and processed-code record. Only a
// failure to erase locally is returned.
func (s *Session) SignOut(ctx context.Context) error {
	if accessToken, err := s.m.store.Get(ctx, s.deviceID, sessions.KeyAccessToken); err == nil && accessToken != "" {
		if err := s.m.globalSignOut(ctx, accessToken); err != nil {
			log.Warn().Err(err).Msg("Global sign out failed, clearing local tokens anyway")
		}
	}
	if refreshToken, err := s.m.store.Get(ctx, s.deviceID, sessions.KeyRefreshToken); err == nil && refreshToken != "" {
		if err := s.m.revokeToken(ctx, refreshToken); err != nil {
			log.Warn().Err(err).Msg("Refresh token revocation failed")
		}
	}

	s.m.ledger.Forget(s.tabID)
	if err := s.m.store.Delete(ctx, s.deviceID, sessions.SessionKeys...); err != nil {
		return fmt.Errorf("[auth Session.SignOut] %w", err)
	}
	log.Info().Str("device", prefix(s.deviceID)).Msg("Signed out")
	return nil
}

func (m *Manager) signOutURL() string {
	if m.signOutEndpoint != "" {
		return m.signOutEndpoint
	}
	if region := m.identity.GetRegion(); region != "" {
		return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/", region)
	}
	return ""
}

// globalSignOut invalidates every token issued to the user.
func (m *Manager) globalSignOut(ctx context.Context, accessToken string) error {
	endpoint := m.signOutURL()
	if endpoint == "" {
		return fmt.Errorf("no region configured")
	}

	body, err := json.Marshal(map[string]string{"AccessToken": accessToken})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-amz-json-1.1")
	req.Header.Set("X-Amz-Target", globalSignOutTarget)

	return m.send(req)
}

// revokeToken revokes the refresh token at the hosted UI.
func (m *Manager) revokeToken(ctx context.Context, refreshToken string) error {
	if err := m.checkConfig(); err != nil {
		return err
	}

	data := url.Values{}
	data.Set("token", refreshToken)
	data.Set("client_id", m.identity.GetClientID())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL()+oauthmodel.RevokePath, strings.NewReader(data.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return m.send(req)
}

func (m *Manager) send(req *http.Request) error {
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s returned %d: %s", req.URL.Path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
