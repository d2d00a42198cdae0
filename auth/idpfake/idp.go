// Package idpfake runs an in-process hosted identity provider for tests.
package idpfake

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/homeschool-portal/oauthmodel"
	"github.com/jrsteele09/homeschool-portal/token/jwt/jwtfake"
)

const (
	ClientID    = "test-client-1"
	RedirectURI = "http://localhost:8080/"
	Region      = "eu-west-2"
)

// Rejection is a token endpoint error response.
type Rejection struct {
	Status      int
	Code        string
	Description string
}

// IdP serves the token, userinfo, revoke and global sign-out endpoints.
type IdP struct {
	*httptest.Server

	mu               sync.Mutex
	identity         jwtfake.Identity
	expiry           time.Time
	rejection        *Rejection
	omitIDToken      bool
	signOutStatus    int
	userInfo         map[string]any
	tokenForms       []url.Values
	userInfoRequests int
	signOutBodies    []map[string]string
	revokeForms      []url.Values
	exchangeDelay    time.Duration
}

// New starts an IdP that signs in id with tokens valid for an hour.
func New(t *testing.T, id jwtfake.Identity) *IdP {
	t.Helper()
	idp := &IdP{
		identity:      id,
		expiry:        time.Now().Add(time.Hour),
		signOutStatus: http.StatusOK,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /oauth2/token", idp.tokenHandler(t))
	mux.HandleFunc("GET /oauth2/userInfo", idp.userInfoHandler)
	mux.HandleFunc("POST /oauth2/revoke", idp.revokeHandler)
	mux.HandleFunc("POST /", idp.globalSignOutHandler)

	idp.Server = httptest.NewServer(mux)
	t.Cleanup(idp.Close)
	return idp
}

// Reject makes the token endpoint fail every request.
func (idp *IdP) Reject(r Rejection) {
	idp.mu.Lock()
	defer idp.mu.Unlock()
	idp.rejection = &r
}

// ExpireAt sets the exp claim of issued tokens.
func (idp *IdP) ExpireAt(exp time.Time) {
	idp.mu.Lock()
	defer idp.mu.Unlock()
	idp.expiry = exp
}

// OmitIDToken issues only access and refresh tokens.
func (idp *IdP) OmitIDToken() {
	idp.mu.Lock()
	defer idp.mu.Unlock()
	idp.omitIDToken = true
}

// FailSignOut makes global sign-out answer with status.
func (idp *IdP) FailSignOut(status int) {
	idp.mu.Lock()
	defer idp.mu.Unlock()
	idp.signOutStatus = status
}

// SetUserInfo sets the userinfo response body.
func (idp *IdP) SetUserInfo(attrs map[string]any) {
	idp.mu.Lock()
	defer idp.mu.Unlock()
	idp.userInfo = attrs
}

// SlowExchange delays every token response.
func (idp *IdP) SlowExchange(d time.Duration) {
	idp.mu.Lock()
	defer idp.mu.Unlock()
	idp.exchangeDelay = d
}

// TokenRequests returns the forms posted to the token endpoint.
func (idp *IdP) TokenRequests() []url.Values {
	idp.mu.Lock()
	defer idp.mu.Unlock()
	return append([]url.Values(nil), idp.tokenForms...)
}

func (idp *IdP) UserInfoRequests() int {
	idp.mu.Lock()
	defer idp.mu.Unlock()
	return idp.userInfoRequests
}

func (idp *IdP) SignOutRequests() []map[string]string {
	idp.mu.Lock()
	defer idp.mu.Unlock()
	return append([]map[string]string(nil), idp.signOutBodies...)
}

func (idp *IdP) RevokeRequests() []url.Values {
	idp.mu.Lock()
	defer idp.mu.Unlock()
	return append([]url.Values(nil), idp.revokeForms...)
}

func (idp *IdP) tokenHandler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		idp.mu.Lock()
		idp.tokenForms = append(idp.tokenForms, r.PostForm)
		rejection := idp.rejection
		identity, expiry, omitIDToken, delay := idp.identity, idp.expiry, idp.omitIDToken, idp.exchangeDelay
		idp.mu.Unlock()

		if delay > 0 {
			time.Sleep(delay)
		}

		w.Header().Set("Content-Type", "application/json")
		if grant := r.PostForm.Get("grant_type"); grant != string(oauthmodel.AuthorizationCodeGrant) {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error":             "unsupported_grant_type",
				"error_description": grant,
			})
			return
		}
		if rejection != nil {
			w.WriteHeader(rejection.Status)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error":             rejection.Code,
				"error_description": rejection.Description,
			})
			return
		}

		resp := map[string]any{
			"access_token":  jwtfake.AccessToken(t, identity.Sub, expiry),
			"refresh_token": "refresh-" + r.PostForm.Get("code"),
			"token_type":    "Bearer",
			"expires_in":    3600,
		}
		if !omitIDToken {
			resp["id_token"] = jwtfake.IDToken(t, identity, expiry)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func (idp *IdP) userInfoHandler(w http.ResponseWriter, r *http.Request) {
	idp.mu.Lock()
	idp.userInfoRequests++
	attrs := idp.userInfo
	idp.mu.Unlock()

	if r.Header.Get("Authorization") == "" {
		http.Error(w, "missing bearer token", http.StatusUnauthorized)
		return
	}
	if attrs == nil {
		attrs = map[string]any{
			"sub":      idp.identity.Sub,
			"email":    idp.identity.Email,
			"username": idp.identity.Username,
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(attrs)
}

func (idp *IdP) revokeHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	idp.mu.Lock()
	idp.revokeForms = append(idp.revokeForms, r.PostForm)
	idp.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (idp *IdP) globalSignOutHandler(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-Amz-Target") != "AWSCognitoIdentityProviderService.GlobalSignOut" {
		http.NotFound(w, r)
		return
	}
	body, _ := io.ReadAll(r.Body)
	var req map[string]string
	_ = json.Unmarshal(body, &req)

	idp.mu.Lock()
	idp.signOutBodies = append(idp.signOutBodies, req)
	status := idp.signOutStatus
	idp.mu.Unlock()

	w.Header().Set("Content-Type", "application/x-amz-json-1.1")
	w.WriteHeader(status)
	_, _ = w.Write([]byte("{}"))
}
