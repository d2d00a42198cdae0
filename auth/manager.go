package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/homeschool-portal/internal/config"
	apperrors "github.com/jrsteele09/homeschool-portal/internal/errors"
	"github.com/jrsteele09/homeschool-portal/oauthmodel"
	"github.com/jrsteele09/homeschool-portal/sessions"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const defaultHTTPTimeout = 30 * time.Second

// Manager is the single owner of persisted tokens. It holds the identity
// provider settings and the stores; per-browser work goes through a Session.
type Manager struct {
	identity        config.IdentityConfig
	store           sessions.Store
	ledger          *sessions.CodeLedger
	httpClient      *http.Client
	issuerBaseURL   string
	signOutEndpoint string
	exchanges       singleflight.Group
}

// Option configures a Manager.
type Option func(*Manager)

// WithHTTPClient sets the client used for every identity provider call.
func WithHTTPClient(client *http.Client) Option {
	return func(m *Manager) {
		m.httpClient = client
	}
}

// WithIssuerBaseURL replaces "https://{domain}" as the base of the hosted UI
// and OAuth2 endpoints.
func WithIssuerBaseURL(baseURL string) Option {
	return func(m *Manager) {
		m.issuerBaseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithSignOutEndpoint replaces the regional identity provider API endpoint
// used for global sign-out.
func WithSignOutEndpoint(endpoint string) Option {
	return func(m *Manager) {
		m.signOutEndpoint = endpoint
	}
}

// NewManager wires the session manager to its stores. The stores are owned by
// the manager from here on and released by Close.
func NewManager(identity config.IdentityConfig, store sessions.Store, ledger *sessions.CodeLedger, opts ...Option) *Manager {
	m := &Manager{
		identity:   identity,
		store:      store,
		ledger:     ledger,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Close releases the persistent store and stops the code ledger.
func (m *Manager) Close() error {
	m.ledger.Close()
	return m.store.Close()
}

// Session returns the handle for one browser: deviceID namespaces the
// persistent tokens, tabID the volatile code ledger.
func (m *Manager) Session(deviceID, tabID string) *Session {
	return &Session{m: m, deviceID: deviceID, tabID: tabID}
}

// BuildLoginURL returns the hosted UI sign-in URL. It never touches the network.
func (m *Manager) BuildLoginURL() (string, error) {
	conf, err := m.oauth2Config(context.Background())
	if err != nil {
		return "", err
	}
	return conf.AuthCodeURL(""), nil
}

// LogoutURL returns the hosted UI logout URL, or "" when no logout URI is configured.
func (m *Manager) LogoutURL() string {
	logoutURI := m.identity.GetLogoutURI()
	if logoutURI == "" || m.checkConfig() != nil {
		return ""
	}
	q := url.Values{}
	q.Set("client_id", m.identity.GetClientID())
	q.Set("logout_uri", logoutURI)
	return m.baseURL() + oauthmodel.LogoutPath + "?" + q.Encode()
}

// Configured reports whether sign-in can be attempted.
func (m *Manager) Configured() bool {
	return m.checkConfig() == nil
}

// checkConfig fails before any network call when the hosted UI cannot be addressed.
func (m *Manager) checkConfig() error {
	var missing []string
	if m.identity.GetIdentityDomain() == "" && m.issuerBaseURL == "" {
		missing = append(missing, config.IdentityDomainVar)
	}
	if m.identity.GetClientID() == "" {
		missing = append(missing, config.IdentityClientIDVar)
	}
	if m.identity.GetRedirectURI() == "" {
		missing = append(missing, config.IdentityRedirectURIVar)
	}
	if len(missing) > 0 {
		return &apperrors.ConfigurationError{Missing: missing}
	}
	if err := ValidateRedirectURI(m.identity.GetRedirectURI()); err != nil {
		return fmt.Errorf("%w: %s", apperrors.ErrConfiguration, err)
	}
	return nil
}

func (m *Manager) baseURL() string {
	if m.issuerBaseURL != "" {
		return m.issuerBaseURL
	}
	return "https://" + m.identity.GetIdentityDomain()
}

func (m *Manager) clientContext(ctx context.Context) context.Context {
	ctx = oidc.ClientContext(ctx, m.httpClient)
	return context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
}

// provider describes the hosted UI endpoints. The endpoints are fixed by the
// domain so no discovery document is fetched.
func (m *Manager) provider(ctx context.Context) *oidc.Provider {
	base := m.baseURL()
	pc := &oidc.ProviderConfig{
		IssuerURL:   base,
		AuthURL:     base + oauthmodel.LoginPath,
		TokenURL:    base + oauthmodel.TokenPath,
		UserInfoURL: base + oauthmodel.UserInfoPath,
	}
	return pc.NewProvider(m.clientContext(ctx))
}

func (m *Manager) oauth2Config(ctx context.Context) (*oauth2.Config, error) {
	if err := m.checkConfig(); err != nil {
		log.Error().Err(err).Msg("Identity provider is not configured")
		return nil, err
	}
	endpoint := m.provider(ctx).Endpoint()
	endpoint.AuthStyle = oauth2.AuthStyleInParams
	return &oauth2.Config{
		ClientID:    m.identity.GetClientID(),
		Endpoint:    endpoint,
		RedirectURL: m.identity.GetRedirectURI(),
		Scopes:      oauthmodel.DefaultScopes,
	}, nil
}

// prefix shortens identifiers for logs.
func prefix(s string) string {
	if len(s) <= 6 {
		return s
	}
	return s[:6] + "..."
}
