package auth_test

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/homeschool-portal/auth"
	"github.com/jrsteele09/homeschool-portal/auth/idpfake"
	"github.com/jrsteele09/homeschool-portal/internal/config"
	apperrors "github.com/jrsteele09/homeschool-portal/internal/errors"
	"github.com/jrsteele09/homeschool-portal/sessions"
	"github.com/jrsteele09/homeschool-portal/token/jwt/jwtfake"
	"github.com/stretchr/testify/require"
)

const (
	testDomain = "auth.example.com"
	testDevice = "device-1"
	testTab    = "tab-1"
)

var alice = jwtfake.Identity{
	Sub:      "sub-1",
	Username: "alice",
	Email:    "a@x.com",
	Groups:   []string{"member"},
}

type testFixture struct {
	idp     *idpfake.IdP
	store   *sessions.InMemoryStore
	manager *auth.Manager
}

func testIdentity() config.StaticIdentity {
	return config.StaticIdentity{
		Domain:      testDomain,
		ClientID:    idpfake.ClientID,
		Region:      idpfake.Region,
		RedirectURI: idpfake.RedirectURI,
	}
}

func setupTestFixture(t *testing.T, identity config.StaticIdentity, opts ...auth.Option) *testFixture {
	t.Helper()

	idp := idpfake.New(t, alice)
	store := sessions.NewInMemoryStore(time.Hour)
	ledger := sessions.NewCodeLedger(time.Hour)

	opts = append([]auth.Option{
		auth.WithHTTPClient(idp.Client()),
		auth.WithIssuerBaseURL(idp.URL),
		auth.WithSignOutEndpoint(idp.URL + "/"),
	}, opts...)
	m := auth.NewManager(identity, store, ledger, opts...)
	t.Cleanup(func() { _ = m.Close() })

	return &testFixture{idp: idp, store: store, manager: m}
}

func TestBuildLoginURL(t *testing.T) {
	t.Run("hosted ui url", func(t *testing.T) {
		store := sessions.NewInMemoryStore(0)
		ledger := sessions.NewCodeLedger(time.Hour)
		m := auth.NewManager(testIdentity(), store, ledger)
		defer m.Close()

		loginURL, err := m.BuildLoginURL()
		require.NoError(t, err)

		u, err := url.Parse(loginURL)
		require.NoError(t, err)
		require.Equal(t, "https", u.Scheme)
		require.Equal(t, testDomain, u.Host)
		require.Equal(t, "/login", u.Path)
		require.Equal(t, url.Values{
			"client_id":     {idpfake.ClientID},
			"response_type": {"code"},
			"scope":         {"email openid phone profile"},
			"redirect_uri":  {idpfake.RedirectURI},
		}, u.Query())
		require.Contains(t, loginURL, "scope=email+openid+phone+profile")
	})

	t.Run("missing client id", func(t *testing.T) {
		identity := testIdentity()
		identity.ClientID = ""
		f := setupTestFixture(t, identity)

		_, err := f.manager.BuildLoginURL()
		require.ErrorIs(t, err, apperrors.ErrConfiguration)

		var cfgErr *apperrors.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		require.Equal(t, []string{config.IdentityClientIDVar}, cfgErr.Missing)
		require.Empty(t, f.idp.TokenRequests())
	})

	t.Run("missing domain", func(t *testing.T) {
		identity := testIdentity()
		identity.Domain = ""
		m := auth.NewManager(identity, sessions.NewInMemoryStore(0), sessions.NewCodeLedger(time.Hour))
		defer m.Close()

		_, err := m.BuildLoginURL()
		var cfgErr *apperrors.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		require.Equal(t, []string{config.IdentityDomainVar}, cfgErr.Missing)
	})

	t.Run("malformed redirect uri", func(t *testing.T) {
		identity := testIdentity()
		identity.RedirectURI = "localhost:8080"
		m := auth.NewManager(identity, sessions.NewInMemoryStore(0), sessions.NewCodeLedger(time.Hour))
		defer m.Close()

		_, err := m.BuildLoginURL()
		require.ErrorIs(t, err, apperrors.ErrConfiguration)
	})
}

func TestLogoutURL(t *testing.T) {
	identity := testIdentity()
	m := auth.NewManager(identity, sessions.NewInMemoryStore(0), sessions.NewCodeLedger(time.Hour))
	require.Empty(t, m.LogoutURL())
	require.NoError(t, m.Close())

	identity.LogoutURI = "http://localhost:8080/"
	m = auth.NewManager(identity, sessions.NewInMemoryStore(0), sessions.NewCodeLedger(time.Hour))
	defer m.Close()
	require.Equal(t,
		"https://auth.example.com/logout?client_id=test-client-1&logout_uri=http%3A%2F%2Flocalhost%3A8080%2F",
		m.LogoutURL())
}

func TestExchangeCodeForTokens(t *testing.T) {
	ctx := context.Background()

	t.Run("posts the authorization code grant", func(t *testing.T) {
		f := setupTestFixture(t, testIdentity())
		sess := f.manager.Session(testDevice, testTab)

		tokens, err := sess.ExchangeCodeForTokens(ctx, "abc123")
		require.NoError(t, err)
		require.NotEmpty(t, tokens.AccessToken)
		require.NotEmpty(t, tokens.IDToken)
		require.Equal(t, "refresh-abc123", tokens.RefreshToken)

		requests := f.idp.TokenRequests()
		require.Len(t, requests, 1)
		form := requests[0]
		require.Equal(t, "authorization_code", form.Get("grant_type"))
		require.Equal(t, idpfake.ClientID, form.Get("client_id"))
		require.Equal(t, "abc123", form.Get("code"))
		require.Equal(t, idpfake.RedirectURI, form.Get("redirect_uri"))
		require.Empty(t, form.Get("client_secret"))
	})

	t.Run("session is usable without another round trip", func(t *testing.T) {
		f := setupTestFixture(t, testIdentity())
		sess := f.manager.Session(testDevice, testTab)

		_, err := sess.ExchangeCodeForTokens(ctx, "abc123")
		require.NoError(t, err)

		require.True(t, sess.IsAuthenticated(ctx))
		profile, err := sess.GetCurrentUser(ctx)
		require.NoError(t, err)
		require.Equal(t, "sub-1", profile.UserID)
		require.Equal(t, "alice", profile.Username)
		require.Equal(t, "a@x.com", profile.Email)
		require.Zero(t, f.idp.UserInfoRequests())

		cached, err := f.store.Get(ctx, testDevice, sessions.KeyUserInfo)
		require.NoError(t, err)
		require.Contains(t, cached, `"userId":"sub-1"`)
	})

	t.Run("same code twice posts once", func(t *testing.T) {
		f := setupTestFixture(t, testIdentity())
		sess := f.manager.Session(testDevice, testTab)

		first, err := sess.ExchangeCodeForTokens(ctx, "abc123")
		require.NoError(t, err)
		second, err := sess.ExchangeCodeForTokens(ctx, "abc123")
		require.NoError(t, err)

		require.Len(t, f.idp.TokenRequests(), 1)
		require.Equal(t, first.AccessToken, second.AccessToken)
		require.Equal(t, first.IDToken, second.IDToken)
		require.Equal(t, "abc123", sess.LastProcessedCode())
	})

	t.Run("concurrent exchanges of one code post once", func(t *testing.T) {
		f := setupTestFixture(t, testIdentity())
		f.idp.SlowExchange(100 * time.Millisecond)

		start := make(chan struct{})
		var wg sync.WaitGroup
		errs := make(chan error, 5)
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				_, err := f.manager.Session(testDevice, testTab).ExchangeCodeForTokens(ctx, "abc123")
				errs <- err
			}()
		}
		close(start)
		wg.Wait()
		close(errs)

		for err := range errs {
			require.NoError(t, err)
		}
		require.Len(t, f.idp.TokenRequests(), 1)
	})

	t.Run("provider rejection is reported verbatim", func(t *testing.T) {
		f := setupTestFixture(t, testIdentity())
		f.idp.Reject(idpfake.Rejection{Status: 400, Code: "invalid_grant", Description: "Code expired"})
		sess := f.manager.Session(testDevice, testTab)

		_, err := sess.ExchangeCodeForTokens(ctx, "abc123")
		require.ErrorIs(t, err, apperrors.ErrTokenExchange)

		var exchangeErr *apperrors.TokenExchangeError
		require.ErrorAs(t, err, &exchangeErr)
		require.Equal(t, 400, exchangeErr.StatusCode)
		require.Equal(t, "invalid_grant", exchangeErr.Code)
		require.Equal(t, "Code expired", exchangeErr.Description)
		require.Contains(t, exchangeErr.Hint, "IDP_REDIRECT_URI")

		require.False(t, sess.IsAuthenticated(ctx))
		require.Empty(t, sess.LastProcessedCode())
	})

	t.Run("invalid client hint", func(t *testing.T) {
		f := setupTestFixture(t, testIdentity())
		f.idp.Reject(idpfake.Rejection{Status: 400, Code: "invalid_client"})

		_, err := f.manager.Session(testDevice, testTab).ExchangeCodeForTokens(ctx, "abc123")
		var exchangeErr *apperrors.TokenExchangeError
		require.ErrorAs(t, err, &exchangeErr)
		require.Equal(t, "invalid_client: No description provided", exchangeErr.Error())
		require.Contains(t, exchangeErr.Hint, "client id")
	})

	t.Run("missing configuration makes no request", func(t *testing.T) {
		identity := testIdentity()
		identity.ClientID = ""
		f := setupTestFixture(t, identity)

		_, err := f.manager.Session(testDevice, testTab).ExchangeCodeForTokens(ctx, "abc123")
		require.ErrorIs(t, err, apperrors.ErrConfiguration)
		require.Empty(t, f.idp.TokenRequests())
	})

	t.Run("malformed code makes no request", func(t *testing.T) {
		f := setupTestFixture(t, testIdentity())

		_, err := f.manager.Session(testDevice, testTab).ExchangeCodeForTokens(ctx, "abc 123")
		require.ErrorIs(t, err, apperrors.ErrTokenExchange)
		require.Empty(t, f.idp.TokenRequests())
	})

	t.Run("redeemed code without stored tokens", func(t *testing.T) {
		f := setupTestFixture(t, testIdentity())
		sess := f.manager.Session(testDevice, testTab)

		_, err := sess.ExchangeCodeForTokens(ctx, "abc123")
		require.NoError(t, err)
		require.NoError(t, f.store.Delete(ctx, testDevice, sessions.SessionKeys...))

		_, err = sess.ExchangeCodeForTokens(ctx, "abc123")
		var exchangeErr *apperrors.TokenExchangeError
		require.ErrorAs(t, err, &exchangeErr)
		require.Equal(t, "invalid_grant", exchangeErr.Code)
		require.Len(t, f.idp.TokenRequests(), 1)
	})

	t.Run("redeemed code whose tokens expired", func(t *testing.T) {
		f := setupTestFixture(t, testIdentity())
		f.idp.ExpireAt(time.Now().Add(-time.Minute))
		sess := f.manager.Session(testDevice, testTab)

		_, err := sess.ExchangeCodeForTokens(ctx, "abc123")
		require.NoError(t, err)
		require.False(t, sess.IsAuthenticated(ctx))

		set, err := sess.ExchangeCodeForTokens(ctx, "abc123")
		var exchangeErr *apperrors.TokenExchangeError
		require.ErrorAs(t, err, &exchangeErr)
		require.Equal(t, "invalid_grant", exchangeErr.Code)
		require.Empty(t, set.AccessToken)
		require.Len(t, f.idp.TokenRequests(), 1)
	})

	t.Run("another tab redeeming a new code replaces the session", func(t *testing.T) {
		f := setupTestFixture(t, testIdentity())

		_, err := f.manager.Session(testDevice, testTab).ExchangeCodeForTokens(ctx, "abc123")
		require.NoError(t, err)
		_, err = f.manager.Session(testDevice, "tab-2").ExchangeCodeForTokens(ctx, "def456")
		require.NoError(t, err)

		require.Len(t, f.idp.TokenRequests(), 2)
		refresh, err := f.store.Get(ctx, testDevice, sessions.KeyRefreshToken)
		require.NoError(t, err)
		require.Equal(t, "refresh-def456", refresh)
	})
}
