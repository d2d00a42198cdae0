package router_test

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/homeschool-portal/auth"
	"github.com/jrsteele09/homeschool-portal/auth/idpfake"
	"github.com/jrsteele09/homeschool-portal/internal/config"
	apperrors "github.com/jrsteele09/homeschool-portal/internal/errors"
	"github.com/jrsteele09/homeschool-portal/oauthmodel"
	"github.com/jrsteele09/homeschool-portal/router"
	"github.com/jrsteele09/homeschool-portal/sessions"
	"github.com/jrsteele09/homeschool-portal/token/jwt/jwtfake"
	"github.com/stretchr/testify/require"
)

// fakeSession records how the router drives the session manager.
type fakeSession struct {
	mu            sync.Mutex
	authenticated bool
	lastCode      string
	exchangeErr   error
	signOutErr    error
	exchanged     []string
	signedOut     bool
}

func (f *fakeSession) IsAuthenticated(context.Context) bool { return f.authenticated }
func (f *fakeSession) LastProcessedCode() string            { return f.lastCode }

func (f *fakeSession) ExchangeCodeForTokens(_ context.Context, code string) (oauthmodel.TokenSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exchanged = append(f.exchanged, code)
	if f.exchangeErr != nil {
		return oauthmodel.TokenSet{}, f.exchangeErr
	}
	f.authenticated = true
	f.lastCode = code
	return oauthmodel.TokenSet{AccessToken: "at"}, nil
}

func (f *fakeSession) SignOut(context.Context) error {
	f.signedOut = true
	f.authenticated = false
	return f.signOutErr
}

type transition struct{ from, to router.State }

func recorder() (*router.Sequencer, *[]transition) {
	var seen []transition
	seq := router.New(router.WithTransitionHook(func(from, to router.State) {
		seen = append(seen, transition{from, to})
	}))
	return seq, &seen
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("provider error", func(t *testing.T) {
		seq, seen := recorder()
		sess := &fakeSession{}

		out := seq.Resolve(ctx, sess, mustParse(t, "/?error=access_denied&error_description=User+cancelled"))
		require.Equal(t, router.CallbackFailed, out.State)
		require.True(t, out.StripQuery)
		require.Equal(t, "/", out.CleanURL)

		var cbErr *apperrors.CallbackError
		require.ErrorAs(t, out.Err, &cbErr)
		require.Equal(t, "access_denied", cbErr.Code)
		require.Equal(t, "User cancelled", cbErr.Description)
		require.Empty(t, sess.exchanged)
		require.Equal(t, []transition{{router.Idle, router.CallbackFailed}}, *seen)
	})

	t.Run("error wins over code", func(t *testing.T) {
		seq, _ := recorder()
		sess := &fakeSession{}

		out := seq.Resolve(ctx, sess, mustParse(t, "/?code=abc123&error=server_error"))
		require.Equal(t, router.CallbackFailed, out.State)
		require.Empty(t, sess.exchanged)
	})

	t.Run("new code is exchanged", func(t *testing.T) {
		seq, seen := recorder()
		sess := &fakeSession{}

		out := seq.Resolve(ctx, sess, mustParse(t, "/?code=abc123"))
		require.Equal(t, router.Authenticated, out.State)
		require.NoError(t, out.Err)
		require.True(t, out.StripQuery)
		require.Equal(t, []string{"abc123"}, sess.exchanged)
		require.Equal(t, []transition{
			{router.Idle, router.ExchangingCode},
			{router.ExchangingCode, router.Authenticated},
		}, *seen)
	})

	t.Run("exchange failure", func(t *testing.T) {
		seq, seen := recorder()
		exchangeErr := &apperrors.TokenExchangeError{StatusCode: 400, Code: "invalid_grant", Description: "Code expired"}
		sess := &fakeSession{exchangeErr: exchangeErr}

		out := seq.Resolve(ctx, sess, mustParse(t, "/?code=abc123"))
		require.Equal(t, router.Unauthenticated, out.State)
		require.True(t, out.StripQuery)
		require.ErrorIs(t, out.Err, apperrors.ErrTokenExchange)
		require.Equal(t, []transition{
			{router.Idle, router.ExchangingCode},
			{router.ExchangingCode, router.Unauthenticated},
		}, *seen)
	})

	t.Run("already processed code", func(t *testing.T) {
		seq, seen := recorder()
		sess := &fakeSession{lastCode: "abc123"}

		out := seq.Resolve(ctx, sess, mustParse(t, "/?code=abc123"))
		require.Equal(t, router.Authenticated, out.State)
		require.True(t, out.StripQuery)
		require.Empty(t, sess.exchanged)
		require.Equal(t, []transition{{router.Idle, router.Authenticated}}, *seen)
	})

	t.Run("code with a valid session", func(t *testing.T) {
		seq, _ := recorder()
		sess := &fakeSession{authenticated: true}

		out := seq.Resolve(ctx, sess, mustParse(t, "/?code=other"))
		require.Equal(t, router.Authenticated, out.State)
		require.True(t, out.StripQuery)
		require.Empty(t, sess.exchanged)
	})

	t.Run("plain load", func(t *testing.T) {
		seq, _ := recorder()

		out := seq.Resolve(ctx, &fakeSession{authenticated: true}, mustParse(t, "/"))
		require.Equal(t, router.Authenticated, out.State)
		require.False(t, out.StripQuery)

		out = seq.Resolve(ctx, &fakeSession{}, mustParse(t, "/"))
		require.Equal(t, router.Unauthenticated, out.State)
		require.False(t, out.StripQuery)
		require.NoError(t, out.Err)
	})

	t.Run("clean url keeps the path", func(t *testing.T) {
		seq, _ := recorder()

		out := seq.Resolve(ctx, &fakeSession{}, mustParse(t, "/history?error=access_denied#top"))
		require.Equal(t, "/history", out.CleanURL)
	})

	t.Run("hook is optional", func(t *testing.T) {
		out := router.New().Resolve(ctx, &fakeSession{}, mustParse(t, "/?code=abc123"))
		require.Equal(t, router.Authenticated, out.State)
	})
}

func TestSignOut(t *testing.T) {
	ctx := context.Background()
	seq, seen := recorder()

	sess := &fakeSession{authenticated: true}
	out := seq.SignOut(ctx, sess)
	require.Equal(t, router.Unauthenticated, out.State)
	require.NoError(t, out.Err)
	require.True(t, sess.signedOut)
	require.Equal(t, []transition{{router.Authenticated, router.Unauthenticated}}, *seen)

	sess = &fakeSession{authenticated: true, signOutErr: errors.New("store unavailable")}
	out = seq.SignOut(ctx, sess)
	require.Equal(t, router.Unauthenticated, out.State)
	require.Error(t, out.Err)
}

func TestStateString(t *testing.T) {
	require.Equal(t, "exchanging_code", router.ExchangingCode.String())
	require.Equal(t, "unknown", router.State(99).String())
}

func newManager(t *testing.T) (*auth.Manager, *idpfake.IdP) {
	t.Helper()
	idp := idpfake.New(t, jwtfake.Identity{Sub: "sub-1", Username: "alice", Email: "a@x.com"})
	m := auth.NewManager(config.StaticIdentity{
		Domain:      "auth.example.com",
		ClientID:    idpfake.ClientID,
		Region:      idpfake.Region,
		RedirectURI: idpfake.RedirectURI,
	}, sessions.NewInMemoryStore(time.Hour), sessions.NewCodeLedger(time.Hour),
		auth.WithHTTPClient(idp.Client()),
		auth.WithIssuerBaseURL(idp.URL),
		auth.WithSignOutEndpoint(idp.URL+"/"),
	)
	t.Cleanup(func() { _ = m.Close() })
	return m, idp
}

func TestCallbackScenarios(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate render of the same code", func(t *testing.T) {
		m, idp := newManager(t)
		seq := router.New()
		callback := mustParse(t, "/?code=abc123")

		out := seq.Resolve(ctx, m.Session("device-1", "tab-1"), callback)
		require.Equal(t, router.Authenticated, out.State)

		out = seq.Resolve(ctx, m.Session("device-1", "tab-1"), callback)
		require.Equal(t, router.Authenticated, out.State)
		require.True(t, out.StripQuery)
		require.Equal(t, "/", out.CleanURL)
		require.Len(t, idp.TokenRequests(), 1)

		profile, err := m.Session("device-1", "tab-1").GetCurrentUser(ctx)
		require.NoError(t, err)
		require.Equal(t, "alice", profile.Username)
		require.Equal(t, "sub-1", profile.UserID)
		require.Equal(t, "a@x.com", profile.Email)
	})

	t.Run("access denied", func(t *testing.T) {
		m, idp := newManager(t)
		sess := m.Session("device-1", "tab-1")

		out := router.New().Resolve(ctx, sess, mustParse(t, "/?error=access_denied"))
		require.Equal(t, router.CallbackFailed, out.State)
		require.Equal(t, "access_denied", out.Err.Error())
		require.True(t, out.StripQuery)
		require.False(t, sess.IsAuthenticated(ctx))
		require.Empty(t, idp.TokenRequests())
	})
}
