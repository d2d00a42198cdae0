package oauthmodel_test

import (
	"net/url"
	"testing"

	"github.com/jrsteele09/homeschool-portal/oauthmodel"
	"github.com/stretchr/testify/require"
)

func TestParseCallbackParameters(t *testing.T) {
	t.Run("code", func(t *testing.T) {
		q, _ := url.ParseQuery("code=abc123&state=xyz")
		p := oauthmodel.ParseCallbackParameters(q)
		require.True(t, p.HasCode())
		require.False(t, p.HasError())
		require.True(t, p.IsCallback())
		require.Equal(t, "abc123", p.Code)
		require.Equal(t, "xyz", p.State)
	})

	t.Run("error", func(t *testing.T) {
		q, _ := url.ParseQuery("error=access_denied&error_description=User+cancelled")
		p := oauthmodel.ParseCallbackParameters(q)
		require.True(t, p.HasError())
		require.Equal(t, "access_denied", p.Error)
		require.Equal(t, "User cancelled", p.ErrorDescription)
	})

	t.Run("plain page load", func(t *testing.T) {
		p := oauthmodel.ParseCallbackParameters(url.Values{})
		require.False(t, p.IsCallback())
	})
}

func TestScopeString(t *testing.T) {
	require.Equal(t, "email openid phone profile", oauthmodel.ScopeString(oauthmodel.DefaultScopes))
}
