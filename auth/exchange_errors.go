package auth

import (
	"errors"
	"fmt"

	apperrors "github.com/jrsteele09/homeschool-portal/internal/errors"
	"golang.org/x/oauth2"
)

const (
	hintInvalidGrant  = "The authorization code expired or was already used, or the redirect URI does not match the app client's callback URL. Check IDP_REDIRECT_URI."
	hintInvalidClient = "Check the client id, that the authorization code flow is enabled for the app client, and the domain configuration."
)

// exchangeError maps a token endpoint rejection to a TokenExchangeError,
// keeping the provider's error fields verbatim. Transport failures are
// returned wrapped.
func exchangeError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if !errors.As(err, &retrieveErr) {
		return fmt.Errorf("[auth ExchangeCodeForTokens] %w", err)
	}

	exchangeErr := &apperrors.TokenExchangeError{
		Code:        retrieveErr.ErrorCode,
		Description: retrieveErr.ErrorDescription,
	}
	if retrieveErr.Response != nil {
		exchangeErr.StatusCode = retrieveErr.Response.StatusCode
	}
	switch exchangeErr.Code {
	case "invalid_grant":
		exchangeErr.Hint = hintInvalidGrant
	case "invalid_client":
		exchangeErr.Hint = hintInvalidClient
	}
	return exchangeErr
}
