package oauthmodel

import (
	"net/url"
	"strings"
)

// CallbackParameters holds the query parameters the hosted UI appends to the
// redirect URI when it sends the browser back to the portal.
type CallbackParameters struct {
	// Code is the one-time authorization code.
	// Required: On success
	// Example: "abc123"
	// Usage: Exchanged once for tokens, then becomes invalid
	Code string

	// State echoes the state sent on the authorization request, if any.
	State string

	// Error is set instead of Code when the provider could not authorize.
	// Example: "access_denied", "invalid_request", "unauthorized_client"
	Error string

	// ErrorDescription is the provider's human readable explanation.
	ErrorDescription string
}

// ParseCallbackParameters reads the callback fields from a query string.
func ParseCallbackParameters(values url.Values) CallbackParameters {
	return CallbackParameters{
		Code:             strings.TrimSpace(values.Get("code")),
		State:            values.Get("state"),
		Error:            strings.TrimSpace(values.Get("error")),
		ErrorDescription: values.Get("error_description"),
	}
}

// HasError reports whether the provider returned an error.
func (p CallbackParameters) HasError() bool {
	return p.Error != ""
}

// HasCode reports whether an authorization code is present.
func (p CallbackParameters) HasCode() bool {
	return p.Code != ""
}

// IsCallback reports whether the query looks like a redirect from the hosted UI.
func (p CallbackParameters) IsCallback() bool {
	return p.HasError() || p.HasCode()
}
