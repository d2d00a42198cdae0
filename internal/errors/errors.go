package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Common error types for the portal
var (
	// Configuration errors
	ErrConfiguration = errors.New("configuration error")

	// Sign-in errors
	ErrTokenExchange = errors.New("token exchange failed")
	ErrCallback      = errors.New("identity provider reported an error")

	// Session errors
	ErrNoValidSession = errors.New("no valid session")
	ErrInvalidToken   = errors.New("invalid token")

	// Downstream API errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// General errors
	ErrNotFound = errors.New("not found")
)

// ConfigurationError reports required identity or endpoint settings that are missing.
// It is raised before any network call is attempted.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: missing %s", strings.Join(e.Missing, ", "))
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// TokenExchangeError carries the identity provider's rejection of an authorization code.
// Code and Description are the provider's error and error_description fields, verbatim.
type TokenExchangeError struct {
	StatusCode  int
	Code        string
	Description string
	Hint        string
}

func (e *TokenExchangeError) Error() string {
	msg := fmt.Sprintf("token exchange failed: %d", e.StatusCode)
	if e.Code != "" {
		desc := e.Description
		if desc == "" {
			desc = "No description provided"
		}
		msg = fmt.Sprintf("%s: %s", e.Code, desc)
	}
	return msg
}

func (e *TokenExchangeError) Unwrap() error { return ErrTokenExchange }

// NoValidSessionError means no unexpired token is cached for the caller.
type NoValidSessionError struct {
	Reason string
}

func (e *NoValidSessionError) Error() string {
	if e.Reason == "" {
		return ErrNoValidSession.Error()
	}
	return ErrNoValidSession.Error() + ": " + e.Reason
}

func (e *NoValidSessionError) Unwrap() error { return ErrNoValidSession }

// CallbackError is an error query parameter returned by the identity provider
// on the redirect back to the application (user cancelled, consent denied...).
type CallbackError struct {
	Code        string
	Description string
}

func (e *CallbackError) Error() string {
	if e.Description == "" {
		return e.Code
	}
	return e.Code + ": " + e.Description
}

func (e *CallbackError) Unwrap() error { return ErrCallback }

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New is errors.New, re-exported so callers need a single errors import.
func New(text string) error {
	return errors.New(text)
}
