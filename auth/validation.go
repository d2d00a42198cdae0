package auth

import (
	"fmt"
	"strings"
)

// ValidateRedirectURI validates redirect URI format
func ValidateRedirectURI(uri string) error {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return fmt.Errorf("redirect_uri is required")
	}

	// Must start with http:// or https://
	if !strings.HasPrefix(uri, "http://") && !strings.HasPrefix(uri, "https://") {
		return fmt.Errorf("redirect_uri must use http or https scheme")
	}

	// Should not contain fragments
	if strings.Contains(uri, "#") {
		return fmt.Errorf("redirect_uri must not contain fragments")
	}

	return nil
}

// ValidateCode checks an authorization code taken from a callback URL.
func ValidateCode(code string) error {
	if code == "" {
		return fmt.Errorf("code is required")
	}
	if strings.TrimSpace(code) != code || strings.ContainsAny(code, " \n\r\t") {
		return fmt.Errorf("code must not contain whitespace")
	}
	if len(code) > 2048 {
		return fmt.Errorf("code is too long")
	}
	return nil
}
