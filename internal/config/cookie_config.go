package config

import "time"

const cookieSecureVar = "COOKIE_SECURE"

// CookieConfig controls the device and tab cookies that key stored sessions.
type CookieConfig interface {
	GetCookieSecure() bool
	GetDeviceCookieMaxAge() time.Duration
}

type Cookies struct{}

var _ CookieConfig = Cookies{}

func (Cookies) GetCookieSecure() bool {
	return GetEnvBool(cookieSecureVar, false)
}

func (Cookies) GetDeviceCookieMaxAge() time.Duration {
	return 365 * 24 * time.Hour
}
