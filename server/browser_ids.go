package server

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/jrsteele09/homeschool-portal/auth"
)

const (
	// deviceCookieName keys the persistent token store; it outlives browser restarts.
	deviceCookieName = "hsp_device"
	// tabCookieName keys the processed-code ledger; it is a browser-session cookie.
	tabCookieName = "hsp_tab"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	ContextKeyDeviceID ContextKey = "device_id"
	ContextKeyTabID    ContextKey = "tab_id"
)

// BrowserMiddleware makes sure the request carries device and tab ids,
// issuing new cookies when they are missing or malformed.
func (s *Server) BrowserMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deviceID := cookieID(r, deviceCookieName)
		if deviceID == "" {
			deviceID = uuid.NewString()
			s.setBrowserCookie(w, r, deviceCookieName, deviceID, int(s.config.GetDeviceCookieMaxAge().Seconds()))
		}
		tabID := cookieID(r, tabCookieName)
		if tabID == "" {
			tabID = uuid.NewString()
			s.setBrowserCookie(w, r, tabCookieName, tabID, 0)
		}

		ctx := context.WithValue(r.Context(), ContextKeyDeviceID, deviceID)
		ctx = context.WithValue(ctx, ContextKeyTabID, tabID)
		next(w, r.WithContext(ctx))
	}
}

func cookieID(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	if _, err := uuid.Parse(cookie.Value); err != nil {
		return ""
	}
	return cookie.Value
}

func (s *Server) setBrowserCookie(w http.ResponseWriter, r *http.Request, name, value string, maxAge int) {
	isSecure := s.config.GetCookieSecure() || getScheme(r) == "https"

	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

// session returns the session handle for the request's browser.
func (s *Server) session(r *http.Request) *auth.Session {
	deviceID, _ := r.Context().Value(ContextKeyDeviceID).(string)
	tabID, _ := r.Context().Value(ContextKeyTabID).(string)
	return s.sessions.Session(deviceID, tabID)
}
