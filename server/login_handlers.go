package server

import (
	"net/http"

	"github.com/rs/zerolog/log"
)

// LoginHandler sends the browser to the hosted UI. Missing identity settings
// are shown on the landing page instead.
func (s *Server) LoginHandler() http.HandlerFunc {
	tmpl := mustParsePages()

	return func(w http.ResponseWriter, r *http.Request) {
		loginURL, err := s.sessions.BuildLoginURL()
		if err != nil {
			data := s.pageData(err)
			data.CleanURL = RouteIndex
			data.StripQuery = true
			render(w, tmpl.landing, data)
			return
		}
		http.Redirect(w, r, loginURL, http.StatusFound)
	}
}

// LogoutHandler signs the browser out and returns to the landing page, via
// the hosted UI logout when one is configured.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		outcome := s.views.SignOut(r.Context(), s.session(r))
		if outcome.Err != nil {
			log.Err(outcome.Err).Msg("Sign out could not clear the session")
		}

		target := s.sessions.LogoutURL()
		if target == "" {
			target = RouteIndex
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
	}
}

// HealthHandler reports liveness and whether sign-in is configured.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":     "ok",
			"configured": s.sessions.Configured(),
		})
	}
}
