package server

import (
	"errors"
	"net/http"

	apperrors "github.com/jrsteele09/homeschool-portal/internal/errors"
	"github.com/jrsteele09/homeschool-portal/router"
	"github.com/rs/zerolog/log"
)

// IndexHandler resolves any sign-in callback in the URL and renders the
// landing page or the app shell.
func (s *Server) IndexHandler() http.HandlerFunc {
	tmpl := mustParsePages()

	return func(w http.ResponseWriter, r *http.Request) {
		sess := s.session(r)
		outcome := s.views.Resolve(r.Context(), sess, r.URL)

		data := s.pageData(outcome.Err)
		data.CleanURL = outcome.CleanURL
		data.StripQuery = outcome.StripQuery

		if outcome.Err != nil {
			log.Warn().Err(outcome.Err).Stringer("state", outcome.State).Msg("Sign-in callback did not complete")
		}

		if outcome.State != router.Authenticated {
			render(w, tmpl.landing, data)
			return
		}

		profile, err := sess.GetCurrentUser(r.Context())
		if err != nil {
			// An expired session falls back to the landing page without a message.
			if !errors.Is(err, apperrors.ErrNoValidSession) {
				log.Err(err).Msg("Failed to load profile")
				data.Banner = bannerFor(err)
			}
			render(w, tmpl.landing, data)
			return
		}

		render(w, tmpl.app, withProfile(data, profile))
	}
}
