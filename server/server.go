package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/homeschool-portal/activities"
	"github.com/jrsteele09/homeschool-portal/auth"
	"github.com/jrsteele09/homeschool-portal/internal/config"
	"github.com/jrsteele09/homeschool-portal/router"
	"github.com/rs/zerolog/log"
)

type Server struct {
	env        string // Environment (e.g., "DEV", "PROD")
	mux        *http.ServeMux
	routes     []string
	config     config.Config
	sessions   *auth.Manager
	views      *router.Sequencer
	activities *activities.Client
}

// New builds the portal's HTTP handler. The session manager is owned by the
// caller, which closes it on shutdown.
func New(cfg config.Config, sessions *auth.Manager, api *activities.Client) *Server {
	s := &Server{
		env:        cfg.GetEnv(),
		mux:        http.NewServeMux(),
		config:     cfg,
		sessions:   sessions,
		activities: api,
	}
	s.views = router.New(router.WithTransitionHook(func(from, to router.State) {
		log.Debug().Stringer("from", from).Stringer("to", to).Msg("View transition")
	}))

	s.initRoutes()
	s.logRoutes()

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Info().Msgf("[%-19s] %s", colouredMethod(method), path)
}

func colouredMethod(method string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		return color + paddedMethod + ResetColor
	}
	return Gray + paddedMethod + ResetColor
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
