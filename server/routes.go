package server

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET /{$}", ChainMiddleware(s.IndexHandler(), s.HTMLMiddleWare(s.BrowserMiddleware)...))

	// LOGIN / LOGOUT
	s.RegisterRouteHandler("GET "+RouteLogin, ChainMiddleware(s.LoginHandler(), s.HTMLMiddleWare(s.BrowserMiddleware)...))
	s.RegisterRouteHandler("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare(s.BrowserMiddleware)...))

	s.RegisterRouteHandler("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.APIMiddleware()...))

	// API routes
	s.RegisterRouteHandler("POST "+RouteAPIGenerate, ChainMiddleware(s.GenerateHandler(), s.APIMiddleware(s.BrowserMiddleware)...))
	s.RegisterRouteHandler("GET "+RouteAPIHistory, ChainMiddleware(s.HistoryHandler(), s.APIMiddleware(s.BrowserMiddleware)...))
	s.RegisterRouteHandler("POST "+RouteAPIFeedback, ChainMiddleware(s.FeedbackHandler(), s.APIMiddleware(s.BrowserMiddleware)...))
	s.RegisterRouteHandler("POST "+RouteAPIShare, ChainMiddleware(s.ShareHandler(), s.APIMiddleware(s.BrowserMiddleware)...))
	s.RegisterRouteHandler("GET "+RouteAPIDownload, ChainMiddleware(s.DownloadHandler(), s.APIMiddleware(s.BrowserMiddleware)...))
	s.RegisterRouteHandler("POST "+RouteAPIDownloads, ChainMiddleware(s.DownloadAllHandler(), s.APIMiddleware(s.BrowserMiddleware)...))
	s.RegisterRouteHandler("OPTIONS /api/", ChainMiddleware(http.NotFound, s.APIMiddleware()...))

	s.RegisterRouteHandler("GET "+RouteStatic, ChainMiddleware(s.serveFileHandler(), s.HTMLMiddleWare(s.CacheMiddleware, s.CompressionMiddleware)...))
}

func (s *Server) serveFileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filePath := strings.TrimPrefix(r.PathValue("file"), "/")
		if filePath == "" {
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
		err := StreamFile(w, r, filePath)
		if err != nil {
			logError("GET", filePath, err.Error())
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
	}
}

func logError(method, path, error string) {
	log.Error().Msgf("[%-19s] %s %s", colouredMethod(method), path, Red+error+ResetColor)
}
