package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	RouteIndex  = "/"
	RouteLogin  = "/login"
	RouteLogout = "/logout"
	RouteHealth = "/healthz"

	// API Routes (called by the app shell, proxied to the activity API)
	RouteAPIGenerate  = "/api/generate"
	RouteAPIHistory   = "/api/history"
	RouteAPIFeedback  = "/api/feedback"
	RouteAPIShare     = "/api/share"
	RouteAPIDownload  = "/api/download"
	RouteAPIDownloads = "/api/downloads"

	// Static Asset Routes (patterns)
	RouteStatic = "/static/{file}"
)
