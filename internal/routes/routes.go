package routes

import (
	"net/http"
	"os"
	"path/filepath"

	"visiondash/internal/config"
	"visiondash/internal/handlers"
	"visiondash/internal/logger"
	"visiondash/internal/middleware"
	"visiondash/internal/repository"
	"visiondash/internal/services/control"
	"visiondash/internal/services/feed"
	"visiondash/internal/services/telemetry"
	hubws "visiondash/internal/services/websocket"
)

// Deps bundles everything the HTTP layer needs.
type Deps struct {
	Config     *config.Config
	Logger     *logger.Logger
	Hub        *hubws.HubService
	Video      *feed.Consumer
	Metadata   *telemetry.Consumer
	Controller *control.Controller
	Snapshots  repository.SnapshotRepository
	Telemetry  repository.TelemetryRepository
}

// dynamicHTMLHandler serves /path as /static/path.html if the file exists; otherwise 404.
func dynamicHTMLHandler(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	if path == "/" {
		path = "/index"
	}

	filePath := filepath.Join("static", path+".html")

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		http.NotFound(w, r)
		return
	}

	http.ServeFile(w, r, filePath)
}

// SetupRoutes registers HTTP routes, static file serving, API endpoints,
// and wraps the mux with the authentication middleware.
func SetupRoutes(d *Deps) http.Handler {
	mux := http.NewServeMux()

	// Static files
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))

	// Live view
	mux.HandleFunc("/api/view", handlers.ViewWebsocketHandler(d.Hub, d.Logger))
	mux.HandleFunc("/api/status", handlers.GetStatusHandler(d.Video, d.Metadata, d.Controller, d.Hub))
	mux.HandleFunc("/api/video/toggle", handlers.VideoToggleHandler(d.Video, d.Logger))
	mux.HandleFunc("/api/metadata/toggle", handlers.MetadataToggleHandler(d.Metadata, d.Logger))

	// Upstream control
	mux.HandleFunc("/api/control/reset", handlers.ResetCountersHandler(d.Controller, d.Logger))
	mux.HandleFunc("/api/control/mode", handlers.SetModeHandler(d.Controller, d.Logger))
	mux.HandleFunc("/api/control/mode/toggle", handlers.ToggleModeHandler(d.Controller, d.Logger))

	// Snapshot gallery
	mux.HandleFunc("/api/snapshots", handlers.GetSnapshotsHandler(d.Snapshots, d.Logger))
	mux.HandleFunc("/api/snapshots/view", handlers.ViewSnapshotHandler(d.Snapshots, d.Logger))
	mux.HandleFunc("/api/snapshots/delete", handlers.DeleteSnapshotHandler(d.Snapshots, d.Logger))
	mux.HandleFunc("/api/snapshots/clear", handlers.ClearSnapshotsHandler(d.Snapshots, d.Logger))
	mux.HandleFunc("/api/snapshots/filters", handlers.GetFiltersHandler(d.Snapshots, d.Logger))
	mux.HandleFunc("/api/snapshots/stats", handlers.GetStatsHandler(d.Snapshots, d.Logger))
	mux.HandleFunc("/api/telemetry/history", handlers.GetTelemetryHistoryHandler(d.Telemetry, d.Logger))

	// Log endpoints
	mux.HandleFunc("/logs/info", handlers.ShowInfoLogsHandler(d.Config))
	mux.HandleFunc("/logs/warning", handlers.ShowWarningLogsHandler(d.Config))
	mux.HandleFunc("/logs/error", handlers.ShowErrorLogsHandler(d.Config))

	mux.HandleFunc("/logs/info/clear", handlers.ClearInfoLogsHandler(d.Logger))
	mux.HandleFunc("/logs/warning/clear", handlers.ClearWarningLogsHandler(d.Logger))
	mux.HandleFunc("/logs/error/clear", handlers.ClearErrorLogsHandler(d.Logger))

	// Auth endpoints
	mux.HandleFunc("/auth/login", handlers.LoginHandler(d.Config, d.Logger))
	mux.HandleFunc("/auth/logout", handlers.LogoutHandler)

	// Automatic HTML handler mapping for example: /settings -> /static/settings.html
	mux.HandleFunc("/", dynamicHTMLHandler)

	// Apply middleware
	return middleware.AuthMiddleware(mux)
}
