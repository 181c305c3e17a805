package handlers

import (
	"net/http"

	"visiondash/internal/dto"
	"visiondash/internal/logger"
	"visiondash/internal/services/control"
	"visiondash/internal/services/feed"
	"visiondash/internal/services/telemetry"
	hubws "visiondash/internal/services/websocket"
)

// VideoToggleHandler starts or stops the frame stream subscription.
func VideoToggleHandler(consumer *feed.Consumer, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		consumer.Toggle()
		logger.Info("Video stream toggled, running=%v", consumer.Running())
		writeJSON(w, map[string]bool{"running": consumer.Running()})
	}
}

// MetadataToggleHandler starts or stops the metadata stream subscription.
func MetadataToggleHandler(consumer *telemetry.Consumer, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		consumer.Toggle()
		logger.Info("Metadata stream toggled, running=%v", consumer.Running())
		writeJSON(w, map[string]bool{"running": consumer.Running()})
	}
}

// GetStatusHandler reports the gateway's live connection state.
func GetStatusHandler(video *feed.Consumer, metadata *telemetry.Consumer, ctrl *control.Controller, hub *hubws.HubService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, dto.Status{
			VideoRunning:     video.Running(),
			VideoUnavailable: video.Unavailable(),
			HasFrame:         video.HasFrame(),
			MetadataRunning:  metadata.Running(),
			AggressiveMode:   ctrl.Mode().String(),
			Viewers:          hub.GetClientCount(),
		})
	}
}
