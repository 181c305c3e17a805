package handlers

import (
	"encoding/json"
	"net/http"

	"visiondash/internal/dto"
	"visiondash/internal/logger"
	"visiondash/internal/models"
	"visiondash/internal/services/control"
)

// ResetCountersHandler relays a reset request to the upstream tracker.
func ResetCountersHandler(ctrl *control.Controller, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if err := ctrl.ResetCounters(r.Context()); err != nil {
			logger.Error("Reset counters failed: %v", err)
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// SetModeHandler sets the aggressive mode to an explicit value.
func SetModeHandler(ctrl *control.Controller, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req dto.ModeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		mode := models.AggressiveMode(req.Mode)
		if !mode.IsValid() {
			http.Error(w, "Unknown mode: "+req.Mode, http.StatusBadRequest)
			return
		}

		if err := ctrl.SetAggressiveMode(r.Context(), mode); err != nil {
			logger.Error("Set aggressive mode failed: %v", err)
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}

		writeJSON(w, dto.ModeResponse{Mode: ctrl.Mode().String()})
	}
}

// ToggleModeHandler advances the aggressive mode to the next value in the cycle.
func ToggleModeHandler(ctrl *control.Controller, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if err := ctrl.ToggleAggressiveMode(r.Context()); err != nil {
			logger.Error("Toggle aggressive mode failed: %v", err)
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}

		writeJSON(w, dto.ModeResponse{Mode: ctrl.Mode().String()})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
