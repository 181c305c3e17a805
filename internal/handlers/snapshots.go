package handlers

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"visiondash/internal/dto"
	"visiondash/internal/logger"
	"visiondash/internal/models"
	"visiondash/internal/repository"

	"github.com/samber/lo"
)

// atoiDefault parses a positive integer query parameter, falling back to
// def on empty or invalid input.
func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// parseSnapshotFilter builds a filter from query parameters.
func parseSnapshotFilter(r *http.Request) *models.SnapshotFilter {
	q := r.URL.Query()

	filter := &models.SnapshotFilter{
		Camera:     q.Get("camera"),
		TargetID:   atoiDefault(q.Get("target"), 0),
		BadgeOnly:  q.Get("badge") == "true",
		TimeAfter:  q.Get("time_after"),
		TimeBefore: q.Get("time_before"),
		Limit:      atoiDefault(q.Get("limit"), 50),
		Offset:     atoiDefault(q.Get("offset"), 0),
	}

	if v := q.Get("date_after"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			filter.StartDate = t
		}
	}
	if v := q.Get("date_before"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			filter.EndDate = t
		}
	}

	return filter
}

// GetSnapshotsHandler lists stored snapshots matching the query filters.
func GetSnapshotsHandler(repo repository.SnapshotRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := parseSnapshotFilter(r)

		snapshots, err := repo.GetAll(filter)
		if err != nil {
			logger.Error("Failed to list snapshots: %v", err)
			http.Error(w, "Failed to list snapshots", http.StatusInternalServerError)
			return
		}

		total, err := repo.GetTotalCount(filter)
		if err != nil {
			logger.Error("Failed to count snapshots: %v", err)
			http.Error(w, "Failed to count snapshots", http.StatusInternalServerError)
			return
		}

		infos := lo.Map(snapshots, func(s models.Snapshot, _ int) dto.SnapshotInfo {
			return dto.SnapshotInfo{
				Name:      s.Filename,
				Date:      s.Timestamp,
				TimeOfDay: s.Timestamp,
				Camera:    s.Camera,
				TargetID:  s.TargetID,
				Badge:     s.Badge,
			}
		})

		writeJSON(w, dto.SnapshotListResponse{Snapshots: infos, Total: total})
	}
}

// ViewSnapshotHandler serves a stored snapshot image by filename.
func ViewSnapshotHandler(repo repository.SnapshotRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("name")
		if name == "" {
			http.Error(w, "Missing name parameter", http.StatusBadRequest)
			return
		}

		snap, err := repo.GetByFilename(name)
		if err != nil {
			logger.Error("Failed to look up snapshot %s: %v", name, err)
			http.Error(w, "Failed to look up snapshot", http.StatusInternalServerError)
			return
		}
		if snap == nil {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "image/jpeg")
		http.ServeFile(w, r, snap.FilePath)
	}
}

// DeleteSnapshotHandler removes one snapshot file and its record.
func DeleteSnapshotHandler(repo repository.SnapshotRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodDelete {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		name := r.URL.Query().Get("name")
		if name == "" {
			http.Error(w, "Missing name parameter", http.StatusBadRequest)
			return
		}

		snap, err := repo.GetByFilename(name)
		if err != nil {
			logger.Error("Failed to look up snapshot %s: %v", name, err)
			http.Error(w, "Failed to look up snapshot", http.StatusInternalServerError)
			return
		}
		if snap == nil {
			http.NotFound(w, r)
			return
		}

		if err := os.Remove(snap.FilePath); err != nil && !os.IsNotExist(err) {
			logger.Error("Failed to remove snapshot file %s: %v", snap.FilePath, err)
		}

		if err := repo.DeleteByFilename(name); err != nil {
			logger.Error("Failed to delete snapshot record %s: %v", name, err)
			http.Error(w, "Failed to delete snapshot", http.StatusInternalServerError)
			return
		}

		logger.Info("Deleted snapshot %s", name)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ClearSnapshotsHandler removes all snapshot files and records.
func ClearSnapshotsHandler(repo repository.SnapshotRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodDelete {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		snapshots, err := repo.GetAll(&models.SnapshotFilter{})
		if err != nil {
			logger.Error("Failed to list snapshots for clearing: %v", err)
			http.Error(w, "Failed to clear snapshots", http.StatusInternalServerError)
			return
		}

		for _, snap := range snapshots {
			if err := os.Remove(snap.FilePath); err != nil && !os.IsNotExist(err) {
				logger.Error("Failed to remove snapshot file %s: %v", snap.FilePath, err)
			}
		}

		if err := repo.DeleteAll(); err != nil {
			logger.Error("Failed to clear snapshot records: %v", err)
			http.Error(w, "Failed to clear snapshots", http.StatusInternalServerError)
			return
		}

		logger.Info("Cleared %d snapshots", len(snapshots))
		w.WriteHeader(http.StatusNoContent)
	}
}

// GetFiltersHandler returns the distinct filter values present in the database.
func GetFiltersHandler(repo repository.SnapshotRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cameras, err := repo.GetCameras()
		if err != nil {
			logger.Error("Failed to list cameras: %v", err)
			http.Error(w, "Failed to list filters", http.StatusInternalServerError)
			return
		}

		writeJSON(w, map[string][]string{"cameras": cameras})
	}
}

// GetStatsHandler returns aggregate snapshot statistics.
func GetStatsHandler(repo repository.SnapshotRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := repo.GetStats()
		if err != nil {
			logger.Error("Failed to get snapshot stats: %v", err)
			http.Error(w, "Failed to get stats", http.StatusInternalServerError)
			return
		}

		writeJSON(w, stats)
	}
}

// GetTelemetryHistoryHandler returns recently persisted telemetry samples.
func GetTelemetryHistoryHandler(repo repository.TelemetryRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := atoiDefault(r.URL.Query().Get("limit"), 100)

		samples, err := repo.GetRecent(limit)
		if err != nil {
			logger.Error("Failed to get telemetry history: %v", err)
			http.Error(w, "Failed to get telemetry history", http.StatusInternalServerError)
			return
		}

		writeJSON(w, samples)
	}
}
