package sqlite

import (
	"fmt"

	"visiondash/internal/models"
)

// TelemetryRepository implements repository.TelemetryRepository for SQLite.
type TelemetryRepository struct {
	db *DB
}

// NewTelemetryRepository creates a new SQLite telemetry repository.
func NewTelemetryRepository(db *DB) *TelemetryRepository {
	return &TelemetryRepository{db: db}
}

// Insert adds a telemetry sample to the database.
func (r *TelemetryRepository) Insert(sample *models.TelemetrySample) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO telemetry_samples (camera, frame_count, fps, processing_time, detection_count, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, sample.Camera, sample.FrameCount, sample.FPS, sample.ProcessingTime, sample.DetectionCount, sample.RecordedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert telemetry sample: %w", err)
	}

	return result.LastInsertId()
}

// GetRecent returns the most recent telemetry samples, newest first.
func (r *TelemetryRepository) GetRecent(limit int) ([]models.TelemetrySample, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Conn().Query(`
		SELECT id, camera, frame_count, fps, processing_time, detection_count, recorded_at
		FROM telemetry_samples
		ORDER BY recorded_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query telemetry samples: %w", err)
	}
	defer rows.Close()

	var samples []models.TelemetrySample
	for rows.Next() {
		var s models.TelemetrySample
		if err := rows.Scan(&s.ID, &s.Camera, &s.FrameCount, &s.FPS, &s.ProcessingTime, &s.DetectionCount, &s.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan telemetry sample: %w", err)
		}
		samples = append(samples, s)
	}
	return samples, nil
}

// DeleteOlderThanDays removes samples older than the given number of days
// and returns how many were deleted.
func (r *TelemetryRepository) DeleteOlderThanDays(days int) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		DELETE FROM telemetry_samples
		WHERE recorded_at < DATETIME('now', ?)
	`, fmt.Sprintf("-%d days", days))
	if err != nil {
		return 0, fmt.Errorf("failed to delete old telemetry samples: %w", err)
	}
	return result.RowsAffected()
}
