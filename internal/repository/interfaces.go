package repository

import (
	"visiondash/internal/models"
)

// SnapshotRepository defines the interface for snapshot data operations.
type SnapshotRepository interface {
	// Create operations
	Insert(snap *models.Snapshot) (int64, error)

	// Read operations
	GetByID(id int64) (*models.Snapshot, error)
	GetByFilename(filename string) (*models.Snapshot, error)
	GetAll(filter *models.SnapshotFilter) ([]models.Snapshot, error)
	GetTotalCount(filter *models.SnapshotFilter) (int, error)
	GetCameras() ([]string, error)
	GetStats() (*models.SnapshotStats, error)

	// Delete operations
	Delete(id int64) error
	DeleteByFilename(filename string) error
	DeleteAll() error
}

// TelemetryRepository defines the interface for telemetry sample operations.
type TelemetryRepository interface {
	Insert(sample *models.TelemetrySample) (int64, error)
	GetRecent(limit int) ([]models.TelemetrySample, error)
	DeleteOlderThanDays(days int) (int64, error)
}
