package sqlite

import (
	"database/sql"
	"fmt"

	"visiondash/internal/models"
)

// SnapshotRepository implements repository.SnapshotRepository for SQLite.
type SnapshotRepository struct {
	db *DB
}

// NewSnapshotRepository creates a new SQLite snapshot repository.
func NewSnapshotRepository(db *DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Insert adds a new snapshot record to the database.
func (r *SnapshotRepository) Insert(snap *models.Snapshot) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO snapshots (filename, camera, target_id, badge, timestamp, filepath, filesize)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, snap.Filename, snap.Camera, snap.TargetID, snap.Badge, snap.Timestamp, snap.FilePath, snap.FileSize)
	if err != nil {
		return 0, fmt.Errorf("failed to insert snapshot: %w", err)
	}

	return result.LastInsertId()
}

// GetByID retrieves a snapshot by its ID.
func (r *SnapshotRepository) GetByID(id int64) (*models.Snapshot, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var snap models.Snapshot
	err := r.db.Conn().QueryRow(`
		SELECT id, filename, camera, target_id, badge, timestamp, filepath, filesize
		FROM snapshots WHERE id = ?
	`, id).Scan(&snap.ID, &snap.Filename, &snap.Camera, &snap.TargetID, &snap.Badge, &snap.Timestamp, &snap.FilePath, &snap.FileSize)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return &snap, nil
}

// GetByFilename retrieves a snapshot by its filename.
func (r *SnapshotRepository) GetByFilename(filename string) (*models.Snapshot, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var snap models.Snapshot
	err := r.db.Conn().QueryRow(`
		SELECT id, filename, camera, target_id, badge, timestamp, filepath, filesize
		FROM snapshots WHERE filename = ?
	`, filename).Scan(&snap.ID, &snap.Filename, &snap.Camera, &snap.TargetID, &snap.Badge, &snap.Timestamp, &snap.FilePath, &snap.FileSize)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return &snap, nil
}

// buildFilterQuery appends WHERE clauses for the filter to the query.
func buildFilterQuery(query string, filter *models.SnapshotFilter) (string, []interface{}) {
	args := []interface{}{}

	if filter.Camera != "" {
		query += " AND camera = ?"
		args = append(args, filter.Camera)
	}

	if filter.TargetID > 0 {
		query += " AND target_id = ?"
		args = append(args, filter.TargetID)
	}

	if filter.BadgeOnly {
		query += " AND badge = 1"
	}

	if !filter.StartDate.IsZero() {
		query += " AND DATE(timestamp) >= DATE(?)"
		args = append(args, filter.StartDate)
	}

	if !filter.EndDate.IsZero() {
		query += " AND DATE(timestamp) <= DATE(?)"
		args = append(args, filter.EndDate)
	}

	if filter.TimeAfter != "" {
		query += " AND TIME(timestamp) >= TIME(?)"
		args = append(args, filter.TimeAfter)
	}

	if filter.TimeBefore != "" {
		query += " AND TIME(timestamp) <= TIME(?)"
		args = append(args, filter.TimeBefore)
	}

	return query, args
}

// GetAll retrieves snapshots based on filter criteria.
func (r *SnapshotRepository) GetAll(filter *models.SnapshotFilter) ([]models.Snapshot, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	query := `
		SELECT id, filename, camera, target_id, badge, timestamp, filepath, filesize
		FROM snapshots
		WHERE 1=1
	`
	query, args := buildFilterQuery(query, filter)
	query += " ORDER BY timestamp DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []models.Snapshot
	for rows.Next() {
		var snap models.Snapshot
		if err := rows.Scan(&snap.ID, &snap.Filename, &snap.Camera, &snap.TargetID, &snap.Badge, &snap.Timestamp, &snap.FilePath, &snap.FileSize); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, snap)
	}

	return snapshots, nil
}

// GetTotalCount returns the total count of snapshots matching the filter.
func (r *SnapshotRepository) GetTotalCount(filter *models.SnapshotFilter) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	query := "SELECT COUNT(*) FROM snapshots WHERE 1=1"
	query, args := buildFilterQuery(query, filter)

	var count int
	if err := r.db.Conn().QueryRow(query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return count, nil
}

// GetCameras returns the distinct camera names present in the database.
func (r *SnapshotRepository) GetCameras() ([]string, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query("SELECT DISTINCT camera FROM snapshots ORDER BY camera")
	if err != nil {
		return nil, fmt.Errorf("failed to query cameras: %w", err)
	}
	defer rows.Close()

	var cameras []string
	for rows.Next() {
		var camera string
		if err := rows.Scan(&camera); err != nil {
			return nil, fmt.Errorf("failed to scan camera: %w", err)
		}
		cameras = append(cameras, camera)
	}
	return cameras, nil
}

// GetStats returns aggregate statistics about stored snapshots.
func (r *SnapshotRepository) GetStats() (*models.SnapshotStats, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	stats := &models.SnapshotStats{
		PerCamera: make(map[string]int),
	}

	err := r.db.Conn().QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(filesize), 0), COALESCE(SUM(badge), 0)
		FROM snapshots
	`).Scan(&stats.TotalSnapshots, &stats.TotalSizeBytes, &stats.BadgeCount)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot stats: %w", err)
	}

	rows, err := r.db.Conn().Query("SELECT camera, COUNT(*) FROM snapshots GROUP BY camera")
	if err != nil {
		return nil, fmt.Errorf("failed to get per-camera stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var camera string
		var count int
		if err := rows.Scan(&camera, &count); err != nil {
			return nil, fmt.Errorf("failed to scan per-camera stats: %w", err)
		}
		stats.PerCamera[camera] = count
	}

	return stats, nil
}

// Delete removes a snapshot record by ID.
func (r *SnapshotRepository) Delete(id int64) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec("DELETE FROM snapshots WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// DeleteByFilename removes a snapshot record by filename.
func (r *SnapshotRepository) DeleteByFilename(filename string) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec("DELETE FROM snapshots WHERE filename = ?", filename); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// DeleteAll removes all snapshot records.
func (r *SnapshotRepository) DeleteAll() error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec("DELETE FROM snapshots"); err != nil {
		return fmt.Errorf("failed to delete snapshots: %w", err)
	}
	return nil
}
