package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Snapshot represents one stored target snapshot record.
type Snapshot struct {
	ID        int64     `json:"id"`
	Filename  string    `json:"filename"`
	Camera    string    `json:"camera"`
	TargetID  int       `json:"target_id"`
	Badge     bool      `json:"badge"`
	Timestamp time.Time `json:"timestamp"`
	FilePath  string    `json:"filepath"`
	FileSize  int64     `json:"filesize"`
}

// SnapshotFilter contains filtering options for querying snapshots.
type SnapshotFilter struct {
	Camera     string
	TargetID   int
	BadgeOnly  bool
	StartDate  time.Time
	EndDate    time.Time
	TimeAfter  string
	TimeBefore string
	Limit      int
	Offset     int
}

// SnapshotFilenameFormat is the timestamp layout used in snapshot filenames.
const SnapshotFilenameFormat = "2006-01-02_15-04-05.000"

// ParseSnapshotFilename extracts timestamp, camera and target ID from a
// snapshot filename of the form
// "2006-01-02_15-04-05.000_<camera>_target<id>.jpg".
func ParseSnapshotFilename(filename string) (time.Time, string, int, error) {
	name := strings.TrimSuffix(filename, ".jpg")
	parts := strings.Split(name, "_")
	if len(parts) < 4 {
		return time.Time{}, "", 0, fmt.Errorf("unexpected filename format: %s", filename)
	}

	timestamp, err := time.Parse(SnapshotFilenameFormat, parts[0]+"_"+parts[1])
	if err != nil {
		return time.Time{}, "", 0, fmt.Errorf("invalid timestamp in %s: %w", filename, err)
	}

	last := parts[len(parts)-1]
	if !strings.HasPrefix(last, "target") {
		return time.Time{}, "", 0, fmt.Errorf("missing target suffix in %s", filename)
	}
	targetID, err := strconv.Atoi(strings.TrimPrefix(last, "target"))
	if err != nil {
		return time.Time{}, "", 0, fmt.Errorf("invalid target id in %s: %w", filename, err)
	}

	camera := strings.Join(parts[2:len(parts)-1], "_")
	if camera == "" {
		return time.Time{}, "", 0, fmt.Errorf("missing camera in %s", filename)
	}

	return timestamp, camera, targetID, nil
}

// SnapshotStats contains statistics about stored snapshots.
type SnapshotStats struct {
	TotalSnapshots int            `json:"total_snapshots"`
	TotalSizeBytes int64          `json:"total_size_bytes"`
	PerCamera      map[string]int `json:"per_camera"`
	BadgeCount     int            `json:"badge_count"`
}
