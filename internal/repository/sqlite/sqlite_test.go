package sqlite

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"visiondash/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "visiondash_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	db, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

func TestDatabase_Connection(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "visiondash_conn_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	dbPath := filepath.Join(tempDir, "test.db")
	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file should exist")
	}
}

func TestSnapshotRepository_InsertAndGet(t *testing.T) {
	db := testDB(t)
	repo := NewSnapshotRepository(db)

	snap := &models.Snapshot{
		Filename:  "2026-08-24_10-00-00.000_cam1_target1.jpg",
		Camera:    "cam1",
		TargetID:  1,
		Badge:     true,
		Timestamp: time.Now(),
		FilePath:  "/snapshots/test.jpg",
		FileSize:  1024,
	}

	id, err := repo.Insert(snap)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if id <= 0 {
		t.Errorf("Expected positive ID, got %d", id)
	}

	got, err := repo.GetByID(id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected snapshot, got nil")
	}
	if got.Filename != snap.Filename || got.Camera != "cam1" || got.TargetID != 1 || !got.Badge {
		t.Errorf("Unexpected snapshot: %+v", got)
	}

	byName, err := repo.GetByFilename(snap.Filename)
	if err != nil {
		t.Fatalf("GetByFilename failed: %v", err)
	}
	if byName == nil || byName.ID != id {
		t.Errorf("GetByFilename returned %+v, expected ID %d", byName, id)
	}
}

func TestSnapshotRepository_GetMissing(t *testing.T) {
	db := testDB(t)
	repo := NewSnapshotRepository(db)

	got, err := repo.GetByID(12345)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil for missing snapshot, got %+v", got)
	}

	byName, err := repo.GetByFilename("does_not_exist.jpg")
	if err != nil {
		t.Fatalf("GetByFilename failed: %v", err)
	}
	if byName != nil {
		t.Errorf("Expected nil for missing filename, got %+v", byName)
	}
}

func TestSnapshotRepository_FilterByCamera(t *testing.T) {
	db := testDB(t)
	repo := NewSnapshotRepository(db)

	now := time.Now()
	seed := []struct {
		camera   string
		targetID int
		badge    bool
	}{
		{"cam1", 1, false},
		{"cam1", 2, true},
		{"cam2", 1, false},
	}
	for i, s := range seed {
		_, err := repo.Insert(&models.Snapshot{
			Filename:  now.Format(models.SnapshotFilenameFormat) + "_" + s.camera + "_target" + string(rune('0'+i)) + ".jpg",
			Camera:    s.camera,
			TargetID:  s.targetID,
			Badge:     s.badge,
			Timestamp: now.Add(time.Duration(i) * time.Second),
			FilePath:  "/snapshots/x.jpg",
			FileSize:  100,
		})
		if err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	cam1, err := repo.GetAll(&models.SnapshotFilter{Camera: "cam1"})
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(cam1) != 2 {
		t.Errorf("Expected 2 cam1 snapshots, got %d", len(cam1))
	}

	badged, err := repo.GetAll(&models.SnapshotFilter{BadgeOnly: true})
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(badged) != 1 || !badged[0].Badge {
		t.Errorf("Expected 1 badged snapshot, got %+v", badged)
	}

	byTarget, err := repo.GetAll(&models.SnapshotFilter{TargetID: 1})
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(byTarget) != 2 {
		t.Errorf("Expected 2 snapshots for target 1, got %d", len(byTarget))
	}

	count, err := repo.GetTotalCount(&models.SnapshotFilter{Camera: "cam1"})
	if err != nil {
		t.Fatalf("GetTotalCount failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected count 2, got %d", count)
	}
}

func TestSnapshotRepository_LimitAndOrder(t *testing.T) {
	db := testDB(t)
	repo := NewSnapshotRepository(db)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		_, err := repo.Insert(&models.Snapshot{
			Filename:  base.Add(time.Duration(i) * time.Minute).Format(models.SnapshotFilenameFormat) + "_cam1_target1.jpg",
			Camera:    "cam1",
			TargetID:  1,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			FilePath:  "/snapshots/x.jpg",
			FileSize:  10,
		})
		if err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	got, err := repo.GetAll(&models.SnapshotFilter{Limit: 2})
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 snapshots, got %d", len(got))
	}
	if !got[0].Timestamp.After(got[1].Timestamp) {
		t.Error("Snapshots should be ordered newest first")
	}
}

func TestSnapshotRepository_GetCameras(t *testing.T) {
	db := testDB(t)
	repo := NewSnapshotRepository(db)

	for _, camera := range []string{"cam2", "cam1", "cam2"} {
		_, err := repo.Insert(&models.Snapshot{
			Filename:  time.Now().Format(models.SnapshotFilenameFormat) + "_" + camera + "_target1.jpg",
			Camera:    camera,
			TargetID:  1,
			Timestamp: time.Now(),
			FilePath:  "/snapshots/x.jpg",
		})
		if err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	cameras, err := repo.GetCameras()
	if err != nil {
		t.Fatalf("GetCameras failed: %v", err)
	}
	if len(cameras) != 2 || cameras[0] != "cam1" || cameras[1] != "cam2" {
		t.Errorf("Expected sorted distinct cameras [cam1 cam2], got %v", cameras)
	}
}

func TestSnapshotRepository_Stats(t *testing.T) {
	db := testDB(t)
	repo := NewSnapshotRepository(db)

	stats, err := repo.GetStats()
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.TotalSnapshots != 0 || stats.TotalSizeBytes != 0 {
		t.Errorf("Expected empty stats, got %+v", stats)
	}

	for i, badge := range []bool{true, false, true} {
		_, err := repo.Insert(&models.Snapshot{
			Filename:  time.Now().Add(time.Duration(i) * time.Second).Format(models.SnapshotFilenameFormat) + "_cam1_target1.jpg",
			Camera:    "cam1",
			TargetID:  1,
			Badge:     badge,
			Timestamp: time.Now(),
			FilePath:  "/snapshots/x.jpg",
			FileSize:  100,
		})
		if err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	stats, err = repo.GetStats()
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.TotalSnapshots != 3 {
		t.Errorf("Expected 3 snapshots, got %d", stats.TotalSnapshots)
	}
	if stats.TotalSizeBytes != 300 {
		t.Errorf("Expected total size 300, got %d", stats.TotalSizeBytes)
	}
	if stats.BadgeCount != 2 {
		t.Errorf("Expected 2 badged, got %d", stats.BadgeCount)
	}
	if stats.PerCamera["cam1"] != 3 {
		t.Errorf("Expected 3 for cam1, got %v", stats.PerCamera)
	}
}

func TestSnapshotRepository_Delete(t *testing.T) {
	db := testDB(t)
	repo := NewSnapshotRepository(db)

	id, err := repo.Insert(&models.Snapshot{
		Filename:  "2026-08-24_10-00-00.000_cam1_target1.jpg",
		Camera:    "cam1",
		TargetID:  1,
		Timestamp: time.Now(),
		FilePath:  "/snapshots/x.jpg",
	})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if err := repo.Delete(id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	got, err := repo.GetByID(id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got != nil {
		t.Errorf("Snapshot should be gone, got %+v", got)
	}
}

func TestTelemetryRepository_InsertAndGetRecent(t *testing.T) {
	db := testDB(t)
	repo := NewTelemetryRepository(db)

	base := time.Now().Add(-time.Minute)
	for i := 0; i < 3; i++ {
		_, err := repo.Insert(&models.TelemetrySample{
			Camera:         "cam1",
			FrameCount:     i + 1,
			FPS:            30.0,
			ProcessingTime: 0.02,
			DetectionCount: i,
			RecordedAt:     base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	samples, err := repo.GetRecent(2)
	if err != nil {
		t.Fatalf("GetRecent failed: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("Expected 2 samples, got %d", len(samples))
	}
	if samples[0].FrameCount != 3 {
		t.Errorf("Expected newest sample first, got frame_count %d", samples[0].FrameCount)
	}
}

func TestTelemetryRepository_DeleteOlderThanDays(t *testing.T) {
	db := testDB(t)
	repo := NewTelemetryRepository(db)

	old := time.Now().AddDate(0, 0, -10)
	recent := time.Now()

	for _, ts := range []time.Time{old, recent} {
		_, err := repo.Insert(&models.TelemetrySample{
			Camera:     "cam1",
			RecordedAt: ts,
		})
		if err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	deleted, err := repo.DeleteOlderThanDays(7)
	if err != nil {
		t.Fatalf("DeleteOlderThanDays failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 deleted sample, got %d", deleted)
	}

	samples, err := repo.GetRecent(10)
	if err != nil {
		t.Fatalf("GetRecent failed: %v", err)
	}
	if len(samples) != 1 {
		t.Errorf("Expected 1 remaining sample, got %d", len(samples))
	}
}
