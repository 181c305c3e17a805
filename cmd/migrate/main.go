package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"visiondash/internal/models"
	"visiondash/internal/repository/sqlite"
)

// Backfills snapshot files already on disk into the snapshot database.
func main() {
	snapshotDir := flag.String("snapshots", "static/snapshots", "Directory containing snapshot files")
	dbPath := flag.String("db", "data/visiondash.db", "Database path")
	flag.Parse()

	fmt.Printf("Migrating snapshots from %s to database %s\n", *snapshotDir, *dbPath)

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	repo := sqlite.NewSnapshotRepository(db)

	files, err := os.ReadDir(*snapshotDir)
	if err != nil {
		log.Fatalf("Failed to read snapshot directory: %v", err)
	}

	migrated := 0
	skipped := 0
	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".jpg" {
			continue
		}

		timestamp, camera, targetID, err := models.ParseSnapshotFilename(file.Name())
		if err != nil {
			log.Printf("Skipping %s: %v", file.Name(), err)
			skipped++
			continue
		}

		if existing, err := repo.GetByFilename(file.Name()); err == nil && existing != nil {
			skipped++
			continue
		}

		info, err := file.Info()
		if err != nil {
			log.Printf("Failed to get info for %s: %v", file.Name(), err)
			skipped++
			continue
		}

		_, err = repo.Insert(&models.Snapshot{
			Filename:  file.Name(),
			Camera:    camera,
			TargetID:  targetID,
			// Badge state is not encoded in the filename.
			Badge:     false,
			Timestamp: timestamp,
			FilePath:  filepath.Join(*snapshotDir, file.Name()),
			FileSize:  info.Size(),
		})
		if err != nil {
			log.Printf("Failed to insert %s: %v", file.Name(), err)
			skipped++
			continue
		}
		migrated++
	}

	fmt.Printf("Migrated %d snapshots\n", migrated)
	if skipped > 0 {
		fmt.Printf("Skipped %d files\n", skipped)
	}

	stats, err := repo.GetStats()
	if err == nil {
		fmt.Printf("\nDatabase statistics:\n")
		fmt.Printf("   Total snapshots: %d\n", stats.TotalSnapshots)
		fmt.Printf("   Total size: %d bytes\n", stats.TotalSizeBytes)
		for camera, count := range stats.PerCamera {
			fmt.Printf("   %s: %d snapshots\n", camera, count)
		}
	}
}
