package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"visiondash/internal/logger"
	"visiondash/internal/models"
	"visiondash/internal/repository"
)

// Snapshot is one buffered target frame awaiting flush.
type Snapshot struct {
	Timestamp time.Time
	Camera    string
	TargetID  int
	Badge     bool
	Data      []byte
}

// BufferService collects annotated target frames in memory and periodically
// flushes them to the snapshot directory and the snapshot repository.
type BufferService struct {
	snapshotDir string
	snapshots   []Snapshot
	bufferLimit int
	repo        repository.SnapshotRepository
	logger      *logger.Logger
	mu          sync.Mutex
}

func NewBufferService(snapshotDir string, bufferLimit int, repo repository.SnapshotRepository, logger *logger.Logger) *BufferService {
	return &BufferService{
		snapshotDir: snapshotDir,
		bufferLimit: bufferLimit,
		repo:        repo,
		logger:      logger,
		snapshots:   make([]Snapshot, 0),
	}
}

// Run flushes the buffer on the given interval until the stop channel closes.
func (s *BufferService) Run(flushInterval int, stop <-chan struct{}) {
	ticker := time.NewTicker(time.Duration(flushInterval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.FlushSnapshots()
		case <-stop:
			s.FlushSnapshots()
			return
		}
	}
}

// Add buffers one snapshot. Frames beyond the buffer limit are dropped
// until the next flush.
func (s *BufferService) Add(data []byte, camera string, targetID int, badge bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.snapshots) >= s.bufferLimit {
		s.logger.Warning("Snapshot buffer full (%d/%d) - dropping frame", len(s.snapshots), s.bufferLimit)
		return
	}

	s.snapshots = append(s.snapshots, Snapshot{
		Timestamp: time.Now(),
		Camera:    camera,
		TargetID:  targetID,
		Badge:     badge,
		Data:      data,
	})
	s.logger.Info("Buffer size: %d/%d", len(s.snapshots), s.bufferLimit)
}

// FlushSnapshots writes buffered snapshots to disk and records them in the
// repository, then clears the buffer.
func (s *BufferService) FlushSnapshots() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.snapshots) == 0 {
		return
	}

	if err := os.MkdirAll(s.snapshotDir, 0755); err != nil {
		s.logger.Error("Error creating snapshot directory: %v", err)
		return
	}

	flushed := 0
	for _, snap := range s.snapshots {
		filename := fmt.Sprintf("%s_%s_target%d.jpg",
			snap.Timestamp.Format(models.SnapshotFilenameFormat), snap.Camera, snap.TargetID)
		fullpath := filepath.Join(s.snapshotDir, filename)

		if err := os.WriteFile(fullpath, snap.Data, 0644); err != nil {
			s.logger.Error("Error saving snapshot %s: %v", filename, err)
			continue
		}

		if s.repo != nil {
			_, err := s.repo.Insert(&models.Snapshot{
				Filename:  filename,
				Camera:    snap.Camera,
				TargetID:  snap.TargetID,
				Badge:     snap.Badge,
				Timestamp: snap.Timestamp,
				FilePath:  fullpath,
				FileSize:  int64(len(snap.Data)),
			})
			if err != nil {
				s.logger.Error("Error recording snapshot %s: %v", filename, err)
			}
		}
		flushed++
	}

	s.logger.Info("Flushed %d snapshots to disk", flushed)
	s.snapshots = s.snapshots[:0]
}

// Pending returns the number of buffered snapshots.
func (s *BufferService) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snapshots)
}
