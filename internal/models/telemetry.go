package models

import "time"

// TelemetrySample is a persisted point-in-time copy of a Metadata snapshot.
type TelemetrySample struct {
	ID             int64     `json:"id"`
	Camera         string    `json:"camera"`
	FrameCount     int       `json:"frame_count"`
	FPS            float64   `json:"fps"`
	ProcessingTime float64   `json:"processing_time"`
	DetectionCount int       `json:"detection_count"`
	RecordedAt     time.Time `json:"recorded_at"`
}
