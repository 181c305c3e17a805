package models

// Target is the single tracked object reported by the upstream tracker, if any.
type Target struct {
	ID    int       `json:"id"`
	BBox  []float64 `json:"bbox"`
	Badge bool      `json:"badge"`
}

// MetadataExtra carries the nested per-frame telemetry block.
type MetadataExtra struct {
	EvalTimes map[string]float64 `json:"eval_times"`
	CameraID  string             `json:"camera_id"`
	RawBoxes  [][]float64        `json:"raw_boxes"`
	Target    *Target            `json:"target,omitempty"`
}

// Metadata is one telemetry snapshot from the upstream vision system.
// Each stream message replaces the previous snapshot wholesale; no history
// is retained outside the telemetry repository.
type Metadata struct {
	FrameCount       int            `json:"frame_count"`
	FPS              float64        `json:"fps"`
	Timestamp        float64        `json:"timestamp"`
	ProcessingTime   float64        `json:"processing_time"`
	DetectionCount   int            `json:"detection_count"`
	ClassCounts      map[string]int `json:"class_counts"`
	Extra            MetadataExtra  `json:"extra"`
	ConfigStates     int            `json:"config_states"`
	ConfigAggressive AggressiveMode `json:"config_aggressive"`
}

// FrameMessage is the envelope carried by the frame stream.
type FrameMessage struct {
	Frame string `json:"frame"`
}
