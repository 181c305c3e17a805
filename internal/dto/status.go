package dto

// Status reports the gateway's live connection state to the dashboard.
type Status struct {
	VideoRunning     bool   `json:"video_running"`
	VideoUnavailable bool   `json:"video_unavailable"`
	HasFrame         bool   `json:"has_frame"`
	MetadataRunning  bool   `json:"metadata_running"`
	AggressiveMode   string `json:"aggressive_mode"`
	Viewers          int    `json:"viewers"`
}

// ModeRequest is the body of a set-mode request.
type ModeRequest struct {
	Mode string `json:"mode"`
}

// ModeResponse echoes the mode held after a control request.
type ModeResponse struct {
	Mode string `json:"mode"`
}
