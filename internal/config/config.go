package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     int
	Password string

	UpstreamURL        string // Base address of the remote vision system
	FrameStreamPath    string // SSE endpoint carrying base64 JPEG frames
	MetadataStreamPath string // SSE endpoint carrying telemetry snapshots
	StaleTimeoutMs     int    // No frame within this window -> video unavailable
	RetryDelayMs       int    // Reconnect pause after a transport error

	SnapshotDirectory string
	SnapshotEveryNth  int // Save every Nth target frame
	SnapshotLimit     int // Max snapshots buffered before flush
	FlushInterval     int // Snapshot flush interval in seconds

	TelemetrySampleSecs int // Persist one telemetry sample per interval

	DBPath       string
	LogDirectory string
}

func Load() *Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	return &Config{
		Port:     getEnvAsInt("PORT", 8080),
		Password: getEnv("PASSWORD", "visiondash"),

		UpstreamURL:        getEnv("UPSTREAM_URL", "http://localhost:5000"),
		FrameStreamPath:    getEnv("FRAME_STREAM_PATH", "/video_feed"),
		MetadataStreamPath: getEnv("METADATA_STREAM_PATH", "/metadata_feed"),
		StaleTimeoutMs:     getEnvAsInt("STALE_TIMEOUT_MS", 5000),
		RetryDelayMs:       getEnvAsInt("RETRY_DELAY_MS", 3000),

		SnapshotDirectory: getEnv("SNAPSHOT_DIR", filepath.Join(".", "snapshots")),
		SnapshotEveryNth:  getEnvAsInt("SNAPSHOT_EVERY", 3),
		SnapshotLimit:     getEnvAsInt("BUFFER_LIMIT", 7),
		FlushInterval:     getEnvAsInt("FLUSH_INTERVAL", 30),

		TelemetrySampleSecs: getEnvAsInt("TELEMETRY_SAMPLE_INTERVAL", 10),

		DBPath:       getEnv("DB_PATH", filepath.Join(".", "data", "visiondash.db")),
		LogDirectory: getEnv("LOG_DIR", filepath.Join(".", "logs")),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
