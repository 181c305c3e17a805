// Package telemetry consumes the upstream metadata stream. Each message
// replaces the held snapshot wholesale; the last good snapshot is kept
// until the consumer is stopped.
package telemetry

import (
	"encoding/json"
	"sync"
	"time"

	"visiondash/internal/logger"
	"visiondash/internal/models"
	hubws "visiondash/internal/services/websocket"
	"visiondash/internal/stream"
)

// Publisher pushes envelopes to connected dashboard viewers.
type Publisher interface {
	Publish(msgType string, data any)
}

// SampleSink persists telemetry samples.
type SampleSink interface {
	Insert(sample *models.TelemetrySample) (int64, error)
}

// Config contains configuration for the metadata consumer.
type Config struct {
	// URL is the metadata event-stream endpoint.
	URL string
	// RetryDelay is the reconnect pause after transport errors.
	RetryDelay time.Duration
	// SampleInterval limits how often a snapshot is persisted. Zero
	// disables persistence even when Samples is set.
	SampleInterval time.Duration

	Publisher Publisher
	Samples   SampleSink
	Logger    *logger.Logger
}

// Consumer subscribes to the metadata stream. No staleness timer: the last
// successfully parsed snapshot is shown indefinitely until stopped.
type Consumer struct {
	stream    *stream.Client
	publisher Publisher
	samples   SampleSink
	interval  time.Duration
	logger    *logger.Logger

	// OnData receives each new snapshot.
	OnData func(models.Metadata)
	// OnError receives human-readable parse/transport error messages.
	OnError func(msg string)
	// OnConnected fires when the subscription is confirmed.
	OnConnected func()
	// OnStatusChange fires with the running flag on start/stop.
	OnStatusChange func(running bool)

	mu         sync.Mutex
	latest     models.Metadata
	hasData    bool
	lastSample time.Time
}

func NewConsumer(cfg Config) (*Consumer, error) {
	c := &Consumer{
		publisher: cfg.Publisher,
		samples:   cfg.Samples,
		interval:  cfg.SampleInterval,
		logger:    cfg.Logger,
	}

	client, err := stream.NewClient(stream.Config{
		URL:        cfg.URL,
		RetryDelay: cfg.RetryDelay,
	})
	if err != nil {
		return nil, err
	}

	client.OnMessage = c.handleMessage
	client.OnOpen = func() {
		if c.OnConnected != nil {
			c.OnConnected()
		}
	}
	client.OnError = func(err error) {
		c.emitError(err.Error())
	}
	client.OnStatusChange = func(running bool) {
		if c.OnStatusChange != nil {
			c.OnStatusChange(running)
		}
	}

	c.stream = client
	return c, nil
}

func (c *Consumer) Start() { c.stream.Start() }

func (c *Consumer) Stop() { c.stream.Stop() }

func (c *Consumer) Toggle() { c.stream.Toggle() }

func (c *Consumer) Running() bool { return c.stream.Running() }

// Current returns the held snapshot and whether one has been received.
func (c *Consumer) Current() (models.Metadata, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest, c.hasData
}

func (c *Consumer) handleMessage(data []byte) {
	var meta models.Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		// Previous snapshot stays in place.
		c.emitError("Failed to parse metadata")
		return
	}

	c.mu.Lock()
	c.latest = meta
	c.hasData = true
	c.mu.Unlock()

	if c.OnData != nil {
		c.OnData(meta)
	}
	if c.publisher != nil {
		c.publisher.Publish(hubws.TypeTelemetry, meta)
	}

	c.maybePersist(meta)
}

// maybePersist stores at most one sample per interval.
func (c *Consumer) maybePersist(meta models.Metadata) {
	if c.samples == nil || c.interval <= 0 {
		return
	}

	c.mu.Lock()
	now := time.Now()
	if now.Sub(c.lastSample) < c.interval {
		c.mu.Unlock()
		return
	}
	c.lastSample = now
	c.mu.Unlock()

	sample := &models.TelemetrySample{
		Camera:         meta.Extra.CameraID,
		FrameCount:     meta.FrameCount,
		FPS:            meta.FPS,
		ProcessingTime: meta.ProcessingTime,
		DetectionCount: meta.DetectionCount,
		RecordedAt:     now,
	}
	if _, err := c.samples.Insert(sample); err != nil && c.logger != nil {
		c.logger.Error("Failed to persist telemetry sample: %v", err)
	}
}

func (c *Consumer) emitError(msg string) {
	if c.OnError != nil {
		c.OnError(msg)
	}
}
