// Package feed consumes the upstream frame stream: base64 JPEG frames
// wrapped in JSON envelopes, with staleness detection on the connection.
package feed

import (
	"encoding/base64"
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

// MetadataSource exposes the latest telemetry snapshot for annotation.
type MetadataSource interface {
	Current() (models.Metadata, bool)
}

// Annotator draws detection overlays onto a JPEG frame.
type Annotator interface {
	Annotate(frame []byte, meta models.Metadata) ([]byte, error)
}

// SnapshotSink buffers annotated target frames for persistence.
type SnapshotSink interface {
	Add(data []byte, camera string, targetID int, badge bool)
}

// Config contains configuration for the frame consumer.
type Config struct {
	// URL is the frame event-stream endpoint.
	URL string
	// StaleTimeout marks the video unavailable when no frame arrives
	// within this window.
	StaleTimeout time.Duration
	// RetryDelay is the reconnect pause after transport errors.
	RetryDelay time.Duration
	// SnapshotEveryNth saves every Nth frame that carries a tracked
	// target. Zero disables snapshots.
	SnapshotEveryNth int

	Publisher Publisher
	Metadata  MetadataSource
	Annotator Annotator
	Snapshots SnapshotSink
	Logger    *logger.Logger
}

type snapshotTask struct {
	frame []byte
	meta  models.Metadata
}

// Consumer subscribes to the frame stream and maintains the "last displayed
// frame" state of the dashboard. At most one connection is open at a time;
// a staleness timeout marks the video unavailable when the stream goes
// silent without a transport error.
type Consumer struct {
	stream    *stream.Client
	publisher Publisher
	metadata  MetadataSource
	annotator Annotator
	snapshots SnapshotSink
	everyNth  int
	logger    *logger.Logger

	// OnError receives human-readable parse/transport error messages.
	OnError func(msg string)
	// OnConnected fires when the subscription is confirmed.
	OnConnected func()
	// OnDisconnected fires on staleness and on stop, with the reason.
	OnDisconnected func(reason string)
	// OnStatusChange fires with the running flag on start/stop.
	OnStatusChange func(running bool)

	mu           sync.Mutex
	lastFrame    []byte
	hasFrame     bool
	unavailable  bool
	targetFrames int

	queue chan snapshotTask
	wg    sync.WaitGroup
}

func NewConsumer(cfg Config) (*Consumer, error) {
	c := &Consumer{
		publisher:   cfg.Publisher,
		metadata:    cfg.Metadata,
		annotator:   cfg.Annotator,
		snapshots:   cfg.Snapshots,
		everyNth:    cfg.SnapshotEveryNth,
		logger:      cfg.Logger,
		unavailable: true,
		queue:       make(chan snapshotTask, 16),
	}

	client, err := stream.NewClient(stream.Config{
		URL:          cfg.URL,
		StaleTimeout: cfg.StaleTimeout,
		RetryDelay:   cfg.RetryDelay,
	})
	if err != nil {
		return nil, err
	}

	client.OnMessage = c.handleMessage
	client.OnOpen = func() {
		c.setUnavailable(false)
		if c.OnConnected != nil {
			c.OnConnected()
		}
	}
	client.OnError = func(err error) {
		c.setUnavailable(true)
		c.emitError(err.Error())
	}
	client.OnDisconnected = func(reason string) {
		c.setUnavailable(true)
		if c.OnDisconnected != nil {
			c.OnDisconnected(reason)
		}
	}
	client.OnStatusChange = func(running bool) {
		if c.OnStatusChange != nil {
			c.OnStatusChange(running)
		}
	}
	c.stream = client

	c.wg.Add(1)
	go c.snapshotWorker()

	return c, nil
}

func (c *Consumer) Start() { c.stream.Start() }

func (c *Consumer) Stop() { c.stream.Stop() }

func (c *Consumer) Toggle() { c.stream.Toggle() }

func (c *Consumer) Running() bool { return c.stream.Running() }

// Shutdown stops the stream and drains the snapshot worker.
func (c *Consumer) Shutdown() {
	c.Stop()
	close(c.queue)
	c.wg.Wait()
}

// HasFrame reports whether at least one frame has been displayed.
func (c *Consumer) HasFrame() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasFrame
}

// Unavailable reports whether the video is currently marked unavailable.
func (c *Consumer) Unavailable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unavailable
}

// LastFrame returns a copy of the last displayed JPEG frame, or nil.
func (c *Consumer) LastFrame() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastFrame == nil {
		return nil
	}
	out := make([]byte, len(c.lastFrame))
	copy(out, c.lastFrame)
	return out
}

func (c *Consumer) handleMessage(data []byte) {
	var msg models.FrameMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.Frame == "" {
		c.setUnavailable(true)
		c.emitError("Failed to parse frame data")
		return
	}

	raw, err := base64.StdEncoding.DecodeString(msg.Frame)
	if err != nil {
		c.setUnavailable(true)
		c.emitError("Failed to parse frame data")
		return
	}

	c.mu.Lock()
	c.lastFrame = raw
	c.hasFrame = true
	c.unavailable = false
	c.mu.Unlock()

	// Viewers get the frame first; the snapshot pipeline must never delay it.
	if c.publisher != nil {
		c.publisher.Publish(hubws.TypeFrame, models.FrameMessage{Frame: msg.Frame})
	}

	c.maybeQueueSnapshot(raw)
}

// maybeQueueSnapshot enqueues every Nth frame that carries a tracked target.
func (c *Consumer) maybeQueueSnapshot(frame []byte) {
	if c.everyNth <= 0 || c.metadata == nil || c.snapshots == nil {
		return
	}

	meta, ok := c.metadata.Current()
	if !ok || meta.Extra.Target == nil {
		return
	}

	c.mu.Lock()
	c.targetFrames++
	if c.targetFrames < c.everyNth {
		c.mu.Unlock()
		return
	}
	c.targetFrames = 0
	c.mu.Unlock()

	select {
	case c.queue <- snapshotTask{frame: frame, meta: meta}:
	default:
		if c.logger != nil {
			c.logger.Warning("Snapshot queue full - skipping target frame")
		}
	}
}

func (c *Consumer) snapshotWorker() {
	defer c.wg.Done()

	for task := range c.queue {
		frame := task.frame
		if c.annotator != nil {
			annotated, err := c.annotator.Annotate(task.frame, task.meta)
			if err != nil {
				if c.logger != nil {
					c.logger.Error("Failed to annotate frame: %v", err)
				}
			} else {
				frame = annotated
			}
		}

		target := task.meta.Extra.Target
		c.snapshots.Add(frame, task.meta.Extra.CameraID, target.ID, target.Badge)
	}
}

func (c *Consumer) setUnavailable(v bool) {
	c.mu.Lock()
	c.unavailable = v
	c.mu.Unlock()
}

func (c *Consumer) emitError(msg string) {
	if c.OnError != nil {
		c.OnError(msg)
	}
}
