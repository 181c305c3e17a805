// Package stream implements a client for server-sent event subscriptions
// with staleness detection. Each Client owns at most one live connection;
// starting a new one always closes the previous connection first.
package stream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Disconnect reasons passed to OnDisconnected.
const (
	ReasonStopped = "stopped"
	ReasonStale   = "stale"
)

const defaultRetryDelay = 3 * time.Second

// Config contains configuration for a stream Client.
type Config struct {
	// URL is the event-stream endpoint (required).
	URL string
	// StaleTimeout enables staleness detection when > 0: if no message
	// arrives within this window, OnDisconnected(ReasonStale) fires once.
	StaleTimeout time.Duration
	// RetryDelay is the pause before reconnecting after a transport error.
	// The server may override it with an SSE "retry" field.
	RetryDelay time.Duration
	// HTTPClient overrides the HTTP client. It must not have a global
	// timeout set; the connection is long-lived.
	HTTPClient *http.Client
}

// Client is one server-push subscription with its own lifecycle.
//
// Callbacks are invoked from the client's reader goroutine (messages, open,
// errors) or the staleness timer. The staleness timer is rearmed under the
// client mutex with a generation check, so a stale notification is never
// delivered after a newer message has already reset the timer.
type Client struct {
	url        string
	timeout    time.Duration
	httpClient *http.Client

	// OnOpen fires when the subscription is confirmed (HTTP 200).
	OnOpen func()
	// OnMessage receives the data payload of each event.
	OnMessage func(data []byte)
	// OnError receives transport-level errors. The client keeps retrying.
	OnError func(err error)
	// OnDisconnected fires on staleness and on Stop.
	OnDisconnected func(reason string)
	// OnStatusChange fires with running=true on Start, false on Stop.
	OnStatusChange func(running bool)

	mu         sync.Mutex
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	staleTimer *time.Timer
	staleGen   uint64
	retryDelay time.Duration
	connID     string
}

// NewClient creates a Client with fail-fast validation.
func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("stream: URL is required")
	}

	retry := cfg.RetryDelay
	if retry <= 0 {
		retry = defaultRetryDelay
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		url:        cfg.URL,
		timeout:    cfg.StaleTimeout,
		httpClient: httpClient,
		retryDelay: retry,
	}, nil
}

// Start opens the subscription. Any existing connection is closed first, so
// at most one connection is open at any instant. Non-blocking: the reader
// runs in a background goroutine until Stop.
func (c *Client) Start() {
	c.Stop()

	c.mu.Lock()
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.connID = uuid.NewString()[:8]
	c.mu.Unlock()

	if c.OnStatusChange != nil {
		c.OnStatusChange(true)
	}

	c.wg.Add(1)
	go c.run(ctx)
}

// Stop closes the connection, cancels any pending staleness timer and waits
// for the reader goroutine. Idempotent; notifications fire only when the
// client was actually running.
func (c *Client) Stop() {
	c.mu.Lock()
	if c.cancel == nil {
		c.mu.Unlock()
		return
	}
	cancel := c.cancel
	c.cancel = nil
	c.staleGen++
	if c.staleTimer != nil {
		c.staleTimer.Stop()
		c.staleTimer = nil
	}
	c.mu.Unlock()

	cancel()
	c.wg.Wait()

	if c.OnStatusChange != nil {
		c.OnStatusChange(false)
	}
	if c.OnDisconnected != nil {
		c.OnDisconnected(ReasonStopped)
	}
}

// Toggle stops the client if running, otherwise starts it.
func (c *Client) Toggle() {
	if c.Running() {
		c.Stop()
	} else {
		c.Start()
	}
}

// Running reports whether the client currently owns a connection.
func (c *Client) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancel != nil
}

// URL returns the subscribed endpoint.
func (c *Client) URL() string {
	return c.url
}

// run keeps the subscription alive until the context is cancelled,
// reconnecting after the retry delay on transport errors. This mirrors
// browser EventSource semantics: errors surface but do not stop the client.
func (c *Client) run(ctx context.Context) {
	defer c.wg.Done()

	for {
		err := c.connect(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil && c.OnError != nil {
			c.OnError(err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.currentRetryDelay()):
		}
	}
}

func (c *Client) connect(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return fmt.Errorf("stream[%s]: create request: %w", c.id(), err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("stream[%s]: connect %s: %w", c.id(), c.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stream[%s]: unexpected status %s from %s", c.id(), resp.Status, c.url)
	}

	if c.OnOpen != nil {
		c.OnOpen()
	}

	err = readEvents(resp.Body, func(ev Event) {
		c.armStaleTimer()
		if c.OnMessage != nil {
			c.OnMessage(ev.Data)
		}
	}, c.setRetryDelay)

	if ctx.Err() != nil {
		return nil
	}
	if err == nil {
		// Clean EOF: server closed the stream.
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("stream[%s]: connection lost: %w", c.id(), err)
}

// armStaleTimer cancels the previous staleness timer and schedules a new
// one, keeping at most one pending timer per connection. The generation
// counter discards a timer that fired concurrently with a newer message.
func (c *Client) armStaleTimer() {
	if c.timeout <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel == nil {
		return
	}
	if c.staleTimer != nil {
		c.staleTimer.Stop()
	}
	c.staleGen++
	gen := c.staleGen
	c.staleTimer = time.AfterFunc(c.timeout, func() {
		c.onStale(gen)
	})
}

func (c *Client) onStale(gen uint64) {
	c.mu.Lock()
	if c.cancel == nil || gen != c.staleGen {
		c.mu.Unlock()
		return
	}
	c.staleTimer = nil
	c.mu.Unlock()

	if c.OnDisconnected != nil {
		c.OnDisconnected(ReasonStale)
	}
}

func (c *Client) setRetryDelay(d time.Duration) {
	c.mu.Lock()
	c.retryDelay = d
	c.mu.Unlock()
}

func (c *Client) currentRetryDelay() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.retryDelay
}

func (c *Client) id() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connID
}
