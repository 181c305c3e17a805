// Package control issues one-shot requests against the upstream tracker's
// control endpoints. Each operation is guarded by an in-flight flag; a call
// attempted while one is running is dropped, not queued.
package control

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"visiondash/internal/models"
)

const requestTimeout = 10 * time.Second

// RequestError reports a control request that was answered with a
// non-success status.
type RequestError struct {
	Endpoint   string
	StatusCode int
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("control request to %s failed with status %d", e.Endpoint, e.StatusCode)
}

// Controller holds the client-side copy of the aggressive mode and the
// in-flight guards for the two control operations.
type Controller struct {
	baseURL string
	client  *http.Client

	// OnError receives a human-readable message for any failed request.
	OnError func(msg string)

	mu            sync.Mutex
	mode          models.AggressiveMode
	resetInFlight bool
	modeInFlight  bool
}

// NewController creates a Controller against the upstream base URL.
// The local mode starts at idle until the first successful change.
func NewController(baseURL string) *Controller {
	return &Controller{
		baseURL: baseURL,
		client:  &http.Client{Timeout: requestTimeout},
		mode:    models.ModeIdle,
	}
}

// Mode returns the locally held aggressive mode.
func (c *Controller) Mode() models.AggressiveMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// ResetCounters issues POST /increment upstream. The in-flight flag is
// cleared on every exit path.
func (c *Controller) ResetCounters(ctx context.Context) error {
	c.mu.Lock()
	if c.resetInFlight {
		c.mu.Unlock()
		return nil
	}
	c.resetInFlight = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.resetInFlight = false
		c.mu.Unlock()
	}()

	if err := c.post(ctx, "/increment", nil); err != nil {
		c.emitError(fmt.Sprintf("Failed to reset counters: %v", err))
		return err
	}
	return nil
}

// SetAggressiveMode sends the target mode upstream. No-op when a change is
// already in flight or the requested mode equals the current one. The local
// mode is updated only after the request succeeds.
func (c *Controller) SetAggressiveMode(ctx context.Context, mode models.AggressiveMode) error {
	if !mode.IsValid() {
		return fmt.Errorf("control: invalid aggressive mode %q", mode)
	}

	c.mu.Lock()
	if c.modeInFlight || mode == c.mode {
		c.mu.Unlock()
		return nil
	}
	c.modeInFlight = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.modeInFlight = false
		c.mu.Unlock()
	}()

	body := map[string]string{"config_aggressive": mode.String()}
	if err := c.post(ctx, "/config", body); err != nil {
		c.emitError(fmt.Sprintf("Failed to set aggressive mode to %s: %v", mode, err))
		return err
	}

	c.mu.Lock()
	c.mode = mode
	c.mu.Unlock()
	return nil
}

// ToggleAggressiveMode advances the mode cyclically through
// idle -> chasing -> explosion -> idle.
func (c *Controller) ToggleAggressiveMode(ctx context.Context) error {
	c.mu.Lock()
	next := c.mode.Next()
	c.mu.Unlock()
	return c.SetAggressiveMode(ctx, next)
}

func (c *Controller) post(ctx context.Context, path string, body any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &RequestError{Endpoint: path, StatusCode: resp.StatusCode}
	}
	return nil
}

func (c *Controller) emitError(msg string) {
	if c.OnError != nil {
		c.OnError(msg)
	}
}
