package control

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"visiondash/internal/models"
)

func TestResetCounters_PostsIncrement(t *testing.T) {
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/increment" {
			t.Errorf("Expected path /increment, got %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		atomic.AddInt64(&hits, 1)
	}))
	defer server.Close()

	ctrl := NewController(server.URL)
	if err := ctrl.ResetCounters(context.Background()); err != nil {
		t.Fatalf("ResetCounters failed: %v", err)
	}
	if atomic.LoadInt64(&hits) != 1 {
		t.Errorf("Expected 1 request, got %d", hits)
	}
}

func TestResetCounters_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctrl := NewController(server.URL)

	var errMsg string
	ctrl.OnError = func(msg string) { errMsg = msg }

	err := ctrl.ResetCounters(context.Background())
	if err == nil {
		t.Fatal("Expected error for 500 response")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("Error should include the status code, got: %v", err)
	}
	if !strings.Contains(errMsg, "Failed to reset counters") {
		t.Errorf("Unexpected error notification: %q", errMsg)
	}

	// The in-flight flag must be cleared on the error path too.
	server2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server2.Close()
	ctrl2 := NewController(server2.URL)
	if err := ctrl2.ResetCounters(context.Background()); err != nil {
		t.Errorf("Follow-up request should succeed: %v", err)
	}
}

func TestResetCounters_InFlightGuardCleared(t *testing.T) {
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	ctrl := NewController(server.URL)

	// Two sequential calls: the second must not be swallowed by a stuck
	// in-flight flag from the first failure.
	ctrl.ResetCounters(context.Background())
	ctrl.ResetCounters(context.Background())

	if got := atomic.LoadInt64(&hits); got != 2 {
		t.Errorf("Expected 2 upstream requests, got %d", got)
	}
}

func TestSetAggressiveMode_PostsConfig(t *testing.T) {
	var body map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/config" {
			t.Errorf("Expected path /config, got %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected JSON content type, got %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("Failed to decode body: %v", err)
		}
	}))
	defer server.Close()

	ctrl := NewController(server.URL)
	if err := ctrl.SetAggressiveMode(context.Background(), models.ModeChasing); err != nil {
		t.Fatalf("SetAggressiveMode failed: %v", err)
	}

	if body["config_aggressive"] != "chasing" {
		t.Errorf("Expected config_aggressive=chasing, got %v", body)
	}
	if ctrl.Mode() != models.ModeChasing {
		t.Errorf("Local mode should be chasing after success, got %s", ctrl.Mode())
	}
}

func TestSetAggressiveMode_InvalidMode(t *testing.T) {
	ctrl := NewController("http://localhost:0")
	if err := ctrl.SetAggressiveMode(context.Background(), "rampage"); err == nil {
		t.Error("Expected error for unknown mode")
	}
}

func TestSetAggressiveMode_SameModeIsNoOp(t *testing.T) {
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
	}))
	defer server.Close()

	ctrl := NewController(server.URL)

	// Controller starts at idle; requesting idle sends nothing upstream.
	if err := ctrl.SetAggressiveMode(context.Background(), models.ModeIdle); err != nil {
		t.Fatalf("SetAggressiveMode failed: %v", err)
	}
	if atomic.LoadInt64(&hits) != 0 {
		t.Errorf("Expected no upstream request for same mode, got %d", hits)
	}
}

func TestSetAggressiveMode_FailureKeepsLocalMode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctrl := NewController(server.URL)
	if err := ctrl.SetAggressiveMode(context.Background(), models.ModeExplosion); err == nil {
		t.Fatal("Expected error for 500 response")
	}
	if ctrl.Mode() != models.ModeIdle {
		t.Errorf("Local mode must stay idle after a failed request, got %s", ctrl.Mode())
	}
}

func TestToggleAggressiveMode_CyclesThroughModes(t *testing.T) {
	var bodies []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		bodies = append(bodies, body["config_aggressive"])
	}))
	defer server.Close()

	ctrl := NewController(server.URL)

	expected := []models.AggressiveMode{models.ModeChasing, models.ModeExplosion, models.ModeIdle}
	for _, want := range expected {
		if err := ctrl.ToggleAggressiveMode(context.Background()); err != nil {
			t.Fatalf("ToggleAggressiveMode failed: %v", err)
		}
		if ctrl.Mode() != want {
			t.Errorf("Expected mode %s, got %s", want, ctrl.Mode())
		}
	}

	if len(bodies) != 3 || bodies[0] != "chasing" || bodies[1] != "explosion" || bodies[2] != "idle" {
		t.Errorf("Unexpected upstream requests: %v", bodies)
	}
}

func TestRequestError_Message(t *testing.T) {
	err := &RequestError{Endpoint: "/config", StatusCode: 503}
	if !strings.Contains(err.Error(), "/config") || !strings.Contains(err.Error(), "503") {
		t.Errorf("Error message should name endpoint and status: %q", err.Error())
	}
}
