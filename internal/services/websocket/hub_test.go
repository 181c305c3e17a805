package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"visiondash/internal/logger"

	"github.com/gorilla/websocket"
)

func testHub(t *testing.T) *HubService {
	t.Helper()
	hub := NewHubService(logger.NewLogger(t.TempDir()))
	go hub.Run()
	return hub
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// dialViewer connects a websocket client the way the dashboard's view
// handler does, returning the client side and the registered server side.
func dialViewer(t *testing.T, hub *HubService) (client, server *websocket.Conn) {
	t.Helper()

	serverConns := make(chan *websocket.Conn, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Upgrade failed: %v", err)
			return
		}
		hub.Register(conn)
		serverConns <- conn
	}))
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	select {
	case sc := <-serverConns:
		return conn, sc
	case <-time.After(2 * time.Second):
		t.Fatal("Server connection was never registered")
		return nil, nil
	}
}

func waitForClients(t *testing.T, hub *HubService, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.GetClientCount() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Expected %d clients, got %d", want, hub.GetClientCount())
}

func TestHub_PublishWithoutViewers(t *testing.T) {
	hub := testHub(t)

	// Nothing to deliver to; must not block or panic.
	hub.Publish(TypeFrame, map[string]string{"frame": "abc"})

	if hub.GetClientCount() != 0 {
		t.Errorf("Expected 0 clients, got %d", hub.GetClientCount())
	}
}

func TestHub_BroadcastsEnvelope(t *testing.T) {
	hub := testHub(t)
	conn, _ := dialViewer(t, hub)
	waitForClients(t, hub, 1)

	hub.Publish(TypeTelemetry, map[string]int{"frame_count": 12})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}

	var env struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &env); err != nil {
		t.Fatalf("Failed to decode envelope: %v", err)
	}
	if env.Type != TypeTelemetry {
		t.Errorf("Expected type telemetry, got %s", env.Type)
	}
	if !strings.Contains(string(env.Data), "12") {
		t.Errorf("Unexpected payload: %s", env.Data)
	}
}

func TestHub_MultipleViewersReceiveBroadcast(t *testing.T) {
	hub := testHub(t)
	conn1, _ := dialViewer(t, hub)
	conn2, _ := dialViewer(t, hub)
	waitForClients(t, hub, 2)

	hub.Publish(TypeFrame, map[string]string{"frame": "abc"})

	for i, conn := range []*websocket.Conn{conn1, conn2} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		if _, _, err := conn.ReadMessage(); err != nil {
			t.Errorf("Viewer %d did not receive the broadcast: %v", i+1, err)
		}
	}
}

func TestHub_UnregisterRemovesViewer(t *testing.T) {
	hub := testHub(t)
	_, serverConn := dialViewer(t, hub)
	waitForClients(t, hub, 1)

	hub.Unregister(serverConn)
	waitForClients(t, hub, 0)
}
