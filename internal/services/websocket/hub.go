package websocket

import (
	"encoding/json"
	"sync"

	"visiondash/internal/logger"

	"github.com/gorilla/websocket"
)

// Envelope message types pushed to dashboard viewers.
const (
	TypeFrame     = "frame"
	TypeTelemetry = "telemetry"
	TypeStatus    = "status"
)

// Envelope wraps every message broadcast to viewers.
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// HubService fans messages out to all connected dashboard viewers.
type HubService struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mutex      sync.RWMutex
	logger     *logger.Logger
}

func NewHubService(logger *logger.Logger) *HubService {
	return &HubService{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		logger:     logger,
	}
}

func (h *HubService) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			h.logger.Info("Viewer connected. Total: %d", h.GetClientCount())

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			h.mutex.Unlock()
			h.logger.Info("Viewer disconnected. Total: %d", h.GetClientCount())

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				err := client.WriteMessage(websocket.TextMessage, message)
				if err != nil {
					h.logger.Error("Error sending message to viewer: %v", err)
					delete(h.clients, client)
					client.Close()
				}
			}
			h.mutex.Unlock()
		}
	}
}

func (h *HubService) Register(client *websocket.Conn) {
	h.register <- client
}

func (h *HubService) Unregister(client *websocket.Conn) {
	h.unregister <- client
}

// Publish marshals an envelope of the given type and queues it for
// broadcast. Messages are dropped when the broadcast queue is full so slow
// viewers never stall the stream consumers.
func (h *HubService) Publish(msgType string, data any) {
	payload, err := json.Marshal(Envelope{Type: msgType, Data: data})
	if err != nil {
		h.logger.Error("Failed to encode %s envelope: %v", msgType, err)
		return
	}

	select {
	case h.broadcast <- payload:
	default:
		h.logger.Warning("Broadcast queue full - dropping %s message", msgType)
	}
}

func (h *HubService) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
