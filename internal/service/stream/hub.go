package stream

import (
	"encoding/json"
	"net/http"
	"sync"

	applogger "HomeCast/pkg/logger"

	"github.com/gorilla/websocket"
)

// Hub fans dataset events out to connected dashboard clients so charts can
// refresh without polling. Clients only listen; inbound frames are drained
// and dropped.
type Hub struct {
	mu       sync.Mutex
	clients  map[*websocket.Conn]struct{}
	upgrader websocket.Upgrader
	logger   *applogger.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *applogger.Logger) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Dashboard origin already passed CORS; the socket carries no
			// sensitive data.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Serve upgrades the request and keeps the connection registered until the
// client goes away.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	if h.logger != nil {
		h.logger.Debug("ws client connected", applogger.Int("clients", n))
	}

	go h.drain(conn)
	return nil
}

// Broadcast sends one JSON event to every connected client. Dead
// connections are dropped on write failure.
func (h *Hub) Broadcast(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			_ = conn.Close()
			delete(h.clients, conn)
		}
	}
}

// Close disconnects all clients.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		_ = conn.Close()
		delete(h.clients, conn)
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) drain(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.mu.Lock()
			_ = conn.Close()
			delete(h.clients, conn)
			h.mu.Unlock()
			return
		}
	}
}
