package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/apierr"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/cache"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/logger"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/metrics"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = 30 * time.Second

	// Maximum message size allowed from peer
	maxMessageSize = 512

	// How often to push cache stats to connected dashboards
	statsInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS middleware handles origin policy
		return true
	},
}

// Event is a message pushed to connected dashboards.
type Event struct {
	Type    string      `json:"type"` // "stats", "cache_invalidated", "refresh"
	Payload interface{} `json:"payload"`
}

// wsClient is one connected dashboard.
type wsClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub maintains the set of connected dashboards and broadcasts events
// to them.
type Hub struct {
	clients    map[*wsClient]bool
	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan []byte

	cache    cache.Cache
	stop     chan struct{}
	stopOnce sync.Once
	mu       sync.RWMutex
}

// NewHub creates a hub that periodically pushes cache stats.
func NewHub(c cache.Cache) *Hub {
	return &Hub{
		clients:    make(map[*wsClient]bool),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		broadcast:  make(chan []byte, 256),
		cache:      c,
		stop:       make(chan struct{}),
	}
}

// Run starts the hub's main loop and the stats monitor.
func (h *Hub) Run(ctx context.Context) {
	go h.monitorCacheStats(ctx)

	for {
		select {
		case <-ctx.Done():
			return

		case <-h.stop:
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			metrics.WebSocketConnections.Inc()
			logger.Info("WebSocket client connected", "total_clients", total)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				metrics.WebSocketConnections.Dec()
				logger.Info("WebSocket client disconnected", "total_clients", len(h.clients))
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
					metrics.WebSocketMessagesSent.Inc()
				default:
					// Send buffer full; drop the slow client.
					close(client.send)
					delete(h.clients, client)
					metrics.WebSocketConnections.Dec()
				}
			}
			h.mu.Unlock()
		}
	}
}

// Stop shuts the hub down; registered clients are closed by their pumps.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
}

// monitorCacheStats pushes a cache stats snapshot to connected
// dashboards on a fixed cadence. No clients, no work.
func (h *Hub) monitorCacheStats(ctx context.Context) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.stop:
			return
		case <-ticker.C:
			h.mu.RLock()
			clientCount := len(h.clients)
			h.mu.RUnlock()
			if clientCount == 0 {
				continue
			}
			h.BroadcastEvent("stats", h.cache.Stats())
		}
	}
}

// BroadcastEvent queues an event for every connected dashboard.
func (h *Hub) BroadcastEvent(eventType string, payload interface{}) {
	data, err := json.Marshal(Event{Type: eventType, Payload: payload})
	if err != nil {
		logger.Error("Failed to marshal WebSocket event", "type", eventType, "error", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		logger.Warn("WebSocket broadcast queue full, dropping event", "type", eventType)
	}
}

// readPump drains the connection so ping/pong keeps working; client
// messages carry no state the server needs.
func (c *wsClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("WebSocket unexpected close", "error", err)
			}
			break
		}
	}
}

// writePump pumps events from the hub to the connection.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Flush queued events into the same frame
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// WebSocketHandler upgrades dashboard connections onto the hub.
type WebSocketHandler struct {
	hub *Hub
}

// NewWebSocketHandler wraps an already-running hub.
func NewWebSocketHandler(hub *Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// HandleWebSocket handles the upgrade and client registration.
// GET /api/ws
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Failed to upgrade to WebSocket", "error", err)
		apierr.WriteErrorWithContext(w, r, apierr.SystemInternal("Failed to establish WebSocket connection"))
		return
	}

	client := &wsClient{
		hub:  h.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}
	h.hub.register <- client

	// Greet with a stats snapshot so the dashboard renders immediately.
	if data, err := json.Marshal(Event{Type: "stats", Payload: h.hub.cache.Stats()}); err == nil {
		select {
		case client.send <- data:
		default:
		}
	}

	go client.writePump()
	go client.readPump()
}
