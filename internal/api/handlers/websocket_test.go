package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/cache"
)

func dialTestHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()

	handler := NewWebSocketHandler(hub)
	server := httptest.NewServer(http.HandlerFunc(handler.HandleWebSocket))
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	ws, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { ws.Close() })

	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusSwitchingProtocols)
	}
	return ws
}

func readEvent(t *testing.T, ws *websocket.Conn) Event {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, message, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	// writePump may coalesce queued events into one frame.
	first, _, _ := strings.Cut(string(message), "\n")
	var ev Event
	if err := json.Unmarshal([]byte(first), &ev); err != nil {
		t.Fatalf("unmarshal %q: %v", message, err)
	}
	return ev
}

func TestHandleWebSocketGreetsWithStats(t *testing.T) {
	c := seededCache(t)
	hub := NewHub(c)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)
	defer hub.Stop()

	ws := dialTestHub(t, hub)

	ev := readEvent(t, ws)
	if ev.Type != "stats" {
		t.Fatalf("greeting type = %q, want stats", ev.Type)
	}
	payload, ok := ev.Payload.(map[string]interface{})
	if !ok {
		t.Fatalf("payload is %T, want object", ev.Payload)
	}
	if items, ok := payload["Items"].(float64); !ok || int(items) != 4 {
		t.Errorf("payload Items = %v, want 4", payload["Items"])
	}
}

func TestHubBroadcastsEvents(t *testing.T) {
	hub := NewHub(cache.NewMockCache())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)
	defer hub.Stop()

	ws := dialTestHub(t, hub)

	// Skip the greeting.
	if ev := readEvent(t, ws); ev.Type != "stats" {
		t.Fatalf("greeting type = %q", ev.Type)
	}

	// Registration is async; give the hub loop a beat before
	// broadcasting so the client is in the set.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		hub.mu.RLock()
		n := len(hub.clients)
		hub.mu.RUnlock()
		if n == 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.BroadcastEvent("cache_invalidated", map[string]interface{}{"removed": 3})

	ev := readEvent(t, ws)
	if ev.Type != "cache_invalidated" {
		t.Fatalf("type = %q, want cache_invalidated", ev.Type)
	}
	payload, ok := ev.Payload.(map[string]interface{})
	if !ok {
		t.Fatalf("payload is %T", ev.Payload)
	}
	if removed, ok := payload["removed"].(float64); !ok || int(removed) != 3 {
		t.Errorf("removed = %v, want 3", payload["removed"])
	}
}
