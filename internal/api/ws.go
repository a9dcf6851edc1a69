package api

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"

	"github.com/playok/metricd/internal/logger"
	"github.com/playok/metricd/internal/metric"
	"github.com/playok/metricd/internal/threshold"
)

const (
	pingInterval = 30 * time.Second
	readTimeout  = 60 * time.Second
)

// wsMetric is the wire form of one metric pushed to subscribers.
type wsMetric struct {
	Name  string  `json:"name"`
	Time  uint64  `json:"time"`
	Kind  string  `json:"kind"`
	Value float64 `json:"value"`
}

// Hub manages WebSocket connections and pushes metrics and threshold
// events to them as they flow through the pipeline.
type Hub struct {
	mu      sync.RWMutex
	clients map[*wsClient]struct{}
	reg     chan *wsClient
	unreg   chan *wsClient
	log     *logger.Logger
}

type wsClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	subs map[string]bool // subscribed identity-name prefixes
	mu   sync.Mutex
}

// NewHub creates a new WebSocket hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*wsClient]struct{}),
		reg:     make(chan *wsClient, 16),
		unreg:   make(chan *wsClient, 16),
		log:     logger.New().With("component", "ws"),
	}
}

// Run processes register/unregister events.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.reg:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()
		case c := <-h.unreg:
			h.mu.Lock()
			delete(h.clients, c)
			h.mu.Unlock()
			close(c.send)
		}
	}
}

// BroadcastMetric pushes one metric to every client subscribed to it.
func (h *Hub) BroadcastMetric(m *metric.Metric) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.clients) == 0 || m.Identity == nil {
		return
	}

	value := m.Value.Float(m.Kind)
	if math.IsNaN(value) {
		return
	}
	data, err := json.Marshal(map[string]interface{}{
		"type": "metric",
		"metric": wsMetric{
			Name:  m.Identity.Name,
			Time:  m.Time,
			Kind:  m.Kind.String(),
			Value: value,
		},
	})
	if err != nil {
		return
	}

	for c := range h.clients {
		if c.matches(m.Identity.Name) {
			select {
			case c.send <- data:
			default:
				// client too slow, skip
			}
		}
	}
}

// BroadcastEvent pushes a threshold state change to all clients.
func (h *Hub) BroadcastEvent(ev threshold.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.clients) == 0 {
		return
	}

	data, err := json.Marshal(map[string]interface{}{
		"type":  "threshold",
		"event": ev,
	})
	if err != nil {
		return
	}

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
		}
	}
}

// matches reports whether the client wants metrics with this identity
// name. No subscriptions means receive everything.
func (c *wsClient) matches(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.subs) == 0 {
		return true
	}
	for prefix := range c.subs {
		if len(name) >= len(prefix) && name[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

func (c *wsClient) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		}
	}
}

// HandleWS handles WebSocket upgrade and manages the connection.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // allow any origin for local tool
	})
	if err != nil {
		h.log.Warningf("accept: %v", err)
		return
	}

	client := &wsClient{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 64),
		subs: make(map[string]bool),
	}

	h.reg <- client

	ctx := r.Context()
	go client.pingLoop(ctx)
	go client.writePump(ctx)
	client.readPump(ctx)
}

func (c *wsClient) readPump(ctx context.Context) {
	defer func() {
		c.hub.unreg <- c
		c.conn.Close(websocket.StatusNormalClosure, "bye")
	}()

	for {
		readCtx, cancel := context.WithTimeout(ctx, readTimeout)
		_, data, err := c.conn.Read(readCtx)
		cancel()
		if err != nil {
			return
		}
		// Parse subscription messages
		var msg struct {
			Type    string   `json:"type"`
			Metrics []string `json:"metrics"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case "subscribe":
			c.mu.Lock()
			for _, m := range msg.Metrics {
				c.subs[m] = true
			}
			c.mu.Unlock()
		case "unsubscribe":
			c.mu.Lock()
			for _, m := range msg.Metrics {
				delete(c.subs, m)
			}
			c.mu.Unlock()
		}
	}
}

func (c *wsClient) writePump(ctx context.Context) {
	for data := range c.send {
		if err := c.conn.Write(ctx, websocket.MessageText, data); err != nil {
			return
		}
	}
}
