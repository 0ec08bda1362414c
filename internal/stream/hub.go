// Package stream broadcasts simulation progress events to websocket
// subscribers.
package stream

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"tokensim/internal/observability"
)

// HubConfig configures hub behavior.
type HubConfig struct {
	// WriteTimeout bounds each websocket write.
	WriteTimeout time.Duration

	// PingInterval is the interval between ping frames.
	PingInterval time.Duration

	// SendBuffer is the per-client event queue length. A client whose
	// queue overflows is dropped rather than stalling the broadcast.
	SendBuffer int

	// Verbose enables connection logging.
	Verbose bool
}

// DefaultHubConfig returns default hub configuration.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		WriteTimeout: 10 * time.Second,
		PingInterval: 30 * time.Second,
		SendBuffer:   64,
	}
}

// Hub fans events out to all connected clients.
type Hub struct {
	config   HubConfig
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

// NewHub creates a Hub.
func NewHub(config *HubConfig) *Hub {
	cfg := DefaultHubConfig()
	if config != nil {
		cfg.Verbose = config.Verbose
		if config.WriteTimeout > 0 {
			cfg.WriteTimeout = config.WriteTimeout
		}
		if config.PingInterval > 0 {
			cfg.PingInterval = config.PingInterval
		}
		if config.SendBuffer > 0 {
			cfg.SendBuffer = config.SendBuffer
		}
	}
	return &Hub{
		config: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Subscribers are dashboards and CLIs; origin checks are
			// left to the outer HTTP layer.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// ServeHTTP upgrades the request and registers the connection as a
// subscriber until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log("upgrade failed: %v", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, h.config.SendBuffer),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	observability.DefaultMetrics.StreamClients.Set(float64(n))
	h.log("client connected (%d total)", n)

	go h.writePump(c)
	h.readPump(c)
}

// Broadcast sends one event to every connected client. Marshal errors
// are returned; per-client delivery is best effort.
func (h *Hub) Broadcast(event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal stream event: %w", err)
	}

	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		select {
		case c.send <- payload:
			observability.DefaultMetrics.StreamEventsSent.Inc()
		default:
			// Slow consumer: dropping it beats blocking the run.
			observability.DefaultMetrics.StreamClientsDropped.Inc()
			h.log("dropping slow client")
			h.remove(c)
		}
	}
	return nil
}

// Close disconnects all clients and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.remove(c)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		observability.DefaultMetrics.StreamClients.Set(float64(n))
	}
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// writePump drains the client's queue and keeps the connection alive
// with pings.
func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(h.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.remove(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(c)
				return
			}
		}
	}
}

// readPump consumes control frames until the client disconnects.
// Subscribers never send application messages.
func (h *Hub) readPump(c *client) {
	defer h.remove(c)
	c.conn.SetReadLimit(512)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) log(format string, args ...any) {
	if h.config.Verbose {
		log.Printf("[stream] "+format, args...)
	}
}
