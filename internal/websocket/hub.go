// Package websocket provides WebSocket connection management and per-trip
// message broadcasting.
package websocket

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// outbound is a message queued for broadcast. An empty tripID reaches every
// client.
type outbound struct {
	tripID string
	data   []byte
}

// Hub maintains the set of active WebSocket clients and broadcasts messages.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Messages to fan out
	broadcast chan outbound

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Guards clients and each client's subscriptions
	mu sync.RWMutex

	logger  *zap.Logger
	onCount func(int)
}

// NewHub creates a new WebSocket hub. onCount, if set, is called with the
// client count after every change.
func NewHub(logger *zap.Logger, onCount func(int)) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan outbound, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
		onCount:    onCount,
	}
}

// Run starts the hub's main event loop and returns when ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				h.closeClient(client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("websocket client connected", zap.Int("total", n))
			h.countChanged(n)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				h.closeClient(client)
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("websocket client disconnected", zap.Int("total", n))
			h.countChanged(n)

		case msg := <-h.broadcast:
			h.mu.Lock()
			dropped := 0
			for client := range h.clients {
				if msg.tripID != "" && !client.subscribed(msg.tripID) {
					continue
				}
				select {
				case client.send <- msg.data:
				default:
					// Client send buffer full, close connection
					h.closeClient(client)
					dropped++
				}
			}
			n := len(h.clients)
			h.mu.Unlock()
			if dropped > 0 {
				h.logger.Warn("dropped slow websocket clients", zap.Int("dropped", dropped))
				h.countChanged(n)
			}
		}
	}
}

// closeClient removes client and closes its send channel. h.mu must be held.
func (h *Hub) closeClient(client *Client) {
	delete(h.clients, client)
	if !client.closed {
		client.closed = true
		close(client.send)
	}
}

func (h *Hub) countChanged(n int) {
	if h.onCount != nil {
		h.onCount(n)
	}
}

// Broadcast sends a message to all connected clients.
func (h *Hub) Broadcast(message []byte) {
	h.enqueue(outbound{data: message})
}

// BroadcastTrip sends a message to clients subscribed to tripID.
func (h *Hub) BroadcastTrip(tripID string, message []byte) {
	h.enqueue(outbound{tripID: tripID, data: message})
}

func (h *Hub) enqueue(msg outbound) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("broadcast channel full, dropping message", zap.String("trip_id", msg.tripID))
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Client represents a WebSocket client connection.
type Client struct {
	hub    *Hub
	send   chan []byte
	userID string

	// Guarded by hub.mu
	trips  map[string]struct{}
	closed bool
}

// NewClient creates a new WebSocket client for userID.
func NewClient(hub *Hub, userID string) *Client {
	return &Client{
		hub:    hub,
		send:   make(chan []byte, 256),
		userID: userID,
		trips:  make(map[string]struct{}),
	}
}

// Send returns the send channel for the client.
func (c *Client) Send() chan []byte {
	return c.send
}

// UserID returns the identity the connection was opened with.
func (c *Client) UserID() string {
	return c.userID
}

// Subscribe starts delivering tripID's messages to the client.
func (c *Client) Subscribe(tripID string) {
	c.hub.mu.Lock()
	c.trips[tripID] = struct{}{}
	c.hub.mu.Unlock()
}

// Unsubscribe stops delivering tripID's messages to the client.
func (c *Client) Unsubscribe(tripID string) {
	c.hub.mu.Lock()
	delete(c.trips, tripID)
	c.hub.mu.Unlock()
}

// Reply queues a direct response without blocking. It reports false when the
// client is closed or its buffer is full.
func (c *Client) Reply(message []byte) bool {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

// subscribed reports whether the client follows tripID. hub.mu must be held.
func (c *Client) subscribed(tripID string) bool {
	_, ok := c.trips[tripID]
	return ok
}
