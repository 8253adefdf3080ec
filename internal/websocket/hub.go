package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"firesafety-backend/internal/storage"

	"github.com/rs/zerolog/log"
)

// MessageSnapshotSaved tells open sessions that a newer snapshot exists.
// Clients refetch; nothing is merged automatically.
const MessageSnapshotSaved = "snapshot_saved"

// Message is the envelope sent to every client.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Hub maintains active WebSocket connections and fans store events out to
// all of them.
type Hub struct {
	clients map[*Client]bool

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop and returns when ctx is cancelled. Open
// clients are told to close and later register or unregister calls return
// immediately.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				c.stop()
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			log.Info().
				Str("technician_id", client.TechnicianID).
				Int("clients", total).
				Msg("✅ websocket client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.stop()
				log.Info().
					Str("technician_id", client.TechnicianID).
					Int("clients", len(h.clients)).
					Msg("🔴 websocket client disconnected")
			}
			h.mu.Unlock()

		case data := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- data:
				default:
					client.stop()
					delete(h.clients, client)
					log.Warn().Str("technician_id", client.TechnicianID).Msg("⚠️  client buffer full, disconnecting")
				}
			}
			h.mu.Unlock()
		}
	}
}

// join registers c. It reports false once the hub has stopped.
func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast queues msg for every connected client.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Msg("❌ failed to marshal broadcast message")
		return
	}
	select {
	case h.broadcast <- data:
	default:
		log.Warn().Str("type", msg.Type).Msg("⚠️  broadcast queue full, dropping message")
	}
}

// Forward relays committed-snapshot events until events closes or ctx ends.
func (h *Hub) Forward(ctx context.Context, events <-chan storage.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			h.Broadcast(Message{Type: MessageSnapshotSaved, Data: ev})
		}
	}
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
