// Package realtime pushes request lifecycle events to connected clients over
// WebSocket. Events are addressed to a user; every open connection of that
// user receives them. With Redis configured, events published on one
// instance are fanned out by every instance.
package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Channel is the Redis pub/sub channel carrying cross-instance events.
const Channel = "chatcode:events"

// Event is the frame written to clients.
type Event struct {
	Type    string    `json:"type"`
	Payload any       `json:"payload"`
	At      time.Time `json:"at"`
}

type targeted struct {
	userID string
	data   []byte
}

// wireMessage is the Redis envelope. Origin lets an instance skip its own
// publications, which it already delivered locally.
type wireMessage struct {
	Origin string          `json:"origin"`
	UserID string          `json:"user_id"`
	Data   json.RawMessage `json:"data"`
}

// Hub tracks connected clients per user and routes events to them.
type Hub struct {
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan targeted

	rdb    *redis.Client
	origin string

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewHub creates a hub. rdb may be nil for single-instance deployments.
func NewHub(rdb *redis.Client) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan targeted, 256),
		rdb:        rdb,
		origin:     uuid.NewString(),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Run processes registrations and deliveries until Stop is called.
func (h *Hub) Run() {
	defer close(h.done)
	if h.rdb != nil {
		go h.subscribe()
	}

	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			if h.clients[c.userID] == nil {
				h.clients[c.userID] = make(map[*Client]struct{})
			}
			h.clients[c.userID][c] = struct{}{}
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			h.drop(c)
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients[msg.userID] {
				select {
				case c.send <- msg.data:
				default:
					// Slow consumer: disconnect rather than block the hub.
					h.drop(c)
				}
			}
			h.mu.Unlock()

		case <-h.ctx.Done():
			h.mu.Lock()
			for _, set := range h.clients {
				for c := range set {
					h.drop(c)
				}
			}
			h.mu.Unlock()
			return
		}
	}
}

// drop removes c and closes its send channel. Callers hold mu.
func (h *Hub) drop(c *Client) {
	set, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.ctx.Done():
		close(c.send)
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.ctx.Done():
	}
}

// Connected returns the number of open connections for userID.
func (h *Hub) Connected(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Notify delivers an event to userID locally and, with Redis configured, to
// every other instance. It never blocks the caller on a full queue.
func (h *Hub) Notify(ctx context.Context, userID, kind string, payload any) {
	data, err := json.Marshal(Event{Type: kind, Payload: payload, At: time.Now().UTC()})
	if err != nil {
		log.Warn().Err(err).Str("event", kind).Msg("encode realtime event")
		return
	}
	h.enqueue(userID, data)

	if h.rdb != nil {
		msg, err := json.Marshal(wireMessage{Origin: h.origin, UserID: userID, Data: data})
		if err == nil {
			if err := h.rdb.Publish(ctx, Channel, msg).Err(); err != nil {
				log.Warn().Err(err).Msg("publish realtime event")
			}
		}
	}
}

func (h *Hub) enqueue(userID string, data []byte) {
	select {
	case h.broadcast <- targeted{userID: userID, data: data}:
	default:
		log.Warn().Str("user_id", userID).Msg("realtime queue full, event dropped")
	}
}

// subscribe relays events published by other instances.
func (h *Hub) subscribe() {
	sub := h.rdb.Subscribe(h.ctx, Channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case m, ok := <-ch:
			if !ok {
				return
			}
			var wm wireMessage
			if err := json.Unmarshal([]byte(m.Payload), &wm); err != nil || wm.Origin == h.origin {
				continue
			}
			h.enqueue(wm.UserID, wm.Data)
		case <-h.ctx.Done():
			return
		}
	}
}

// Stop shuts the hub down and closes every client.
func (h *Hub) Stop() {
	h.cancel()
	<-h.done
}
