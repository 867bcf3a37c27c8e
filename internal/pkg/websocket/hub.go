package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EventTypeOccupancy marks an occupancy change of one subject
const EventTypeOccupancy = "occupancy"

// Event is pushed to every connected client
type Event struct {
	Type      string `json:"type"`
	SubjectID int64  `json:"subjectId"`
	Occupancy int    `json:"occupancy"`
	Capacity  int    `json:"capacity"`
	Remaining int    `json:"remaining"`
	// Version orders the events of one subject; zero marks a snapshot
	Version   uint64    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// NewOccupancyEvent builds an occupancy event stamped with the current time
func NewOccupancyEvent(subjectID int64, occupancy, capacity int) Event {
	remaining := capacity - occupancy
	if remaining < 0 {
		remaining = 0
	}
	return Event{
		Type:      EventTypeOccupancy,
		SubjectID: subjectID,
		Occupancy: occupancy,
		Capacity:  capacity,
		Remaining: remaining,
		Timestamp: time.Now().UTC(),
	}
}

// Hub maintains the set of connected clients and fans events out to them.
// Only the Run goroutine touches the clients map; mu guards reads from
// ClientCount.
type Hub struct {
	clients map[*Client]struct{}

	// Last broadcast version per subject
	latest map[int64]uint64

	// Events waiting to be broadcast
	broadcast chan Event

	register   chan *Client
	unregister chan *Client

	// Closed when Run returns
	done chan struct{}

	mu    sync.RWMutex
	count int

	logger zerolog.Logger
}

// NewHub creates a new Hub instance. bufferSize bounds the number of events
// queued while the hub is busy; further events are dropped.
func NewHub(bufferSize int, logger zerolog.Logger) *Hub {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &Hub{
		clients:    make(map[*Client]struct{}),
		latest:     make(map[int64]uint64),
		broadcast:  make(chan Event, bufferSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run dispatches registrations and broadcasts until ctx is done, then closes
// every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.removeClient(client)
			}
			h.logger.Info().Msg("Occupancy hub stopped")
			return

		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.setCount(len(h.clients))
			h.logger.Debug().
				Int64("userID", client.userID).
				Str("addr", client.conn.RemoteAddr().String()).
				Msg("Client registered")

		case client := <-h.unregister:
			h.removeClient(client)

		case event := <-h.broadcast:
			h.broadcastEvent(event)
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)
	h.setCount(len(h.clients))

	h.logger.Debug().
		Int64("userID", client.userID).
		Str("addr", client.conn.RemoteAddr().String()).
		Msg("Client unregistered")
}

func (h *Hub) broadcastEvent(event Event) {
	if event.Version != 0 {
		if event.Version <= h.latest[event.SubjectID] {
			h.logger.Debug().
				Int64("subjectID", event.SubjectID).
				Uint64("version", event.Version).
				Msg("Stale occupancy event skipped")
			return
		}
		h.latest[event.SubjectID] = event.Version
	}

	if len(h.clients) == 0 {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Int64("subjectID", event.SubjectID).Msg("Failed to marshal event for broadcast")
		return
	}

	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			// Slow consumer
			h.removeClient(client)
		}
	}

	h.logger.Debug().
		Int64("subjectID", event.SubjectID).
		Int("clientCount", len(h.clients)).
		Msg("Occupancy event broadcasted")
}

// Register hands a client to the hub. It reports false once the hub stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) unregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish queues an event without blocking. It reports false when the queue
// is full and the event was dropped.
func (h *Hub) Publish(event Event) bool {
	select {
	case h.broadcast <- event:
		return true
	default:
		h.logger.Warn().Int64("subjectID", event.SubjectID).Msg("Occupancy event dropped, hub queue full")
		return false
	}
}

// PublishOccupancy queues an occupancy event for a subject. Events that
// reach the hub after a higher version of the same subject are skipped.
func (h *Hub) PublishOccupancy(subjectID int64, occupancy, capacity int, version uint64) {
	event := NewOccupancyEvent(subjectID, occupancy, capacity)
	event.Version = version
	h.Publish(event)
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

func (h *Hub) setCount(n int) {
	h.mu.Lock()
	h.count = n
	h.mu.Unlock()
}
