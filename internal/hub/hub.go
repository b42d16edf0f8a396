package hub

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/nanashi-dev/nanashi-board/internal/dto"
	"github.com/nanashi-dev/nanashi-board/internal/observability"
)

// Client is a single subscriber to a room's event stream. The transport
// layer drains Send; a full buffer means the client is too slow and the
// event is dropped rather than blocking publish.
type Client struct {
	ID       string
	ThreadID uint
	Send     chan dto.RoomEvent
}

// NewClient constructs a subscriber with a buffered send channel.
func NewClient(id string, threadID uint, buffer int) *Client {
	if buffer <= 0 {
		buffer = 32
	}
	return &Client{
		ID:       id,
		ThreadID: threadID,
		Send:     make(chan dto.RoomEvent, buffer),
	}
}

// Hub fans room events out to every subscribed client. Events published
// sequentially for one thread reach each still-connected subscriber in
// publish order; nothing is guaranteed across threads.
type Hub struct {
	mu    sync.RWMutex
	rooms map[uint]map[*Client]struct{}
	log   zerolog.Logger
}

// New constructs an empty hub.
func New(logger zerolog.Logger) *Hub {
	return &Hub{
		rooms: make(map[uint]map[*Client]struct{}),
		log:   logger.With().Str("component", "room_hub").Logger(),
	}
}

// Subscribe registers the client for its thread's event stream.
func (h *Hub) Subscribe(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.rooms[client.ThreadID]; !exists {
		h.rooms[client.ThreadID] = make(map[*Client]struct{})
	}
	h.rooms[client.ThreadID][client] = struct{}{}
	h.log.Debug().Uint("thread_id", client.ThreadID).Str("conn_id", client.ID).Msg("room client subscribed")
}

// Unsubscribe removes the client; its Send channel is closed so the
// transport writer can terminate.
func (h *Hub) Unsubscribe(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.rooms[client.ThreadID]
	if !ok {
		return
	}
	if _, subscribed := clients[client]; !subscribed {
		return
	}

	delete(clients, client)
	if len(clients) == 0 {
		delete(h.rooms, client.ThreadID)
	}
	close(client.Send)
	h.log.Debug().Uint("thread_id", client.ThreadID).Str("conn_id", client.ID).Msg("room client unsubscribed")
}

// Publish delivers the event to every client subscribed to the thread,
// best-effort. Slow clients lose the event; publish never blocks and never
// reports per-subscriber failure.
func (h *Hub) Publish(threadID uint, event dto.RoomEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[threadID] {
		select {
		case client.Send <- event:
		default:
			observability.RoomEventsDropped().Inc()
			h.log.Warn().Uint("thread_id", threadID).Str("conn_id", client.ID).Str("event", event.Type).Msg("dropping room event for slow client")
		}
	}
}
