package service

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/nanashi-dev/nanashi-board/internal/dto"
	"github.com/nanashi-dev/nanashi-board/internal/hub"
	"github.com/nanashi-dev/nanashi-board/internal/observability"
	"github.com/nanashi-dev/nanashi-board/internal/presence"
	"github.com/nanashi-dev/nanashi-board/internal/repository"
)

const roomKeepaliveInterval = 30 * time.Second

// RoomConnectionOptions wraps metadata extracted during the HTTP upgrade.
type RoomConnectionOptions struct {
	ConnID   string
	ClientID string
	ThreadID uint
	Context  context.Context
}

// RoomService manages websocket room connections: presence, occupancy
// events, inbound post submissions and outbound event delivery.
type RoomService interface {
	ServeConnection(conn *websocket.Conn, opts RoomConnectionOptions)
}

type roomService struct {
	board      BoardService
	rooms      *hub.Hub
	presence   *presence.Registry
	cache      *RoomCache
	bufferSize int
	logger     zerolog.Logger
	now        func() time.Time
}

// NewRoomService constructs a room service.
func NewRoomService(board BoardService, rooms *hub.Hub, registry *presence.Registry, cache *RoomCache, bufferSize int, logger zerolog.Logger) RoomService {
	return &roomService{
		board:      board,
		rooms:      rooms,
		presence:   registry,
		cache:      cache,
		bufferSize: bufferSize,
		logger:     logger.With().Str("component", "room_service").Logger(),
		now:        time.Now,
	}
}

// ServeConnection blocks until the connection closes. Presence and the hub
// subscription are torn down on every exit path, including abrupt
// disconnects, so occupancy counts never include dead connections.
func (s *roomService) ServeConnection(conn *websocket.Conn, opts RoomConnectionOptions) {
	baseCtx := opts.Context
	if baseCtx == nil {
		baseCtx = context.Background()
	}

	client := hub.NewClient(opts.ConnID, opts.ThreadID, s.bufferSize)
	s.rooms.Subscribe(client)
	count := s.presence.Join(opts.ThreadID, opts.ConnID)
	observability.RoomConnections().Inc()

	s.rooms.Publish(opts.ThreadID, dto.RoomEvent{
		Type:     dto.RoomEventOccupancyChanged,
		ThreadID: opts.ThreadID,
		Count:    count,
	})

	if last := s.cache.Last(baseCtx, opts.ThreadID); last != nil {
		select {
		case client.Send <- dto.RoomEvent{Type: dto.RoomEventPostCreated, ThreadID: opts.ThreadID, Post: last}:
		default:
			s.logger.Debug().Uint("thread_id", opts.ThreadID).Msg("dropping cached post replay for slow consumer")
		}
	}

	done := make(chan struct{})
	go s.writer(conn, client, done)

	s.reader(baseCtx, conn, client, opts)

	s.rooms.Unsubscribe(client)
	count = s.presence.Leave(opts.ThreadID, opts.ConnID)
	observability.RoomConnections().Dec()

	s.rooms.Publish(opts.ThreadID, dto.RoomEvent{
		Type:     dto.RoomEventOccupancyChanged,
		ThreadID: opts.ThreadID,
		Count:    count,
	})

	<-done
	_ = conn.Close()
}

func (s *roomService) reader(ctx context.Context, conn *websocket.Conn, client *hub.Client, opts RoomConnectionOptions) {
	for {
		var payload dto.RoomSendRequest
		if err := conn.ReadJSON(&payload); err != nil {
			s.logger.Debug().Err(err).Str("conn_id", opts.ConnID).Msg("room read loop ended")
			return
		}

		request := dto.PostCreateRequest{AuthorName: payload.AuthorName, Body: payload.Body}
		if _, err := s.board.SubmitPost(ctx, opts.ThreadID, opts.ClientID, request, s.now()); err != nil {
			s.sendError(client, opts.ThreadID, err)
		}
	}
}

// sendError reports a failed submission back to the sender only. The event
// goes through the client's own channel so it cannot reorder against room
// broadcasts already queued for this connection.
func (s *roomService) sendError(client *hub.Client, threadID uint, err error) {
	event := dto.RoomEvent{
		Type:     dto.RoomEventError,
		ThreadID: threadID,
	}

	var rateLimited *RateLimitedError
	switch {
	case errors.Is(err, ErrEmptyBody):
		event.Reason = "empty_body"
	case errors.As(err, &rateLimited):
		event.Reason = "rate_limited"
		event.RetryAfterSeconds = int(rateLimited.RetryAfter.Round(time.Second) / time.Second)
	case errors.Is(err, repository.ErrThreadNotFound):
		event.Reason = "thread_not_found"
	default:
		event.Reason = "internal"
		s.logger.Error().Err(err).Uint("thread_id", threadID).Msg("room post submission failed")
	}

	select {
	case client.Send <- event:
	default:
		s.logger.Warn().Str("conn_id", client.ID).Msg("sender queue full, dropping error event")
	}
}

func (s *roomService) writer(conn *websocket.Conn, client *hub.Client, done chan<- struct{}) {
	defer close(done)

	keepalive := time.NewTicker(roomKeepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-client.Send:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				s.logger.Debug().Err(err).Str("conn_id", client.ID).Msg("room write loop terminated")
				return
			}
		case <-keepalive.C:
			if err := conn.WriteMessage(websocket.PingMessage, []byte("keepalive")); err != nil {
				s.logger.Debug().Err(err).Str("conn_id", client.ID).Msg("room ping failed")
				return
			}
		}
	}
}
