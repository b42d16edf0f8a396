package handler

import (
	"context"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nanashi-dev/nanashi-board/internal/middleware"
	"github.com/nanashi-dev/nanashi-board/internal/service"
)

// RoomHandler wires the websocket upgrade for live thread rooms.
type RoomHandler struct {
	service service.RoomService
	logger  zerolog.Logger
}

// NewRoomHandler creates a room handler instance.
func NewRoomHandler(service service.RoomService, logger zerolog.Logger) *RoomHandler {
	return &RoomHandler{
		service: service,
		logger:  logger.With().Str("component", "room_handler").Logger(),
	}
}

// Register binds room routes under the provided router group.
func (h *RoomHandler) Register(router fiber.Router) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			ctx := c.UserContext()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx = middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
			c.Locals("request_ctx", ctx)
			c.Locals("client_ip", c.IP())
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	router.Get("/ws", websocket.New(h.handleConnection))
}

func (h *RoomHandler) handleConnection(conn *websocket.Conn) {
	threadID, err := roomThreadID(conn)
	if err != nil {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(fiber.StatusBadRequest, "thread_id required"))
		_ = conn.Close()
		return
	}

	clientID := strings.TrimSpace(localString(conn, "client_ip"))
	if clientID == "" {
		clientID = conn.RemoteAddr().String()
	}

	baseCtx, _ := conn.Locals("request_ctx").(context.Context)

	opts := service.RoomConnectionOptions{
		ConnID:   uuid.NewString(),
		ClientID: clientID,
		ThreadID: threadID,
		Context:  baseCtx,
	}

	h.logger.Info().Uint("thread_id", threadID).Str("conn_id", opts.ConnID).Msg("room websocket connected")
	h.service.ServeConnection(conn, opts)
	h.logger.Info().Uint("thread_id", threadID).Str("conn_id", opts.ConnID).Msg("room websocket disconnected")
}

func roomThreadID(conn *websocket.Conn) (uint, error) {
	raw := strings.TrimSpace(conn.Query("thread_id"))
	parsed, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || parsed == 0 {
		return 0, strconv.ErrSyntax
	}
	return uint(parsed), nil
}

func localString(conn *websocket.Conn, key string) string {
	if value, ok := conn.Locals(key).(string); ok {
		return value
	}
	return ""
}
