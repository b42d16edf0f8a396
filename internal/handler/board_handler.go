package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/nanashi-dev/nanashi-board/internal/dto"
	"github.com/nanashi-dev/nanashi-board/internal/middleware"
	"github.com/nanashi-dev/nanashi-board/internal/repository"
	"github.com/nanashi-dev/nanashi-board/internal/service"
	"github.com/nanashi-dev/nanashi-board/internal/utils"
)

// BoardHandler wires thread and post REST endpoints.
type BoardHandler struct {
	service   service.BoardService
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewBoardHandler creates a board handler instance.
func NewBoardHandler(service service.BoardService, validator *validator.Validate, logger zerolog.Logger) *BoardHandler {
	return &BoardHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "board_handler").Logger(),
		now:       time.Now,
	}
}

// Register binds board routes under the provided router group.
func (h *BoardHandler) Register(router fiber.Router) {
	router.Get("/", h.listThreads)
	router.Post("/", h.createThread)
	router.Get("/:id/posts", h.listPosts)
	router.Post("/:id/posts", h.createPost)
}

func (h *BoardHandler) listThreads(c *fiber.Ctx) error {
	threads, err := h.service.ListThreads(h.requestContext(c))
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list threads")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list threads")
	}

	return utils.SendSuccess(c, "threads", threads)
}

func (h *BoardHandler) createThread(c *fiber.Ctx) error {
	var payload dto.ThreadCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	thread, err := h.service.CreateThread(h.requestContext(c), c.IP(), payload)
	if err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		h.logger.Error().Err(err).Msg("failed to create thread")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to create thread")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "thread created", thread)
}

func (h *BoardHandler) listPosts(c *fiber.Ctx) error {
	threadID, err := threadIDParam(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid thread id")
	}

	posts, err := h.service.ListPosts(h.requestContext(c), threadID)
	if err != nil {
		if errors.Is(err, repository.ErrThreadNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "thread not found")
		}
		h.logger.Error().Err(err).Uint("thread_id", threadID).Msg("failed to list posts")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list posts")
	}

	return utils.SendSuccess(c, "posts", posts)
}

func (h *BoardHandler) createPost(c *fiber.Ctx) error {
	threadID, err := threadIDParam(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid thread id")
	}

	var payload dto.PostCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	post, err := h.service.SubmitPost(h.requestContext(c), threadID, c.IP(), payload, h.now())
	if err != nil {
		return h.mapSubmitError(c, threadID, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "post created", post)
}

func (h *BoardHandler) mapSubmitError(c *fiber.Ctx, threadID uint, err error) error {
	var rateLimited *service.RateLimitedError
	var validationErrs validator.ValidationErrors

	switch {
	case errors.Is(err, service.ErrEmptyBody):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "post body must not be empty")
	case errors.As(err, &rateLimited):
		seconds := int(rateLimited.RetryAfter.Round(time.Second) / time.Second)
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(seconds))
		return utils.SendError(c, fiber.StatusTooManyRequests, fmt.Sprintf("rate limited, retry after %ds", seconds))
	case errors.Is(err, repository.ErrThreadNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "thread not found")
	case errors.As(err, &validationErrs):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Uint("thread_id", threadID).Msg("post submission failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to create post")
	}
}

func (h *BoardHandler) requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}

func threadIDParam(c *fiber.Ctx) (uint, error) {
	raw := c.Params("id")
	parsed, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || parsed == 0 {
		return 0, fmt.Errorf("invalid thread id %q", raw)
	}
	return uint(parsed), nil
}
