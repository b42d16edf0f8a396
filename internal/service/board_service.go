package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/nanashi-dev/nanashi-board/internal/dto"
	"github.com/nanashi-dev/nanashi-board/internal/hub"
	"github.com/nanashi-dev/nanashi-board/internal/models"
	"github.com/nanashi-dev/nanashi-board/internal/observability"
	"github.com/nanashi-dev/nanashi-board/internal/ratelimit"
	"github.com/nanashi-dev/nanashi-board/internal/repository"
)

// ErrEmptyBody indicates the submitted post body is blank after trimming.
var ErrEmptyBody = errors.New("post body empty")

// RateLimitedError indicates the client must wait before posting again.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

// BoardService exposes thread and post use-cases, including the single
// authorized post-ingestion path.
type BoardService interface {
	CreateThread(ctx context.Context, clientID string, payload dto.ThreadCreateRequest) (dto.ThreadResponse, error)
	ListThreads(ctx context.Context) ([]dto.ThreadResponse, error)
	ListPosts(ctx context.Context, threadID uint) ([]dto.PostResponse, error)
	SubmitPost(ctx context.Context, threadID uint, clientID string, payload dto.PostCreateRequest, now time.Time) (dto.PostResponse, error)
}

type boardService struct {
	repo          repository.BoardRepository
	limiter       *ratelimit.Limiter
	rooms         *hub.Hub
	validator     *validator.Validate
	logger        zerolog.Logger
	tracer        trace.Tracer
	sanitizer     *bluemonday.Policy
	cache         *RoomCache
	anonymousName string

	// threadLocks serializes persist-then-broadcast per thread so sequence
	// numbers stay gapless and broadcast order matches commit order.
	lockMu      sync.Mutex
	threadLocks map[uint]*sync.Mutex
}

// NewBoardService constructs the board service.
func NewBoardService(repo repository.BoardRepository, limiter *ratelimit.Limiter, rooms *hub.Hub, cache *RoomCache, validate *validator.Validate, anonymousName string, logger zerolog.Logger) BoardService {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("br")

	if anonymousName == "" {
		anonymousName = "Anonymous"
	}

	return &boardService{
		repo:          repo,
		limiter:       limiter,
		rooms:         rooms,
		validator:     validate,
		logger:        logger.With().Str("component", "board_service").Logger(),
		tracer:        otel.Tracer("github.com/nanashi-dev/nanashi-board/internal/service/board"),
		sanitizer:     policy,
		cache:         cache,
		anonymousName: anonymousName,
		threadLocks:   make(map[uint]*sync.Mutex),
	}
}

func (s *boardService) CreateThread(ctx context.Context, clientID string, payload dto.ThreadCreateRequest) (dto.ThreadResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ThreadResponse{}, err
	}

	sanitizedTitle := strings.TrimSpace(s.sanitizer.Sanitize(payload.Title))
	if sanitizedTitle == "" {
		return dto.ThreadResponse{}, errors.New("thread title empty after sanitization")
	}

	thread := models.Thread{
		Title:    sanitizedTitle,
		Metadata: datatypes.JSONMap{"created_from": clientID},
	}

	if err := s.repo.CreateThread(ctx, &thread); err != nil {
		return dto.ThreadResponse{}, err
	}

	s.logger.Info().Uint("thread_id", thread.ID).Str("client_id", clientID).Msg("thread created")

	return dto.NewThreadResponse(thread, 0), nil
}

func (s *boardService) ListThreads(ctx context.Context) ([]dto.ThreadResponse, error) {
	threads, err := s.repo.ListThreads(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]dto.ThreadResponse, 0, len(threads))
	for _, entry := range threads {
		out = append(out, dto.NewThreadResponse(entry.Thread, entry.PostCount))
	}
	return out, nil
}

func (s *boardService) ListPosts(ctx context.Context, threadID uint) ([]dto.PostResponse, error) {
	posts, err := s.repo.ListPosts(ctx, threadID)
	if err != nil {
		return nil, err
	}
	return dto.NewPostResponseSlice(posts), nil
}

// SubmitPost runs the ingestion pipeline: validate, rate-check, normalize,
// persist, broadcast. It is the only code path that creates posts.
func (s *boardService) SubmitPost(ctx context.Context, threadID uint, clientID string, payload dto.PostCreateRequest, now time.Time) (dto.PostResponse, error) {
	body := strings.TrimSpace(s.sanitizer.Sanitize(payload.Body))
	if body == "" {
		observability.PostsRejected().WithLabelValues("empty_body").Inc()
		return dto.PostResponse{}, ErrEmptyBody
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.PostResponse{}, err
	}

	if !s.limiter.TryAdmit(clientID, now) {
		observability.PostsRejected().WithLabelValues("rate_limited").Inc()
		return dto.PostResponse{}, &RateLimitedError{RetryAfter: s.limiter.RetryAfter(clientID, now)}
	}

	authorName := strings.TrimSpace(s.sanitizer.Sanitize(payload.AuthorName))
	if authorName == "" {
		authorName = s.anonymousName
	}

	attrs := []attribute.KeyValue{
		attribute.Int("board.thread_id", int(threadID)),
		attribute.String("board.client_id", clientID),
	}

	spanCtx, span := s.tracer.Start(ctx, "board.submit_post", trace.WithAttributes(attrs...))
	defer span.End()

	post := models.Post{
		ThreadID:   threadID,
		AuthorName: authorName,
		Body:       body,
	}

	lock := s.threadLock(threadID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.repo.CreatePost(spanCtx, &post); err != nil {
		span.RecordError(err)
		if errors.Is(err, repository.ErrThreadNotFound) {
			observability.PostsRejected().WithLabelValues("thread_not_found").Inc()
		} else {
			observability.PostsRejected().WithLabelValues("storage").Inc()
		}
		return dto.PostResponse{}, err
	}

	response := dto.NewPostResponse(post)

	// Still under the thread lock so subscribers observe posts in commit
	// order. Delivery itself is fire-and-forget.
	s.rooms.Publish(threadID, dto.RoomEvent{
		Type:     dto.RoomEventPostCreated,
		ThreadID: threadID,
		Post:     &response,
	})

	s.cache.Store(spanCtx, response)

	observability.PostsCreated().Inc()
	s.logger.Info().Uint("thread_id", threadID).Uint("seq", post.Seq).Str("client_id", clientID).Msg("post created")

	return response, nil
}

func (s *boardService) threadLock(threadID uint) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()

	lock, ok := s.threadLocks[threadID]
	if !ok {
		lock = &sync.Mutex{}
		s.threadLocks[threadID] = lock
	}
	return lock
}
