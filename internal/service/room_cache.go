package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nanashi-dev/nanashi-board/internal/dto"
)

// RoomCache keeps the most recent post per thread in Redis so a freshly
// joined viewer sees the latest activity immediately. A nil client disables
// the cache; posts are never lost over it, only the replay convenience.
type RoomCache struct {
	redis  *redis.Client
	prefix string
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRoomCache constructs a cache over the provided Redis client.
func NewRoomCache(redisClient *redis.Client, prefix string, ttl time.Duration, logger zerolog.Logger) *RoomCache {
	if prefix == "" {
		prefix = "nanashi:room:last"
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}

	return &RoomCache{
		redis:  redisClient,
		prefix: prefix,
		ttl:    ttl,
		logger: logger.With().Str("component", "room_cache").Logger(),
	}
}

// Store records the post as its thread's latest.
func (c *RoomCache) Store(ctx context.Context, post dto.PostResponse) {
	if c == nil || c.redis == nil {
		return
	}

	payload, err := json.Marshal(post)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to marshal post for room cache")
		return
	}

	key := fmt.Sprintf("%s:%d", c.prefix, post.ThreadID)
	if err := c.redis.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("failed to cache last post")
	}
}

// Last returns the thread's most recent cached post, or nil when absent.
func (c *RoomCache) Last(ctx context.Context, threadID uint) *dto.PostResponse {
	if c == nil || c.redis == nil {
		return nil
	}

	key := fmt.Sprintf("%s:%d", c.prefix, threadID)
	result, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return nil
	}

	var post dto.PostResponse
	if err := json.Unmarshal([]byte(result), &post); err != nil {
		c.logger.Warn().Err(err).Msg("failed to unmarshal cached post")
		return nil
	}

	return &post
}
