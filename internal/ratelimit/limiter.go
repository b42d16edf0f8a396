package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Limiter enforces a fixed cooldown between accepted posts per client
// identity. State is process-local and resets on restart.
type Limiter struct {
	mu       sync.Mutex
	lastSeen map[string]time.Time

	cooldown   time.Duration
	pruneEvery time.Duration
	entryTTL   time.Duration
	logger     zerolog.Logger
}

// New constructs a limiter with the given cooldown. Entries idle for
// entryTTL are evicted by the loop started via Start.
func New(cooldown, pruneEvery, entryTTL time.Duration, logger zerolog.Logger) *Limiter {
	if cooldown <= 0 {
		cooldown = 40 * time.Second
	}
	if pruneEvery <= 0 {
		pruneEvery = 15 * time.Minute
	}
	if entryTTL <= 0 {
		entryTTL = time.Hour
	}

	return &Limiter{
		lastSeen:   make(map[string]time.Time),
		cooldown:   cooldown,
		pruneEvery: pruneEvery,
		entryTTL:   entryTTL,
		logger:     logger.With().Str("component", "rate_limiter").Logger(),
	}
}

// TryAdmit records now as the client's last accepted post and returns true
// when the client has no record or its cooldown has elapsed. The check and
// the update are one atomic step per call.
func (l *Limiter) TryAdmit(clientID string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	last, exists := l.lastSeen[clientID]
	if exists && now.Sub(last) < l.cooldown {
		return false
	}

	l.lastSeen[clientID] = now
	return true
}

// RetryAfter reports how long the client must still wait before its next
// post is admitted. Zero means the client may post now.
func (l *Limiter) RetryAfter(clientID string, now time.Time) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	last, exists := l.lastSeen[clientID]
	if !exists {
		return 0
	}

	remaining := l.cooldown - now.Sub(last)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Start runs the eviction loop until ctx is cancelled.
func (l *Limiter) Start(ctx context.Context) {
	go l.pruneLoop(ctx)
}

func (l *Limiter) pruneLoop(ctx context.Context) {
	ticker := time.NewTicker(l.pruneEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.prune(time.Now())
		case <-ctx.Done():
			return
		}
	}
}

func (l *Limiter) prune(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for clientID, last := range l.lastSeen {
		if now.Sub(last) > l.entryTTL {
			delete(l.lastSeen, clientID)
			removed++
		}
	}

	if removed > 0 {
		l.logger.Debug().Int("removed", removed).Msg("pruned stale rate limit entries")
	}
}
