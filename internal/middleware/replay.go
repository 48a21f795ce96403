package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const replayPrefix = "signature:v1:"

// ReplayStore remembers signatures that already authorized a request.
type ReplayStore interface {
	// Claim records sig for ttl and reports false when it was already
	// recorded.
	Claim(ctx context.Context, sig string, ttl time.Duration) (bool, error)
}

// RedisReplayStore shares claimed signatures across instances.
type RedisReplayStore struct {
	cache *redis.Client
}

// NewRedisReplayStore returns a ReplayStore backed by cache.
func NewRedisReplayStore(cache *redis.Client) *RedisReplayStore {
	return &RedisReplayStore{cache: cache}
}

// Claim implements ReplayStore.
func (s *RedisReplayStore) Claim(ctx context.Context, sig string, ttl time.Duration) (bool, error) {
	return s.cache.SetNX(ctx, replayPrefix+sig, 1, ttl).Result()
}

// MemoryReplayStore keeps claimed signatures in process. Used when Redis is
// not configured; it only protects a single instance.
type MemoryReplayStore struct {
	mu   sync.Mutex
	now  func() time.Time
	seen map[string]time.Time
}

// NewMemoryReplayStore returns an empty in-process store. A nil now uses
// time.Now.
func NewMemoryReplayStore(now func() time.Time) *MemoryReplayStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryReplayStore{now: now, seen: make(map[string]time.Time)}
}

// Claim implements ReplayStore.
func (s *MemoryReplayStore) Claim(_ context.Context, sig string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, expires := range s.seen {
		if !now.Before(expires) {
			delete(s.seen, k)
		}
	}
	if _, ok := s.seen[sig]; ok {
		return false, nil
	}
	s.seen[sig] = now.Add(ttl)
	return true, nil
}
