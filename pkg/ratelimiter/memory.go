package ratelimiter

import (
	"context"
	"sync"
	"time"
)

// idleAfter is how long an untouched bucket is kept.
const idleAfter = time.Hour

type bucket struct {
	tokens     int
	refilledAt time.Time
	touchedAt  time.Time
}

// MemoryStore keeps buckets in process. Idle buckets are swept on write.
type MemoryStore struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	now       func() time.Time
	lastSweep time.Time
}

type MemoryOption func(*MemoryStore)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Take(_ context.Context, key string, n int, cfg Config) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)

	b, ok := s.buckets[key]
	if !ok {
		b = &bucket{tokens: cfg.Capacity, refilledAt: now}
		s.buckets[key] = b
	}

	// Whole intervals only; the cap keeps the multiplication bounded.
	intervals := min(int64(now.Sub(b.refilledAt)/cfg.RefillInterval), int64(cfg.Capacity/cfg.RefillRate+1))
	if intervals > 0 {
		b.tokens = min(b.tokens+int(intervals)*cfg.RefillRate, cfg.Capacity)
		b.refilledAt = b.refilledAt.Add(time.Duration(intervals) * cfg.RefillInterval)
		if b.tokens == cfg.Capacity {
			b.refilledAt = now
		}
	}

	res := Result{Limit: cfg.Capacity, Remaining: b.tokens - n, ResetAt: b.refilledAt.Add(cfg.RefillInterval)}
	if res.Allowed() {
		b.tokens -= n
	}
	b.touchedAt = now
	return res, nil
}

func (s *MemoryStore) sweep(now time.Time) {
	if now.Sub(s.lastSweep) < idleAfter {
		return
	}
	s.lastSweep = now
	for k, b := range s.buckets {
		if now.Sub(b.touchedAt) > idleAfter {
			delete(s.buckets, k)
		}
	}
}
