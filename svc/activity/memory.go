package activity

import (
	"context"
	"slices"
	"sync"

	"github.com/orbsaiuk/DatesHub-sub003/pkg/audit"
)

// DefaultMemoryCapacity bounds the in-memory log.
const DefaultMemoryCapacity = 10_000

// MemoryStorage keeps the most recent events in process. The oldest events
// are dropped once capacity is reached.
type MemoryStorage struct {
	mu       sync.RWMutex
	events   []audit.Event
	capacity int
}

func NewMemoryStorage(capacity int) *MemoryStorage {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryStorage{capacity: capacity}
}

func (s *MemoryStorage) Store(_ context.Context, events ...audit.Event) error {
	for _, e := range events {
		if err := validate(e); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
	if over := len(s.events) - s.capacity; over > 0 {
		s.events = slices.Delete(s.events, 0, over)
	}
	return nil
}

func (s *MemoryStorage) Query(_ context.Context, c audit.Criteria) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []audit.Event
	for i := len(s.events) - 1; i >= 0; i-- {
		if matches(s.events[i], c) {
			out = append(out, s.events[i])
		}
	}
	// Stable keeps insertion order, newest first, for equal timestamps.
	slices.SortStableFunc(out, func(a, b audit.Event) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	if c.Offset > 0 {
		if c.Offset >= len(out) {
			return nil, nil
		}
		out = out[c.Offset:]
	}
	if c.Limit > 0 && len(out) > c.Limit {
		out = out[:c.Limit]
	}
	return out, nil
}

func (s *MemoryStorage) Count(_ context.Context, c audit.Criteria) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, e := range s.events {
		if matches(e, c) {
			n++
		}
	}
	return n, nil
}

func matches(e audit.Event, c audit.Criteria) bool {
	switch {
	case c.TenantID != "" && e.TenantID != c.TenantID,
		c.UserID != "" && e.UserID != c.UserID,
		c.Action != "" && e.Action != c.Action,
		!c.StartTime.IsZero() && e.CreatedAt.Before(c.StartTime),
		!c.EndTime.IsZero() && !e.CreatedAt.Before(c.EndTime):
		return false
	}
	return true
}
