package broadcast

import (
	"context"
	"sync"
)

// Subscriber receives messages published to one topic.
type Subscriber[T any] interface {
	// Receive returns the channel messages arrive on. It is closed when the
	// subscription ends.
	Receive() <-chan T
	// Close ends the subscription. It is idempotent.
	Close() error
}

// Broadcaster publishes messages to every subscriber of a topic.
type Broadcaster[T any] interface {
	// Subscribe registers a subscriber for topic until ctx is done or the
	// subscriber is closed.
	Subscribe(ctx context.Context, topic string) Subscriber[T]
	Publish(ctx context.Context, topic string, msg T) error
	Close() error
}

type subscriber[T any] struct {
	ch     chan T
	mu     sync.RWMutex
	closed bool
	done   func()
}

func newSubscriber[T any](bufferSize int) *subscriber[T] {
	return &subscriber[T]{ch: make(chan T, bufferSize)}
}

func (s *subscriber[T]) Receive() <-chan T {
	return s.ch
}

func (s *subscriber[T]) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.ch)
	done := s.done
	s.mu.Unlock()

	if done != nil {
		done()
	}
	return nil
}

// send reports false when the subscriber is closed or its buffer is full.
func (s *subscriber[T]) send(msg T) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false
	}
	select {
	case s.ch <- msg:
		return true
	default:
		return false
	}
}
