package broadcast

import (
	"context"
	"sync"
)

// Memory is a process-local Broadcaster.
type Memory[T any] struct {
	mu         sync.RWMutex
	topics     map[string]map[*subscriber[T]]struct{}
	bufferSize int
	closed     bool
}

var _ Broadcaster[int] = (*Memory[int])(nil)

// NewMemory creates a broadcaster giving each subscriber a buffer of
// bufferSize messages (at least 1).
func NewMemory[T any](bufferSize int) *Memory[T] {
	return &Memory[T]{
		topics:     make(map[string]map[*subscriber[T]]struct{}),
		bufferSize: max(bufferSize, 1),
	}
}

func (b *Memory[T]) Subscribe(ctx context.Context, topic string) Subscriber[T] {
	sub := newSubscriber[T](b.bufferSize)
	// done is set before the subscriber is visible to Close.
	sub.done = func() { b.remove(topic, sub) }

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		_ = sub.Close()
		return sub
	}
	subs, ok := b.topics[topic]
	if !ok {
		subs = make(map[*subscriber[T]]struct{})
		b.topics[topic] = subs
	}
	subs[sub] = struct{}{}
	b.mu.Unlock()

	context.AfterFunc(ctx, func() { _ = sub.Close() })
	return sub
}

// Publish delivers msg to the topic's subscribers. Slow subscribers miss
// the message; closed ones are dropped.
func (b *Memory[T]) Publish(_ context.Context, topic string, msg T) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil
	}
	for sub := range b.topics[topic] {
		sub.send(msg)
	}
	return nil
}

// Subscribers returns the number of live subscribers on topic.
func (b *Memory[T]) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}

func (b *Memory[T]) remove(topic string, sub *subscriber[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.topics[topic]
	delete(subs, sub)
	if len(subs) == 0 {
		delete(b.topics, topic)
	}
}

// Close closes every subscriber. Later subscriptions are closed at once.
func (b *Memory[T]) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	var all []*subscriber[T]
	for _, subs := range b.topics {
		for sub := range subs {
			all = append(all, sub)
		}
	}
	b.mu.Unlock()

	for _, sub := range all {
		_ = sub.Close()
	}
	return nil
}
