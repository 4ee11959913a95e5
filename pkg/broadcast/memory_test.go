package broadcast_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbsaiuk/DatesHub-sub003/pkg/broadcast"
)

func receive[T any](t *testing.T, sub broadcast.Subscriber[T]) T {
	t.Helper()
	select {
	case msg, ok := <-sub.Receive():
		require.True(t, ok, "channel closed")
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
	var zero T
	return zero
}

func TestPublishReachesTopicSubscribersOnly(t *testing.T) {
	t.Parallel()
	b := broadcast.NewMemory[string](4)
	defer b.Close()
	ctx := context.Background()

	a1 := b.Subscribe(ctx, "conv-a")
	a2 := b.Subscribe(ctx, "conv-a")
	other := b.Subscribe(ctx, "conv-b")

	require.NoError(t, b.Publish(ctx, "conv-a", "hello"))

	assert.Equal(t, "hello", receive(t, a1))
	assert.Equal(t, "hello", receive(t, a2))
	assert.Empty(t, other.Receive())
}

func TestSlowSubscriberDropsMessages(t *testing.T) {
	t.Parallel()
	b := broadcast.NewMemory[int](1)
	defer b.Close()
	ctx := context.Background()

	sub := b.Subscribe(ctx, "t")
	require.NoError(t, b.Publish(ctx, "t", 1))
	require.NoError(t, b.Publish(ctx, "t", 2))

	assert.Equal(t, 1, receive(t, sub))
	assert.Empty(t, sub.Receive())
}

func TestContextCancelEndsSubscription(t *testing.T) {
	t.Parallel()
	b := broadcast.NewMemory[int](1)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub := b.Subscribe(ctx, "t")
	assert.Equal(t, 1, b.Subscribers("t"))

	cancel()
	assert.Eventually(t, func() bool { return b.Subscribers("t") == 0 }, time.Second, 5*time.Millisecond)
	_, ok := <-sub.Receive()
	assert.False(t, ok)
}

func TestCloseIsIdempotent(t *testing.T) {
	t.Parallel()
	b := broadcast.NewMemory[int](1)
	sub := b.Subscribe(context.Background(), "t")

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())
	assert.Equal(t, 0, b.Subscribers("t"))

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	late := b.Subscribe(context.Background(), "t")
	_, ok := <-late.Receive()
	assert.False(t, ok)
}

func TestCloseDuringSubscribeReleasesEverySubscriber(t *testing.T) {
	t.Parallel()
	b := broadcast.NewMemory[int](1)

	const n = 50
	subs := make([]broadcast.Subscriber[int], n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			subs[i] = b.Subscribe(context.Background(), "t")
		}()
	}
	require.NoError(t, b.Close())
	wg.Wait()

	for _, sub := range subs {
		require.NoError(t, sub.Close())
		_, ok := <-sub.Receive()
		assert.False(t, ok)
	}
	assert.Equal(t, 0, b.Subscribers("t"))
}
