package async_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbsaiuk/DatesHub-sub003/pkg/async"
)

func TestGoAwait(t *testing.T) {
	t.Parallel()

	f := async.Go(context.Background(), 21, func(_ context.Context, v int) (int, error) {
		return v * 2, nil
	})
	got, err := f.Await()
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestGoCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	_, err := async.Go(ctx, 0, func(context.Context, int) (int, error) {
		called = true
		return 0, nil
	}).Await()
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestAwaitWithTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	defer close(release)
	f := async.Go(context.Background(), 0, func(context.Context, int) (int, error) {
		<-release
		return 1, nil
	})

	_, err := f.AwaitWithTimeout(10 * time.Millisecond)
	assert.ErrorIs(t, err, async.ErrTimeout)
}

func TestWaitAllKeepsOrderAndFirstError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	ctx := context.Background()
	futures := []*async.Future[string]{
		async.Go(ctx, "a", func(_ context.Context, s string) (string, error) { return s, nil }),
		async.Go(ctx, "b", func(_ context.Context, s string) (string, error) { return "", boom }),
		async.Go(ctx, "c", func(_ context.Context, s string) (string, error) { return s, nil }),
	}

	results, err := async.WaitAll(futures...)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a", "", "c"}, results)
}

func TestPoolRunsTasksAndDrains(t *testing.T) {
	t.Parallel()

	p := async.NewPool(2, 10)
	var n atomic.Int32
	for range 5 {
		require.NoError(t, p.Submit(context.Background(), "count", func(context.Context) error {
			n.Add(1)
			return nil
		}))
	}

	require.NoError(t, p.Shutdown(context.Background()))
	assert.Equal(t, int32(5), n.Load())
	assert.ErrorIs(t, p.Submit(context.Background(), "late", func(context.Context) error { return nil }), async.ErrPoolClosed)
}

func TestPoolDetachesCancellation(t *testing.T) {
	t.Parallel()

	p := async.NewPool(1, 1)
	ctx, cancel := context.WithCancel(context.Background())

	result := make(chan error, 1)
	require.NoError(t, p.Submit(ctx, "detached", func(ctx context.Context) error {
		result <- ctx.Err()
		return nil
	}))
	cancel()

	require.NoError(t, p.Shutdown(context.Background()))
	assert.NoError(t, <-result)
}

func TestPoolSurvivesPanics(t *testing.T) {
	t.Parallel()

	p := async.NewPool(1, 2)
	ran := make(chan struct{}, 1)
	require.NoError(t, p.Submit(context.Background(), "panics", func(context.Context) error { panic("bad") }))
	require.NoError(t, p.Submit(context.Background(), "after", func(context.Context) error {
		ran <- struct{}{}
		return nil
	}))

	require.NoError(t, p.Shutdown(context.Background()))
	assert.Len(t, ran, 1)
}
