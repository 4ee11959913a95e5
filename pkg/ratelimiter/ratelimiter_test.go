package ratelimiter_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbsaiuk/DatesHub-sub003/pkg/ratelimiter"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newBucket(t *testing.T, c *clock) *ratelimiter.Bucket {
	t.Helper()
	b, err := ratelimiter.NewBucket(
		ratelimiter.NewMemoryStore(ratelimiter.WithClock(c.now)),
		ratelimiter.Config{Capacity: 2, RefillRate: 1, RefillInterval: 10 * time.Second},
	)
	require.NoError(t, err)
	return b
}

func TestNewBucketValidatesConfig(t *testing.T) {
	t.Parallel()

	for _, cfg := range []ratelimiter.Config{
		{Capacity: 0, RefillRate: 1, RefillInterval: time.Second},
		{Capacity: 1, RefillRate: 0, RefillInterval: time.Second},
		{Capacity: 1, RefillRate: 1},
	} {
		_, err := ratelimiter.NewBucket(ratelimiter.NewMemoryStore(), cfg)
		assert.ErrorIs(t, err, ratelimiter.ErrInvalidConfig)
	}
}

func TestBucketAllow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := &clock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	b := newBucket(t, c)

	res, err := b.Allow(ctx, "user_1")
	require.NoError(t, err)
	assert.True(t, res.Allowed())
	assert.Equal(t, 1, res.Remaining)
	assert.Equal(t, 2, res.Limit)

	res, _ = b.Allow(ctx, "user_1")
	assert.True(t, res.Allowed())

	res, _ = b.Allow(ctx, "user_1")
	assert.False(t, res.Allowed())
	assert.Equal(t, c.now().Add(10*time.Second), res.ResetAt)

	// Keys are independent.
	res, _ = b.Allow(ctx, "user_2")
	assert.True(t, res.Allowed())

	c.advance(10 * time.Second)
	res, _ = b.Allow(ctx, "user_1")
	assert.True(t, res.Allowed())
	res, _ = b.Allow(ctx, "user_1")
	assert.False(t, res.Allowed())

	// Refill never exceeds capacity.
	c.advance(time.Hour)
	res, _ = b.Allow(ctx, "user_1")
	assert.Equal(t, 1, res.Remaining)
}

func TestBucketConcurrent(t *testing.T) {
	t.Parallel()
	c := &clock{t: time.Now()}
	b := newBucket(t, c)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := b.Allow(context.Background(), "shared")
			if err == nil && res.Allowed() {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 2, allowed)
}

func TestMiddleware(t *testing.T) {
	t.Parallel()
	c := &clock{t: time.Now()}
	b := newBucket(t, c)

	var denied int
	h := ratelimiter.Middleware(b,
		func(r *http.Request) string { return r.Header.Get("X-Caller") },
		func(w http.ResponseWriter, _ *http.Request, res ratelimiter.Result) {
			denied++
			w.WriteHeader(http.StatusTooManyRequests)
		},
	)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func(caller string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		if caller != "" {
			r.Header.Set("X-Caller", caller)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec
	}

	rec := do("a")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))

	do("a")
	rec = do("a")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, 1, denied)

	// No key, no limit.
	for range 5 {
		assert.Equal(t, http.StatusNoContent, do("").Code)
	}
}

func TestMiddlewareDefaultDenied(t *testing.T) {
	t.Parallel()
	b, err := ratelimiter.NewBucket(ratelimiter.NewMemoryStore(),
		ratelimiter.Config{Capacity: 1, RefillRate: 1, RefillInterval: time.Minute})
	require.NoError(t, err)

	h := ratelimiter.Middleware(b, func(*http.Request) string { return "k" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
