// Package namecache maps resource ids to display names for breadcrumbs.
//
// A Cache is an explicit object with a bounded lifetime per entry. Pages get
// it through the request context instead of sharing mutable globals; see
// Middleware and FromContext.
package namecache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/orbsaiuk/DatesHub-sub003/pkg/cache"
	"github.com/orbsaiuk/DatesHub-sub003/pkg/logger"
)

const (
	DefaultTTL      = 10 * time.Minute
	DefaultCapacity = 1024
	defaultPrefix   = "namecache:"
)

// Cache stores display names by key. Failures are absorbed: a broken cache
// behaves like an empty one.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, name string)
	Delete(ctx context.Context, key string)
}

// Memory is an in-process LRU with TTL.
type Memory struct {
	lru *cache.LRU[string, string]
}

// NewMemory keeps at most capacity names, each for ttl.
func NewMemory(capacity int, ttl time.Duration, now func() time.Time) *Memory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{lru: cache.NewLRU(capacity,
		cache.WithTTL[string, string](ttl),
		cache.WithClock[string, string](now),
	)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool) {
	return m.lru.Get(key)
}

func (m *Memory) Set(_ context.Context, key, name string) {
	m.lru.Put(key, name)
}

func (m *Memory) Delete(_ context.Context, key string) {
	m.lru.Remove(key)
}

// redisClient is the subset of redis.UniversalClient the cache uses.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Redis shares names across instances.
type Redis struct {
	client redisClient
	ttl    time.Duration
	prefix string
	log    *slog.Logger
}

func NewRedis(client redisClient, ttl time.Duration, log *slog.Logger) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Redis{
		client: client,
		ttl:    ttl,
		prefix: defaultPrefix,
		log:    log.With(logger.Component("namecache")),
	}
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool) {
	name, err := r.client.Get(ctx, r.prefix+key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.WarnContext(ctx, "name cache read failed", slog.String("key", key), logger.Error(err))
		}
		return "", false
	}
	return name, true
}

func (r *Redis) Set(ctx context.Context, key, name string) {
	if err := r.client.Set(ctx, r.prefix+key, name, r.ttl).Err(); err != nil {
		r.log.WarnContext(ctx, "name cache write failed", slog.String("key", key), logger.Error(err))
	}
}

func (r *Redis) Delete(ctx context.Context, key string) {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		r.log.WarnContext(ctx, "name cache delete failed", slog.String("key", key), logger.Error(err))
	}
}
