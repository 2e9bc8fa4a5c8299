// Package ratelimit throttles analyzer requests per client. The memory
// limiter keeps token buckets in process; the Redis limiter counts
// requests in fixed windows shared by every replica.
package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/nlpstudio/textlab/pkg/resilience"
)

// Limiter decides whether the client identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// MemoryLimiter implements per-client token buckets. Buckets idle for longer
// than the idle TTL are evicted.
type MemoryLimiter struct {
	buckets *gocache.Cache
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
}

// NewMemoryLimiter allows requestsPerMinute per client with the given burst.
func NewMemoryLimiter(requestsPerMinute, burst int) *MemoryLimiter {
	if burst <= 0 {
		burst = max(1, requestsPerMinute/6)
	}
	idle := 10 * time.Minute
	return &MemoryLimiter{
		buckets: gocache.New(idle, time.Minute),
		limit:   rate.Limit(float64(requestsPerMinute) / 60),
		burst:   burst,
		idleTTL: idle,
	}
}

// Allow consumes one token from the client's bucket.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	return l.bucket(key).Allow(), nil
}

func (l *MemoryLimiter) bucket(key string) *rate.Limiter {
	if v, ok := l.buckets.Get(key); ok {
		lim := v.(*rate.Limiter)
		l.buckets.Set(key, lim, l.idleTTL)
		return lim
	}
	lim := rate.NewLimiter(l.limit, l.burst)
	if err := l.buckets.Add(key, lim, l.idleTTL); err != nil {
		// Lost a race with another request for the same key.
		if v, ok := l.buckets.Get(key); ok {
			return v.(*rate.Limiter)
		}
	}
	return lim
}

// Counter increments a windowed counter. pkg/redis.Client implements it.
type Counter interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisLimiter allows limit requests per client in each fixed window. When
// Redis is unreachable requests are let through and the error is logged.
// Repeated failures open a circuit breaker so that, while Redis is down,
// requests skip the round trip entirely.
type RedisLimiter struct {
	counter Counter
	breaker *resilience.Breaker
	limit   int64
	window  time.Duration
	prefix  string
	now     func() time.Time
	logger  *slog.Logger
}

// NewRedisLimiter allows requestsPerMinute per client per minute.
func NewRedisLimiter(counter Counter, requestsPerMinute int) *RedisLimiter {
	return &RedisLimiter{
		counter: counter,
		breaker: resilience.NewBreaker("ratelimit-redis", resilience.BreakerConfig{}),
		limit:   int64(requestsPerMinute),
		window:  time.Minute,
		prefix:  "textlab:ratelimit:",
		now:     time.Now,
		logger:  slog.Default().With("component", "ratelimit"),
	}
}

// Allow counts the request against the client's current window.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	slot := l.now().Truncate(l.window).Unix()
	var n int64
	err := l.breaker.Do(func() error {
		var err error
		n, err = l.counter.IncrWindow(ctx, l.windowKey(key, slot), l.window)
		return err
	})
	if err != nil {
		if !errors.Is(err, resilience.ErrCircuitOpen) {
			l.logger.Warn("rate limit backend unavailable, allowing request", "error", err)
		}
		return true, err
	}
	return n <= l.limit, nil
}

func (l *RedisLimiter) windowKey(key string, slot int64) string {
	return l.prefix + key + ":" + strconv.FormatInt(slot, 10)
}
