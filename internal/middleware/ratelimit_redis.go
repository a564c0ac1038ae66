package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisKeyPrefix namespaces limiter counters in a shared Redis.
const redisKeyPrefix = "finanzas:ratelimit:"

// RedisRateLimiter counts attempts per key in Redis. Each key's window
// opens with its first attempt and closes when the key expires.
type RedisRateLimiter struct {
	client      redis.Cmdable
	name        string
	maxAttempts int
	window      time.Duration
	logger      *slog.Logger
}

// NewRedisRateLimiter creates a Redis-backed limiter. name labels it in
// logs and metrics and separates its keys from other limiters.
func NewRedisRateLimiter(client redis.Cmdable, name string, maxAttempts int, window time.Duration, logger *slog.Logger) *RedisRateLimiter {
	return &RedisRateLimiter{
		client:      client,
		name:        name,
		maxAttempts: maxAttempts,
		window:      window,
		logger:      logger,
	}
}

func (rl *RedisRateLimiter) key(k string) string {
	return redisKeyPrefix + rl.name + ":" + k
}

// take increments the counter and reads its TTL in one round trip. A key
// without a TTL was just created, so its window starts now.
func (rl *RedisRateLimiter) take(ctx context.Context, key string) (decision, error) {
	k := rl.key(key)

	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := rl.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		ttl = pipe.PTTL(ctx, k)
		return nil
	})
	if err != nil {
		return decision{}, fmt.Errorf("count attempt: %w", err)
	}

	resetIn := ttl.Val()
	if resetIn <= 0 {
		if err := rl.client.PExpire(ctx, k, rl.window).Err(); err != nil {
			return decision{}, fmt.Errorf("start window: %w", err)
		}
		resetIn = rl.window
	}

	count := int(incr.Val())
	if count > rl.maxAttempts {
		return decision{retryAfter: resetIn}, nil
	}
	return decision{allowed: true, remaining: rl.maxAttempts - count}, nil
}

// Limit returns middleware that rejects a client IP once it exhausts the
// limiter.
func (rl *RedisRateLimiter) Limit(next http.Handler) http.Handler {
	return limitByIP(rl.name, rl.maxAttempts, rl, rl.logger, next)
}

// Stop is a no-op; the Redis client is owned by the caller.
func (rl *RedisRateLimiter) Stop() {}
