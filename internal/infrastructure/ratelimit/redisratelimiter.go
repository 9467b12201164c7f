package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces limiter state so it can share a redis instance with
// other users.
const keyPrefix = "amica:ratelimit"

// RedisRateLimiter is a sliding-window limiter. Every admitted request
// lands in a per-key sorted set scored by its nanosecond timestamp; the
// window population decides admission.
type RedisRateLimiter struct {
	client *redis.Client
}

func NewRedisRateLimiter(client *redis.Client) RateLimiter {
	return &RedisRateLimiter{client: client}
}

func (l *RedisRateLimiter) Allow(ctx context.Context, key string, config RateLimitConfig) (bool, error) {
	now := time.Now()

	windows := []struct {
		duration time.Duration
		limit    int
	}{
		{time.Minute, config.RequestsPerMinute},
		{time.Hour, config.RequestsPerHour},
		{24 * time.Hour, config.RequestsPerDay},
	}

	for _, w := range windows {
		if w.limit <= 0 {
			continue
		}

		allowed, err := l.admit(ctx, key, w.duration, w.limit, now)
		if err != nil {
			return false, err
		}
		if !allowed {
			return false, nil
		}
	}

	return true, nil
}

// admit trims entries older than the window, counts the survivors and
// records the current request in a single pipeline round trip.
func (l *RedisRateLimiter) admit(ctx context.Context, key string, window time.Duration, limit int, now time.Time) (bool, error) {
	redisKey := fmt.Sprintf("%s:%s:%s", keyPrefix, key, window.String())
	cutoff := now.Add(-window).UnixNano()
	ts := now.UnixNano()

	pipe := l.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", fmt.Sprintf("%d", cutoff))
	population := pipe.ZCard(ctx, redisKey)
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(ts), Member: ts})
	pipe.Expire(ctx, redisKey, window+time.Minute)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit pipeline failed: %w", err)
	}

	return population.Val() < int64(limit), nil
}
