package ratelimit

import "context"

// RateLimitConfig bounds request volume per key across fixed windows. A
// zero limit disables that window.
type RateLimitConfig struct {
	RequestsPerMinute int
	RequestsPerHour   int
	RequestsPerDay    int
}

// RateLimiter decides whether a request under the given key fits its
// budget.
type RateLimiter interface {
	Allow(ctx context.Context, key string, config RateLimitConfig) (bool, error)
}

// NoopRateLimiter admits everything. Used when redis is disabled.
type NoopRateLimiter struct{}

func NewNoopRateLimiter() RateLimiter {
	return &NoopRateLimiter{}
}

func (l *NoopRateLimiter) Allow(context.Context, string, RateLimitConfig) (bool, error) {
	return true, nil
}
