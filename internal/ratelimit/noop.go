package ratelimit

import (
	"context"
	"time"
)

// LocalOnlySharedCounter stands in for the Redis-backed shared counter when
// no Redis connection is configured (common.RedisConnString == ""). It
// always allows; Limiter.Check recognises it and decides every request
// that reaches the shared step with the local token bucket alone — a
// single-instance deployment needs no cross-instance
// counting, per the "empty connection string disables shared limiting"
// note in common/config.
type LocalOnlySharedCounter struct{}

func (LocalOnlySharedCounter) CheckAndIncrement(_ context.Context, _ string, limit int64, window time.Duration) (SharedResult, error) {
	return SharedResult{Allowed: true, Remaining: limit, Limit: limit, ResetAt: time.Now().Add(window)}, nil
}
