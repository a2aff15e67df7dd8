package ratelimit

import (
	"context"
	"time"
)

// SharedResult is the outcome of one shared-counter check-and-increment call.
type SharedResult struct {
	Allowed   bool
	Remaining int64
	Limit     int64
	ResetAt   time.Time
}

// SharedCounter is the cross-instance atomic check-and-increment backend,
// implemented by RedisSharedCounter, which calls common.RedisIncrementIfBelow
// over go-redis/v8's Eval (see internal/ratelimit/shared_redis.go). Kept as an interface so tests can
// substitute an in-memory fake instead of miniredis when only the
// orchestration logic is under test.
type SharedCounter interface {
	CheckAndIncrement(ctx context.Context, key string, limit int64, window time.Duration) (SharedResult, error)
}
