package ratelimit

import (
	"context"
	"time"

	"github.com/opengw/llmgateway/common"
)

// RedisSharedCounter implements SharedCounter over the package-level
// common.RDB handle using a single Lua-scripted Eval round trip, so the
// check and the increment happen atomically and never as a separate
// read-then-write sequence.
type RedisSharedCounter struct{}

func (RedisSharedCounter) CheckAndIncrement(ctx context.Context, key string, limit int64, window time.Duration) (SharedResult, error) {
	windowSeconds := int64(window / time.Second)
	if windowSeconds <= 0 {
		windowSeconds = 1
	}
	allowed, err := common.RedisIncrementIfBelow(ctx, key, limit, windowSeconds)
	if err != nil {
		return SharedResult{}, err
	}
	remaining := limit
	if allowed {
		remaining = limit - 1
	} else {
		remaining = 0
	}
	return SharedResult{
		Allowed:   allowed,
		Remaining: remaining,
		Limit:     limit,
		ResetAt:   time.Now().Add(window),
	}, nil
}
