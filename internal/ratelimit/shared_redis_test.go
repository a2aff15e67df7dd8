package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opengw/llmgateway/common"
)

// newMiniredisCounter points common.RDB at an embedded miniredis server so
// RedisSharedCounter exercises the real incrementIfBelowScript Lua round
// trip instead of the fakeSharedCounter used by the orchestration tests.
func newMiniredisCounter(t *testing.T) RedisSharedCounter {
	t.Helper()
	srv := miniredis.RunT(t)
	common.RDB = redis.NewClient(&redis.Options{Addr: srv.Addr()})
	common.SetRedisEnabled(true)
	t.Cleanup(func() { common.SetRedisEnabled(false) })
	return RedisSharedCounter{}
}

func TestRedisSharedCounterAllowsUpToLimit(t *testing.T) {
	counter := newMiniredisCounter(t)
	ctx := context.Background()

	r1, err := counter.CheckAndIncrement(ctx, "rl:miniredis:key-1", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, r1.Allowed)

	r2, err := counter.CheckAndIncrement(ctx, "rl:miniredis:key-1", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, r2.Allowed)

	r3, err := counter.CheckAndIncrement(ctx, "rl:miniredis:key-1", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, r3.Allowed)
	assert.Equal(t, int64(0), r3.Remaining)
}

func TestRedisSharedCounterTracksIndependentKeys(t *testing.T) {
	counter := newMiniredisCounter(t)
	ctx := context.Background()

	a, err := counter.CheckAndIncrement(ctx, "rl:miniredis:key-a", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, a.Allowed)

	b, err := counter.CheckAndIncrement(ctx, "rl:miniredis:key-b", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, b.Allowed)
}
