package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSharedCounter is an in-memory stand-in for Redis so orchestration
// logic can be tested without miniredis.
type fakeSharedCounter struct {
	mu      sync.Mutex
	counts  map[string]int64
	err     error
	delay   time.Duration
}

func newFakeSharedCounter() *fakeSharedCounter {
	return &fakeSharedCounter{counts: make(map[string]int64)}
}

func (f *fakeSharedCounter) CheckAndIncrement(ctx context.Context, key string, limit int64, window time.Duration) (SharedResult, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return SharedResult{}, ctx.Err()
		}
	}
	if f.err != nil {
		return SharedResult{}, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.counts[key] >= limit {
		return SharedResult{Allowed: false, Limit: limit, ResetAt: time.Now().Add(window)}, nil
	}
	f.counts[key]++
	return SharedResult{Allowed: true, Limit: limit, Remaining: limit - f.counts[key], ResetAt: time.Now().Add(window)}, nil
}

func TestLimiterSharedCounterDenyAfterLimit(t *testing.T) {
	shared := newFakeSharedCounter()
	limiter := NewLimiter(shared, time.Minute)
	defer limiter.Close()

	cfg := Config{
		Algorithm:         SlidingWindow,
		RequestsPerSecond: 2,
		BurstSize:         2,
		CacheTTL:          0, // disable cache layer so every call reaches the shared counter
		LocalAllowance:    0, // disable local fast path so every call reaches the shared counter
	}

	ctx := context.Background()
	d1 := limiter.Check(ctx, "dummy", "key-1", cfg)
	d2 := limiter.Check(ctx, "dummy", "key-1", cfg)
	d3 := limiter.Check(ctx, "dummy", "key-1", cfg)

	assert.True(t, d1.Allowed)
	assert.True(t, d2.Allowed)
	require.False(t, d3.Allowed)
	assert.GreaterOrEqual(t, d3.RetryAfter, time.Duration(0))
}

func TestLimiterCacheLayerConsumesLocally(t *testing.T) {
	shared := newFakeSharedCounter()
	limiter := NewLimiter(shared, time.Minute)
	defer limiter.Close()

	cfg := Config{
		Algorithm:         SlidingWindow,
		RequestsPerSecond: 5,
		BurstSize:         5,
		CacheTTL:          time.Minute,
		LocalAllowance:    0,
	}

	ctx := context.Background()
	first := limiter.Check(ctx, "dummy", "key-2", cfg)
	require.True(t, first.Allowed)

	second := limiter.Check(ctx, "dummy", "key-2", cfg)
	require.True(t, second.Allowed)
	// Second call should be served from the cache entry populated by the
	// first shared-counter round trip, so the shared counter saw only one hit.
	assert.Equal(t, int64(1), shared.counts["rl:dummy:key-2"])
}

func TestLimiterLocalAllowanceZeroAlwaysConsultsShared(t *testing.T) {
	shared := newFakeSharedCounter()
	limiter := NewLimiter(shared, time.Minute)
	defer limiter.Close()

	cfg := Config{
		Algorithm:         SlidingWindow,
		RequestsPerSecond: 100,
		BurstSize:         100,
		CacheTTL:          0,
		LocalAllowance:    0,
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		limiter.Check(ctx, "dummy", "key-3", cfg)
	}
	assert.Equal(t, int64(3), shared.counts["rl:dummy:key-3"])
}

func TestLimiterDegradesOnSharedTimeout(t *testing.T) {
	shared := newFakeSharedCounter()
	shared.delay = 50 * time.Millisecond
	limiter := NewLimiter(shared, time.Minute)
	defer limiter.Close()

	cfg := Config{
		Algorithm:         SlidingWindow,
		RequestsPerSecond: 5,
		BurstSize:         5,
		CacheTTL:          0,
		LocalAllowance:    0,
		RedisTimeout:      time.Millisecond,
	}

	ctx := context.Background()
	dec := limiter.Check(ctx, "dummy", "key-4", cfg)
	assert.True(t, dec.Degraded)
	// Local bucket has burst capacity, so the degraded fallback still allows.
	assert.True(t, dec.Allowed)
}
