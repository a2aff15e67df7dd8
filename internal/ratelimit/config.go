// Package ratelimit implements the two-tier distributed rate limiter: a
// local token-bucket fast path backed by a shared, Redis-scripted
// check-and-increment counter for cross-instance accuracy.
package ratelimit

import (
	"time"

	"github.com/opengw/llmgateway/common/config"
)

// Algorithm names a rate-limit accounting scheme. It is carried on Config,
// but no SharedCounter in this package reads it: RedisSharedCounter counts
// every key in a fixed window that opens at the key's first increment and
// lasts the window length, whichever Algorithm is set.
type Algorithm string

const (
	FixedWindow   Algorithm = "fixed_window"
	SlidingWindow Algorithm = "sliding_window"
	TokenBucket   Algorithm = "token_bucket"
)

// Config is the per-model rate-limit configuration.
type Config struct {
	Algorithm Algorithm

	RequestsPerSecond int64
	RequestsPerMinute int64
	RequestsPerHour   int64
	BurstSize         int64

	CacheTTL       time.Duration
	RedisTimeout   time.Duration
	// LocalAllowance is the probability [0,1] that a request bypasses the
	// shared counter when the local limiter still has confirmed quota; see
	// DESIGN.md for why this is NOT an over-grant fraction.
	LocalAllowance float64
	SyncInterval   time.Duration
}

// DefaultConfig is the sliding-window default applied to any model whose
// configuration omits rate-limit settings.
func DefaultConfig() Config {
	return Config{
		Algorithm:         SlidingWindow,
		RequestsPerMinute: 600,
		BurstSize:         600,
		CacheTTL:          2 * time.Second,
		RedisTimeout:      50 * time.Millisecond,
		LocalAllowance:    config.LocalAllowanceDefault,
		SyncInterval:      5 * time.Second,
	}
}

// mostRestrictiveWindow returns (limit, windowSeconds) for whichever of the
// configured per-second/minute/hour windows is tightest — the smallest
// limit/duration rate among them.
func (c Config) mostRestrictiveWindow() (limit int64, windowSeconds int64) {
	type window struct {
		limit   int64
		seconds int64
	}
	var candidates []window
	if c.RequestsPerSecond > 0 {
		candidates = append(candidates, window{c.RequestsPerSecond, 1})
	}
	if c.RequestsPerMinute > 0 {
		candidates = append(candidates, window{c.RequestsPerMinute, 60})
	}
	if c.RequestsPerHour > 0 {
		candidates = append(candidates, window{c.RequestsPerHour, 3600})
	}
	if len(candidates) == 0 {
		return 0, 60
	}
	best := candidates[0]
	bestRate := float64(best.limit) / float64(best.seconds)
	for _, w := range candidates[1:] {
		rate := float64(w.limit) / float64(w.seconds)
		if rate < bestRate {
			best = w
			bestRate = rate
		}
	}
	return best.limit, best.seconds
}

// burstSize returns BurstSize, defaulting to the per-second limit when unset.
func (c Config) burstSize() int64 {
	if c.BurstSize > 0 {
		return c.BurstSize
	}
	if c.RequestsPerSecond > 0 {
		return c.RequestsPerSecond
	}
	limit, _ := c.mostRestrictiveWindow()
	return limit
}
