package ratelimit

import (
	"context"
	"math/rand"
	"time"

	"github.com/Laisky/zap"

	"github.com/opengw/llmgateway/common/logger"
)

// Decision is what the rate limiter returns to the middleware for header
// assembly.
type Decision struct {
	Allowed    bool
	Limit      int64
	Remaining  int64
	ResetAt    time.Time
	RetryAfter time.Duration
	// Degraded reports that the shared counter was skipped due to a timeout
	// or transport error, and the decision fell back to the local limiter.
	Degraded bool
}

// Limiter ties together the local cache, the local probabilistic fast path,
// and the shared counter into a single four-step check.
type Limiter struct {
	cache  *quotaCache
	local  *localBucketPool
	shared SharedCounter
}

// NewLimiter builds a Limiter backed by shared. keyTTL bounds how long an
// idle local token-bucket entry is retained before GC.
func NewLimiter(shared SharedCounter, keyTTL time.Duration) *Limiter {
	return &Limiter{
		cache:  newQuotaCache(),
		local:  newLocalBucketPool(keyTTL),
		shared: shared,
	}
}

// Close releases the local bucket pool's background cleanup goroutine.
func (l *Limiter) Close() { l.local.Close() }

func cacheKey(model, key string) string { return model + "\x00" + key }

// Check runs the full four-step algorithm for one (model, key) request.
func (l *Limiter) Check(ctx context.Context, model, key string, cfg Config) Decision {
	ck := cacheKey(model, key)

	// Step 1: cache check.
	if entry := l.cache.get(ck); entry != nil && entry.fresh(time.Now()) {
		if remaining, ok := entry.tryConsume(); ok {
			return Decision{Allowed: true, Limit: entry.limit, Remaining: remaining, ResetAt: entry.fetchedAt.Add(entry.ttl)}
		}
		// Cache exhausted: fall through to shared counter below.
	}

	// Step 2: local probabilistic fast path.
	if cfg.LocalAllowance > 0 && rand.Float64() < cfg.LocalAllowance {
		if l.local.Allow(ck, cfg) {
			go l.backgroundIncrement(model, key, cfg)
			limit, windowSeconds := cfg.mostRestrictiveWindow()
			return Decision{Allowed: true, Limit: limit, ResetAt: time.Now().Add(time.Duration(windowSeconds) * time.Second)}
		}
		// Local fast path denied: still consult the shared counter — a cold
		// local bucket must not itself reject a request the shared counter
		// would have allowed.
	}

	// Step 3: shared counter, bounded by RedisTimeout.
	limit, windowSeconds := cfg.mostRestrictiveWindow()
	window := time.Duration(windowSeconds) * time.Second
	// With no shared backend configured the local token bucket is the only
	// limiter.
	if _, localOnly := l.shared.(LocalOnlySharedCounter); localOnly {
		allowed := l.local.Allow(ck, cfg)
		return Decision{Allowed: allowed, Limit: limit, ResetAt: time.Now().Add(window)}
	}
	sharedCtx := ctx
	var cancel context.CancelFunc
	if cfg.RedisTimeout > 0 {
		sharedCtx, cancel = context.WithTimeout(ctx, cfg.RedisTimeout)
		defer cancel()
	}

	result, err := l.shared.CheckAndIncrement(sharedCtx, "rl:"+model+":"+key, limit, window)
	if err != nil {
		logger.Logger.Warn("shared rate-limit counter degraded, falling back to local limiter",
			zap.String("model", model), zap.Error(err))
		allowed := l.local.Allow(ck, cfg)
		return Decision{Allowed: allowed, Limit: limit, Degraded: true, ResetAt: time.Now().Add(window)}
	}

	// Step 4: cache update on allow.
	if result.Allowed {
		entry := &cacheEntry{
			limit:            result.Limit,
			remainingAtFetch: result.Remaining,
			fetchedAt:        time.Now(),
			ttl:              cfg.CacheTTL,
		}
		l.cache.put(ck, entry)
	}

	dec := Decision{
		Allowed:   result.Allowed,
		Limit:     result.Limit,
		Remaining: result.Remaining,
		ResetAt:   result.ResetAt,
	}
	if !dec.Allowed {
		dec.RetryAfter = time.Until(result.ResetAt)
		if dec.RetryAfter < 0 {
			dec.RetryAfter = 0
		}
	}
	return dec
}

// backgroundIncrement fires a fire-and-forget shared-counter increment
// after a local-fast-path allow. Errors are logged only: a cancelled
// caller must not block this, and over-counting on the shared side is
// preferred to under-counting.
func (l *Limiter) backgroundIncrement(model, key string, cfg Config) {
	limit, windowSeconds := cfg.mostRestrictiveWindow()
	window := time.Duration(windowSeconds) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := l.shared.CheckAndIncrement(ctx, "rl:"+model+":"+key, limit, window); err != nil {
		logger.Logger.Debug("background shared counter increment failed", zap.Error(err))
	}
}
