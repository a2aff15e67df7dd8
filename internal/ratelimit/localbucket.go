package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// perKeyLimiter pairs a token-bucket limiter with its last-access time so
// localBucketPool can garbage collect idle (model,key) entries. Adapted
// directly from taipm-go-deep-agent's agent/rate_limiter_token_bucket.go
// perKeyLimiter/cleanupUnusedLimiters shape.
type perKeyLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// localBucketPool is the local, per-(model,key) token-bucket fast path.
// Unlike the shared counter, it never leaves the process, so it can be
// consulted without any suspension point.
type localBucketPool struct {
	mu       sync.Mutex
	limiters map[string]*perKeyLimiter
	keyTTL   time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

func newLocalBucketPool(keyTTL time.Duration) *localBucketPool {
	if keyTTL <= 0 {
		keyTTL = 5 * time.Minute
	}
	p := &localBucketPool{
		limiters: make(map[string]*perKeyLimiter),
		keyTTL:   keyTTL,
		stop:     make(chan struct{}),
	}
	go p.cleanupLoop()
	return p
}

// Allow draws a token from the (model,key) bucket, creating it from cfg on
// first use.
func (p *localBucketPool) Allow(key string, cfg Config) bool {
	limit, windowSeconds := cfg.mostRestrictiveWindow()
	ratePerSec := rate.Limit(float64(limit) / float64(windowSeconds))
	if limit == 0 {
		ratePerSec = rate.Inf
	}
	burst := int(cfg.burstSize())
	if burst <= 0 {
		burst = 1
	}

	p.mu.Lock()
	entry, ok := p.limiters[key]
	if !ok {
		entry = &perKeyLimiter{limiter: rate.NewLimiter(ratePerSec, burst)}
		p.limiters[key] = entry
	}
	entry.lastAccess = time.Now()
	limiter := entry.limiter
	p.mu.Unlock()

	return limiter.Allow()
}

// Close stops the cleanup goroutine; safe to call more than once.
func (p *localBucketPool) Close() {
	p.stopOnce.Do(func() { close(p.stop) })
}

func (p *localBucketPool) cleanupLoop() {
	ticker := time.NewTicker(p.keyTTL)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-p.keyTTL)
			p.mu.Lock()
			for key, entry := range p.limiters {
				if entry.lastAccess.Before(cutoff) {
					delete(p.limiters, key)
				}
			}
			p.mu.Unlock()
		}
	}
}
