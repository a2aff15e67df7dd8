package ratelimit

import (
	"sync"
	"sync/atomic"
	"time"
)

// cacheEntry is a snapshot of the last shared-counter response plus a
// local, atomically-decremented counter that lets many goroutines share
// one entry without re-consulting Redis on every request.
type cacheEntry struct {
	limit            int64
	remainingAtFetch int64
	localConsumed    atomic.Int64
	fetchedAt        time.Time
	ttl              time.Duration
}

func (e *cacheEntry) fresh(now time.Time) bool {
	return now.Sub(e.fetchedAt) < e.ttl
}

// tryConsume attempts to atomically decrement the cached remaining count.
// Returns (remaining, true) on success, or (0, false) once the cached
// allowance is exhausted. A race can over-consume by at most one entry;
// this is bounded and acceptable.
func (e *cacheEntry) tryConsume() (int64, bool) {
	consumed := e.localConsumed.Add(1)
	remaining := e.remainingAtFetch - consumed
	if remaining < 0 {
		e.localConsumed.Add(-1)
		return 0, false
	}
	return remaining, true
}

// quotaCache is a sharded map of (model,key) -> cacheEntry. Sharding by hash
// lets concurrent lookups for unrelated keys avoid a shared mutex.
type quotaCache struct {
	shards [cacheShardCount]cacheShard
}

const cacheShardCount = 32

type cacheShard struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
}

func newQuotaCache() *quotaCache {
	c := &quotaCache{}
	for i := range c.shards {
		c.shards[i].entries = make(map[string]*cacheEntry)
	}
	return c
}

func (c *quotaCache) shardFor(key string) *cacheShard {
	var h uint32
	for i := 0; i < len(key); i++ {
		h = h*31 + uint32(key[i])
	}
	return &c.shards[h%cacheShardCount]
}

func (c *quotaCache) get(key string) *cacheEntry {
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[key]
}

func (c *quotaCache) put(key string, entry *cacheEntry) {
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry
}
