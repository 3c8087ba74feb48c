package search

import (
	"sync"
	"time"
)

const defaultCountsTTL = time.Minute

// countsCache holds the most recent filter-count result. A lookup hits only
// when the key matches and the entry is still within its TTL; anything else is
// a miss and the stale entry is overwritten by the next put.
type countsCache struct {
	mu        sync.Mutex
	ttl       time.Duration
	key       string
	counts    map[string]int
	fetchedAt time.Time
}

func newCountsCache(ttl time.Duration) *countsCache {
	if ttl <= 0 {
		ttl = defaultCountsTTL
	}
	return &countsCache{ttl: ttl}
}

func (c *countsCache) get(key string, now time.Time) (map[string]int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil || c.key != key {
		return nil, false
	}
	if now.Sub(c.fetchedAt) > c.ttl {
		return nil, false
	}
	out := make(map[string]int, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out, true
}

func (c *countsCache) put(key string, counts map[string]int, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.key = key
	c.fetchedAt = now
	c.counts = make(map[string]int, len(counts))
	for k, v := range counts {
		c.counts[k] = v
	}
}
