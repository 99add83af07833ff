package queue

import (
	"fmt"
	"sync"
	"time"
)

// scoreCache memoises DPS computations keyed by order number and hour bucket.
// Keying on the hour bucket lets entries invalidate naturally as time passes;
// the TTL bounds memory for long sessions cycling through many orders.
type scoreCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
	hits    int
	misses  int
}

type cacheEntry struct {
	score float64
	at    time.Time
}

func newScoreCache(ttl time.Duration) *scoreCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &scoreCache{ttl: ttl, entries: make(map[string]cacheEntry)}
}

func cacheKey(orderNumber string, now time.Time) string {
	return fmt.Sprintf("%s|%s", orderNumber, now.UTC().Truncate(time.Hour).Format("2006010215"))
}

// get returns the cached score for the order in the current hour bucket.
func (c *scoreCache) get(orderNumber string, now time.Time) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[cacheKey(orderNumber, now)]
	if !ok || now.Sub(e.at) > c.ttl {
		c.misses++
		cacheMisses.Inc()
		return 0, false
	}
	c.hits++
	cacheHits.Inc()
	return e.score, true
}

func (c *scoreCache) put(orderNumber string, now time.Time, score float64) {
	c.mu.Lock()
	c.entries[cacheKey(orderNumber, now)] = cacheEntry{score: score, at: now}
	c.mu.Unlock()
}

// invalidate drops every bucket for the order. Used when an order is marked
// dirty so a stale hour-bucket entry cannot mask the new inputs.
func (c *scoreCache) invalidate(orderNumber string) {
	prefix := orderNumber + "|"
	c.mu.Lock()
	for k := range c.entries {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
}

// sweep drops entries older than the TTL. Called opportunistically from
// Recompute; no background goroutine, the core stays synchronous.
func (c *scoreCache) sweep(now time.Time) {
	c.mu.Lock()
	for k, e := range c.entries {
		if now.Sub(e.at) > c.ttl {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
}

// stats returns hit and miss counts since creation.
func (c *scoreCache) stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
