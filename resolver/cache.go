package resolver

import (
	"sync"
	"time"

	"github.com/sage-x-project/nostrlocator/internal/logger"
	"github.com/sage-x-project/nostrlocator/payload"
)

// cacheKey identifies one resolver cache entry: (pubkey, identifier), or
// (pubkey, latestSentinel) for resolve_latest.
type cacheKey struct {
	pubkey     string
	identifier string
}

// latestSentinel is the identifier cacheKey uses for resolve_latest lookups.
const latestSentinel = "__latest__"

type cacheEntry struct {
	payload payload.Payload
	expiry  time.Time
}

// cache is a TTL-based store of resolved payloads, evicted both lazily (on
// access past expiry) and by a background sweep, adapted from the
// session manager's cleanup-ticker pattern.
type cache struct {
	mu            sync.RWMutex
	entries       map[cacheKey]cacheEntry
	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
	log           logger.Logger
}

func newCache(sweepInterval time.Duration) *cache {
	c := &cache{
		entries:     make(map[cacheKey]cacheEntry),
		stopCleanup: make(chan struct{}),
		log:         logger.GetDefaultLogger().WithFields(logger.String("component", "resolver.cache")),
	}
	c.cleanupTicker = time.NewTicker(sweepInterval)
	go c.runCleanup()
	return c
}

// get returns the cached payload if present and not expired, deleting it
// when found but stale.
func (c *cache) get(key cacheKey, now time.Time) (payload.Payload, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return payload.Payload{}, false
	}
	if now.After(entry.expiry) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return payload.Payload{}, false
	}
	return entry.payload, true
}

func (c *cache) put(key cacheKey, p payload.Payload, expiry time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{payload: p, expiry: expiry}
}

func (c *cache) runCleanup() {
	for {
		select {
		case <-c.cleanupTicker.C:
			c.sweep(time.Now())
		case <-c.stopCleanup:
			return
		}
	}
}

func (c *cache) sweep(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var expired []cacheKey
	for key, entry := range c.entries {
		if now.After(entry.expiry) {
			expired = append(expired, key)
		}
	}
	for _, key := range expired {
		delete(c.entries, key)
	}
	if len(expired) > 0 {
		c.log.Debug("swept expired cache entries", logger.Int("count", len(expired)))
	}
}

// close stops the background sweep. It does not need to be called for
// correctness (entries still expire lazily on get), only to release the
// ticker goroutine when a resolver is discarded.
func (c *cache) close() {
	select {
	case <-c.stopCleanup:
		// already closed
	default:
		close(c.stopCleanup)
	}
	c.cleanupTicker.Stop()
}
