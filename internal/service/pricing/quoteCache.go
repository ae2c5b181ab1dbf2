package pricing

import (
	"sync"
	"time"

	"github.com/KotFed0t/patrimoine_tracker_bot/internal/model"
)

type cacheEntry struct {
	quote     model.Quote
	fetchedAt time.Time
}

// QuoteCache keeps resolved quotes for a short TTL, keyed by
// (sourceKind, normalized symbol). It is owned by a Resolver instance, with
// an injectable clock so tests stay deterministic.
type QuoteCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

func NewQuoteCache(ttl time.Duration) *QuoteCache {
	return &QuoteCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// NewQuoteCacheWithClock is used by tests to drive expiry manually.
func NewQuoteCacheWithClock(ttl time.Duration, now func() time.Time) *QuoteCache {
	c := NewQuoteCache(ttl)
	c.now = now
	return c
}

func (c *QuoteCache) Get(key string) (model.Quote, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok {
		return model.Quote{}, false
	}
	if c.now().Sub(entry.fetchedAt) >= c.ttl {
		return model.Quote{}, false
	}
	return entry.quote, true
}

func (c *QuoteCache) Set(key string, quote model.Quote) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{quote: quote, fetchedAt: c.now()}
}
