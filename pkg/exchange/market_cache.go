package exchange

import (
	"sync"
	"time"

	"github.com/mexoms/perpunify/pkg/types"
)

// marketCache is a TTL-bounded, copy-on-write cache of a venue's
// markets. Readers receive an immutable snapshot slice; a refresh
// replaces the snapshot atomically under lock rather than mutating it in
// place, per spec.md §3 ("Market cache: copy-on-write; readers get
// immutable snapshots").
type marketCache struct {
	mu        sync.RWMutex
	snapshot  []types.Market
	byVenue   map[string]types.Market
	fetchedAt time.Time
	ttl       time.Duration
}

func newMarketCache(ttl time.Duration) *marketCache {
	return &marketCache{ttl: ttl}
}

// Get returns the cached snapshot and whether it is still within TTL.
func (c *marketCache) Get() ([]types.Market, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snapshot == nil || time.Since(c.fetchedAt) > c.ttl {
		return nil, false
	}
	return c.snapshot, true
}

// Lookup returns a single market by its venue symbol string, if cached
// and fresh.
func (c *marketCache) Lookup(venueSymbol string) (types.Market, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snapshot == nil || time.Since(c.fetchedAt) > c.ttl {
		return types.Market{}, false
	}
	m, ok := c.byVenue[venueSymbol]
	return m, ok
}

// Set installs a fresh snapshot, replacing the previous one wholesale.
func (c *marketCache) Set(markets []types.Market, keyFn func(types.Market) string) {
	byVenue := make(map[string]types.Market, len(markets))
	for _, m := range markets {
		byVenue[keyFn(m)] = m
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = markets
	c.byVenue = byVenue
	c.fetchedAt = time.Now()
}

// Invalidate clears the cache, called on disconnect.
func (c *marketCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = nil
	c.byVenue = nil
	c.fetchedAt = time.Time{}
}
