package adapter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// CacheKind identifies the class of venue state held by a cache entry.
type CacheKind string

const (
	CacheKindQuote     CacheKind = "quote"
	CacheKindPositions CacheKind = "positions"
	CacheKindOrders    CacheKind = "orders"
	CacheKindAccount   CacheKind = "account"
)

type cacheKey struct {
	kind  CacheKind
	scope string
}

func (k cacheKey) String() string {
	return fmt.Sprintf("%s/%s", k.kind, k.scope)
}

type cacheEntry struct {
	value     any
	fetchedAt time.Time
}

// TTLConfig holds the independent time-to-live per cache kind.
type TTLConfig struct {
	Quote     time.Duration `yaml:"quote" json:"quote"`
	Positions time.Duration `yaml:"positions" json:"positions"`
	Orders    time.Duration `yaml:"orders" json:"orders"`
	Account   time.Duration `yaml:"account" json:"account"`
}

// DefaultTTLConfig returns the TTLs used when the configuration leaves them unset.
func DefaultTTLConfig() TTLConfig {
	return TTLConfig{
		Quote:     1 * time.Second,
		Positions: 2 * time.Second,
		Orders:    2 * time.Second,
		Account:   5 * time.Second,
	}
}

func (c TTLConfig) forKind(kind CacheKind) time.Duration {
	switch kind {
	case CacheKindQuote:
		return c.Quote
	case CacheKindPositions:
		return c.Positions
	case CacheKindOrders:
		return c.Orders
	case CacheKindAccount:
		return c.Account
	default:
		return 0
	}
}

// Cache is a time-bounded cache of venue state. A read within an entry's TTL
// returns the stored value without a venue call; after expiry the next read
// triggers exactly one refresh, and concurrent callers for the same key wait
// on that single in-flight refresh.
type Cache struct {
	mu      sync.RWMutex
	entries map[cacheKey]cacheEntry
	ttl     TTLConfig
	group   singleflight.Group
	// now is swapped out in tests to control entry expiry.
	now func() time.Time
}

// NewCache creates a cache with the given per-kind TTLs.
func NewCache(ttl TTLConfig) *Cache {
	return &Cache{
		mu:      sync.RWMutex{},
		entries: make(map[cacheKey]cacheEntry),
		ttl:     ttl,
		group:   singleflight.Group{},
		now:     time.Now,
	}
}

// Get returns the cached value for (kind, scope) when fresh, otherwise calls
// fetch once, stores the result, and returns it. Errors are not cached; the
// next read retries the fetch.
func (c *Cache) Get(ctx context.Context, kind CacheKind, scope string, fetch func(ctx context.Context) (any, error)) (any, error) {
	key := cacheKey{kind: kind, scope: scope}

	c.mu.RLock()
	entry, ok := c.entries[key]
	fresh := ok && c.now().Sub(entry.fetchedAt) < c.ttl.forKind(kind)
	c.mu.RUnlock()

	if fresh {
		return entry.value, nil
	}

	value, err, _ := c.group.Do(key.String(), func() (any, error) {
		// Re-check under the flight: another caller may have refreshed the
		// entry between the staleness check and this point.
		c.mu.RLock()
		entry, ok := c.entries[key]
		fresh := ok && c.now().Sub(entry.fetchedAt) < c.ttl.forKind(kind)
		c.mu.RUnlock()

		if fresh {
			return entry.value, nil
		}

		fetched, fetchErr := fetch(ctx)
		if fetchErr != nil {
			return nil, fetchErr
		}

		c.mu.Lock()
		c.entries[key] = cacheEntry{value: fetched, fetchedAt: c.now()}
		c.mu.Unlock()

		return fetched, nil
	})
	if err != nil {
		return nil, err
	}

	return value, nil
}

// Invalidate drops the entry for (kind, scope) so the next read refreshes.
func (c *Cache) Invalidate(kind CacheKind, scope string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, cacheKey{kind: kind, scope: scope})
}

// InvalidateKind drops every entry of the given kind.
func (c *Cache) InvalidateKind(kind CacheKind) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.entries {
		if key.kind == kind {
			delete(c.entries, key)
		}
	}
}

// Reset drops all entries.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[cacheKey]cacheEntry)
}
