package enrich

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/komsit37/valor/pkg/valor/types"
)

// CacheService decorates MarketData, and optionally PriceHistory, with a
// TTL+LRU cache.
type CacheService struct {
	next MarketData
	hist PriceHistory
	ttl  time.Duration
	size int
	now  func() time.Time

	mu    sync.Mutex
	items map[string]cacheEntry
	order []string // simple LRU order, oldest at index 0
}

type cacheEntry struct {
	at  time.Time
	val any
}

func NewCacheService(next MarketData, ttl time.Duration, size int) *CacheService {
	if size <= 0 {
		size = 1
	}
	return &CacheService{next: next, ttl: ttl, size: size, now: time.Now, items: make(map[string]cacheEntry)}
}

// WithHistory caches daily histories through the same LRU.
func (c *CacheService) WithHistory(h PriceHistory) *CacheService {
	c.hist = h
	return c
}

func (c *CacheService) Quote(ctx context.Context, sym string) (types.Quote, error) {
	k := "q|" + sym
	if v, ok := c.get(k); ok {
		return v.(types.Quote), nil
	}
	q, err := c.next.Quote(ctx, sym)
	if err != nil {
		return q, err
	}
	c.put(k, q)
	return q, nil
}

func (c *CacheService) Daily(ctx context.Context, sym string, years int) ([]types.PricePoint, error) {
	if c.hist == nil {
		return nil, fmt.Errorf("enrich: cache has no price history source")
	}
	k := fmt.Sprintf("h|%s|%d", sym, years)
	if v, ok := c.get(k); ok {
		return v.([]types.PricePoint), nil
	}
	pts, err := c.hist.Daily(ctx, sym, years)
	if err != nil {
		return nil, err
	}
	c.put(k, pts)
	return pts, nil
}

// Len reports the number of live entries.
func (c *CacheService) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *CacheService) get(k string) (any, bool) {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	ent, ok := c.items[k]
	if !ok {
		return nil, false
	}
	if now.Sub(ent.at) > c.ttl {
		delete(c.items, k)
		c.removeFromOrderLocked(k)
		return nil, false
	}
	c.touchLocked(k)
	return ent.val, true
}

func (c *CacheService) put(k string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[k]; ok {
		c.removeFromOrderLocked(k)
	}
	c.items[k] = cacheEntry{at: c.now(), val: v}
	c.order = append(c.order, k)
	for len(c.items) > c.size && len(c.order) > 0 {
		old := c.order[0]
		c.order = c.order[1:]
		delete(c.items, old)
	}
}

func (c *CacheService) touchLocked(k string) {
	c.removeFromOrderLocked(k)
	c.order = append(c.order, k)
}

func (c *CacheService) removeFromOrderLocked(k string) {
	for i, v := range c.order {
		if v == k {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
