package consolhttp

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/odyssey-erp/finconsol/internal/consol"
)

const (
	cacheTTL   = 5 * time.Minute
	cacheLimit = 256
)

// viewCache keeps rendered grids per currency and expansion set. Stale entries
// are dropped on read and swept on write; the oldest entry goes once the limit
// is reached.
type viewCache struct {
	ttl     time.Duration
	limit   int
	mu      sync.Mutex
	entries map[string]cachedView
}

type cachedView struct {
	view     consol.View
	storedAt time.Time
}

func newViewCache(ttl time.Duration, limit int) *viewCache {
	return &viewCache{ttl: ttl, limit: limit, entries: map[string]cachedView{}}
}

func (c *viewCache) Get(key string) (consol.View, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return consol.View{}, false
	}
	if time.Since(entry.storedAt) > c.ttl {
		delete(c.entries, key)
		return consol.View{}, false
	}
	return entry.view, true
}

func (c *viewCache) Set(key string, view consol.View) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	if _, ok := c.entries[key]; !ok && c.limit > 0 && len(c.entries) >= c.limit {
		c.sweep(now)
		if len(c.entries) >= c.limit {
			c.evictOldest()
		}
	}
	c.entries[key] = cachedView{view: view, storedAt: now}
}

func (c *viewCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *viewCache) sweep(now time.Time) {
	for key, entry := range c.entries {
		if now.Sub(entry.storedAt) > c.ttl {
			delete(c.entries, key)
		}
	}
}

func (c *viewCache) evictOldest() {
	var oldest string
	var at time.Time
	for key, entry := range c.entries {
		if oldest == "" || entry.storedAt.Before(at) {
			oldest, at = key, entry.storedAt
		}
	}
	delete(c.entries, oldest)
}

// viewKey is independent of the order rows were expanded in.
func viewKey(currency consol.Currency, expanded []string) string {
	ids := slices.Sorted(slices.Values(expanded))
	if len(ids) == 0 {
		return string(currency) + "|-"
	}
	return string(currency) + "|" + strings.Join(ids, ",")
}

// cloneView copies the slices so callers cannot mutate a cached grid.
func cloneView(src consol.View) consol.View {
	return consol.View{
		Currency: src.Currency,
		Columns:  slices.Clone(src.Columns),
		Rows:     slices.Clone(src.Rows),
	}
}
