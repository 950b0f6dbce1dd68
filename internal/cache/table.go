package cache

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"purchases/internal/core"
	"purchases/internal/sheets"

	"golang.org/x/sync/singleflight"
)

// TableStats is a point-in-time view of the table cache counters.
type TableStats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Loads   int64 `json:"loads"`
	Errors  int64 `json:"load_errors"`
}

// TableCache holds loaded tables keyed by source identity. Concurrent misses
// for one source share a single Load; failed loads are not cached.
type TableCache struct {
	entries *LRUCache[*core.Table]
	group   singleflight.Group

	mu  sync.Mutex
	gen map[string]uint64

	hits, misses, loads, loadErrors atomic.Int64
}

// NewTableCache creates a cache for up to maxSources tables. ttl <= 0 keeps
// tables until invalidated.
func NewTableCache(maxSources int, ttl time.Duration) *TableCache {
	return &TableCache{
		entries: NewLRUCache[*core.Table](maxSources, ttl),
		gen:     make(map[string]uint64),
	}
}

// Get returns the cached table for src, loading it on a miss.
func (c *TableCache) Get(ctx context.Context, src sheets.TableSource) (*core.Table, error) {
	id := src.SourceID()
	if t, ok := c.entries.Get(id); ok {
		c.hits.Add(1)
		return t, nil
	}
	c.misses.Add(1)

	v, err, shared := c.group.Do(id, func() (interface{}, error) {
		gen := c.generation(id)
		c.loads.Add(1)
		start := time.Now()
		t, err := src.Load(ctx)
		if err != nil {
			c.loadErrors.Add(1)
			return nil, core.NewDataLoadError(id, err)
		}
		if c.generation(id) == gen {
			c.entries.Set(id, t)
		}
		slog.InfoContext(ctx, "Table loaded", "source", id, "rows", t.Len(), "duration_ms", time.Since(start).Milliseconds())
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		slog.DebugContext(ctx, "Table load shared", "source", id)
	}
	return v.(*core.Table), nil
}

// Peek returns the cached table without loading.
func (c *TableCache) Peek(id string) (*core.Table, bool) {
	return c.entries.Get(id)
}

// Invalidate drops the table for one source. A load already in flight will
// not repopulate the entry.
func (c *TableCache) Invalidate(id string) {
	c.bump(id)
	c.group.Forget(id)
	c.entries.Delete(id)
}

// InvalidateAll drops every cached table and returns how many were held.
func (c *TableCache) InvalidateAll() int {
	c.mu.Lock()
	for id := range c.gen {
		c.gen[id]++
		c.group.Forget(id)
	}
	c.mu.Unlock()
	return c.entries.Clear()
}

// CleanExpired implements Cleaner.
func (c *TableCache) CleanExpired() int {
	return c.entries.CleanExpired()
}

// Stats returns the current counters.
func (c *TableCache) Stats() TableStats {
	return TableStats{
		Entries: c.entries.Size(),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Loads:   c.loads.Load(),
		Errors:  c.loadErrors.Load(),
	}
}

func (c *TableCache) generation(id string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, ok := c.gen[id]
	if !ok {
		c.gen[id] = 0
	}
	return g
}

func (c *TableCache) bump(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen[id]++
}
