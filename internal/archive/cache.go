package archive

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/couchcryptid/ufo-sightings-dashboard/internal/domain"
	"github.com/couchcryptid/ufo-sightings-dashboard/internal/observability"
)

// TableLoader loads the archive at a path.
type TableLoader interface {
	Load(ctx context.Context, path string) (*domain.Table, error)
}

// Cache memoizes one loaded archive keyed by its path. Asking for a different
// path replaces the entry; concurrent loads of the same path share one read.
type Cache struct {
	loader  TableLoader
	metrics *observability.Metrics
	group   singleflight.Group

	mu    sync.Mutex
	path  string
	table *domain.Table
}

// NewCache wraps a loader with path-keyed memoization.
func NewCache(loader TableLoader, metrics *observability.Metrics) *Cache {
	return &Cache{loader: loader, metrics: metrics}
}

// Get returns the table for path, loading it on first use or when the path
// differs from the cached one. Failed loads are not cached.
func (c *Cache) Get(ctx context.Context, path string) (*domain.Table, error) {
	if table, ok := c.lookup(path); ok {
		c.metrics.ArchiveCache.WithLabelValues("hit").Inc()
		return table, nil
	}
	c.metrics.ArchiveCache.WithLabelValues("miss").Inc()

	// The shared load runs detached from any one caller; each caller still
	// stops waiting when its own context ends.
	ch := c.group.DoChan(path, func() (any, error) {
		if table, ok := c.lookup(path); ok {
			return table, nil
		}
		table, err := c.loader.Load(context.WithoutCancel(ctx), path)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.path, c.table = path, table
		c.mu.Unlock()
		return table, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.Table), nil
	}
}

// Loaded reports whether a table is cached.
func (c *Cache) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.table != nil
}

// Invalidate drops the cached table so the next Get reloads.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.path, c.table = "", nil
}

func (c *Cache) lookup(path string) (*domain.Table, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.table == nil || c.path != path {
		return nil, false
	}
	return c.table, true
}
