package catalog

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Simplici0/oslony/internal/pricing"
)

// Cache keeps every table loaded from a source until Purge. Concurrent
// requests for the same key share one load; failed loads are not kept.
type Cache struct {
	src    pricing.CatalogSource
	logger *zap.Logger
	group  singleflight.Group

	mu         sync.RWMutex
	generation uint64
	prices     map[string]*pricing.PriceTable
	materials  map[string]*pricing.MaterialTable
}

func NewCache(src pricing.CatalogSource, logger *zap.Logger) *Cache {
	return &Cache{
		src:       src,
		logger:    logger,
		prices:    make(map[string]*pricing.PriceTable),
		materials: make(map[string]*pricing.MaterialTable),
	}
}

func (c *Cache) LoadPriceTable(ctx context.Context, key string) (*pricing.PriceTable, error) {
	c.mu.RLock()
	t, ok := c.prices[key]
	c.mu.RUnlock()
	if ok {
		return t, nil
	}

	v, err := c.shared(ctx, "prices:"+key, key, func(ctx context.Context) (any, error) {
		gen := c.currentGeneration()
		t, err := c.src.LoadPriceTable(ctx, key)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if gen == c.generation {
			c.prices[key] = t
		}
		c.mu.Unlock()
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*pricing.PriceTable), nil
}

func (c *Cache) LoadMaterialTable(ctx context.Context, system string) (*pricing.MaterialTable, error) {
	c.mu.RLock()
	t, ok := c.materials[system]
	c.mu.RUnlock()
	if ok {
		return t, nil
	}

	v, err := c.shared(ctx, "materials:"+system, system, func(ctx context.Context) (any, error) {
		gen := c.currentGeneration()
		t, err := c.src.LoadMaterialTable(ctx, system)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if gen == c.generation {
			c.materials[system] = t
		}
		c.mu.Unlock()
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*pricing.MaterialTable), nil
}

// shared runs load once per flight key. The load does not inherit the
// caller's cancellation, so a caller that gives up only stops waiting;
// the read deadline comes from the source.
func (c *Cache) shared(ctx context.Context, flight, key string, load func(context.Context) (any, error)) (any, error) {
	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(flight, func() (any, error) {
		return load(loadCtx)
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, pricing.CatalogUnavailable(key, "catalog read abandoned", ctx.Err())
	}
}

// Purge drops every cached table. Loads in flight while Purge runs are
// returned to their callers but not stored.
func (c *Cache) Purge() {
	c.mu.Lock()
	n := len(c.prices) + len(c.materials)
	c.prices = make(map[string]*pricing.PriceTable)
	c.materials = make(map[string]*pricing.MaterialTable)
	c.generation++
	c.mu.Unlock()

	orNop(c.logger).Info("catalog cache purged", zap.Int("tables", n))
}

// Len returns the number of cached tables.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.prices) + len(c.materials)
}

func (c *Cache) currentGeneration() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}
