package library

import (
	"context"
	"log/slog"
	"math"
	"sync"

	"github.com/mmcdole/lectio/internal/domain"
	"golang.org/x/sync/singleflight"
)

// Coordinator resolves units through the local store, fetching on a miss.
// Concurrent resolves of the same unit share one fetch.
type Coordinator struct {
	source domain.ContentSource
	store  domain.UnitStore
	logger *slog.Logger

	inflight singleflight.Group

	namesMu sync.RWMutex
	names   map[string]string
}

// NewCoordinator creates a new cache coordinator.
func NewCoordinator(source domain.ContentSource, store domain.UnitStore, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		source: source,
		store:  store,
		logger: logger,
		names:  make(map[string]string),
	}
}

// UseCatalog registers display names stamped onto freshly fetched units.
func (c *Coordinator) UseCatalog(catalog domain.Catalog) {
	names := catalog.Names()
	c.namesMu.Lock()
	c.names = names
	c.namesMu.Unlock()
}

// Resolve returns the unit from the store, or fetches, persists and returns it.
// Every failure is a *domain.UnitLoadError; nothing partial is stored.
func (c *Coordinator) Resolve(ctx context.Context, unitID string) (*domain.ContentUnit, error) {
	unit, ok, err := c.store.GetUnit(ctx, unitID)
	if err != nil {
		c.logger.Error("failed to read unit", "error", err, "unitID", unitID)
		return nil, &domain.UnitLoadError{UnitID: unitID, Cause: err}
	}
	if ok {
		c.logger.Debug("cache hit", "unitID", unitID)
		return unit, nil
	}

	return c.fetchAndStore(ctx, unitID)
}

// fetchAndStore runs one shared fetch+persist per unit ID. Each caller can
// stop waiting on its own context; the shared fetch keeps running for the others.
func (c *Coordinator) fetchAndStore(ctx context.Context, unitID string) (*domain.ContentUnit, error) {
	detached := context.WithoutCancel(ctx)

	ch := c.inflight.DoChan(unitID, func() (interface{}, error) {
		// Another caller may have stored it while we were queued
		if unit, ok, err := c.store.GetUnit(detached, unitID); err == nil && ok {
			return unit, nil
		}

		c.logger.Debug("cache miss, fetching", "unitID", unitID)
		unit, err := c.source.FetchUnit(detached, unitID)
		if err != nil {
			c.logger.Error("failed to fetch unit", "error", err, "unitID", unitID)
			return nil, err
		}

		c.namesMu.RLock()
		if name, ok := c.names[unitID]; ok && unit.DisplayName == "" {
			unit.DisplayName = name
		}
		c.namesMu.RUnlock()

		if err := c.store.SaveUnit(detached, unit); err != nil {
			c.logger.Error("failed to save unit", "error", err, "unitID", unitID)
			return nil, err
		}
		c.logger.Info("cached unit", "unitID", unitID, "chapters", len(unit.Chapters))
		return unit, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, &domain.UnitLoadError{UnitID: unitID, Cause: res.Err}
		}
		if res.Shared {
			c.logger.Debug("coalesced fetch", "unitID", unitID)
		}
		return res.Val.(*domain.ContentUnit), nil
	case <-ctx.Done():
		return nil, &domain.UnitLoadError{UnitID: unitID, Cause: ctx.Err()}
	}
}

// ComputeStats counts how many catalog units are in the store.
func (c *Coordinator) ComputeStats(ctx context.Context, catalog domain.Catalog) (domain.CacheStats, error) {
	cached := 0
	for _, entry := range catalog {
		ok, err := c.store.HasUnit(ctx, entry.UnitID)
		if err != nil {
			c.logger.Error("failed to check unit", "error", err, "unitID", entry.UnitID)
			return domain.CacheStats{}, err
		}
		if ok {
			cached++
		}
	}
	return NewCacheStats(cached, len(catalog)), nil
}

// NewCacheStats builds stats with a half-up rounded percentage; 0 for an empty catalog.
func NewCacheStats(cached, total int) domain.CacheStats {
	stats := domain.CacheStats{CachedCount: cached, TotalCount: total}
	if total > 0 {
		stats.Percentage = int(math.Floor(float64(cached)/float64(total)*100 + 0.5))
	}
	return stats
}
