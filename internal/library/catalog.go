package library

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmcdole/lectio/internal/domain"
)

// CatalogStore persists the last fetched catalog for offline starts.
type CatalogStore interface {
	GetCatalog(ctx context.Context) (domain.Catalog, bool, error)
	SaveCatalog(ctx context.Context, catalog domain.Catalog) error
}

// CatalogService loads the catalog once per session.
type CatalogService struct {
	source domain.ContentSource
	store  CatalogStore
	logger *slog.Logger
}

// NewCatalogService creates a new catalog loader.
func NewCatalogService(source domain.ContentSource, store CatalogStore, logger *slog.Logger) *CatalogService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogService{source: source, store: store, logger: logger}
}

// Load fetches the manifest and keeps a local copy. When the fetch fails it
// falls back to the stored copy; fromCache reports which one was returned.
func (s *CatalogService) Load(ctx context.Context) (catalog domain.Catalog, fromCache bool, err error) {
	catalog, fetchErr := s.source.FetchCatalog(ctx)
	if fetchErr == nil {
		if err := s.store.SaveCatalog(ctx, catalog); err != nil {
			s.logger.Error("failed to save catalog", "error", err)
		}
		s.logger.Debug("loaded catalog", "count", len(catalog))
		return catalog, false, nil
	}

	s.logger.Warn("catalog fetch failed, trying local copy", "error", fetchErr)
	stored, ok, err := s.store.GetCatalog(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", domain.ErrCatalogUnavailable, err)
	}
	if !ok {
		return nil, false, fmt.Errorf("%w: %w", domain.ErrCatalogUnavailable, fetchErr)
	}
	s.logger.Info("using stored catalog", "count", len(stored))
	return stored, true, nil
}
