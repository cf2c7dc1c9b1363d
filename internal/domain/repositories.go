package domain

import (
	"context"
)

// ContentSource provides access to the remote catalog and unit payloads.
// Implementations do not cache and do not retry.
type ContentSource interface {
	// FetchCatalog returns the catalog manifest
	FetchCatalog(ctx context.Context) (Catalog, error)

	// FetchUnit returns the full text of one unit.
	// Fails with *NetworkError on transport problems or *ParseError on bad payloads.
	FetchUnit(ctx context.Context, unitID string) (*ContentUnit, error)
}
