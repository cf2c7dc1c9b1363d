package domain

import "context"

// UnitStore persists content units keyed by unit ID.
type UnitStore interface {
	GetUnit(ctx context.Context, unitID string) (*ContentUnit, bool, error)
	SaveUnit(ctx context.Context, unit *ContentUnit) error
	DeleteUnit(ctx context.Context, unitID string) error
	HasUnit(ctx context.Context, unitID string) (bool, error)
}

// ProgressStore persists the single reading position record.
type ProgressStore interface {
	GetProgress(ctx context.Context) (*ProgressRecord, bool, error)
	SaveProgress(ctx context.Context, rec ProgressRecord) error
	DeleteProgress(ctx context.Context) error
}

// Store is the local cache (BoltDB + memory).
// Every failure is a *StoreError.
type Store interface {
	UnitStore
	ProgressStore

	// === Pass-through state ===
	GetPreferences(ctx context.Context) (Preferences, bool, error)
	SavePreferences(ctx context.Context, prefs Preferences) error

	GetCatalog(ctx context.Context) (Catalog, bool, error)
	SaveCatalog(ctx context.Context, catalog Catalog) error

	Close() error
}
