package store

import (
	"context"
	"errors"
	"os"
	"sync"

	"github.com/mmcdole/lectio/internal/domain"
)

var errHandleClosed = errors.New("store handle closed")

// Handle is a lazily opened, shared connection to the local store.
// The first call pays for opening; later calls reuse the same LocalStore.
// A failed open is not memoized, so the next call retries.
type Handle struct {
	dir string

	mu     sync.Mutex
	store  *LocalStore
	closed bool
}

// NewHandle returns an unopened handle for dir ("" = memory-only).
func NewHandle(dir string) *Handle {
	return &Handle{dir: dir}
}

// Path returns the database file path ("" in memory-only mode).
func (h *Handle) Path() string {
	if h.dir == "" {
		return ""
	}
	return dbPathFor(h.dir)
}

// Open returns the shared store, opening it on first use.
func (h *Handle) Open() (*LocalStore, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, &domain.StoreError{Op: "open", Collection: h.dir, Err: errHandleClosed}
	}
	if h.store != nil {
		return h.store, nil
	}

	s, err := Open(h.dir)
	if err != nil {
		return nil, err
	}
	h.store = s
	return s, nil
}

// Close closes the underlying store if it was opened.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	if h.store == nil {
		return nil
	}
	err := h.store.Close()
	h.store = nil
	return err
}

// Reset closes the store and deletes its file. The next Open starts empty.
func (h *Handle) Reset() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.store != nil {
		path := h.store.Path()
		if err := h.store.Close(); err != nil {
			return &domain.StoreError{Op: "reset", Collection: path, Err: err}
		}
		h.store = nil
		if path != "" {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return &domain.StoreError{Op: "reset", Collection: path, Err: err}
			}
		}
		return nil
	}

	if h.dir != "" {
		path := dbPathFor(h.dir)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return &domain.StoreError{Op: "reset", Collection: path, Err: err}
		}
	}
	return nil
}

// === domain.Store delegation ===

func (h *Handle) GetUnit(ctx context.Context, unitID string) (*domain.ContentUnit, bool, error) {
	s, err := h.Open()
	if err != nil {
		return nil, false, err
	}
	return s.GetUnit(ctx, unitID)
}

func (h *Handle) SaveUnit(ctx context.Context, unit *domain.ContentUnit) error {
	s, err := h.Open()
	if err != nil {
		return err
	}
	return s.SaveUnit(ctx, unit)
}

func (h *Handle) DeleteUnit(ctx context.Context, unitID string) error {
	s, err := h.Open()
	if err != nil {
		return err
	}
	return s.DeleteUnit(ctx, unitID)
}

func (h *Handle) HasUnit(ctx context.Context, unitID string) (bool, error) {
	s, err := h.Open()
	if err != nil {
		return false, err
	}
	return s.HasUnit(ctx, unitID)
}

func (h *Handle) UnitIDs(ctx context.Context) ([]string, error) {
	s, err := h.Open()
	if err != nil {
		return nil, err
	}
	return s.UnitIDs(ctx)
}

func (h *Handle) SchemaVersion() (uint64, error) {
	s, err := h.Open()
	if err != nil {
		return 0, err
	}
	return s.SchemaVersion()
}

func (h *Handle) GetProgress(ctx context.Context) (*domain.ProgressRecord, bool, error) {
	s, err := h.Open()
	if err != nil {
		return nil, false, err
	}
	return s.GetProgress(ctx)
}

func (h *Handle) SaveProgress(ctx context.Context, rec domain.ProgressRecord) error {
	s, err := h.Open()
	if err != nil {
		return err
	}
	return s.SaveProgress(ctx, rec)
}

func (h *Handle) DeleteProgress(ctx context.Context) error {
	s, err := h.Open()
	if err != nil {
		return err
	}
	return s.DeleteProgress(ctx)
}

func (h *Handle) GetPreferences(ctx context.Context) (domain.Preferences, bool, error) {
	s, err := h.Open()
	if err != nil {
		return nil, false, err
	}
	return s.GetPreferences(ctx)
}

func (h *Handle) SavePreferences(ctx context.Context, prefs domain.Preferences) error {
	s, err := h.Open()
	if err != nil {
		return err
	}
	return s.SavePreferences(ctx, prefs)
}

func (h *Handle) GetCatalog(ctx context.Context) (domain.Catalog, bool, error) {
	s, err := h.Open()
	if err != nil {
		return nil, false, err
	}
	return s.GetCatalog(ctx)
}

func (h *Handle) SaveCatalog(ctx context.Context, catalog domain.Catalog) error {
	s, err := h.Open()
	if err != nil {
		return err
	}
	return s.SaveCatalog(ctx, catalog)
}
