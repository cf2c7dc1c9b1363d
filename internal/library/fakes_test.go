package library

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/mmcdole/lectio/internal/domain"
	"github.com/mmcdole/lectio/internal/store"
	"github.com/stretchr/testify/require"
)

// fakeSource serves units with a given chapter count and records fetches.
type fakeSource struct {
	mu       sync.Mutex
	chapters map[string]int
	fail     map[string]error
	fetches  map[string]int
	order    []string
	catalog  domain.Catalog
	catErr   error

	// When set, FetchUnit signals started and waits on release.
	started chan string
	release chan struct{}
}

func newFakeSource(chapters map[string]int) *fakeSource {
	return &fakeSource{
		chapters: chapters,
		fail:     make(map[string]error),
		fetches:  make(map[string]int),
	}
}

func (f *fakeSource) FetchCatalog(ctx context.Context) (domain.Catalog, error) {
	if f.catErr != nil {
		return nil, f.catErr
	}
	return f.catalog, nil
}

func (f *fakeSource) FetchUnit(ctx context.Context, unitID string) (*domain.ContentUnit, error) {
	f.mu.Lock()
	f.fetches[unitID]++
	f.order = append(f.order, unitID)
	err := f.fail[unitID]
	n, known := f.chapters[unitID]
	started, release := f.started, f.release
	f.mu.Unlock()

	if started != nil {
		started <- unitID
		<-release
	}

	if err != nil {
		return nil, err
	}
	if !known {
		return nil, &domain.NetworkError{Status: http.StatusNotFound, URL: "/data/book_" + unitID + ".json"}
	}

	chapters := make([][]string, n)
	for i := range chapters {
		chapters[i] = []string{fmt.Sprintf("%s %d:1", unitID, i+1)}
	}
	return &domain.ContentUnit{UnitID: unitID, Chapters: chapters}, nil
}

func (f *fakeSource) fetchCount(unitID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches[unitID]
}

func (f *fakeSource) totalFetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.order)
}

// failingStore wraps a UnitStore and fails selected operations.
type failingStore struct {
	domain.UnitStore
	failSave   bool
	failDelete map[string]bool
	failHas    bool
}

var errDisk = errors.New("disk full")

func (s *failingStore) SaveUnit(ctx context.Context, unit *domain.ContentUnit) error {
	if s.failSave {
		return &domain.StoreError{Op: "put", Collection: "units", Key: unit.UnitID, Err: errDisk}
	}
	return s.UnitStore.SaveUnit(ctx, unit)
}

func (s *failingStore) DeleteUnit(ctx context.Context, unitID string) error {
	if s.failDelete[unitID] {
		return &domain.StoreError{Op: "delete", Collection: "units", Key: unitID, Err: errDisk}
	}
	return s.UnitStore.DeleteUnit(ctx, unitID)
}

func (s *failingStore) HasUnit(ctx context.Context, unitID string) (bool, error) {
	if s.failHas {
		return false, &domain.StoreError{Op: "get", Collection: "units", Key: unitID, Err: errDisk}
	}
	return s.UnitStore.HasUnit(ctx, unitID)
}

// statsRecorder collects observer callbacks.
type statsRecorder struct {
	mu    sync.Mutex
	stats []domain.CacheStats
}

func (r *statsRecorder) OnStats(stats domain.CacheStats) {
	r.mu.Lock()
	r.stats = append(r.stats, stats)
	r.mu.Unlock()
}

func (r *statsRecorder) last() (domain.CacheStats, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.stats) == 0 {
		return domain.CacheStats{}, false
	}
	return r.stats[len(r.stats)-1], true
}

func memoryStore(t *testing.T) *store.LocalStore {
	t.Helper()
	s, err := store.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func catalogOf(ids ...string) domain.Catalog {
	catalog := make(domain.Catalog, len(ids))
	for i, id := range ids {
		catalog[i] = domain.CatalogEntry{UnitID: id, DisplayName: "Book " + id}
	}
	return catalog
}

func chaptersFor(ids ...string) map[string]int {
	m := make(map[string]int, len(ids))
	for _, id := range ids {
		m[id] = 3
	}
	return m
}
