package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/mmcdole/lectio/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Collection names a bucket.
type Collection string

// Collections
const (
	Units       Collection = "units"
	Progress    Collection = "progress"
	Preferences Collection = "preferences"
	Catalog     Collection = "catalog"
	meta        Collection = "meta"
)

const (
	dbFileName     = "lectio.db"
	preferencesKey = "ui"
	catalogKey     = "manifest"
	openTimeout    = 1 * time.Second
)

// LocalStore implements domain.Store using BoltDB.
type LocalStore struct {
	db   *bolt.DB
	path string
	mu   sync.RWMutex // Protects memory cache

	// Raw values promoted on access
	cache map[string][]byte
	// gen counts Put/Delete calls; a read only promotes if no write
	// happened while it was reading bolt
	gen uint64
}

// Open opens (creating if needed) the store under dir and applies migrations.
// An empty dir gives a memory-only store.
func Open(dir string) (*LocalStore, error) {
	if dir == "" {
		return &LocalStore{cache: make(map[string][]byte)}, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &domain.StoreError{Op: "open", Collection: dir, Err: err}
	}

	dbPath := dbPathFor(dir)
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, &domain.StoreError{Op: "open", Collection: dbPath, Err: err}
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, &domain.StoreError{Op: "migrate", Collection: dbPath, Err: err}
	}

	return &LocalStore{db: db, path: dbPath, cache: make(map[string][]byte)}, nil
}

// Path returns the database file path ("" in memory-only mode).
func (s *LocalStore) Path() string { return s.path }

func (s *LocalStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic collection access ===

// Get decodes the value at collection/key into dest.
func (s *LocalStore) Get(ctx context.Context, c Collection, key string, dest any) (bool, error) {
	data, ok, err := s.getRaw(ctx, c, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, &domain.StoreError{Op: "decode", Collection: string(c), Key: key, Err: err}
	}
	return true, nil
}

// Has reports whether collection/key holds a value.
func (s *LocalStore) Has(ctx context.Context, c Collection, key string) (bool, error) {
	_, ok, err := s.getRaw(ctx, c, key)
	return ok, err
}

// Put writes value at collection/key, replacing any previous value.
func (s *LocalStore) Put(ctx context.Context, c Collection, key string, value any) error {
	if err := ctx.Err(); err != nil {
		return &domain.StoreError{Op: "put", Collection: string(c), Key: key, Err: err}
	}

	data, err := json.Marshal(value)
	if err != nil {
		return &domain.StoreError{Op: "encode", Collection: string(c), Key: key, Err: err}
	}

	if s.db != nil {
		err = s.db.Update(func(tx *bolt.Tx) error {
			b := tx.Bucket([]byte(c))
			if b == nil {
				return fmt.Errorf("bucket %q missing", c)
			}
			return b.Put([]byte(key), data)
		})
		if err != nil {
			return &domain.StoreError{Op: "put", Collection: string(c), Key: key, Err: err}
		}
	}

	// Update memory cache only after the durable write succeeded
	s.mu.Lock()
	s.cache[cacheKey(c, key)] = data
	s.gen++
	s.mu.Unlock()
	return nil
}

// Delete removes collection/key. Deleting a missing key is not an error.
func (s *LocalStore) Delete(ctx context.Context, c Collection, key string) error {
	if err := ctx.Err(); err != nil {
		return &domain.StoreError{Op: "delete", Collection: string(c), Key: key, Err: err}
	}

	if s.db != nil {
		err := s.db.Update(func(tx *bolt.Tx) error {
			b := tx.Bucket([]byte(c))
			if b == nil {
				return nil
			}
			return b.Delete([]byte(key))
		})
		if err != nil {
			return &domain.StoreError{Op: "delete", Collection: string(c), Key: key, Err: err}
		}
	}

	s.mu.Lock()
	delete(s.cache, cacheKey(c, key))
	s.gen++
	s.mu.Unlock()
	return nil
}

// Keys lists every key in a collection.
func (s *LocalStore) Keys(ctx context.Context, c Collection) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.StoreError{Op: "keys", Collection: string(c), Err: err}
	}

	if s.db == nil {
		prefix := string(c) + ":"
		s.mu.RLock()
		defer s.mu.RUnlock()
		var keys []string
		for k := range s.cache {
			if len(k) > len(prefix) && k[:len(prefix)] == prefix {
				keys = append(keys, k[len(prefix):])
			}
		}
		return keys, nil
	}

	var keys []string
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(c))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, &domain.StoreError{Op: "keys", Collection: string(c), Err: err}
	}
	return keys, nil
}

func (s *LocalStore) getRaw(ctx context.Context, c Collection, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, &domain.StoreError{Op: "get", Collection: string(c), Key: key, Err: err}
	}

	ck := cacheKey(c, key)

	// Check memory cache first
	s.mu.RLock()
	if data, ok := s.cache[ck]; ok {
		s.mu.RUnlock()
		return data, true, nil
	}
	gen := s.gen
	s.mu.RUnlock()

	if s.db == nil {
		return nil, false, nil
	}

	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(c))
		if b == nil {
			return fmt.Errorf("bucket %q missing", c)
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		return nil, false, &domain.StoreError{Op: "get", Collection: string(c), Key: key, Err: err}
	}
	if data == nil {
		return nil, false, nil
	}

	s.promote(ck, data, gen)
	return data, true, nil
}

// promote caches data read at generation gen, unless a Put or Delete
// landed since.
func (s *LocalStore) promote(ck string, data []byte, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen == gen {
		s.cache[ck] = data
	}
}

func dbPathFor(dir string) string {
	return filepath.Join(dir, dbFileName)
}

func cacheKey(c Collection, key string) string {
	return string(c) + ":" + key
}

// === Units ===

func (s *LocalStore) GetUnit(ctx context.Context, unitID string) (*domain.ContentUnit, bool, error) {
	var unit domain.ContentUnit
	ok, err := s.Get(ctx, Units, unitID, &unit)
	if err != nil || !ok {
		return nil, false, err
	}
	return &unit, true, nil
}

func (s *LocalStore) SaveUnit(ctx context.Context, unit *domain.ContentUnit) error {
	if unit == nil || unit.UnitID == "" {
		return &domain.StoreError{Op: "put", Collection: string(Units), Err: fmt.Errorf("unit has no id")}
	}
	return s.Put(ctx, Units, unit.UnitID, unit)
}

func (s *LocalStore) DeleteUnit(ctx context.Context, unitID string) error {
	return s.Delete(ctx, Units, unitID)
}

func (s *LocalStore) HasUnit(ctx context.Context, unitID string) (bool, error) {
	return s.Has(ctx, Units, unitID)
}

// UnitIDs lists every stored unit, sorted. This includes units the current
// catalog no longer names.
func (s *LocalStore) UnitIDs(ctx context.Context) ([]string, error) {
	ids, err := s.Keys(ctx, Units)
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

// SchemaVersion reports the on-disk schema version. A memory-only store is
// always current.
func (s *LocalStore) SchemaVersion() (uint64, error) {
	if s.db == nil {
		return SchemaVersion, nil
	}
	version, err := storedVersion(s.db)
	if err != nil {
		return 0, &domain.StoreError{Op: "version", Collection: string(meta), Err: err}
	}
	return version, nil
}

// === Progress ===

func (s *LocalStore) GetProgress(ctx context.Context) (*domain.ProgressRecord, bool, error) {
	var rec domain.ProgressRecord
	ok, err := s.Get(ctx, Progress, domain.ProgressID, &rec)
	if err != nil || !ok {
		return nil, false, err
	}
	return &rec, true, nil
}

func (s *LocalStore) SaveProgress(ctx context.Context, rec domain.ProgressRecord) error {
	rec.ID = domain.ProgressID
	return s.Put(ctx, Progress, domain.ProgressID, rec)
}

func (s *LocalStore) DeleteProgress(ctx context.Context) error {
	return s.Delete(ctx, Progress, domain.ProgressID)
}

// === Preferences ===

func (s *LocalStore) GetPreferences(ctx context.Context) (domain.Preferences, bool, error) {
	var prefs json.RawMessage
	ok, err := s.Get(ctx, Preferences, preferencesKey, &prefs)
	if err != nil || !ok {
		return nil, false, err
	}
	return prefs, true, nil
}

func (s *LocalStore) SavePreferences(ctx context.Context, prefs domain.Preferences) error {
	if !json.Valid(prefs) {
		return &domain.StoreError{Op: "put", Collection: string(Preferences), Key: preferencesKey, Err: fmt.Errorf("preferences are not valid JSON")}
	}
	return s.Put(ctx, Preferences, preferencesKey, json.RawMessage(prefs))
}

// === Catalog ===

func (s *LocalStore) GetCatalog(ctx context.Context) (domain.Catalog, bool, error) {
	var catalog domain.Catalog
	ok, err := s.Get(ctx, Catalog, catalogKey, &catalog)
	if err != nil || !ok {
		return nil, false, err
	}
	return catalog, true, nil
}

func (s *LocalStore) SaveCatalog(ctx context.Context, catalog domain.Catalog) error {
	return s.Put(ctx, Catalog, catalogKey, catalog)
}
