package store

import (
	"encoding/binary"

	bolt "go.etcd.io/bbolt"
)

var schemaVersionKey = []byte("schema_version")

// migrations add collections; index i upgrades the schema to version i+1.
// Buckets are only ever created, never dropped.
var migrations = [][]Collection{
	{Units},
	{Progress},
	{Preferences, Catalog},
}

// SchemaVersion is the version a freshly migrated database reports.
var SchemaVersion = uint64(len(migrations))

// migrate applies every migration above the stored version. Re-running is a no-op.
func migrate(db *bolt.DB) error {
	return db.Update(func(tx *bolt.Tx) error {
		m, err := tx.CreateBucketIfNotExists([]byte(meta))
		if err != nil {
			return err
		}

		current := uint64(0)
		if v := m.Get(schemaVersionKey); len(v) == 8 {
			current = binary.BigEndian.Uint64(v)
		}

		for version := current; version < SchemaVersion; version++ {
			for _, c := range migrations[version] {
				if _, err := tx.CreateBucketIfNotExists([]byte(c)); err != nil {
					return err
				}
			}
		}

		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, max(current, SchemaVersion))
		return m.Put(schemaVersionKey, buf)
	})
}

// storedVersion reads the schema version (0 if unset).
func storedVersion(db *bolt.DB) (uint64, error) {
	var version uint64
	err := db.View(func(tx *bolt.Tx) error {
		m := tx.Bucket([]byte(meta))
		if m == nil {
			return nil
		}
		if v := m.Get(schemaVersionKey); len(v) == 8 {
			version = binary.BigEndian.Uint64(v)
		}
		return nil
	})
	return version, err
}
