// Package runcache memoises profiler results in a
// small embedded bbolt store, so repeated CLI invocations against an
// unchanged input file skip redundant work. Entries are written once and
// never mutated in place, only overwritten wholesale or cleared.
package runcache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/beefcake-data/beefcake/internal/model"
)

const (
	schemaVersion = 1

	bucketMeta    = "meta"
	bucketProfile = "profile_results"
	keySchemaVer  = "schema_version"
)

// Cache wraps a bbolt database file dedicated to run memoisation.
type Cache struct {
	db   *bolt.DB
	path string
}

// Open opens (creating if absent) the cache file under root/runcache.db,
// running schema migration if the on-disk schema version is older than
// the current one.
func Open(root string) (*Cache, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, model.Context(model.ErrIo, "runcache.open", err)
	}
	path := filepath.Join(root, "runcache.db")
	db, err := bolt.Open(path, 0644, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, model.Context(model.ErrIo, "runcache.open", err)
	}
	c := &Cache{db: db, path: path}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func (c *Cache) migrate() error {
	return c.db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{bucketMeta, bucketProfile} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		meta := tx.Bucket([]byte(bucketMeta))
		if meta.Get([]byte(keySchemaVer)) == nil {
			return meta.Put([]byte(keySchemaVer), []byte(fmt.Sprintf("%d", schemaVersion)))
		}
		return nil
	})
}

// Close closes the underlying bbolt handle.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return model.Context(model.ErrIo, "runcache.close", c.db.Close())
}

// Key builds the memoisation key for a profiler run: the content hash of
// the input file, the sample seed used, and the outlier trim percentage —
// together the inputs that make a profiler run deterministic.
func Key(fileSHA256 string, sampleSeed int64, trimPct float64) string {
	return fmt.Sprintf("%s:%d:%.4f", fileSHA256, sampleSeed, trimPct)
}

// GetProfile returns the cached column summaries for key, if present.
func (c *Cache) GetProfile(key string) ([]model.ColumnSummary, bool, error) {
	var summaries []model.ColumnSummary
	found := false
	err := c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketProfile))
		data := b.Get([]byte(key))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &summaries)
	})
	if err != nil {
		return nil, false, model.Context(model.ErrIo, "runcache.get_profile", err)
	}
	return summaries, found, nil
}

// PutProfile stores summaries under key, overwriting any prior entry.
func (c *Cache) PutProfile(key string, summaries []model.ColumnSummary) error {
	data, err := json.Marshal(summaries)
	if err != nil {
		return model.Context(model.ErrInternal, "runcache.put_profile", err)
	}
	err = c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketProfile)).Put([]byte(key), data)
	})
	return model.Context(model.ErrIo, "runcache.put_profile", err)
}

// Stats reports bucket sizes, the embedded-store analogue of the
// registry's snapshot byte accounting.
type Stats struct {
	ProfileEntries int
	FileBytes      int64
}

// Stats returns current cache occupancy.
func (c *Cache) Stats() (Stats, error) {
	var s Stats
	err := c.db.View(func(tx *bolt.Tx) error {
		s.ProfileEntries = tx.Bucket([]byte(bucketProfile)).Stats().KeyN
		return nil
	})
	if err != nil {
		return Stats{}, model.Context(model.ErrIo, "runcache.stats", err)
	}
	if fi, err := os.Stat(c.path); err == nil {
		s.FileBytes = fi.Size()
	}
	return s, nil
}

// ClearAll empties the profile-results bucket; the schema-version metadata
// is kept.
func (c *Cache) ClearAll() error {
	err := c.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(bucketProfile)); err != nil && err != bolt.ErrBucketNotFound {
			return err
		}
		_, err := tx.CreateBucket([]byte(bucketProfile))
		return err
	})
	return model.Context(model.ErrIo, "runcache.clear_all", err)
}

// Compact rewrites the database file to reclaim space freed by overwritten
// entries, atomically swapping the compacted file into place.
func (c *Cache) Compact() error {
	tmpPath := c.path + ".compact.tmp"
	dst, err := bolt.Open(tmpPath, 0644, nil)
	if err != nil {
		return model.Context(model.ErrIo, "runcache.compact", err)
	}
	if err := bolt.Compact(dst, c.db, 0); err != nil {
		dst.Close()
		os.Remove(tmpPath)
		return model.Context(model.ErrIo, "runcache.compact", err)
	}
	dst.Close()
	c.db.Close()
	if err := os.Rename(tmpPath, c.path); err != nil {
		return model.Context(model.ErrIo, "runcache.compact", err)
	}
	db, err := bolt.Open(c.path, 0644, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return model.Context(model.ErrIo, "runcache.compact", err)
	}
	c.db = db
	return nil
}
