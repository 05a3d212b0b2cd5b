// Package cache keeps the last successful row snapshot per (kind, profile,
// region) tuple on disk, so a restart or a failed refresh can still show
// something while fresh data loads.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/spyglass-dev/spyglass/fetch"
)

var bucketSnapshots = []byte("snapshots")

// Snapshot is one persisted fetch result.
type Snapshot struct {
	FetchedAt time.Time   `json:"fetched_at"`
	Rows      []fetch.Row `json:"rows"`
}

// Store is a bbolt-backed snapshot store.
type Store struct {
	db  *bbolt.DB
	now func() time.Time
}

// DefaultDir places the database under the user cache directory.
func DefaultDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "spyglass")
	}
	return ".spyglass-cache"
}

// Open opens (or creates) the snapshot database under dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := bbolt.Open(filepath.Join(dir, "snapshots.db"), 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSnapshots)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache bucket: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put replaces the snapshot for the tuple.
func (s *Store) Put(kind, profile, region string, rows []fetch.Row) error {
	value, err := json.Marshal(Snapshot{FetchedAt: s.now().UTC(), Rows: rows})
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSnapshots).Put(snapshotKey(kind, profile, region), value)
	})
}

// Get returns the stored snapshot for the tuple, reporting whether one
// exists.
func (s *Store) Get(kind, profile, region string) (Snapshot, bool, error) {
	var snap Snapshot
	var found bool

	err := s.db.View(func(tx *bbolt.Tx) error {
		value := tx.Bucket(bucketSnapshots).Get(snapshotKey(kind, profile, region))
		if value == nil {
			return nil
		}
		if err := json.Unmarshal(value, &snap); err != nil {
			return fmt.Errorf("failed to decode snapshot: %w", err)
		}
		found = true
		return nil
	})
	if err != nil {
		return Snapshot{}, false, err
	}
	return snap, found, nil
}

// Delete removes the snapshot for the tuple, if present.
func (s *Store) Delete(kind, profile, region string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSnapshots).Delete(snapshotKey(kind, profile, region))
	})
}

func snapshotKey(kind, profile, region string) []byte {
	return []byte(profile + "\x00" + region + "\x00" + kind)
}
