// Package pebble keeps pool snapshots in an embedded Pebble database, one
// JSON value per pool under the "snapshot/" prefix.
package pebble

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"stableScope/internal/model"
	"stableScope/internal/storage"
)

const snapshotPrefix = "snapshot/"

// Store implements storage.SnapshotStore.
type Store struct {
	db *pebble.DB
}

// Open opens (creating if needed) the database at path. A nil fs uses the
// operating system's filesystem.
func Open(path string, fs vfs.FS) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("pebble path is required")
	}
	opts := &pebble.Options{}
	if fs != nil {
		opts.FS = fs
	} else if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create pebble dir: %w", err)
	}
	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("open pebble at %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// PutSnapshot replaces the stored snapshot for snap.Pool.
func (s *Store) PutSnapshot(ctx context.Context, snap model.PoolSnapshot) error {
	if snap.Pool == "" {
		return fmt.Errorf("snapshot pool name required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	value, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.db.Set(snapshotKey(snap.Pool), value, pebble.Sync); err != nil {
		return fmt.Errorf("put snapshot %s: %w", snap.Pool, err)
	}
	return nil
}

// GetSnapshot returns storage.ErrSnapshotNotFound when the pool has none.
func (s *Store) GetSnapshot(ctx context.Context, pool string) (model.PoolSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return model.PoolSnapshot{}, err
	}
	value, closer, err := s.db.Get(snapshotKey(pool))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return model.PoolSnapshot{}, storage.ErrSnapshotNotFound
		}
		return model.PoolSnapshot{}, fmt.Errorf("get snapshot %s: %w", pool, err)
	}
	defer closer.Close()

	var snap model.PoolSnapshot
	if err := json.Unmarshal(value, &snap); err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("parse snapshot %s: %w", pool, err)
	}
	return snap, nil
}

func snapshotKey(pool string) []byte {
	return []byte(snapshotPrefix + pool)
}

var _ storage.SnapshotStore = (*Store)(nil)
