package storage

import (
	"context"
	"errors"

	"stableScope/internal/model"
)

// ErrSnapshotNotFound is returned when no snapshot is stored for a pool.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Storage defines a sink for log records.
type Storage interface {
	PutLogBatch(logs []model.LogRecord) error
}

// SnapshotStore persists the latest snapshot of each pool, keyed by pool name.
type SnapshotStore interface {
	PutSnapshot(ctx context.Context, snap model.PoolSnapshot) error
	GetSnapshot(ctx context.Context, pool string) (model.PoolSnapshot, error)
}
