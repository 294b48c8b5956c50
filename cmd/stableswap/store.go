package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"stableScope/internal/config"
	"stableScope/internal/lptoken"
	"stableScope/internal/model"
	"stableScope/internal/pool"
	"stableScope/internal/storage"
	pebblestore "stableScope/internal/storage/pebble"
	"stableScope/internal/storage/postgres"
)

// openSnapshots returns nil with a no-op close when no store is configured.
func openSnapshots(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (storage.SnapshotStore, func(), error) {
	switch {
	case cfg.PGDSN != "":
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, nil, err
		}
		logger.Info("snapshot store", zap.String("backend", "postgres"), zap.String("pg_dsn", redactDSN(cfg.PGDSN)))
		return store, store.Close, nil
	case cfg.SnapshotDB != "":
		store, err := pebblestore.Open(cfg.SnapshotDB, nil)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("snapshot store", zap.String("backend", "pebble"), zap.String("path", cfg.SnapshotDB))
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Warn("close pebble", zap.Error(err))
			}
		}, nil
	default:
		return nil, func() {}, nil
	}
}

// loadSnapshot reads the latest snapshot of name. found is false when the
// store holds none.
func loadSnapshot(ctx context.Context, store storage.SnapshotStore, name string) (snap model.PoolSnapshot, found bool, err error) {
	if store == nil {
		return model.PoolSnapshot{}, false, nil
	}
	snap, err = store.GetSnapshot(ctx, name)
	if errors.Is(err, storage.ErrSnapshotNotFound) {
		return model.PoolSnapshot{}, false, nil
	}
	if err != nil {
		return model.PoolSnapshot{}, false, fmt.Errorf("load snapshot %s: %w", name, err)
	}
	return snap, true, nil
}

func restorePool(snap model.PoolSnapshot, price pool.PriceSource, clock pool.Clock, logger *zap.Logger) (*pool.Pool, error) {
	ledger := lptoken.NewLedger(snap.Pool+" LP", snap.Symbol, snap.Address)
	p, err := pool.Restore(snap, pool.Deps{Ledger: ledger, Price: price, Clock: clock, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("restore pool %s: %w", snap.Pool, err)
	}
	return p, nil
}

func requireSnapshot(ctx context.Context, cfg config.StoreConfig, name string, logger *zap.Logger) (model.PoolSnapshot, error) {
	store, closeStore, err := openSnapshots(ctx, cfg, logger)
	if err != nil {
		return model.PoolSnapshot{}, err
	}
	defer closeStore()
	if store == nil {
		return model.PoolSnapshot{}, fmt.Errorf("snapshot-db or pg-dsn is required")
	}
	snap, found, err := loadSnapshot(ctx, store, name)
	if err != nil {
		return model.PoolSnapshot{}, err
	}
	if !found {
		return model.PoolSnapshot{}, fmt.Errorf("no snapshot for pool %s", name)
	}
	return snap, nil
}
