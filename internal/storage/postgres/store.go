package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"stableScope/internal/model"
	"stableScope/internal/storage"
)

// Schema creates the tables used by Store. Amounts are NUMERIC(78,0) so any
// uint256 fits.
const Schema = `
CREATE TABLE IF NOT EXISTS pool_snapshots (
	pool TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	address TEXT NOT NULL,
	seq BIGINT NOT NULL,
	ts BIGINT NOT NULL,
	balance0 NUMERIC(78,0) NOT NULL,
	balance1 NUMERIC(78,0) NOT NULL,
	lp_total_supply NUMERIC(78,0) NOT NULL,
	virtual_price NUMERIC(78,0),
	paused BOOLEAN NOT NULL,
	body JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS pool_window_metrics (
	chain_id BIGINT NOT NULL,
	pool TEXT NOT NULL,
	window_size_seconds BIGINT NOT NULL,
	window_start_ts TIMESTAMPTZ NOT NULL,
	window_end_ts TIMESTAMPTZ NOT NULL,
	swap_count BIGINT NOT NULL,
	volume0 NUMERIC(78,0) NOT NULL,
	volume1 NUMERIC(78,0) NOT NULL,
	fee0 NUMERIC(78,0) NOT NULL,
	fee1 NUMERIC(78,0) NOT NULL,
	deposits BIGINT NOT NULL,
	withdrawals BIGINT NOT NULL,
	lp_supply NUMERIC(78,0),
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (chain_id, pool, window_size_seconds, window_start_ts)
);
CREATE TABLE IF NOT EXISTS runner_state (
	name TEXT PRIMARY KEY,
	last_processed BIGINT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
`

// Store provides Postgres persistence for snapshots, metrics and runner state.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates missing tables.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// PutSnapshot inserts or replaces the snapshot of snap.Pool. Older sequence
// numbers never overwrite newer ones.
func (s *Store) PutSnapshot(ctx context.Context, snap model.PoolSnapshot) error {
	if snap.Pool == "" {
		return fmt.Errorf("snapshot pool name required")
	}
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO pool_snapshots (
			pool, symbol, address, seq, ts, balance0, balance1, lp_total_supply,
			virtual_price, paused, body, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now(), now())
		ON CONFLICT (pool)
		DO UPDATE SET
			symbol = EXCLUDED.symbol,
			address = EXCLUDED.address,
			seq = EXCLUDED.seq,
			ts = EXCLUDED.ts,
			balance0 = EXCLUDED.balance0,
			balance1 = EXCLUDED.balance1,
			lp_total_supply = EXCLUDED.lp_total_supply,
			virtual_price = EXCLUDED.virtual_price,
			paused = EXCLUDED.paused,
			body = EXCLUDED.body,
			updated_at = now()
		WHERE pool_snapshots.seq <= EXCLUDED.seq
	`,
		snap.Pool,
		snap.Symbol,
		snap.Address.Hex(),
		int64(snap.Seq),
		int64(snap.Timestamp),
		numeric(snap.Balances[0]),
		numeric(snap.Balances[1]),
		numeric(snap.LPTotalSupply),
		nullableNumeric(snap.VirtualPrice),
		snap.Paused,
		body,
	)
	if err != nil {
		return fmt.Errorf("upsert snapshot %s: %w", snap.Pool, err)
	}
	return nil
}

// GetSnapshot returns storage.ErrSnapshotNotFound when the pool has none.
func (s *Store) GetSnapshot(ctx context.Context, pool string) (model.PoolSnapshot, error) {
	var body []byte
	row := s.pool.QueryRow(ctx, `SELECT body FROM pool_snapshots WHERE pool=$1`, pool)
	if err := row.Scan(&body); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.PoolSnapshot{}, storage.ErrSnapshotNotFound
		}
		return model.PoolSnapshot{}, err
	}
	var snap model.PoolSnapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("parse snapshot %s: %w", pool, err)
	}
	return snap, nil
}

// UpsertWindowMetrics inserts or updates window metrics.
func (s *Store) UpsertWindowMetrics(ctx context.Context, metrics []model.PoolWindowMetrics) error {
	if len(metrics) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, m := range metrics {
		batch.Queue(`
			INSERT INTO pool_window_metrics (
				chain_id, pool, window_size_seconds, window_start_ts, window_end_ts,
				swap_count, volume0, volume1, fee0, fee1, deposits, withdrawals, lp_supply,
				created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,now(),now())
			ON CONFLICT (chain_id, pool, window_size_seconds, window_start_ts)
			DO UPDATE SET
				window_end_ts = EXCLUDED.window_end_ts,
				swap_count = EXCLUDED.swap_count,
				volume0 = EXCLUDED.volume0,
				volume1 = EXCLUDED.volume1,
				fee0 = EXCLUDED.fee0,
				fee1 = EXCLUDED.fee1,
				deposits = EXCLUDED.deposits,
				withdrawals = EXCLUDED.withdrawals,
				lp_supply = EXCLUDED.lp_supply,
				updated_at = now()
		`,
			int64(m.ChainID),
			m.Pool,
			m.WindowSizeSecs,
			m.WindowStart,
			m.WindowEnd,
			int64(m.SwapCount),
			m.Volume0,
			m.Volume1,
			m.Fee0,
			m.Fee1,
			int64(m.Deposits),
			int64(m.Withdrawals),
			m.LPSupply,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range metrics {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadState returns the last processed position stored under name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var pos int64
	row := s.pool.QueryRow(ctx, `SELECT last_processed FROM runner_state WHERE name=$1`, name)
	if err := row.Scan(&pos); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(pos), true, nil
}

// SaveState upserts the last processed position for name.
func (s *Store) SaveState(ctx context.Context, name string, pos uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO runner_state (name, last_processed, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_processed = EXCLUDED.last_processed, updated_at = now()
	`, name, int64(pos))
	return err
}

// numeric renders an amount as a decimal string Postgres casts to NUMERIC.
func numeric(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}

func nullableNumeric(v *uint256.Int) *string {
	if v == nil {
		return nil
	}
	out := v.Dec()
	return &out
}

var _ storage.SnapshotStore = (*Store)(nil)
