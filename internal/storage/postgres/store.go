package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"positionScope/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS position_snapshots (
	request_id         TEXT PRIMARY KEY,
	position_id        TEXT NOT NULL,
	protocol           TEXT NOT NULL,
	chain_id           BIGINT NOT NULL,
	status             TEXT NOT NULL,
	currency0          TEXT,
	currency1          TEXT,
	fee                BIGINT,
	tick_spacing       INTEGER,
	hooks              TEXT,
	has_subscriber     BOOLEAN,
	tick_lower         INTEGER,
	tick_upper         INTEGER,
	pool_id            TEXT,
	liquidity          TEXT,
	simulation_success BOOLEAN,
	simulation_error   TEXT,
	gas_fee            TEXT,
	resolved_at        TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS position_snapshots_position_idx
	ON position_snapshots (chain_id, position_id, resolved_at DESC);
`

const insertSnapshot = `
	INSERT INTO position_snapshots (
		request_id, position_id, protocol, chain_id, status,
		currency0, currency1, fee, tick_spacing, hooks,
		has_subscriber, tick_lower, tick_upper, pool_id, liquidity,
		simulation_success, simulation_error, gas_fee, resolved_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
	ON CONFLICT (request_id) DO NOTHING
`

// Store provides Postgres persistence for position snapshots.
type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool, now: time.Now}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the snapshot table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// PutSnapshots inserts snapshots. Rows are keyed by request id, so replays are no-ops.
func (s *Store) PutSnapshots(ctx context.Context, snapshots []model.Snapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	resolvedAt := s.now()
	batch := &pgx.Batch{}
	for _, snapshot := range snapshots {
		batch.Queue(insertSnapshot, snapshotArgs(model.NewSnapshotRecord(snapshot, resolvedAt))...)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range snapshots {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}
	}
	return nil
}

// snapshotArgs returns the insert parameters for a record, in column order.
func snapshotArgs(rec model.SnapshotRecord) []any {
	var fee *int64
	if rec.Fee != nil {
		v := int64(*rec.Fee)
		fee = &v
	}
	return []any{
		rec.RequestID,
		rec.PositionID,
		rec.Protocol,
		int64(rec.ChainID),
		rec.Status,
		rec.Currency0,
		rec.Currency1,
		fee,
		rec.TickSpacing,
		rec.Hooks,
		rec.HasSubscriber,
		rec.TickLower,
		rec.TickUpper,
		rec.PoolID,
		rec.Liquidity,
		rec.SimulationSuccess,
		rec.SimulationError,
		rec.GasFee,
		rec.ResolvedAt,
	}
}
