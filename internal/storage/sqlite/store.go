package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"positionScope/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS position_snapshots (
	request_id         TEXT PRIMARY KEY,
	position_id        TEXT NOT NULL,
	protocol           TEXT NOT NULL,
	chain_id           INTEGER NOT NULL,
	status             TEXT NOT NULL,
	currency0          TEXT,
	currency1          TEXT,
	fee                INTEGER,
	tick_spacing       INTEGER,
	hooks              TEXT,
	has_subscriber     INTEGER,
	tick_lower         INTEGER,
	tick_upper         INTEGER,
	pool_id            TEXT,
	liquidity          TEXT,
	simulation_success INTEGER,
	simulation_error   TEXT,
	gas_fee            TEXT,
	resolved_at        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS position_snapshots_position_idx
	ON position_snapshots (chain_id, position_id, resolved_at);
`

// Fixed-width so that text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store keeps a local history of position snapshots in a SQLite file.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at path and ensures the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// modernc serializes writes per connection; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// PutSnapshots inserts snapshots in one transaction. Existing request ids are skipped.
func (s *Store) PutSnapshots(ctx context.Context, snapshots []model.Snapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO position_snapshots (
			request_id, position_id, protocol, chain_id, status,
			currency0, currency1, fee, tick_spacing, hooks,
			has_subscriber, tick_lower, tick_upper, pool_id, liquidity,
			simulation_success, simulation_error, gas_fee, resolved_at
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	resolvedAt := s.now()
	for _, snapshot := range snapshots {
		rec := model.NewSnapshotRecord(snapshot, resolvedAt)
		_, err := stmt.ExecContext(ctx,
			rec.RequestID,
			rec.PositionID,
			rec.Protocol,
			int64(rec.ChainID),
			rec.Status,
			rec.Currency0,
			rec.Currency1,
			rec.Fee,
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
			rec.ResolvedAt.Format(timeLayout),
		)
		if err != nil {
			return fmt.Errorf("insert snapshot %s: %w", rec.PositionID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// History returns stored snapshots of one position, newest first.
func (s *Store) History(ctx context.Context, chainID uint64, positionID string, limit int) ([]model.SnapshotRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT request_id, position_id, protocol, chain_id, status,
			currency0, currency1, fee, tick_spacing, hooks,
			has_subscriber, tick_lower, tick_upper, pool_id, liquidity,
			simulation_success, simulation_error, gas_fee, resolved_at
		FROM position_snapshots
		WHERE chain_id = ? AND position_id = ?
		ORDER BY resolved_at DESC
		LIMIT ?
	`, int64(chainID), positionID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []model.SnapshotRecord
	for rows.Next() {
		var (
			rec        model.SnapshotRecord
			chain      int64
			currency0  sql.NullString
			currency1  sql.NullString
			fee        sql.NullInt64
			spacing    sql.NullInt32
			hooks      sql.NullString
			subscriber sql.NullBool
			tickLower  sql.NullInt32
			tickUpper  sql.NullInt32
			poolID     sql.NullString
			liquidity  sql.NullString
			simOK      sql.NullBool
			simErr     sql.NullString
			gasFee     sql.NullString
			resolvedAt string
		)
		if err := rows.Scan(
			&rec.RequestID, &rec.PositionID, &rec.Protocol, &chain, &rec.Status,
			&currency0, &currency1, &fee, &spacing, &hooks,
			&subscriber, &tickLower, &tickUpper, &poolID, &liquidity,
			&simOK, &simErr, &gasFee, &resolvedAt,
		); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		rec.ChainID = uint64(chain)
		rec.Currency0 = nullString(currency0)
		rec.Currency1 = nullString(currency1)
		if fee.Valid {
			v := uint32(fee.Int64)
			rec.Fee = &v
		}
		rec.TickSpacing = nullInt32(spacing)
		rec.Hooks = nullString(hooks)
		rec.HasSubscriber = nullBool(subscriber)
		rec.TickLower = nullInt32(tickLower)
		rec.TickUpper = nullInt32(tickUpper)
		rec.PoolID = nullString(poolID)
		rec.Liquidity = nullString(liquidity)
		rec.SimulationSuccess = nullBool(simOK)
		rec.SimulationError = nullString(simErr)
		rec.GasFee = nullString(gasFee)
		rec.ResolvedAt, err = time.Parse(timeLayout, resolvedAt)
		if err != nil {
			return nil, fmt.Errorf("parse resolved_at: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullInt32(v sql.NullInt32) *int32 {
	if !v.Valid {
		return nil
	}
	return &v.Int32
}

func nullBool(v sql.NullBool) *bool {
	if !v.Valid {
		return nil
	}
	return &v.Bool
}
