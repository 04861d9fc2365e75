package results

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/tradesim/tradesim/internal/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id            TEXT PRIMARY KEY,
    strategy      TEXT     NOT NULL,
    symbol        TEXT     NOT NULL,
    start_date    DATETIME NOT NULL,
    end_date      DATETIME NOT NULL,
    starting_cash REAL     NOT NULL,
    final_equity  REAL     NOT NULL,
    bars          INTEGER  NOT NULL DEFAULT 0,
    orders        INTEGER  NOT NULL DEFAULT 0,
    fills         INTEGER  NOT NULL DEFAULT 0,
    created_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS run_metrics (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    name   TEXT NOT NULL,
    value  TEXT NOT NULL,
    PRIMARY KEY (run_id, name)
);

CREATE INDEX IF NOT EXISTS idx_runs_created  ON runs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_runs_strategy ON runs(strategy);
`

// SQLiteStore implements Store using SQLite (pure Go, no CGo).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at the given path and
// applies the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("results: open %q: %w", path, err)
	}
	// SQLite is single-writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("results: apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun persists the run row and its metrics in one transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, run Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("results: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs
			(id, strategy, symbol, start_date, end_date, starting_cash,
			 final_equity, bars, orders, fills, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Strategy, run.Symbol, run.StartDate.UTC(), run.EndDate.UTC(),
		run.StartingCash, run.FinalEquity, run.Bars, run.Orders, run.Fills,
		run.CreatedAt.UTC(),
	); err != nil {
		return fmt.Errorf("results: insert run %s: %w", run.ID, err)
	}

	for name, value := range run.Metrics {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_metrics (run_id, name, value) VALUES (?, ?, ?)`,
			run.ID, name, value,
		); err != nil {
			return fmt.Errorf("results: insert metric %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("results: commit run %s: %w", run.ID, err)
	}
	return nil
}

// GetRun retrieves one run with its metric map.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	var run Run
	err := s.db.QueryRowContext(ctx, `
		SELECT id, strategy, symbol, start_date, end_date, starting_cash,
		       final_equity, bars, orders, fills, created_at
		FROM runs WHERE id = ?`, id,
	).Scan(&run.ID, &run.Strategy, &run.Symbol, &run.StartDate, &run.EndDate,
		&run.StartingCash, &run.FinalEquity, &run.Bars, &run.Orders, &run.Fills,
		&run.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.WrapError(core.ErrRunNotFound, fmt.Errorf("id %s", id))
	}
	if err != nil {
		return nil, fmt.Errorf("results: select run %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, value FROM run_metrics WHERE run_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("results: select metrics of %s: %w", id, err)
	}
	defer rows.Close()

	run.Metrics = make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("results: scan metric of %s: %w", id, err)
		}
		run.Metrics[name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("results: iterate metrics of %s: %w", id, err)
	}

	return &run, nil
}

// PruneRuns deletes all but the newest keep runs, metrics included.
// SQLite does not enforce the schema's cascade by default, so metric
// rows are removed in the same transaction.
func (s *SQLiteStore) PruneRuns(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("results: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM run_metrics WHERE run_id NOT IN
			(SELECT id FROM runs ORDER BY created_at DESC LIMIT ?)`, keep,
	); err != nil {
		return 0, fmt.Errorf("results: prune metrics: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		DELETE FROM runs WHERE id NOT IN
			(SELECT id FROM runs ORDER BY created_at DESC LIMIT ?)`, keep)
	if err != nil {
		return 0, fmt.Errorf("results: prune runs: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("results: prune rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("results: commit prune: %w", err)
	}
	return removed, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, strategy, symbol, start_date, end_date, starting_cash,
		       final_equity, bars, orders, fills, created_at
		FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("results: list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Strategy, &run.Symbol, &run.StartDate,
			&run.EndDate, &run.StartingCash, &run.FinalEquity, &run.Bars,
			&run.Orders, &run.Fills, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("results: scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
