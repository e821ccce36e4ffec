package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"mercator-hq/harbor/pkg/telemetry/metrics"
)

// Schema is the table written by SQLiteReporter. Gauge rows carry value;
// timer rows carry the count, failure and duration columns.
const Schema = `
CREATE TABLE IF NOT EXISTS metric_samples (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    recorded_at INTEGER NOT NULL,
    kind        TEXT    NOT NULL CHECK (kind IN ('gauge', 'timer')),
    name        TEXT    NOT NULL,
    value       REAL,
    count       INTEGER,
    failures    INTEGER,
    mean_ns     INTEGER,
    max_ns      INTEGER,
    total_ns    INTEGER
);

CREATE INDEX IF NOT EXISTS idx_metric_samples_name_time
    ON metric_samples (name, recorded_at);
`

const insertSample = `
INSERT INTO metric_samples (recorded_at, kind, name, value, count, failures, mean_ns, max_ns, total_ns)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

// SQLiteReporter stores every snapshot in the metric_samples table of a
// SQLite database.
type SQLiteReporter struct {
	mu     sync.Mutex
	db     *sql.DB
	closed bool
}

// NewSQLiteReporter opens or creates the database at path and ensures the
// schema exists.
func NewSQLiteReporter(ctx context.Context, path string) (*SQLiteReporter, error) {
	if path == "" {
		return nil, errors.New("sqlite report path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteReporter{db: db}, nil
}

// Name implements Reporter.
func (r *SQLiteReporter) Name() string { return "sqlite" }

// Report implements Reporter. A snapshot is written in one transaction.
func (r *SQLiteReporter) Report(ctx context.Context, snap metrics.Snapshot) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return errors.New("sqlite reporter closed")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, insertSample)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	ts := snap.Timestamp.Unix()
	for _, g := range snap.Gauges {
		if _, err = stmt.ExecContext(ctx, ts, "gauge", g.Name, g.Value, nil, nil, nil, nil, nil); err != nil {
			return fmt.Errorf("failed to insert gauge %s: %w", g.Name, err)
		}
	}
	for _, t := range snap.Timers {
		if _, err = stmt.ExecContext(ctx, ts, "timer", t.Name, nil,
			t.Count, t.Failures, int64(t.Mean), int64(t.Max), int64(t.Total)); err != nil {
			return fmt.Errorf("failed to insert timer %s: %w", t.Name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Close implements Reporter.
func (r *SQLiteReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	return r.db.Close()
}
