// Package history records rebuild passes in a local SQLite database so past
// runs can be inspected after the fact.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	nberrors "github.com/pythonot/nbrun/internal/errors"
	"github.com/pythonot/nbrun/internal/runner"
)

// Store persists run reports in SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// RunRecord is one stored rebuild pass.
type RunRecord struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Discovered int
	Stale      int
	Rebuilt    int
	Status     string
	Error      string
}

// RebuildRecord is one stored per-notebook rebuild attempt.
type RebuildRecord struct {
	RunID    string
	Notebook string
	Digest   string
	Duration time.Duration
	Status   string
	Error    string
}

// Open creates or opens the history database.
// Use ":memory:" for an in-memory database, or a file path for persistence.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, nberrors.Wrap(err, nberrors.CategoryHistory, "open history database").
			WithContext("path", dbPath)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, nberrors.Wrap(err, nberrors.CategoryHistory, "initialize history schema").
			WithContext("path", dbPath)
	}
	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_ms INTEGER NOT NULL,
		finished_ms INTEGER NOT NULL,
		discovered INTEGER NOT NULL,
		stale INTEGER NOT NULL,
		rebuilt INTEGER NOT NULL,
		status TEXT NOT NULL,
		error TEXT
	);
	CREATE TABLE IF NOT EXISTS rebuilds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		notebook TEXT NOT NULL,
		digest TEXT,
		duration_ms INTEGER NOT NULL,
		status TEXT NOT NULL,
		error TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_ms);
	CREATE INDEX IF NOT EXISTS idx_rebuilds_run_id ON rebuilds(run_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordRun stores a finished pass and all its rebuild attempts atomically.
func (s *Store) RecordRun(ctx context.Context, report *runner.Report, runErr error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := "success"
	errMsg := ""
	if runErr != nil {
		status = "failed"
		errMsg = runErr.Error()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nberrors.Wrap(err, nberrors.CategoryHistory, "begin history transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO runs (id, started_ms, finished_ms, discovered, stale, rebuilt, status, error) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		report.RunID, report.StartedAt.UnixMilli(), report.FinishedAt.UnixMilli(),
		report.Discovered, report.Stale, report.Rebuilt(), status, errMsg,
	)
	if err != nil {
		return nberrors.Wrap(err, nberrors.CategoryHistory, "insert run record")
	}

	for _, rb := range report.Rebuilds {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO rebuilds (run_id, notebook, digest, duration_ms, status, error) VALUES (?, ?, ?, ?, ?, ?)",
			report.RunID, rb.Notebook, rb.Digest, rb.Duration.Milliseconds(), string(rb.Status), rb.Error,
		)
		if err != nil {
			return nberrors.Wrap(err, nberrors.CategoryHistory, "insert rebuild record").
				WithContext("notebook", rb.Notebook)
		}
	}

	if err := tx.Commit(); err != nil {
		return nberrors.Wrap(err, nberrors.CategoryHistory, "commit history transaction")
	}
	return nil
}

// RecentRuns returns the most recent runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, started_ms, finished_ms, discovered, stale, rebuilt, status, error FROM runs ORDER BY started_ms DESC, id LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		var startedMS, finishedMS int64
		if err := rows.Scan(&r.ID, &startedMS, &finishedMS, &r.Discovered, &r.Stale, &r.Rebuilt, &r.Status, &r.Error); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = time.UnixMilli(startedMS)
		r.FinishedAt = time.UnixMilli(finishedMS)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return runs, nil
}

// Rebuilds returns the per-notebook attempts of one run in execution order.
func (s *Store) Rebuilds(ctx context.Context, runID string) ([]RebuildRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT run_id, notebook, digest, duration_ms, status, error FROM rebuilds WHERE run_id = ? ORDER BY id",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query rebuilds: %w", err)
	}
	defer rows.Close()

	var rebuilds []RebuildRecord
	for rows.Next() {
		var r RebuildRecord
		var durationMS int64
		if err := rows.Scan(&r.RunID, &r.Notebook, &r.Digest, &durationMS, &r.Status, &r.Error); err != nil {
			return nil, fmt.Errorf("scan rebuild: %w", err)
		}
		r.Duration = time.Duration(durationMS) * time.Millisecond
		rebuilds = append(rebuilds, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return rebuilds, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
