/*
Package sqlite provides a SQLite-backed implementation of the selection store.

PURPOSE:
  Persists what a worker or administrator decided about their days:
  absence selections and call-out confirmations. Classification results
  are not stored; they are recomputed from timesheets and selections on
  every run.

INTERFACES IMPLEMENTED:
  overtime.SelectionStore: absence and call-out selections per worker
  overtime.RunLog:         append-only log of classification runs

KEY TABLES:
  absence_selections:  (worker_id, date) -> absence type
  callout_selections:  (worker_id, date) -> confirmed
  runs:                one row per classification run

SEMANTICS:
  - Saving a selection map upserts each date. AbsenceUnset and an
    unselected call-out remove the row.
  - The runs table is append-only: no UPDATE or DELETE statements.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of SQLite's own locking.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) so readers never block
  the single writer.

USAGE:
  store, err := sqlite.New("./data/overtime.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - overtime/store.go: Interface definitions
  - store/memory: In-memory implementation for tests and the CLI
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/overtime"
)

// Store implements overtime.SelectionStore and overtime.RunLog using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var (
	_ overtime.SelectionStore = (*Store)(nil)
	_ overtime.RunLog         = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would otherwise get its own database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS absence_selections (
		worker_id TEXT NOT NULL,
		date TEXT NOT NULL,
		absence_type TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (worker_id, date)
	);

	CREATE TABLE IF NOT EXISTS callout_selections (
		worker_id TEXT NOT NULL,
		date TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (worker_id, date)
	);

	-- Classification runs (append-only)
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		workers INTEGER NOT NULL,
		days INTEGER NOT NULL,
		failures INTEGER NOT NULL,
		defects INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at
		ON runs(started_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// runTimeLayout has fixed width so started_at sorts as text.
const runTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// =============================================================================
// SELECTION STORE (overtime.SelectionStore interface)
// =============================================================================

// SaveAbsences upserts a worker's absence selections in one transaction.
func (s *Store) SaveAbsences(ctx context.Context, worker overtime.WorkerID, absences map[generic.Date]overtime.AbsenceType) error {
	return s.withTx(ctx, func(tx execer) error {
		now := time.Now().UTC().Format(time.RFC3339)
		for date, absence := range absences {
			var err error
			if absence == overtime.AbsenceUnset {
				_, err = tx.ExecContext(ctx,
					`DELETE FROM absence_selections WHERE worker_id = ? AND date = ?`,
					string(worker), date.String())
			} else {
				_, err = tx.ExecContext(ctx, `
					INSERT INTO absence_selections (worker_id, date, absence_type, updated_at)
					VALUES (?, ?, ?, ?)
					ON CONFLICT(worker_id, date) DO UPDATE SET
						absence_type = excluded.absence_type,
						updated_at = excluded.updated_at`,
					string(worker), date.String(), string(absence), now)
			}
			if err != nil {
				return fmt.Errorf("failed to save absence for %s on %s: %w", worker, date, err)
			}
		}
		return nil
	})
}

// SaveCallOuts upserts a worker's call-out selections in one transaction.
func (s *Store) SaveCallOuts(ctx context.Context, worker overtime.WorkerID, callOuts map[generic.Date]bool) error {
	return s.withTx(ctx, func(tx execer) error {
		now := time.Now().UTC().Format(time.RFC3339)
		for date, selected := range callOuts {
			var err error
			if selected {
				_, err = tx.ExecContext(ctx, `
					INSERT INTO callout_selections (worker_id, date, updated_at)
					VALUES (?, ?, ?)
					ON CONFLICT(worker_id, date) DO UPDATE SET updated_at = excluded.updated_at`,
					string(worker), date.String(), now)
			} else {
				_, err = tx.ExecContext(ctx,
					`DELETE FROM callout_selections WHERE worker_id = ? AND date = ?`,
					string(worker), date.String())
			}
			if err != nil {
				return fmt.Errorf("failed to save call-out for %s on %s: %w", worker, date, err)
			}
		}
		return nil
	})
}

// LoadSelections returns selections for the given workers within period.
// No workers means every worker; a zero period bound is unbounded.
func (s *Store) LoadSelections(ctx context.Context, workers []overtime.WorkerID, period generic.Period) (overtime.Selections, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sel := overtime.NewSelections()
	where, args := selectionFilter(workers, period)

	rows, err := s.db.QueryContext(ctx,
		`SELECT worker_id, date, absence_type FROM absence_selections`+where+` ORDER BY worker_id, date`, args...)
	if err != nil {
		return sel, fmt.Errorf("failed to query absences: %w", err)
	}
	err = scanSelections(rows, func(worker overtime.WorkerID, date generic.Date, value string) {
		sel.SetAbsence(worker, date, overtime.AbsenceType(value))
	})
	if err != nil {
		return sel, err
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT worker_id, date, '' FROM callout_selections`+where+` ORDER BY worker_id, date`, args...)
	if err != nil {
		return sel, fmt.Errorf("failed to query call-outs: %w", err)
	}
	err = scanSelections(rows, func(worker overtime.WorkerID, date generic.Date, _ string) {
		sel.SetCallOut(worker, date, true)
	})
	return sel, err
}

func selectionFilter(workers []overtime.WorkerID, period generic.Period) (string, []any) {
	var clauses []string
	var args []any
	if len(workers) > 0 {
		clauses = append(clauses, "worker_id IN (?"+strings.Repeat(",?", len(workers)-1)+")")
		for _, w := range workers {
			args = append(args, string(w))
		}
	}
	// ISO dates compare correctly as text.
	if !period.Start.IsZero() {
		clauses = append(clauses, "date >= ?")
		args = append(args, period.Start.String())
	}
	if !period.End.IsZero() {
		clauses = append(clauses, "date <= ?")
		args = append(args, period.End.String())
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanSelections(rows *sql.Rows, fn func(overtime.WorkerID, generic.Date, string)) error {
	defer rows.Close()
	for rows.Next() {
		var worker, date, value string
		if err := rows.Scan(&worker, &date, &value); err != nil {
			return fmt.Errorf("failed to scan selection: %w", err)
		}
		d, err := generic.ParseDate(date)
		if err != nil {
			return fmt.Errorf("corrupt selection date %q: %w", date, err)
		}
		fn(overtime.WorkerID(worker), d, value)
	}
	return rows.Err()
}

// =============================================================================
// RUN LOG (overtime.RunLog interface)
// =============================================================================

// RecordRun appends a run. An empty ID is replaced by a new UUID.
func (s *Store) RecordRun(ctx context.Context, run overtime.RunSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, duration_ms, workers, days, failures, defects)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UTC().Format(runTimeLayout),
		run.Duration.Milliseconds(),
		run.Workers, run.Days, run.Failures, run.Defects,
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs first. A non-positive limit
// returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]overtime.RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, started_at, duration_ms, workers, days, failures, defects
		FROM runs
		ORDER BY started_at DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []overtime.RunSummary
	for rows.Next() {
		var (
			r          overtime.RunSummary
			startedAt  string
			durationMS int64
		)
		if err := rows.Scan(&r.ID, &startedAt, &durationMS, &r.Workers, &r.Days, &r.Failures, &r.Defects); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt, _ = time.Parse(runTimeLayout, startedAt)
		r.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *Store) withTx(ctx context.Context, fn func(tx execer) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(sqlTx); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// Reset removes every selection. Runs are kept.
func (s *Store) Reset(ctx context.Context) error {
	return s.withTx(ctx, func(tx execer) error {
		for _, table := range []string{"absence_selections", "callout_selections"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("failed to reset %s: %w", table, err)
			}
		}
		return nil
	})
}
