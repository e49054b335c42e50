// Package history keeps a SQLite record of past conformance runs.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/cosem-conformance/conformance-go/internal/testharness/engine"
)

// Run is one tested meter.
type Run struct {
	ID        string
	Device    string
	Severity  engine.Severity
	StartedAt time.Time
	Duration  time.Duration
	Errors    int
	Warnings  int
	Info      int
	ResultDir string
}

// Finding is a stored finding of a run.
type Finding struct {
	Severity engine.Severity
	Message  string
}

// Store keeps conformance runs in SQLite. It is safe for concurrent use.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// migrations are applied in order; PRAGMA user_version holds how many
// have run.
var migrations = []string{
	`CREATE TABLE runs (
		id            TEXT PRIMARY KEY,
		device        TEXT NOT NULL,
		severity      TEXT NOT NULL,
		started_at    DATETIME NOT NULL,
		duration_ms   INTEGER NOT NULL DEFAULT 0,
		error_count   INTEGER NOT NULL DEFAULT 0,
		warning_count INTEGER NOT NULL DEFAULT 0,
		info_count    INTEGER NOT NULL DEFAULT 0,
		result_dir    TEXT
	);
	CREATE INDEX runs_device ON runs(device, started_at);

	CREATE TABLE findings (
		id       INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id   TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		severity TEXT NOT NULL,
		message  TEXT NOT NULL
	);
	CREATE INDEX findings_run ON findings(run_id);`,
}

// Open opens the history database at path, creating it when needed.
// ":memory:" gives a throwaway database.
func Open(path string) (*Store, error) {
	// _foreign_keys and _busy_timeout are go-sqlite3 DSN options.
	db, err := sql.Open("sqlite3", "file:"+path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open history %s: %w", path, err)
	}
	// A :memory: database exists per connection.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return err
	}
	for i := version; i < len(migrations); i++ {
		if _, err := db.Exec(migrations[i]); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

// Record stores a finished run and its warning and error findings.
func (s *Store) Record(ctx context.Context, id, resultDir string, result *engine.RunResult) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, device, severity, started_at, duration_ms,
		                  error_count, warning_count, info_count, result_dir)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, result.Device, result.Severity().String(), result.StartTime.UTC(),
		result.Duration.Milliseconds(),
		result.Count(engine.SeverityError),
		result.Count(engine.SeverityWarning),
		result.Count(engine.SeverityInfo),
		resultDir)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", id, err)
	}

	for _, f := range result.Findings {
		if f.Severity < engine.SeverityWarning {
			continue
		}
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO findings (run_id, severity, message) VALUES (?, ?, ?)`,
			id, f.Severity.String(), f.Message); err != nil {
			return fmt.Errorf("insert finding: %w", err)
		}
	}
	return tx.Commit()
}

// List returns runs, most recent first. An empty device lists every
// meter; limit <= 0 means 100.
func (s *Store) List(ctx context.Context, device string, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, device, severity, started_at, duration_ms,
		       error_count, warning_count, info_count, result_dir
		FROM runs
		WHERE ? = '' OR device = ?
		ORDER BY started_at DESC
		LIMIT ?
	`, device, device, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var severity string
		var durationMS int64
		var resultDir sql.NullString
		if err := rows.Scan(
			&run.ID, &run.Device, &severity, &run.StartedAt, &durationMS,
			&run.Errors, &run.Warnings, &run.Info, &resultDir,
		); err != nil {
			return nil, err
		}
		if err := run.Severity.UnmarshalText([]byte(severity)); err != nil {
			return nil, err
		}
		run.Duration = time.Duration(durationMS) * time.Millisecond
		run.ResultDir = resultDir.String
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ErrNotFound is returned for unknown run ids.
var ErrNotFound = errors.New("run not found")

// Findings returns the stored findings of a run in the order they were
// recorded.
func (s *Store) Findings(ctx context.Context, id string) ([]Finding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT severity, message FROM findings WHERE run_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Finding
	for rows.Next() {
		var f Finding
		var severity string
		if err := rows.Scan(&severity, &f.Message); err != nil {
			return nil, err
		}
		if err := f.Severity.UnmarshalText([]byte(severity)); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
