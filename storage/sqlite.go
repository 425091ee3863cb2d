// SQLite run ledger.
//
// Information Hiding:
// - SQLite connection management hidden behind interface
// - Schema details encapsulated
// - Thread-safe via sql.DB's built-in connection pooling

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// SqliteStorage implements RunStore using SQLite.
// Thread-safe: sql.DB handles connection pooling and concurrent access.
type SqliteStorage struct {
	db *sql.DB
}

// OpenSqlite opens or creates a SQLite database at the given path.
// Creates parent directories if they don't exist.
func OpenSqlite(path string) (*SqliteStorage, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	storage := &SqliteStorage{db: db}
	if err := storage.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// NewSqliteInMemory creates an in-memory database (useful for testing).
func NewSqliteInMemory() (*SqliteStorage, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite: %w", err)
	}
	// Each pooled connection would get its own empty :memory: database.
	db.SetMaxOpenConns(1)

	storage := &SqliteStorage{db: db}
	if err := storage.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// Close closes the database connection.
func (s *SqliteStorage) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *SqliteStorage) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

func (s *SqliteStorage) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			seq INTEGER NOT NULL,
			owner TEXT NOT NULL,
			repo TEXT NOT NULL,
			branch TEXT NOT NULL,
			provider TEXT,
			model TEXT,
			status TEXT NOT NULL,
			error TEXT,
			batches INTEGER NOT NULL DEFAULT 0,
			fallback_batches INTEGER NOT NULL DEFAULT 0,
			files_in INTEGER NOT NULL DEFAULT 0,
			files_out INTEGER NOT NULL DEFAULT 0,
			started_at INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_runs_started
		ON runs(started_at DESC, seq DESC);

		CREATE INDEX IF NOT EXISTS idx_runs_repo
		ON runs(owner, repo);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Record stores a finished run. Recording an existing ID replaces it.
func (s *SqliteStorage) Record(ctx context.Context, run RunRecord) error {
	// Convert empty strings to NULL for optional fields
	var provider, model, errMsg interface{}
	if run.Provider != "" {
		provider = run.Provider
	}
	if run.Model != "" {
		model = run.Model
	}
	if run.Error != "" {
		errMsg = run.Error
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs
		(id, seq, owner, repo, branch, provider, model, status, error,
		 batches, fallback_batches, files_in, files_out, started_at, duration_ms)
		VALUES (?, COALESCE((SELECT seq FROM runs WHERE id = ?), (SELECT COALESCE(MAX(seq), 0) + 1 FROM runs)),
		        ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.ID,
		run.Owner, run.Repo, run.Branch, provider, model, run.Status.String(), errMsg,
		run.Batches, run.FallbackBatches, run.FilesIn, run.FilesOut, run.StartedAt, run.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

const runColumns = `id, owner, repo, branch, provider, model, status, error,
	batches, fallback_batches, files_in, files_out, started_at, duration_ms`

// List returns up to limit runs, most recent first. limit <= 0 means all.
func (s *SqliteStorage) List(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs ORDER BY started_at DESC, seq DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunRecord{} // Start with empty slice, not nil
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// Get returns one run by ID. Returns nil, nil if not found.
func (s *SqliteStorage) Get(ctx context.Context, id string) (*RunRecord, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (RunRecord, error) {
	var run RunRecord
	var status string
	var provider, model, errMsg sql.NullString

	err := row.Scan(
		&run.ID,
		&run.Owner,
		&run.Repo,
		&run.Branch,
		&provider,
		&model,
		&status,
		&errMsg,
		&run.Batches,
		&run.FallbackBatches,
		&run.FilesIn,
		&run.FilesOut,
		&run.StartedAt,
		&run.DurationMs,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, err
	}
	if err != nil {
		return RunRecord{}, fmt.Errorf("failed to scan run: %w", err)
	}

	run.Provider = provider.String
	run.Model = model.String
	run.Error = errMsg.String

	parsed, err := ParseRunStatus(status)
	if err != nil {
		return RunRecord{}, fmt.Errorf("invalid run status %q in database: %w", status, err)
	}
	run.Status = parsed

	return run, nil
}

// Verify SqliteStorage implements RunStore
var _ RunStore = (*SqliteStorage)(nil)
