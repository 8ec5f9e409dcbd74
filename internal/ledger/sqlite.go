package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (creating if needed) the ledger at dbPath.
// Use ":memory:" for an in-memory ledger.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, fmt.Errorf("create ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		task TEXT NOT NULL,
		version TEXT NOT NULL,
		commit_hash TEXT NOT NULL,
		source_sha256 TEXT NOT NULL DEFAULT '',
		header_sha256 TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_builds_commit ON builds(commit_hash, task, status);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append adds rec to the ledger.
func (s *SQLiteStore) Append(ctx context.Context, rec Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.FinishedAt.IsZero() {
		rec.FinishedAt = time.Now()
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = rec.FinishedAt
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO builds (id, task, version, commit_hash, source_sha256, header_sha256, status, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Task, rec.Version, rec.Commit, rec.SourceSHA256, rec.HeaderSHA256,
		string(rec.Status), rec.Error, rec.StartedAt.UnixNano(), rec.FinishedAt.UnixNano(),
	)
	if err != nil {
		return Record{}, fmt.Errorf("insert build record: %w", err)
	}
	return rec, nil
}

const selectColumns = `SELECT id, task, version, commit_hash, source_sha256, header_sha256, status, error, started_at, finished_at FROM builds`

// Recent returns the newest records first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := selectColumns + ` ORDER BY seq DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query build records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return records, nil
}

// LastSuccessful returns the newest successful record of task for commit.
func (s *SQLiteStore) LastSuccessful(ctx context.Context, task, commit string) (Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		selectColumns+` WHERE commit_hash = ? AND task = ? AND status = ? ORDER BY seq DESC LIMIT 1`,
		commit, task, string(StatusSucceeded),
	)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (Record, error) {
	var (
		rec               Record
		status            string
		started, finished int64
	)
	err := sc.Scan(&rec.ID, &rec.Task, &rec.Version, &rec.Commit, &rec.SourceSHA256, &rec.HeaderSHA256,
		&status, &rec.Error, &started, &finished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("scan build record: %w", err)
	}
	rec.Status = Status(status)
	rec.StartedAt = time.Unix(0, started)
	rec.FinishedAt = time.Unix(0, finished)
	return rec, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
