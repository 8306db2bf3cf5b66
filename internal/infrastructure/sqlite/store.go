// Package sqlite keeps a local copy of the club document so the service can
// start and keep serving while the remote store is unreachable.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS club_snapshot (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	doc        BLOB    NOT NULL,
	saved_at   INTEGER NOT NULL
);`

type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// Open opens (or creates) the mirror database at path. ":memory:" is accepted
// for tests.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// a single connection keeps ":memory:" databases alive across calls
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Load returns the last saved document, or nil when the mirror is empty.
func (s *Store) Load(ctx context.Context) ([]byte, error) {
	var doc []byte
	err := s.sqlDB.QueryRowContext(ctx, `SELECT doc FROM club_snapshot WHERE id = 1`).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: load snapshot: %w", err)
	}
	return doc, nil
}

func (s *Store) Save(ctx context.Context, doc []byte) error {
	_, err := s.sqlDB.ExecContext(ctx, `
		INSERT INTO club_snapshot (id, doc, saved_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET doc = excluded.doc, saved_at = excluded.saved_at`,
		doc, s.now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("sqlite: save snapshot: %w", err)
	}
	return nil
}

// SavedAt reports when the mirror was last written; zero when empty.
func (s *Store) SavedAt(ctx context.Context) (time.Time, error) {
	var ms int64
	err := s.sqlDB.QueryRowContext(ctx, `SELECT saved_at FROM club_snapshot WHERE id = 1`).Scan(&ms)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: read saved_at: %w", err)
	}
	return time.UnixMilli(ms).UTC(), nil
}
