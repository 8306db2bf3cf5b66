package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/0001_club_state.sql
var schemaSQL string

// Store keeps the whole club document in a single club_state row.
type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the club_state table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("postgres: ensure schema: %w", err)
	}
	return nil
}

// Load returns the stored document, or nil when nothing was saved yet.
func (s *Store) Load(ctx context.Context) ([]byte, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx, `SELECT doc FROM club_state WHERE id = 1`).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: load state: %w", err)
	}
	return doc, nil
}

// Save upserts the document and bumps the version counter.
func (s *Store) Save(ctx context.Context, doc []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO club_state (id, doc, version, updated_at)
		VALUES (1, $1::jsonb, 1, NOW())
		ON CONFLICT (id) DO UPDATE
		SET doc = EXCLUDED.doc,
		    version = club_state.version + 1,
		    updated_at = NOW()
	`, string(doc))
	if err != nil {
		return fmt.Errorf("postgres: save state: %w", err)
	}
	return nil
}

// Version returns the current version counter, 0 when no row exists.
func (s *Store) Version(ctx context.Context) (int64, error) {
	var v int64
	err := s.pool.QueryRow(ctx, `SELECT version FROM club_state WHERE id = 1`).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("postgres: read version: %w", err)
	}
	return v, nil
}
