// Package mirror pairs the remote document store with a local copy.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// DocumentStore is the contract shared by every store this package combines.
type DocumentStore interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, doc []byte) error
}

// savedAter is implemented by local copies that know when they were written.
type savedAter interface {
	SavedAt(ctx context.Context) (time.Time, error)
}

type Store struct {
	remote DocumentStore
	local  DocumentStore
	log    zerolog.Logger
}

func New(remote, local DocumentStore, log zerolog.Logger) *Store {
	return &Store{remote: remote, local: local, log: log.With().Str("component", "mirror").Logger()}
}

// Load prefers the remote document and refreshes the local copy with it. When
// the remote is unreachable the local copy is served instead.
func (s *Store) Load(ctx context.Context) ([]byte, error) {
	doc, err := s.remote.Load(ctx)
	if err == nil {
		if doc != nil {
			if lerr := s.local.Save(ctx, doc); lerr != nil {
				s.log.Warn().Err(lerr).Msg("refresh local copy failed")
			}
		}
		return doc, nil
	}

	local, lerr := s.local.Load(ctx)
	if lerr != nil {
		return nil, errors.Join(err, lerr)
	}
	if local == nil {
		return nil, err
	}
	ev := s.log.Warn().Err(err)
	if sa, ok := s.local.(savedAter); ok {
		if at, serr := sa.SavedAt(ctx); serr == nil && !at.IsZero() {
			ev = ev.Time("local_saved_at", at)
		}
	}
	ev.Msg("remote unreachable, serving local copy")
	return local, nil
}

// Save writes locally first so a remote failure never loses the change.
func (s *Store) Save(ctx context.Context, doc []byte) error {
	if err := s.local.Save(ctx, doc); err != nil {
		s.log.Error().Err(err).Msg("local save failed")
	}
	if err := s.remote.Save(ctx, doc); err != nil {
		return fmt.Errorf("remote save: %w", err)
	}
	return nil
}
