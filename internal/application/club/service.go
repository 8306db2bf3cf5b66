// Package club owns the in-memory club state and applies every mutation to it:
// registrations, waitlist promotion and catalog changes. Each mutation is
// followed by a save of the whole document.
package club

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/baechuer/club-service/internal/audit"
	"github.com/baechuer/club-service/internal/domain"
	"github.com/baechuer/club-service/internal/metrics"
	"github.com/baechuer/club-service/internal/pkg/logger"
	"github.com/baechuer/club-service/internal/snapshot"
)

type Service struct {
	store DocumentStore
	clock Clock
	pub   EventPublisher
	games GameLookup
	audit *audit.Logger
	loc   *time.Location

	mu    sync.Mutex
	state *domain.State

	// version counts mutations; saved is the last version written to the store.
	saveMu  sync.Mutex
	version atomic.Int64
	saved   atomic.Int64
}

// New wires the service. games may be nil when BGG import is disabled; loc is
// the club time zone used to read event dates.
func New(store DocumentStore, clock Clock, pub EventPublisher, games GameLookup, auditLog *audit.Logger, loc *time.Location) *Service {
	if clock == nil {
		clock = SystemClock{}
	}
	if pub == nil {
		pub = NoopPublisher{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		store: store,
		clock: clock,
		pub:   pub,
		games: games,
		audit: auditLog,
		loc:   loc,
		state: domain.NewState(),
	}
}

// Start loads the document from the store. It must run before the service
// serves requests.
func (s *Service) Start(ctx context.Context) error {
	raw, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	st, err := snapshot.Decode(raw)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.state = st
	s.mu.Unlock()

	s.saved.Store(s.version.Load())

	logger.WithCtx(ctx).Info().
		Int("events", len(st.Events)).
		Int("catalog", len(st.Catalog)).
		Int("members", len(st.Members)).
		Msg("club state loaded")
	return nil
}

// Pending reports whether the store is behind the in-memory state.
func (s *Service) Pending() bool {
	return s.saved.Load() < s.version.Load()
}

// Sync writes the current state if a previous save failed.
func (s *Service) Sync(ctx context.Context) error {
	if !s.Pending() {
		return nil
	}
	s.mu.Lock()
	snap, v := s.state.Clone(), s.version.Load()
	s.mu.Unlock()
	return s.flush(ctx, "sync", snap, v)
}

// commit is called with s.mu held, right after a mutation. It returns a
// snapshot to save once the lock is released.
func (s *Service) commit() (*domain.State, int64) {
	return s.state.Clone(), s.version.Add(1)
}

// flush saves snap unless a newer version already reached the store. A failed
// save leaves the state pending and returns a SyncError.
func (s *Service) flush(ctx context.Context, op string, snap *domain.State, v int64) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	if v <= s.saved.Load() {
		return nil
	}

	doc, err := snapshot.Encode(snap)
	if err != nil {
		return domain.NewSyncError(op, err)
	}

	start := time.Now()
	err = s.store.Save(ctx, doc)
	metrics.RecordSync(err, time.Since(start))
	if err != nil {
		if s.audit != nil {
			s.audit.SyncFailed(ctx, op, err)
		}
		return domain.NewSyncError(op, err)
	}

	s.saved.Store(v)
	return nil
}

func (s *Service) now() time.Time { return s.clock.Now().UTC() }
