package club

import (
	"context"
	"time"

	"github.com/baechuer/club-service/internal/pkg/logger"
)

// Run retries pending saves and runs the auto promotion every interval until
// ctx is canceled.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	log := logger.WithCtx(ctx)
	log.Info().Dur("interval", interval).Msg("promotion sweeper started")

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("promotion sweeper stopped")
			return
		case <-t.C:
			s.sweep(ctx)
		}
	}
}

func (s *Service) sweep(ctx context.Context) {
	if err := s.Sync(ctx); err != nil {
		logger.WithCtx(ctx).Warn().Err(err).Msg("pending state still not saved")
	}
	s.AutoPromote(ctx, TriggerSweep)
}
