package sync

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/armorymarket/discovery/internal/domain"
)

// Scheduler triggers reconciliation on a fixed interval. The sync engine is
// not a loop holding locks: each tick is one bounded unit of work, and a
// tick that lands while a manual run is in flight is simply skipped via the
// service's own single-flight guard.
type Scheduler struct {
	svc      *Service
	interval time.Duration
	log      *zap.Logger
}

// NewScheduler creates a scheduler. interval <= 0 disables periodic runs
// (the trigger endpoint remains available).
func NewScheduler(svc *Service, interval time.Duration, log *zap.Logger) *Scheduler {
	return &Scheduler{svc: svc, interval: interval, log: log}
}

// Run blocks until ctx is cancelled, reconciling every interval. Call it in
// its own goroutine.
func (s *Scheduler) Run(ctx context.Context) {
	if s.interval <= 0 {
		s.log.Info("periodic reconciliation disabled")
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("periodic reconciliation started", zap.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			s.log.Info("periodic reconciliation stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	_, err := s.svc.Reconcile(ctx)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrAlreadyRunning):
		s.log.Debug("reconciliation tick skipped, run in progress")
	default:
		// Aborted cycles self-heal: the next tick recomputes from source.
		s.log.Error("reconciliation cycle failed", zap.Error(err))
	}
}
