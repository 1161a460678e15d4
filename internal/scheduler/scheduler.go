package scheduler

import (
	"context"
	"log/slog"
	"time"

	"doc_archiver/internal/domain"
)

// Ingester defines the interface for ingestion runs.
type Ingester interface {
	Run(ctx context.Context) (*domain.RunStats, error)
}

type Scheduler struct {
	ingester   Ingester
	interval   time.Duration
	runTimeout time.Duration
	logger     *slog.Logger
}

func NewScheduler(ingester Ingester, interval, runTimeout time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		ingester:   ingester,
		interval:   interval,
		runTimeout: runTimeout,
		logger:     logger,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)

	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	if _, err := s.ingester.Run(runCtx); err != nil {
		s.logger.Error("ingestion run failed", "error", err)
	}
}
