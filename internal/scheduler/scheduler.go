// Package scheduler wires up the cron job that periodically recomputes the
// global application aggregation and publishes it as Prometheus gauges.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"jobboard/review-service/internal/metrics"
	"jobboard/review-service/internal/review"
)

// StatsSource is the subset of review.Service the scheduler needs.
type StatsSource interface {
	Stats(ctx context.Context, f review.Filter) (review.Stats, error)
}

// Scheduler wraps robfig/cron and manages the aggregation loop.
type Scheduler struct {
	cron   *cron.Cron
	src    StatsSource
	spec   string // cron spec, e.g. "@every 1m"
	logger *slog.Logger
	gauge  func(status string, n int)
}

// New creates a Scheduler that fires on spec.
func New(src StatsSource, spec string, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		src:    src,
		spec:   spec,
		logger: logger,
		gauge:  metrics.SetApplications,
	}
}

// Start registers the job and starts the scheduler. Also runs one refresh
// immediately so the gauges are populated without waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.Refresh(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "spec", s.spec)

	go s.Refresh(ctx)

	return nil
}

// Stop shuts down the scheduler and waits for a running refresh.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// Refresh aggregates every application and publishes one gauge per status.
func (s *Scheduler) Refresh(ctx context.Context) {
	stats, err := s.src.Stats(ctx, review.Filter{})
	if err != nil {
		s.logger.Error("aggregation refresh failed", "err", err)
		return
	}
	for _, st := range review.Statuses {
		s.gauge(string(st), stats.Count(st))
	}
	s.logger.Debug("aggregation refreshed", "total", stats.Total)
}
