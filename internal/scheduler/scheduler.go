package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/fleetline/service-reservation/internal/application"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultSweepSpec runs the overdue sweep every fifteen minutes.
const DefaultSweepSpec = "0 */15 * * * *"

// sweepTimeout bounds a single sweep run.
const sweepTimeout = 5 * time.Minute

// OverdueSweeper assesses late fees on overdue bookings.
type OverdueSweeper interface {
	SweepOverdue(ctx context.Context) (application.SweepResult, error)
}

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron    *cron.Cron
	sweeper OverdueSweeper
	logger  *zap.Logger
	running atomic.Bool
}

// NewScheduler creates a scheduler running the overdue sweep on sweepSpec.
// An empty spec falls back to DefaultSweepSpec.
func NewScheduler(sweeper OverdueSweeper, sweepSpec string, logger *zap.Logger) (*Scheduler, error) {
	if sweepSpec == "" {
		sweepSpec = DefaultSweepSpec
	}

	// UTC with seconds precision; a slow sweep never overlaps the next tick.
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	s := &Scheduler{
		cron:    c,
		sweeper: sweeper,
		logger:  logger,
	}

	if _, err := s.cron.AddFunc(sweepSpec, s.RunSweep); err != nil {
		return nil, fmt.Errorf("failed to register overdue sweep %q: %w", sweepSpec, err)
	}
	return s, nil
}

// RunSweep performs one overdue sweep and logs its outcome.
func (s *Scheduler) RunSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	start := time.Now()
	result, err := s.sweeper.SweepOverdue(ctx)
	if err != nil {
		s.logger.Error("overdue sweep failed", zap.Error(err))
		return
	}
	s.logger.Info("overdue sweep finished",
		zap.Int("scanned", result.Scanned),
		zap.Int("assessed", result.Assessed),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
		zap.Duration("took", time.Since(start)),
	)
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	s.logger.Info("starting cron scheduler")
	s.cron.Start()
	s.running.Store(true)
}

// Stop waits for a running sweep to finish, then stops the scheduler.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.running.Store(false)
	s.logger.Info("cron scheduler stopped")
}

// IsRunning reports whether the scheduler has been started and not stopped.
func (s *Scheduler) IsRunning() bool {
	return s.running.Load()
}

// HasJobs reports whether any job is registered.
func (s *Scheduler) HasJobs() bool {
	return len(s.cron.Entries()) > 0
}
