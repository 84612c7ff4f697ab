package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"ecobeehub/internal/core"
)

// DefaultInterval is the long-poll period
const DefaultInterval = 3 * time.Minute

// Poller runs one poll cycle
type Poller interface {
	Poll(ctx context.Context) (*core.PollResult, error)
}

// Scheduler triggers poll cycles on a fixed interval. Overlapping runs are
// skipped rather than queued.
type Scheduler struct {
	poller   Poller
	interval time.Duration
	logger   *slog.Logger
	cron     *cron.Cron

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewScheduler creates a new scheduler
func NewScheduler(poller Poller, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	logger = logger.With("component", "scheduler")

	cronLogger := NewCronLogger(logger)
	return &Scheduler{
		poller:   poller,
		interval: interval,
		logger:   logger,
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
	}
}

// Start registers the poll job and starts the cron runner. Jobs receive a
// context that is cancelled by Stop or when ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return fmt.Errorf("scheduler already started")
	}

	jobCtx, cancel := context.WithCancel(ctx)
	spec := "@every " + s.interval.String()
	if _, err := s.cron.AddFunc(spec, func() { s.tick(jobCtx) }); err != nil {
		cancel()
		return fmt.Errorf("failed to schedule poll job: %w", err)
	}

	s.cancel = cancel
	s.cron.Start()
	s.logger.Info("Scheduler started", "interval", s.interval)
	return nil
}

// Stop stops the cron runner and waits for a running job to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// tick performs one poll cycle
func (s *Scheduler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	result, err := s.poller.Poll(ctx)
	if errors.Is(err, core.ErrNotAuthorized) {
		s.logger.Warn("Poll skipped, waiting for authorization")
		return
	}
	if err != nil {
		s.logger.Error("Poll cycle failed", "error", err)
		return
	}

	s.logger.Debug("Scheduler tick",
		"cycle_id", result.CycleID,
		"changed", len(result.Changed),
		"failed", len(result.Failed))
}
