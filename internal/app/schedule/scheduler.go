package schedule

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/gatherpoint/gatherpoint/internal/services"
	"github.com/gatherpoint/gatherpoint/pkg/logger"
)

const (
	defaultGenerateSpec = "@every 8h"
	defaultCleanupSpec  = "@daily"
	defaultRetention    = 30 * 24 * time.Hour
)

// Scheduler drives the recurring reminder work: generating confirmation
// tokens for upcoming meetings and pruning tokens that can no longer be
// acted on. Invoking a job more often than its nominal period is safe; the
// generator's idempotency makes overlapping runs no-ops.
type Scheduler struct {
	reminders *services.ReminderService
	cron      *cron.Cron
	log       *zap.Logger

	generateSchedule string
	cleanupSchedule  string
	retention        time.Duration
}

// Option customises the Scheduler.
type Option func(*Scheduler)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.cron = c
		}
	}
}

// WithGenerateSchedule overrides the cron specification for generator runs.
func WithGenerateSchedule(spec string) Option {
	return func(s *Scheduler) {
		if spec != "" {
			s.generateSchedule = spec
		}
	}
}

// WithCleanupSchedule overrides the cron specification for token retention.
func WithCleanupSchedule(spec string) Option {
	return func(s *Scheduler) {
		if spec != "" {
			s.cleanupSchedule = spec
		}
	}
}

// WithRetention adjusts how long sent tokens and run records are kept.
func WithRetention(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.retention = d
		}
	}
}

// New constructs a Scheduler with sensible defaults.
func New(reminders *services.ReminderService, opts ...Option) *Scheduler {
	scheduler := &Scheduler{
		reminders:        reminders,
		generateSchedule: defaultGenerateSpec,
		cleanupSchedule:  defaultCleanupSpec,
		retention:        defaultRetention,
		log:              logger.WithModule("schedule"),
	}

	for _, opt := range opts {
		opt(scheduler)
	}

	if scheduler.cron == nil {
		scheduler.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return scheduler
}

// Start registers the jobs with the cron scheduler and launches it.
func (s *Scheduler) Start() error {
	if s.reminders == nil {
		return nil
	}

	if _, err := s.cron.AddFunc(s.generateSchedule, func() {
		ctx := context.Background()
		if _, err := s.reminders.GenerateReminders(ctx); err != nil {
			s.log.Warn("reminder generation run failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	if _, err := s.cron.AddFunc(s.cleanupSchedule, func() {
		ctx := context.Background()
		if _, err := s.reminders.CleanupTokens(ctx, s.retention); err != nil {
			s.log.Warn("token cleanup failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (s *Scheduler) Stop() context.Context {
	if s.cron == nil {
		return context.Background()
	}
	return s.cron.Stop()
}

// RunOnce executes both jobs sequentially. Primarily used in tests and
// during graceful shutdown.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if s.reminders == nil {
		return nil
	}

	var errs error

	if _, err := s.reminders.GenerateReminders(ctx); err != nil {
		errs = multierr.Append(errs, err)
	}

	if _, err := s.reminders.CleanupTokens(ctx, s.retention); err != nil {
		errs = multierr.Append(errs, err)
	}

	return errs
}
