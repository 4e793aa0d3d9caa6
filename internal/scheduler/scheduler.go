package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// TickFunc is invoked once per interval with the tick's wall time.
type TickFunc func(ctx context.Context, now time.Time) error

// Options tune scheduler behaviour.
type Options struct {
	Interval      time.Duration
	StartupDelay  time.Duration
	ErrorCooldown time.Duration
}

// Scheduler drives the monitoring loop: one blocking tick at a time, a fixed
// sleep between ticks, and an extra cooldown after a failed tick. Cancellation
// is observed at the sleep boundary; a tick in flight runs to completion.
type Scheduler struct {
	opts   Options
	logger zerolog.Logger
}

// New constructs a Scheduler instance.
func New(opts Options, logger zerolog.Logger) *Scheduler {
	if opts.Interval <= 0 {
		panic("scheduler interval must be positive")
	}
	return &Scheduler{opts: opts, logger: logger.With().Str("component", "scheduler").Logger()}
}

// Run blocks, invoking the tick function until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context, tick TickFunc) error {
	if s.opts.StartupDelay > 0 {
		if err := sleep(ctx, s.opts.StartupDelay); err != nil {
			return err
		}
	}

	for {
		now := time.Now()
		err := tick(ctx, now)
		if err != nil {
			s.logger.Error().Err(err).Time("tick", now).Msg("tick execution failed")
		}

		if err != nil && s.opts.ErrorCooldown > 0 {
			if err := sleep(ctx, s.opts.ErrorCooldown); err != nil {
				return err
			}
		}

		if err := sleep(ctx, s.opts.Interval); err != nil {
			return err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
