package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// TickFunc is invoked once per polling cycle.
type TickFunc func(ctx context.Context, at time.Time) error

// Options tune scheduler behaviour.
type Options struct {
	Interval     time.Duration
	AlignToStart bool
	StartupDelay time.Duration
}

// Scheduler drives the fetch, evaluate, sleep cycle.
type Scheduler struct {
	opts   Options
	logger zerolog.Logger
	now    func() time.Time
}

// New constructs a Scheduler instance.
func New(opts Options, logger zerolog.Logger) *Scheduler {
	if opts.Interval <= 0 {
		panic("scheduler interval must be positive")
	}
	return &Scheduler{
		opts:   opts,
		logger: logger.With().Str("component", "scheduler").Logger(),
		now:    time.Now,
	}
}

// Run blocks, invoking tick and then sleeping for the interval until ctx is cancelled.
// The interval is measured from the end of a tick, so a slow tick delays the next one.
func (s *Scheduler) Run(ctx context.Context, tick TickFunc) error {
	if err := Sleep(ctx, s.opts.StartupDelay); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		at := s.now().UTC()
		s.logger.Debug().Time("at", at).Msg("executing polling cycle")
		if err := tick(ctx, at); err != nil {
			s.logger.Error().Err(err).Time("at", at).Msg("polling cycle failed")
		}

		delay := s.delay(s.now())
		s.logger.Debug().Dur("delay", delay).Msg("waiting for next cycle")
		if err := Sleep(ctx, delay); err != nil {
			return err
		}
	}
}

func (s *Scheduler) delay(now time.Time) time.Duration {
	if !s.opts.AlignToStart {
		return s.opts.Interval
	}
	next := now.Truncate(s.opts.Interval)
	if !next.After(now) {
		next = next.Add(s.opts.Interval)
	}
	return next.Sub(now)
}

// Sleep blocks for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
