// Package scheduler starts assignment runs on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/JaimeStill/moodmap/internal/runs"
	"github.com/JaimeStill/moodmap/pkg/lifecycle"
)

// Starter begins a run in the background.
type Starter interface {
	Start(ctx context.Context, collection string, trigger runs.Trigger) (*runs.Run, error)
}

// Scheduler fires runs at the times described by a cron schedule.
type Scheduler struct {
	schedule   cron.Schedule
	location   *time.Location
	collection string
	starter    Starter
	logger     *slog.Logger
}

// New creates a Scheduler from a finalized config.
func New(cfg *Config, starter Starter, logger *slog.Logger) (*Scheduler, error) {
	sched, err := parser.Parse(cfg.Schedule)
	if err != nil {
		return nil, fmt.Errorf("parse schedule: %w", err)
	}
	return &Scheduler{
		schedule:   sched,
		location:   cfg.Location(),
		collection: cfg.Collection,
		starter:    starter,
		logger:     logger.With("system", "scheduler"),
	}, nil
}

// Start launches the schedule loop as a lifecycle task; it stops when the
// coordinator shuts down.
func (s *Scheduler) Start(lc *lifecycle.Coordinator) error {
	s.logger.Info("starting scheduler", "collection", s.collection)
	lc.Go(s.loop)
	return nil
}

// Next returns the next fire time after now.
func (s *Scheduler) Next(now time.Time) time.Time {
	return s.schedule.Next(now.In(s.location))
}

func (s *Scheduler) loop(ctx context.Context) {
	for {
		now := time.Now()
		next := s.Next(now)
		s.logger.Info("next scheduled run", "at", next, "in", next.Sub(now).Round(time.Second))

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		s.Fire(ctx)
	}
}

// Fire starts one run. A run already in progress for the collection is
// logged and skipped.
func (s *Scheduler) Fire(ctx context.Context) {
	run, err := s.starter.Start(ctx, s.collection, runs.TriggerSchedule)
	switch {
	case err == nil:
		s.logger.Info("scheduled run started", "id", run.ID)
	case errors.Is(err, runs.ErrRunInProgress):
		s.logger.Info("scheduled run skipped", "reason", err)
	default:
		s.logger.Error("scheduled run failed to start", "error", err)
	}
}
