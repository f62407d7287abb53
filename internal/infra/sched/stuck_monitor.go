package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"skill-platform/internal/domain/model"
	"skill-platform/internal/domain/ports/repository"
	"skill-platform/internal/infra/metrics"
)

// StuckJobMonitor periodically reports jobs that have sat in running for too
// long, typically because a worker died between claiming and resolving. It is
// strictly observational: requeueing a stuck job could re-run work that
// already happened, so recovery stays a deliberate operator action.
type StuckJobMonitor struct {
	interval   time.Duration
	stuckAfter time.Duration
	jobs       repository.RunJobRepository
	log        *zerolog.Logger
}

func NewStuckJobMonitor(interval, stuckAfter time.Duration, jobs repository.RunJobRepository, logger *zerolog.Logger) *StuckJobMonitor {
	monLog := logger.With().Str("component", "StuckJobMonitor").Logger()
	if interval <= 0 {
		interval = time.Minute
	}
	if stuckAfter <= 0 {
		stuckAfter = 10 * time.Minute
	}
	return &StuckJobMonitor{
		interval:   interval,
		stuckAfter: stuckAfter,
		jobs:       jobs,
		log:        &monLog,
	}
}

func (w *StuckJobMonitor) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Dur("stuck_after", w.stuckAfter).Msg("Starting stuck job monitor")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping stuck job monitor")
			return ctx.Err()
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *StuckJobMonitor) sweep(ctx context.Context) {
	pending, err := w.jobs.CountByStatus(ctx, repository.NoTX, model.JobStatusPending)
	if err != nil {
		w.log.Error().Err(err).Msg("stuck monitor: count pending failed")
	} else {
		metrics.SetJobsPending(pending)
	}

	stuck, err := w.jobs.ListStuckRunning(ctx, repository.NoTX, w.stuckAfter, 100)
	if err != nil {
		w.log.Error().Err(err).Msg("stuck monitor: list failed")
		return
	}
	metrics.SetJobsStuckRunning(len(stuck))
	for _, j := range stuck {
		w.log.Warn().
			Str("job_id", j.ID).
			Int64("skill_id", j.SkillID).
			Time("claimed_at", j.UpdatedAt).
			Msg("job stuck in running")
	}
}
