package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"skill-platform/internal/domain"
	"skill-platform/internal/domain/model"
	"skill-platform/internal/domain/ports/adapter"
	"skill-platform/internal/domain/ports/repository"
	"skill-platform/internal/infra/logging"
	"skill-platform/internal/infra/metrics"
)

// Runner drains the job queue with a configurable number of independent
// polling loops. Each loop claims at most one job at a time; correctness
// under many loops (in this or any other process) rests entirely on the
// store's atomic claim, not on coordination between loops.
type Runner struct {
	jobs repository.RunJobRepository
	exec adapter.SkillExecutor
	n    int
	poll time.Duration
	log  *zerolog.Logger
	wg   sync.WaitGroup
}

func NewRunner(jobs repository.RunJobRepository, exec adapter.SkillExecutor, workers int, poll time.Duration, logger *zerolog.Logger) *Runner {
	if workers <= 0 {
		workers = 1
	}
	if poll <= 0 {
		poll = 1500 * time.Millisecond
	}
	l := logger.With().Str("component", "Runner").Logger()
	return &Runner{jobs: jobs, exec: exec, n: workers, poll: poll, log: &l}
}

// Start launches the worker loops. They run until ctx is cancelled.
func (r *Runner) Start(ctx context.Context) {
	r.log.Info().Int("workers", r.n).Dur("poll_interval", r.poll).Msg("worker runner started")
	for i := 0; i < r.n; i++ {
		r.wg.Add(1)
		go func(id int) {
			defer r.wg.Done()
			r.loop(ctx, id)
		}(i)
	}
}

// Wait blocks until all loops have exited.
func (r *Runner) Wait() { r.wg.Wait() }

func (r *Runner) loop(ctx context.Context, id int) {
	for {
		worked := r.runOne(ctx)
		if ctx.Err() != nil {
			r.log.Info().Int("worker", id).Msg("worker loop stopping")
			return
		}
		if worked {
			// More work may be queued; claim again immediately.
			continue
		}
		select {
		case <-ctx.Done():
			r.log.Info().Int("worker", id).Msg("worker loop stopping")
			return
		case <-time.After(r.poll):
		}
	}
}

// runOne performs a single claim/execute/resolve cycle. It reports whether a
// job was handled; every failure mode is absorbed so the loop never dies.
func (r *Runner) runOne(ctx context.Context) bool {
	job, err := r.jobs.ClaimNext(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) && ctx.Err() == nil {
			// Storage trouble counts as "no job this cycle"; the next poll retries.
			r.log.Error().Err(err).Msg("claim failed")
		}
		return false
	}

	jctx := logging.WithSkillID(logging.WithJobID(ctx, job.ID), job.SkillID)
	l := logging.With(jctx, r.log)
	l.Info().Msg("job claimed")
	start := time.Now()

	output, execErr := r.execute(jctx, job)

	status := model.JobStatusCompleted
	// Terminal writes use a fresh context so a shutdown mid-job cannot leave
	// the row stuck in running with the output lost.
	if execErr != nil {
		status = model.JobStatusFailed
		if err := r.jobs.Fail(context.Background(), job.ID, execErr.Error()); err != nil {
			l.Error().Err(err).Msg("terminal write failed; job left running for external reconciliation")
		}
	} else {
		if err := r.jobs.Complete(context.Background(), job.ID, output); err != nil {
			l.Error().Err(err).Msg("terminal write failed; job left running for external reconciliation")
		}
	}

	elapsed := time.Since(start)
	metrics.IncJobProcessed(string(status))
	metrics.ObserveJobDuration(string(status), elapsed.Seconds())
	evt := l.Info()
	if execErr != nil {
		evt = l.Warn().Err(execErr)
	}
	evt.Str("status", string(status)).Dur("duration", elapsed).Msg("job resolved")
	return true
}

// execute invokes the pluggable executor, converting panics into ordinary
// failures so a broken backend can only ever fail its own job.
func (r *Runner) execute(ctx context.Context, job *model.RunJob) (output string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("executor panic: %v", rec)
		}
	}()
	return r.exec.Run(ctx, job.SkillID, job.InputText)
}
