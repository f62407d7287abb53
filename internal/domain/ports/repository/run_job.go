package repository

import (
	"context"
	"time"

	"skill-platform/internal/domain/model"
)

type RunJobRepository interface {
	// CreatePending inserts exactly one pending row. The job keeps the ID it
	// was constructed with (a fresh one is assigned when empty).
	CreatePending(ctx context.Context, tx Tx, job *model.RunJob) error

	// ClaimNext atomically selects the oldest pending job, flips it to
	// running and returns its snapshot. Rows being claimed by concurrent
	// callers are skipped, never waited on, so a given job is handed to at
	// most one caller. Returns domain.ErrNotFound without blocking when no
	// pending job is eligible.
	ClaimNext(ctx context.Context) (*model.RunJob, error)

	// Complete transitions running -> completed and sets the output.
	// Matching is by id AND current status; zero rows matched means the job
	// was already resolved and is silently tolerated.
	Complete(ctx context.Context, jobID, outputText string) error
	// Fail transitions running -> failed and sets the error text. Same
	// no-op-on-no-match contract as Complete.
	Fail(ctx context.Context, jobID, errorText string) error

	FindByID(ctx context.Context, tx Tx, jobID string) (*model.RunJob, error)
	ListBySkill(ctx context.Context, tx Tx, skillID int64, limit int) ([]*model.RunJob, error)

	CountByStatus(ctx context.Context, tx Tx, status model.JobStatus) (int, error)
	// ListStuckRunning returns jobs that have sat in running longer than
	// olderThan. Used by the stuck-job monitor for visibility only; nothing
	// in this repository ever requeues them.
	ListStuckRunning(ctx context.Context, tx Tx, olderThan time.Duration, limit int) ([]*model.RunJob, error)
}
