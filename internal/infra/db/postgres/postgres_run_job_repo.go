package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"skill-platform/internal/domain"
	"skill-platform/internal/domain/model"
	"skill-platform/internal/domain/ports/repository"
)

var _ repository.RunJobRepository = (*runJobRepo)(nil)

type runJobRepo struct {
	pool *pgxpool.Pool
	tm   repository.TransactionManager
}

func NewRunJobRepo(pool *pgxpool.Pool, tm repository.TransactionManager) *runJobRepo {
	return &runJobRepo{pool: pool, tm: tm}
}

func (r *runJobRepo) CreatePending(ctx context.Context, tx repository.Tx, job *model.RunJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	const q = `
INSERT INTO run_jobs (id, skill_id, requested_by, input_text, status, output_text, error_text, created_at, updated_at)
VALUES ($1, $2, $3, $4, 'pending', '', '', $5, $6);`
	_, err := execSQL(ctx, r.pool, tx, q,
		job.ID, job.SkillID, job.RequestedBy, job.InputText, job.CreatedAt, job.UpdatedAt)
	return err
}

// ClaimNext performs the contended dequeue in a single transaction: the oldest
// pending row is selected with FOR UPDATE SKIP LOCKED, so concurrent claimants
// never wait on each other and never both observe the same row, then flipped
// to running before the transaction commits. The returned snapshot carries
// only what a worker needs (id, skill, input).
func (r *runJobRepo) ClaimNext(ctx context.Context) (*model.RunJob, error) {
	var job *model.RunJob

	err := r.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		const q = `
WITH candidate AS (
  SELECT id
    FROM run_jobs
   WHERE status = 'pending'
   ORDER BY created_at ASC
   LIMIT 1
     FOR UPDATE SKIP LOCKED
)
UPDATE run_jobs j
   SET status = 'running', updated_at = now()
  FROM candidate
 WHERE j.id = candidate.id
RETURNING j.id, j.skill_id, j.input_text;`

		row, err := pickRow(ctx, r.pool, tx, q)
		if err != nil {
			return err
		}
		var claimed model.RunJob
		if err := row.Scan(&claimed.ID, &claimed.SkillID, &claimed.InputText); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrNotFound
			}
			return err
		}
		claimed.Status = model.JobStatusRunning
		job = &claimed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (r *runJobRepo) Complete(ctx context.Context, jobID, outputText string) error {
	return r.resolve(ctx, jobID, model.JobStatusCompleted, "output_text", outputText)
}

func (r *runJobRepo) Fail(ctx context.Context, jobID, errorText string) error {
	return r.resolve(ctx, jobID, model.JobStatusFailed, "error_text", errorText)
}

// resolve writes a terminal state guarded by the current status, so a call
// against an already-resolved (or never-claimed) job matches zero rows and
// changes nothing.
func (r *runJobRepo) resolve(ctx context.Context, jobID string, to model.JobStatus, column, text string) error {
	q := `
UPDATE run_jobs
   SET status = $2, ` + column + ` = $3, updated_at = now()
 WHERE id = $1 AND status = 'running';`
	_, err := execSQL(ctx, r.pool, nil, q, jobID, to, text)
	return err
}

func (r *runJobRepo) FindByID(ctx context.Context, tx repository.Tx, jobID string) (*model.RunJob, error) {
	const q = `
SELECT id, skill_id, requested_by, input_text, status, output_text, error_text, created_at, updated_at
  FROM run_jobs WHERE id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, jobID)
	if err != nil {
		return nil, err
	}
	return scanRunJob(row)
}

func (r *runJobRepo) ListBySkill(ctx context.Context, tx repository.Tx, skillID int64, limit int) ([]*model.RunJob, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT id, skill_id, requested_by, input_text, status, output_text, error_text, created_at, updated_at
  FROM run_jobs WHERE skill_id = $1
 ORDER BY created_at DESC LIMIT $2;`
	rows, err := pickRows(ctx, r.pool, tx, q, skillID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRunJobs(rows)
}

func (r *runJobRepo) CountByStatus(ctx context.Context, tx repository.Tx, status model.JobStatus) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM run_jobs WHERE status = $1;`, status)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *runJobRepo) ListStuckRunning(ctx context.Context, tx repository.Tx, olderThan time.Duration, limit int) ([]*model.RunJob, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT id, skill_id, requested_by, input_text, status, output_text, error_text, created_at, updated_at
  FROM run_jobs
 WHERE status = 'running' AND updated_at < now() - $1::interval
 ORDER BY updated_at ASC LIMIT $2;`
	rows, err := pickRows(ctx, r.pool, tx, q, olderThan.String(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRunJobs(rows)
}

func scanRunJob(row pgx.Row) (*model.RunJob, error) {
	var j model.RunJob
	if err := row.Scan(&j.ID, &j.SkillID, &j.RequestedBy, &j.InputText, &j.Status, &j.OutputText, &j.ErrorText, &j.CreatedAt, &j.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &j, nil
}

func collectRunJobs(rows pgx.Rows) ([]*model.RunJob, error) {
	var out []*model.RunJob
	for rows.Next() {
		var j model.RunJob
		if err := rows.Scan(&j.ID, &j.SkillID, &j.RequestedBy, &j.InputText, &j.Status, &j.OutputText, &j.ErrorText, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &j)
	}
	return out, rows.Err()
}
