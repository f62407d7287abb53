package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"skill-platform/internal/domain"
	"skill-platform/internal/domain/model"
	"skill-platform/internal/domain/ports/repository"
	"skill-platform/internal/infra/logging"
)

// Compile-time check
var _ JobUseCase = (*jobUC)(nil)

// JobUseCase is the submission gateway and read side of the job queue. It
// checks entitlement against the referenced skill; claiming and resolving
// jobs is worker territory and never goes through here.
type JobUseCase interface {
	// Run validates that the user may view the skill and enqueues a pending job.
	Run(ctx context.Context, skillID, userID int64, inputText string) (*model.RunJob, error)
	// Get returns the job after re-checking view rights on its skill.
	Get(ctx context.Context, jobID string, userID int64) (*model.RunJob, error)
	// ListBySkill returns recent jobs for a skill the user may view.
	ListBySkill(ctx context.Context, skillID, userID int64, limit int) ([]*model.RunJob, error)
}

type jobUC struct {
	jobs    repository.RunJobRepository
	skills  repository.SkillRepository
	skillUC SkillUseCase
	log     *zerolog.Logger
}

func NewJobUseCase(jobs repository.RunJobRepository, skills repository.SkillRepository, skillUC SkillUseCase, logger *zerolog.Logger) *jobUC {
	return &jobUC{jobs: jobs, skills: skills, skillUC: skillUC, log: logger}
}

func (u *jobUC) Run(ctx context.Context, skillID, userID int64, inputText string) (*model.RunJob, error) {
	defer logging.TraceDuration(u.log, "JobUC.Run")()

	skill, err := u.skills.FindByID(ctx, repository.NoTX, skillID)
	if err != nil {
		return nil, err
	}
	ok, err := u.skillUC.CanView(ctx, skill, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrForbidden
	}

	job := model.NewRunJob(skill.ID, userID, inputText)
	if err := u.jobs.CreatePending(ctx, repository.NoTX, job); err != nil {
		return nil, err
	}
	u.log.Info().Str("job_id", job.ID).Int64("skill_id", skill.ID).Msg("run job enqueued")
	return job, nil
}

func (u *jobUC) Get(ctx context.Context, jobID string, userID int64) (*model.RunJob, error) {
	defer logging.TraceDuration(u.log, "JobUC.Get")()

	job, err := u.jobs.FindByID(ctx, repository.NoTX, jobID)
	if err != nil {
		return nil, err
	}
	skill, err := u.skills.FindByID(ctx, repository.NoTX, job.SkillID)
	if err != nil {
		return nil, err
	}
	ok, err := u.skillUC.CanView(ctx, skill, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrForbidden
	}
	return job, nil
}

func (u *jobUC) ListBySkill(ctx context.Context, skillID, userID int64, limit int) ([]*model.RunJob, error) {
	defer logging.TraceDuration(u.log, "JobUC.ListBySkill")()

	skill, err := u.skills.FindByID(ctx, repository.NoTX, skillID)
	if err != nil {
		return nil, err
	}
	ok, err := u.skillUC.CanView(ctx, skill, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrForbidden
	}
	return u.jobs.ListBySkill(ctx, repository.NoTX, skillID, limit)
}
