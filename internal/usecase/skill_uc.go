package usecase

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"skill-platform/internal/domain"
	"skill-platform/internal/domain/model"
	"skill-platform/internal/domain/ports/repository"
	"skill-platform/internal/infra/logging"
)

// Compile-time check
var _ SkillUseCase = (*skillUC)(nil)

// SkillDetail is a skill together with its latest version and the caller's
// effective rights on it.
type SkillDetail struct {
	Skill         *model.Skill
	LatestVersion *model.SkillVersion
	CanEdit       bool
}

type SkillUseCase interface {
	Create(ctx context.Context, ownerID int64, name, description string, visibility model.SkillVisibility, skillMD, openapiYAML string) (*SkillDetail, error)
	Get(ctx context.Context, skillID, userID int64) (*SkillDetail, error)
	// Update records description/visibility changes and appends a new
	// version; omitted content fields carry forward from the latest version.
	Update(ctx context.Context, skillID, userID int64, description, skillMD, openapiYAML *string, visibility *model.SkillVisibility) (*SkillDetail, error)
	List(ctx context.Context, userID int64, includePublic bool) ([]*model.Skill, error)
	Versions(ctx context.Context, skillID, userID int64) ([]*model.SkillVersion, error)
	// AddCollaborator upserts a collaborator by email; owner only.
	AddCollaborator(ctx context.Context, skillID, ownerID int64, email string, role model.CollaboratorRole) error

	// CanView reports whether the user may see (and run) the skill: owner,
	// collaborator of any role, or anyone when the skill is public.
	CanView(ctx context.Context, skill *model.Skill, userID int64) (bool, error)
}

type skillUC struct {
	skills repository.SkillRepository
	users  repository.UserRepository
	tm     repository.TransactionManager
	log    *zerolog.Logger
}

func NewSkillUseCase(skills repository.SkillRepository, users repository.UserRepository, tm repository.TransactionManager, logger *zerolog.Logger) *skillUC {
	return &skillUC{skills: skills, users: users, tm: tm, log: logger}
}

func (u *skillUC) Create(ctx context.Context, ownerID int64, name, description string, visibility model.SkillVisibility, skillMD, openapiYAML string) (*SkillDetail, error) {
	defer logging.TraceDuration(u.log, "SkillUC.Create")()

	skill, err := model.NewSkill(ownerID, name, description, visibility)
	if err != nil {
		return nil, err
	}

	var version *model.SkillVersion
	// Skill row and its first version land atomically; a skill without a
	// version is never observable.
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := u.skills.Create(ctx, tx, skill); err != nil {
			return err
		}
		v, err := model.NewSkillVersion(skill.ID, 1, skillMD, openapiYAML, ownerID)
		if err != nil {
			return err
		}
		if err := u.skills.AddVersion(ctx, tx, v); err != nil {
			return err
		}
		version = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &SkillDetail{Skill: skill, LatestVersion: version, CanEdit: true}, nil
}

func (u *skillUC) Get(ctx context.Context, skillID, userID int64) (*SkillDetail, error) {
	defer logging.TraceDuration(u.log, "SkillUC.Get")()

	skill, err := u.skills.FindByID(ctx, repository.NoTX, skillID)
	if err != nil {
		return nil, err
	}
	ok, err := u.CanView(ctx, skill, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrForbidden
	}
	latest, err := u.skills.LatestVersion(ctx, repository.NoTX, skill.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNoVersion
		}
		return nil, err
	}
	canEdit, err := u.canEdit(ctx, skill, userID)
	if err != nil {
		return nil, err
	}
	return &SkillDetail{Skill: skill, LatestVersion: latest, CanEdit: canEdit}, nil
}

func (u *skillUC) Update(ctx context.Context, skillID, userID int64, description, skillMD, openapiYAML *string, visibility *model.SkillVisibility) (*SkillDetail, error) {
	defer logging.TraceDuration(u.log, "SkillUC.Update")()

	skill, err := u.skills.FindByID(ctx, repository.NoTX, skillID)
	if err != nil {
		return nil, err
	}
	canEdit, err := u.canEdit(ctx, skill, userID)
	if err != nil {
		return nil, err
	}
	if !canEdit {
		return nil, domain.ErrForbidden
	}

	if description != nil {
		skill.Description = *description
	}
	if visibility != nil {
		if !visibility.Valid() {
			return nil, domain.ErrInvalidArgument
		}
		skill.Visibility = *visibility
	}

	var newVersion *model.SkillVersion
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		latest, err := u.skills.LatestVersion(ctx, tx, skill.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrNoVersion
			}
			return err
		}
		md := latest.SkillMD
		if skillMD != nil {
			md = *skillMD
		}
		yml := latest.OpenAPIYAML
		if openapiYAML != nil {
			yml = *openapiYAML
		}
		next, err := u.skills.NextVersion(ctx, tx, skill.ID)
		if err != nil {
			return err
		}
		v, err := model.NewSkillVersion(skill.ID, next, md, yml, userID)
		if err != nil {
			return err
		}
		if err := u.skills.AddVersion(ctx, tx, v); err != nil {
			return err
		}
		if err := u.skills.Update(ctx, tx, skill); err != nil {
			return err
		}
		newVersion = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &SkillDetail{Skill: skill, LatestVersion: newVersion, CanEdit: true}, nil
}

func (u *skillUC) List(ctx context.Context, userID int64, includePublic bool) ([]*model.Skill, error) {
	defer logging.TraceDuration(u.log, "SkillUC.List")()
	return u.skills.ListVisible(ctx, repository.NoTX, userID, includePublic)
}

func (u *skillUC) Versions(ctx context.Context, skillID, userID int64) ([]*model.SkillVersion, error) {
	defer logging.TraceDuration(u.log, "SkillUC.Versions")()

	skill, err := u.skills.FindByID(ctx, repository.NoTX, skillID)
	if err != nil {
		return nil, err
	}
	ok, err := u.CanView(ctx, skill, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrForbidden
	}
	return u.skills.ListVersions(ctx, repository.NoTX, skillID)
}

func (u *skillUC) AddCollaborator(ctx context.Context, skillID, ownerID int64, email string, role model.CollaboratorRole) error {
	defer logging.TraceDuration(u.log, "SkillUC.AddCollaborator")()

	if !role.Valid() {
		return domain.ErrInvalidArgument
	}
	skill, err := u.skills.FindByID(ctx, repository.NoTX, skillID)
	if err != nil {
		return err
	}
	if skill.OwnerID != ownerID {
		return domain.ErrForbidden
	}
	target, err := u.users.FindByEmail(ctx, repository.NoTX, email)
	if err != nil {
		return err
	}
	return u.skills.UpsertCollaborator(ctx, repository.NoTX, &model.SkillCollaborator{
		SkillID: skill.ID,
		UserID:  target.ID,
		Role:    role,
	})
}

func (u *skillUC) CanView(ctx context.Context, skill *model.Skill, userID int64) (bool, error) {
	if skill.OwnerID == userID {
		return true, nil
	}
	if skill.Visibility == model.SkillVisibilityPublic {
		return true, nil
	}
	_, err := u.skills.FindCollaborator(ctx, repository.NoTX, skill.ID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (u *skillUC) canEdit(ctx context.Context, skill *model.Skill, userID int64) (bool, error) {
	if skill.OwnerID == userID {
		return true, nil
	}
	collab, err := u.skills.FindCollaborator(ctx, repository.NoTX, skill.ID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return collab.Role == model.CollaboratorRoleEditor, nil
}
