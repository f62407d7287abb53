package repository

import (
	"context"

	"skill-platform/internal/domain/model"
)

type SkillRepository interface {
	// Create inserts the skill and fills in the assigned ID.
	// Returns domain.ErrAlreadyExists when the owner already has a skill
	// with the same name.
	Create(ctx context.Context, tx Tx, s *model.Skill) error
	// Update persists description/visibility changes and refreshes updated_at.
	Update(ctx context.Context, tx Tx, s *model.Skill) error
	FindByID(ctx context.Context, tx Tx, id int64) (*model.Skill, error)
	// ListVisible returns the skills the user owns or collaborates on,
	// plus public skills when includePublic is set, newest-updated first.
	ListVisible(ctx context.Context, tx Tx, userID int64, includePublic bool) ([]*model.Skill, error)

	AddVersion(ctx context.Context, tx Tx, v *model.SkillVersion) error
	LatestVersion(ctx context.Context, tx Tx, skillID int64) (*model.SkillVersion, error)
	ListVersions(ctx context.Context, tx Tx, skillID int64) ([]*model.SkillVersion, error)
	// NextVersion returns max(version)+1 for the skill, 1 when none exist.
	NextVersion(ctx context.Context, tx Tx, skillID int64) (int, error)

	UpsertCollaborator(ctx context.Context, tx Tx, c *model.SkillCollaborator) error
	FindCollaborator(ctx context.Context, tx Tx, skillID, userID int64) (*model.SkillCollaborator, error)
}
