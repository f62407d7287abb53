package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"skill-platform/internal/domain"
	"skill-platform/internal/domain/model"
	"skill-platform/internal/domain/ports/repository"
)

var _ repository.SkillRepository = (*skillRepo)(nil)

type skillRepo struct {
	pool *pgxpool.Pool
}

func NewSkillRepo(pool *pgxpool.Pool) *skillRepo {
	return &skillRepo{pool: pool}
}

func (r *skillRepo) Create(ctx context.Context, tx repository.Tx, s *model.Skill) error {
	const q = `
INSERT INTO skills (owner_id, name, description, visibility, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id;`
	row, err := pickRow(ctx, r.pool, tx, q, s.OwnerID, s.Name, s.Description, s.Visibility, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return err
	}
	if err := row.Scan(&s.ID); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *skillRepo) Update(ctx context.Context, tx repository.Tx, s *model.Skill) error {
	s.UpdatedAt = time.Now()
	const q = `
UPDATE skills SET description = $2, visibility = $3, updated_at = $4
WHERE id = $1;`
	_, err := execSQL(ctx, r.pool, tx, q, s.ID, s.Description, s.Visibility, s.UpdatedAt)
	return err
}

func (r *skillRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.Skill, error) {
	const q = `
SELECT id, owner_id, name, description, visibility, created_at, updated_at
  FROM skills WHERE id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanSkill(row)
}

func (r *skillRepo) ListVisible(ctx context.Context, tx repository.Tx, userID int64, includePublic bool) ([]*model.Skill, error) {
	// The collaborator join can only match one row per skill (unique skill+user),
	// so no de-dup pass is needed.
	const q = `
SELECT s.id, s.owner_id, s.name, s.description, s.visibility, s.created_at, s.updated_at
  FROM skills s
  LEFT JOIN skill_collaborators c ON c.skill_id = s.id AND c.user_id = $1
 WHERE s.owner_id = $1
    OR c.user_id IS NOT NULL
    OR ($2 AND s.visibility = 'public')
 ORDER BY s.updated_at DESC;`
	rows, err := pickRows(ctx, r.pool, tx, q, userID, includePublic)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Skill
	for rows.Next() {
		var s model.Skill
		if err := rows.Scan(&s.ID, &s.OwnerID, &s.Name, &s.Description, &s.Visibility, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

func (r *skillRepo) AddVersion(ctx context.Context, tx repository.Tx, v *model.SkillVersion) error {
	const q = `
INSERT INTO skill_versions (skill_id, version, skill_md, openapi_yaml, created_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id;`
	row, err := pickRow(ctx, r.pool, tx, q, v.SkillID, v.Version, v.SkillMD, v.OpenAPIYAML, v.CreatedBy, v.CreatedAt)
	if err != nil {
		return err
	}
	if err := row.Scan(&v.ID); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *skillRepo) LatestVersion(ctx context.Context, tx repository.Tx, skillID int64) (*model.SkillVersion, error) {
	const q = `
SELECT id, skill_id, version, skill_md, openapi_yaml, created_by, created_at
  FROM skill_versions WHERE skill_id = $1
 ORDER BY version DESC LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, skillID)
	if err != nil {
		return nil, err
	}
	return scanVersion(row)
}

func (r *skillRepo) ListVersions(ctx context.Context, tx repository.Tx, skillID int64) ([]*model.SkillVersion, error) {
	const q = `
SELECT id, skill_id, version, skill_md, openapi_yaml, created_by, created_at
  FROM skill_versions WHERE skill_id = $1
 ORDER BY version DESC;`
	rows, err := pickRows(ctx, r.pool, tx, q, skillID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.SkillVersion
	for rows.Next() {
		var v model.SkillVersion
		if err := rows.Scan(&v.ID, &v.SkillID, &v.Version, &v.SkillMD, &v.OpenAPIYAML, &v.CreatedBy, &v.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, rows.Err()
}

func (r *skillRepo) NextVersion(ctx context.Context, tx repository.Tx, skillID int64) (int, error) {
	const q = `SELECT COALESCE(MAX(version), 0) + 1 FROM skill_versions WHERE skill_id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, skillID)
	if err != nil {
		return 0, err
	}
	var next int
	if err := row.Scan(&next); err != nil {
		return 0, err
	}
	return next, nil
}

func (r *skillRepo) UpsertCollaborator(ctx context.Context, tx repository.Tx, c *model.SkillCollaborator) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	const q = `
INSERT INTO skill_collaborators (skill_id, user_id, role, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (skill_id, user_id) DO UPDATE SET role = EXCLUDED.role;`
	_, err := execSQL(ctx, r.pool, tx, q, c.SkillID, c.UserID, c.Role, c.CreatedAt)
	return err
}

func (r *skillRepo) FindCollaborator(ctx context.Context, tx repository.Tx, skillID, userID int64) (*model.SkillCollaborator, error) {
	const q = `
SELECT id, skill_id, user_id, role, created_at
  FROM skill_collaborators WHERE skill_id = $1 AND user_id = $2;`
	row, err := pickRow(ctx, r.pool, tx, q, skillID, userID)
	if err != nil {
		return nil, err
	}
	var c model.SkillCollaborator
	if err := row.Scan(&c.ID, &c.SkillID, &c.UserID, &c.Role, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func scanSkill(row pgx.Row) (*model.Skill, error) {
	var s model.Skill
	if err := row.Scan(&s.ID, &s.OwnerID, &s.Name, &s.Description, &s.Visibility, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func scanVersion(row pgx.Row) (*model.SkillVersion, error) {
	var v model.SkillVersion
	if err := row.Scan(&v.ID, &v.SkillID, &v.Version, &v.SkillMD, &v.OpenAPIYAML, &v.CreatedBy, &v.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}
