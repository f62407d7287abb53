package model

import "time"

type CollaboratorRole string

const (
	CollaboratorRoleEditor CollaboratorRole = "editor"
	CollaboratorRoleViewer CollaboratorRole = "viewer"
)

func (r CollaboratorRole) Valid() bool {
	return r == CollaboratorRoleEditor || r == CollaboratorRoleViewer
}

// SkillCollaborator grants a user a role on a skill. One row per (skill, user);
// re-adding a collaborator updates the role in place.
type SkillCollaborator struct {
	ID        int64
	SkillID   int64
	UserID    int64
	Role      CollaboratorRole
	CreatedAt time.Time
}
