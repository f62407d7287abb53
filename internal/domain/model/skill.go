package model

import (
	"strings"
	"time"

	"skill-platform/internal/domain"
)

type SkillVisibility string

const (
	SkillVisibilityPrivate SkillVisibility = "private"
	SkillVisibilityShared  SkillVisibility = "shared"
	SkillVisibilityPublic  SkillVisibility = "public"
)

func (v SkillVisibility) Valid() bool {
	switch v {
	case SkillVisibilityPrivate, SkillVisibilityShared, SkillVisibilityPublic:
		return true
	}
	return false
}

type Skill struct {
	ID          int64
	OwnerID     int64
	Name        string
	Description string
	Visibility  SkillVisibility
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const maxSkillNameLen = 120

func NewSkill(ownerID int64, name, description string, visibility SkillVisibility) (*Skill, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxSkillNameLen {
		return nil, domain.ErrInvalidArgument
	}
	if visibility == "" {
		visibility = SkillVisibilityPrivate
	}
	if !visibility.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Skill{
		OwnerID:     ownerID,
		Name:        name,
		Description: description,
		Visibility:  visibility,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// SkillVersion is an immutable snapshot of a skill's content. Versions only
// ever grow; updates to a skill append the next version.
type SkillVersion struct {
	ID          int64
	SkillID     int64
	Version     int
	SkillMD     string
	OpenAPIYAML string
	CreatedBy   int64
	CreatedAt   time.Time
}

func NewSkillVersion(skillID int64, version int, skillMD, openapiYAML string, createdBy int64) (*SkillVersion, error) {
	if version < 1 || skillMD == "" || openapiYAML == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &SkillVersion{
		SkillID:     skillID,
		Version:     version,
		SkillMD:     skillMD,
		OpenAPIYAML: openapiYAML,
		CreatedBy:   createdBy,
		CreatedAt:   time.Now(),
	}, nil
}
