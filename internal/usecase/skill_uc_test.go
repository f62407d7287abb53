package usecase

import (
	"context"
	"errors"
	"testing"

	"skill-platform/internal/domain"
	"skill-platform/internal/domain/model"
)

type skillFixture struct {
	uc      *skillUC
	users   *memUserRepo
	skills  *memSkillRepo
	owner   *model.User
	other   *model.User
}

func newSkillFixture(t *testing.T) *skillFixture {
	t.Helper()
	users := newMemUserRepo()
	skills := newMemSkillRepo()
	uc := NewSkillUseCase(skills, users, &mockTxManager{}, newLogger())

	owner, _ := model.NewUser("owner@example.com", "h")
	other, _ := model.NewUser("other@example.com", "h")
	ctx := context.Background()
	if err := users.Create(ctx, nil, owner); err != nil {
		t.Fatalf("seed owner: %v", err)
	}
	if err := users.Create(ctx, nil, other); err != nil {
		t.Fatalf("seed other: %v", err)
	}
	return &skillFixture{uc: uc, users: users, skills: skills, owner: owner, other: other}
}

func TestSkillUC_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	f := newSkillFixture(t)

	detail, err := f.uc.Create(ctx, f.owner.ID, "summarizer", "sums things up", model.SkillVisibilityPrivate, "# skill", "openapi: 3.0.0")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if detail.LatestVersion.Version != 1 {
		t.Errorf("first version must be 1, got %d", detail.LatestVersion.Version)
	}

	t.Run("owner can view and edit", func(t *testing.T) {
		got, err := f.uc.Get(ctx, detail.Skill.ID, f.owner.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if !got.CanEdit {
			t.Error("owner must be able to edit")
		}
	})

	t.Run("stranger is forbidden on a private skill", func(t *testing.T) {
		if _, err := f.uc.Get(ctx, detail.Skill.ID, f.other.ID); !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("want ErrForbidden, got %v", err)
		}
	})

	t.Run("anyone can view a public skill", func(t *testing.T) {
		pub, err := f.uc.Create(ctx, f.owner.ID, "public-one", "", model.SkillVisibilityPublic, "# p", "openapi: 3.0.0")
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		got, err := f.uc.Get(ctx, pub.Skill.ID, f.other.ID)
		if err != nil {
			t.Fatalf("get public: %v", err)
		}
		if got.CanEdit {
			t.Error("viewer of a public skill must not be able to edit")
		}
	})

	t.Run("duplicate name per owner rejected", func(t *testing.T) {
		if _, err := f.uc.Create(ctx, f.owner.ID, "summarizer", "", model.SkillVisibilityPrivate, "# s", "openapi: 3.0.0"); !errors.Is(err, domain.ErrAlreadyExists) {
			t.Fatalf("want ErrAlreadyExists, got %v", err)
		}
	})
}

func TestSkillUC_UpdateAppendsVersion(t *testing.T) {
	ctx := context.Background()
	f := newSkillFixture(t)

	detail, err := f.uc.Create(ctx, f.owner.ID, "translator", "", model.SkillVisibilityPrivate, "v1 content", "openapi: 3.0.0")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newMD := "v2 content"
	updated, err := f.uc.Update(ctx, detail.Skill.ID, f.owner.ID, nil, &newMD, nil, nil)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.LatestVersion.Version != 2 {
		t.Errorf("version = %d, want 2", updated.LatestVersion.Version)
	}
	if updated.LatestVersion.SkillMD != "v2 content" {
		t.Errorf("skill_md not updated: %q", updated.LatestVersion.SkillMD)
	}
	// Omitted yaml carries forward.
	if updated.LatestVersion.OpenAPIYAML != "openapi: 3.0.0" {
		t.Errorf("openapi_yaml must carry forward, got %q", updated.LatestVersion.OpenAPIYAML)
	}

	versions, err := f.uc.Versions(ctx, detail.Skill.ID, f.owner.ID)
	if err != nil {
		t.Fatalf("versions: %v", err)
	}
	if len(versions) != 2 || versions[0].Version != 2 {
		t.Errorf("versions must list newest first, got %+v", versions)
	}
}

func TestSkillUC_Collaborators(t *testing.T) {
	ctx := context.Background()
	f := newSkillFixture(t)

	detail, err := f.uc.Create(ctx, f.owner.ID, "shared-skill", "", model.SkillVisibilityShared, "# s", "openapi: 3.0.0")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	skillID := detail.Skill.ID

	t.Run("only the owner manages collaborators", func(t *testing.T) {
		err := f.uc.AddCollaborator(ctx, skillID, f.other.ID, "owner@example.com", model.CollaboratorRoleViewer)
		if !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("want ErrForbidden, got %v", err)
		}
	})

	t.Run("viewer can view but not edit", func(t *testing.T) {
		if err := f.uc.AddCollaborator(ctx, skillID, f.owner.ID, "other@example.com", model.CollaboratorRoleViewer); err != nil {
			t.Fatalf("add viewer: %v", err)
		}
		got, err := f.uc.Get(ctx, skillID, f.other.ID)
		if err != nil {
			t.Fatalf("get as viewer: %v", err)
		}
		if got.CanEdit {
			t.Error("viewer must not be able to edit")
		}
		if _, err := f.uc.Update(ctx, skillID, f.other.ID, nil, nil, nil, nil); !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("viewer update: want ErrForbidden, got %v", err)
		}
	})

	t.Run("re-adding upgrades the role", func(t *testing.T) {
		if err := f.uc.AddCollaborator(ctx, skillID, f.owner.ID, "other@example.com", model.CollaboratorRoleEditor); err != nil {
			t.Fatalf("upgrade to editor: %v", err)
		}
		md := "edited by collaborator"
		updated, err := f.uc.Update(ctx, skillID, f.other.ID, nil, &md, nil, nil)
		if err != nil {
			t.Fatalf("editor update: %v", err)
		}
		if updated.LatestVersion.CreatedBy != f.other.ID {
			t.Errorf("version author = %d, want %d", updated.LatestVersion.CreatedBy, f.other.ID)
		}
	})

	t.Run("unknown collaborator email", func(t *testing.T) {
		err := f.uc.AddCollaborator(ctx, skillID, f.owner.ID, "ghost@example.com", model.CollaboratorRoleViewer)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("want ErrNotFound, got %v", err)
		}
	})
}
