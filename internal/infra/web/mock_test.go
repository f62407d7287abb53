package web

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"

	"skill-platform/internal/domain"
	"skill-platform/internal/domain/model"
	"skill-platform/internal/domain/ports/repository"
)

// --- Mock repositories backing real use cases in the HTTP tests ---

type mockTxManager struct{}

func (m *mockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, nil)
}

type mockUserRepo struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{byID: make(map[int64]*model.User)}
}

func (m *mockUserRepo) Create(ctx context.Context, _ repository.Tx, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return domain.ErrAlreadyExists
		}
	}
	m.nextID++
	u.ID = m.nextID
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, _ repository.Tx, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockUserRepo) FindByID(ctx context.Context, _ repository.Tx, id int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

type mockSkillRepo struct {
	mu       sync.Mutex
	nextID   int64
	skills   map[int64]*model.Skill
	versions map[int64][]*model.SkillVersion
	collabs  map[int64]map[int64]*model.SkillCollaborator
}

func newMockSkillRepo() *mockSkillRepo {
	return &mockSkillRepo{
		skills:   make(map[int64]*model.Skill),
		versions: make(map[int64][]*model.SkillVersion),
		collabs:  make(map[int64]map[int64]*model.SkillCollaborator),
	}
}

func (m *mockSkillRepo) Create(ctx context.Context, _ repository.Tx, s *model.Skill) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.skills {
		if existing.OwnerID == s.OwnerID && existing.Name == s.Name {
			return domain.ErrAlreadyExists
		}
	}
	m.nextID++
	s.ID = m.nextID
	cp := *s
	m.skills[s.ID] = &cp
	return nil
}

func (m *mockSkillRepo) Update(ctx context.Context, _ repository.Tx, s *model.Skill) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.skills[s.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *s
	m.skills[s.ID] = &cp
	return nil
}

func (m *mockSkillRepo) FindByID(ctx context.Context, _ repository.Tx, id int64) (*model.Skill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.skills[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *mockSkillRepo) ListVisible(ctx context.Context, _ repository.Tx, userID int64, includePublic bool) ([]*model.Skill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Skill
	for _, s := range m.skills {
		visible := s.OwnerID == userID ||
			(includePublic && s.Visibility == model.SkillVisibilityPublic)
		if !visible {
			if byUser, ok := m.collabs[s.ID]; ok {
				_, visible = byUser[userID]
			}
		}
		if visible {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockSkillRepo) AddVersion(ctx context.Context, _ repository.Tx, v *model.SkillVersion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	v.ID = m.nextID
	cp := *v
	m.versions[v.SkillID] = append(m.versions[v.SkillID], &cp)
	return nil
}

func (m *mockSkillRepo) LatestVersion(ctx context.Context, _ repository.Tx, skillID int64) (*model.SkillVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	vs := m.versions[skillID]
	if len(vs) == 0 {
		return nil, domain.ErrNotFound
	}
	cp := *vs[len(vs)-1]
	return &cp, nil
}

func (m *mockSkillRepo) ListVersions(ctx context.Context, _ repository.Tx, skillID int64) ([]*model.SkillVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	vs := m.versions[skillID]
	out := make([]*model.SkillVersion, 0, len(vs))
	for i := len(vs) - 1; i >= 0; i-- {
		cp := *vs[i]
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockSkillRepo) NextVersion(ctx context.Context, _ repository.Tx, skillID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	vs := m.versions[skillID]
	if len(vs) == 0 {
		return 1, nil
	}
	return vs[len(vs)-1].Version + 1, nil
}

func (m *mockSkillRepo) UpsertCollaborator(ctx context.Context, _ repository.Tx, c *model.SkillCollaborator) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	byUser, ok := m.collabs[c.SkillID]
	if !ok {
		byUser = make(map[int64]*model.SkillCollaborator)
		m.collabs[c.SkillID] = byUser
	}
	cp := *c
	byUser[c.UserID] = &cp
	return nil
}

func (m *mockSkillRepo) FindCollaborator(ctx context.Context, _ repository.Tx, skillID, userID int64) (*model.SkillCollaborator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if byUser, ok := m.collabs[skillID]; ok {
		if c, ok := byUser[userID]; ok {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

type mockJobRepo struct {
	mu   sync.Mutex
	jobs map[string]*model.RunJob
}

func newMockJobRepo() *mockJobRepo {
	return &mockJobRepo{jobs: make(map[string]*model.RunJob)}
}

func (m *mockJobRepo) CreatePending(ctx context.Context, _ repository.Tx, job *model.RunJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	m.jobs[job.ID] = &cp
	return nil
}

func (m *mockJobRepo) ClaimNext(ctx context.Context) (*model.RunJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var oldest *model.RunJob
	for _, j := range m.jobs {
		if j.Status != model.JobStatusPending {
			continue
		}
		if oldest == nil || j.CreatedAt.Before(oldest.CreatedAt) {
			oldest = j
		}
	}
	if oldest == nil {
		return nil, domain.ErrNotFound
	}
	oldest.Status = model.JobStatusRunning
	cp := *oldest
	return &cp, nil
}

func (m *mockJobRepo) Complete(ctx context.Context, jobID, outputText string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[jobID]; ok && j.Status == model.JobStatusRunning {
		j.Status = model.JobStatusCompleted
		j.OutputText = outputText
	}
	return nil
}

func (m *mockJobRepo) Fail(ctx context.Context, jobID, errorText string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[jobID]; ok && j.Status == model.JobStatusRunning {
		j.Status = model.JobStatusFailed
		j.ErrorText = errorText
	}
	return nil
}

func (m *mockJobRepo) FindByID(ctx context.Context, _ repository.Tx, jobID string) (*model.RunJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (m *mockJobRepo) ListBySkill(ctx context.Context, _ repository.Tx, skillID int64, limit int) ([]*model.RunJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.RunJob
	for _, j := range m.jobs {
		if j.SkillID == skillID {
			cp := *j
			out = append(out, &cp)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockJobRepo) CountByStatus(ctx context.Context, _ repository.Tx, status model.JobStatus) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, j := range m.jobs {
		if j.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *mockJobRepo) ListStuckRunning(ctx context.Context, _ repository.Tx, olderThan time.Duration, limit int) ([]*model.RunJob, error) {
	return nil, nil
}
