package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"

	"skill-platform/internal/domain"
	"skill-platform/internal/domain/model"
	"skill-platform/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

func newLogger() *zerolog.Logger { l := zerolog.Nop(); return &l }

// mockTxManager runs the callback without a real transaction.
type mockTxManager struct{}

func (m *mockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, nil)
}

// memUserRepo is a small in-memory implementation used by unit tests.
type memUserRepo struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]*model.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: make(map[int64]*model.User)}
}

func (m *memUserRepo) Create(ctx context.Context, _ repository.Tx, u *model.User) error {
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

func (m *memUserRepo) FindByEmail(ctx context.Context, _ repository.Tx, email string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUserRepo) FindByID(ctx context.Context, _ repository.Tx, id int64) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// memSkillRepo keeps skills, versions and collaborators in maps.
type memSkillRepo struct {
	mu       sync.RWMutex
	nextID   int64
	skills   map[int64]*model.Skill
	versions map[int64][]*model.SkillVersion       // skillID -> versions (ascending)
	collabs  map[int64]map[int64]*model.SkillCollaborator // skillID -> userID -> collab
}

func newMemSkillRepo() *memSkillRepo {
	return &memSkillRepo{
		skills:   make(map[int64]*model.Skill),
		versions: make(map[int64][]*model.SkillVersion),
		collabs:  make(map[int64]map[int64]*model.SkillCollaborator),
	}
}

func (m *memSkillRepo) Create(ctx context.Context, _ repository.Tx, s *model.Skill) error {
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

func (m *memSkillRepo) Update(ctx context.Context, _ repository.Tx, s *model.Skill) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.skills[s.ID]; !ok {
		return domain.ErrNotFound
	}
	s.UpdatedAt = time.Now()
	cp := *s
	m.skills[s.ID] = &cp
	return nil
}

func (m *memSkillRepo) FindByID(ctx context.Context, _ repository.Tx, id int64) (*model.Skill, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.skills[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSkillRepo) ListVisible(ctx context.Context, _ repository.Tx, userID int64, includePublic bool) ([]*model.Skill, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
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
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (m *memSkillRepo) AddVersion(ctx context.Context, _ repository.Tx, v *model.SkillVersion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	v.ID = m.nextID
	cp := *v
	m.versions[v.SkillID] = append(m.versions[v.SkillID], &cp)
	return nil
}

func (m *memSkillRepo) LatestVersion(ctx context.Context, _ repository.Tx, skillID int64) (*model.SkillVersion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	vs := m.versions[skillID]
	if len(vs) == 0 {
		return nil, domain.ErrNotFound
	}
	cp := *vs[len(vs)-1]
	return &cp, nil
}

func (m *memSkillRepo) ListVersions(ctx context.Context, _ repository.Tx, skillID int64) ([]*model.SkillVersion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	vs := m.versions[skillID]
	out := make([]*model.SkillVersion, 0, len(vs))
	for i := len(vs) - 1; i >= 0; i-- {
		cp := *vs[i]
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memSkillRepo) NextVersion(ctx context.Context, _ repository.Tx, skillID int64) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	vs := m.versions[skillID]
	if len(vs) == 0 {
		return 1, nil
	}
	return vs[len(vs)-1].Version + 1, nil
}

func (m *memSkillRepo) UpsertCollaborator(ctx context.Context, _ repository.Tx, c *model.SkillCollaborator) error {
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

func (m *memSkillRepo) FindCollaborator(ctx context.Context, _ repository.Tx, skillID, userID int64) (*model.SkillCollaborator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if byUser, ok := m.collabs[skillID]; ok {
		if c, ok := byUser[userID]; ok {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

// memJobRepo mirrors the store's claim semantics with a mutex: the select and
// status flip happen under one lock, so concurrent ClaimNext calls can never
// hand out the same job.
type memJobRepo struct {
	mu   sync.Mutex
	jobs map[string]*model.RunJob
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{jobs: make(map[string]*model.RunJob)}
}

func (m *memJobRepo) CreatePending(ctx context.Context, _ repository.Tx, job *model.RunJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	m.jobs[job.ID] = &cp
	return nil
}

func (m *memJobRepo) ClaimNext(ctx context.Context) (*model.RunJob, error) {
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
	oldest.UpdatedAt = time.Now()
	return &model.RunJob{
		ID:        oldest.ID,
		SkillID:   oldest.SkillID,
		InputText: oldest.InputText,
		Status:    model.JobStatusRunning,
	}, nil
}

func (m *memJobRepo) Complete(ctx context.Context, jobID, outputText string) error {
	return m.resolve(jobID, model.JobStatusCompleted, outputText, "")
}

func (m *memJobRepo) Fail(ctx context.Context, jobID, errorText string) error {
	return m.resolve(jobID, model.JobStatusFailed, "", errorText)
}

func (m *memJobRepo) resolve(jobID string, to model.JobStatus, output, errText string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok || j.Status != model.JobStatusRunning {
		return nil // no-match is tolerated, same as the SQL predicate
	}
	j.Status = to
	j.OutputText = output
	j.ErrorText = errText
	j.UpdatedAt = time.Now()
	return nil
}

func (m *memJobRepo) FindByID(ctx context.Context, _ repository.Tx, jobID string) (*model.RunJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (m *memJobRepo) ListBySkill(ctx context.Context, _ repository.Tx, skillID int64, limit int) ([]*model.RunJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.RunJob
	for _, j := range m.jobs {
		if j.SkillID == skillID {
			cp := *j
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.After(out[k].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memJobRepo) CountByStatus(ctx context.Context, _ repository.Tx, status model.JobStatus) (int, error) {
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

func (m *memJobRepo) ListStuckRunning(ctx context.Context, _ repository.Tx, olderThan time.Duration, limit int) ([]*model.RunJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().Add(-olderThan)
	var out []*model.RunJob
	for _, j := range m.jobs {
		if j.Status == model.JobStatusRunning && j.UpdatedAt.Before(cutoff) {
			cp := *j
			out = append(out, &cp)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
