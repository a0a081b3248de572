package store

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/crucial707/mlregistry/internal/models"
)

// memory keeps every collection in process. All adapters share one lock.
// Deletes cascade like the PostgreSQL schema: model -> deployments -> executions.
type memory struct {
	mu  sync.RWMutex
	now func() time.Time

	models      []models.Model
	deployments []models.Deployment
	executions  []models.Execution
	users       []models.User
	audit       []models.AuditEntry
	lastID      map[string]int
}

func (m *memory) nextID(kind string) int {
	m.lastID[kind]++
	return m.lastID[kind]
}

// NewMemory returns an empty in-memory Store. now stamps created/updated times; nil means time.Now.
func NewMemory(now func() time.Time) Store {
	if now == nil {
		now = time.Now
	}
	m := &memory{now: now, lastID: make(map[string]int)}
	return Store{
		Models:      memModels{m},
		Deployments: memDeployments{m},
		Executions:  memExecutions{m},
		Users:       memUsers{m},
		Audit:       memAudit{m},
	}
}

func indexOf[T any](items []T, id int, key func(T) int) int {
	return slices.IndexFunc(items, func(it T) bool { return key(it) == id })
}

// ========================
// MODELS
// ========================

type memModels struct{ *memory }

func modelID(m models.Model) int { return m.ID }

func cloneModel(m models.Model) models.Model {
	m.Tags = slices.Clone(m.Tags)
	return m
}

func (s memModels) List(ctx context.Context) ([]models.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Model, len(s.models))
	for i, m := range s.models {
		out[i] = cloneModel(m)
	}
	return out, nil
}

func (s memModels) Get(ctx context.Context, id int) (models.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := indexOf(s.models, id, modelID)
	if i < 0 {
		return models.Model{}, ErrNotFound
	}
	return cloneModel(s.models[i]), nil
}

func (s memModels) Create(ctx context.Context, m models.Model) (models.Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = s.nextID("model")
	now := s.now()
	m.CreatedAt, m.UpdatedAt = now, now
	m = cloneModel(m)
	s.models = append(s.models, m)
	return cloneModel(m), nil
}

func (s memModels) Update(ctx context.Context, m models.Model) (models.Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.models, m.ID, modelID)
	if i < 0 {
		return models.Model{}, ErrNotFound
	}
	m.CreatedAt = s.models[i].CreatedAt
	m.UpdatedAt = s.now()
	s.models[i] = cloneModel(m)
	return cloneModel(m), nil
}

func (s memModels) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.models, id, modelID)
	if i < 0 {
		return ErrNotFound
	}
	s.models = slices.Delete(s.models, i, i+1)
	for _, d := range s.deployments {
		if d.ModelID == id {
			s.deleteExecutionsOf(d.ID)
		}
	}
	s.deployments = slices.DeleteFunc(s.deployments, func(d models.Deployment) bool { return d.ModelID == id })
	return nil
}

// ========================
// DEPLOYMENTS
// ========================

type memDeployments struct{ *memory }

func deploymentID(d models.Deployment) int { return d.ID }

func cloneDeployment(d models.Deployment) models.Deployment {
	if d.Schedule != nil {
		expr := *d.Schedule
		d.Schedule = &expr
	}
	if d.LastExecution != nil {
		at := *d.LastExecution
		d.LastExecution = &at
	}
	return d
}

func (s memDeployments) List(ctx context.Context) ([]models.Deployment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Deployment, len(s.deployments))
	for i, d := range s.deployments {
		out[i] = cloneDeployment(d)
	}
	return out, nil
}

func (s memDeployments) Get(ctx context.Context, id int) (models.Deployment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := indexOf(s.deployments, id, deploymentID)
	if i < 0 {
		return models.Deployment{}, ErrNotFound
	}
	return cloneDeployment(s.deployments[i]), nil
}

func (s memDeployments) Create(ctx context.Context, d models.Deployment) (models.Deployment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d.ID = s.nextID("deployment")
	now := s.now()
	d.CreatedAt, d.UpdatedAt = now, now
	d = cloneDeployment(d)
	s.deployments = append(s.deployments, d)
	return cloneDeployment(d), nil
}

func (s memDeployments) Update(ctx context.Context, d models.Deployment) (models.Deployment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.deployments, d.ID, deploymentID)
	if i < 0 {
		return models.Deployment{}, ErrNotFound
	}
	d.CreatedAt = s.deployments[i].CreatedAt
	d.UpdatedAt = s.now()
	s.deployments[i] = cloneDeployment(d)
	return cloneDeployment(d), nil
}

func (s memDeployments) SetStatus(ctx context.Context, id int, status string) (models.Deployment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.deployments, id, deploymentID)
	if i < 0 {
		return models.Deployment{}, ErrNotFound
	}
	s.deployments[i].Status = status
	s.deployments[i].UpdatedAt = s.now()
	return cloneDeployment(s.deployments[i]), nil
}

func (s memDeployments) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.deployments, id, deploymentID)
	if i < 0 {
		return ErrNotFound
	}
	s.deployments = slices.Delete(s.deployments, i, i+1)
	s.deleteExecutionsOf(id)
	return nil
}

// deleteExecutionsOf drops the executions of a deleted deployment. Callers hold the write lock.
func (m *memory) deleteExecutionsOf(deploymentID int) {
	m.executions = slices.DeleteFunc(m.executions, func(e models.Execution) bool { return e.DeploymentID == deploymentID })
}

// ========================
// EXECUTIONS
// ========================

type memExecutions struct{ *memory }

func executionID(e models.Execution) int { return e.ID }

func cloneExecution(e models.Execution) models.Execution {
	e.Logs = slices.Clone(e.Logs)
	return e
}

func (s memExecutions) List(ctx context.Context) ([]models.Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Execution, len(s.executions))
	for i, e := range s.executions {
		out[i] = cloneExecution(e)
	}
	slices.SortStableFunc(out, func(a, b models.Execution) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out, nil
}

func (s memExecutions) Get(ctx context.Context, id int) (models.Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := indexOf(s.executions, id, executionID)
	if i < 0 {
		return models.Execution{}, ErrNotFound
	}
	return cloneExecution(s.executions[i]), nil
}

func (s memExecutions) Create(ctx context.Context, e models.Execution) (models.Execution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.nextID("execution")
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	if e.Logs == nil {
		e.Logs = []string{}
	}
	e = cloneExecution(e)
	s.executions = append(s.executions, e)

	// keep the deployment's last execution current
	if i := indexOf(s.deployments, e.DeploymentID, deploymentID); i >= 0 {
		at := e.CreatedAt
		s.deployments[i].LastExecution = &at
	}
	return cloneExecution(e), nil
}

func (s memExecutions) Finish(ctx context.Context, id int, status string, end time.Time, logs []string) (models.Execution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.executions, id, executionID)
	if i < 0 {
		return models.Execution{}, ErrNotFound
	}
	s.executions[i].Status = status
	s.executions[i].EndTime = &end
	s.executions[i].Logs = slices.Clone(logs)
	return cloneExecution(s.executions[i]), nil
}

// ========================
// USERS
// ========================

type memUsers struct{ *memory }

func userID(u models.User) int { return u.ID }

func (s memUsers) List(ctx context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.users), nil
}

func (s memUsers) Get(ctx context.Context, id int) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := indexOf(s.users, id, userID)
	if i < 0 {
		return models.User{}, ErrNotFound
	}
	return s.users[i], nil
}

func (s memUsers) GetByUsername(ctx context.Context, username string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := slices.IndexFunc(s.users, func(u models.User) bool { return u.Username == username })
	if i < 0 {
		return models.User{}, ErrNotFound
	}
	return s.users[i], nil
}

func (s memUsers) usernameTaken(username string, except int) bool {
	return slices.ContainsFunc(s.users, func(u models.User) bool {
		return u.Username == username && u.ID != except
	})
}

func (s memUsers) Create(ctx context.Context, u models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.usernameTaken(u.Username, 0) {
		return models.User{}, ErrConflict
	}
	u.ID = s.nextID("user")
	now := s.now()
	u.CreatedAt, u.UpdatedAt = now, now
	s.users = append(s.users, u)
	return u, nil
}

// Update replaces the profile fields of u. An empty PasswordHash keeps the stored one.
func (s memUsers) Update(ctx context.Context, u models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.users, u.ID, userID)
	if i < 0 {
		return models.User{}, ErrNotFound
	}
	if s.usernameTaken(u.Username, u.ID) {
		return models.User{}, ErrConflict
	}
	old := s.users[i]
	if u.PasswordHash == "" {
		u.PasswordHash = old.PasswordHash
	}
	u.CreatedAt = old.CreatedAt
	u.LastLogin = old.LastLogin
	u.UpdatedAt = s.now()
	s.users[i] = u
	return u, nil
}

func (s memUsers) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.users, id, userID)
	if i < 0 {
		return ErrNotFound
	}
	s.users = slices.Delete(s.users, i, i+1)
	return nil
}

func (s memUsers) TouchLogin(ctx context.Context, id int, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.users, id, userID)
	if i < 0 {
		return ErrNotFound
	}
	s.users[i].LastLogin = &at
	return nil
}

// ========================
// AUDIT
// ========================

type memAudit struct{ *memory }

func (s memAudit) Log(ctx context.Context, e models.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.nextID("audit")
	e.CreatedAt = s.now()
	s.audit = append(s.audit, e)
	return nil
}

// List returns entries newest first.
func (s memAudit) List(ctx context.Context, limit, offset int) ([]models.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.AuditEntry{}
	for i := len(s.audit) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.audit[i])
	}
	return out, nil
}
