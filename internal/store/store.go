// Package store defines the data-access gateway the API depends on. Screens and handlers only
// see these interfaces; the in-memory adapter lives here and the PostgreSQL adapter in repo.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/crucial707/mlregistry/internal/models"
)

var (
	// ErrNotFound is returned when no record has the requested id or key.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique key (such as a username) is already taken.
	ErrConflict = errors.New("conflict")
)

type ModelStore interface {
	List(ctx context.Context) ([]models.Model, error)
	Get(ctx context.Context, id int) (models.Model, error)
	Create(ctx context.Context, m models.Model) (models.Model, error)
	Update(ctx context.Context, m models.Model) (models.Model, error)
	Delete(ctx context.Context, id int) error
}

type DeploymentStore interface {
	List(ctx context.Context) ([]models.Deployment, error)
	Get(ctx context.Context, id int) (models.Deployment, error)
	Create(ctx context.Context, d models.Deployment) (models.Deployment, error)
	Update(ctx context.Context, d models.Deployment) (models.Deployment, error)
	SetStatus(ctx context.Context, id int, status string) (models.Deployment, error)
	Delete(ctx context.Context, id int) error
}

// ExecutionStore lists executions most recent first.
type ExecutionStore interface {
	List(ctx context.Context) ([]models.Execution, error)
	Get(ctx context.Context, id int) (models.Execution, error)
	Create(ctx context.Context, e models.Execution) (models.Execution, error)
	// Finish records the final status, end time and log lines of an execution.
	Finish(ctx context.Context, id int, status string, end time.Time, logs []string) (models.Execution, error)
}

type UserStore interface {
	List(ctx context.Context) ([]models.User, error)
	Get(ctx context.Context, id int) (models.User, error)
	GetByUsername(ctx context.Context, username string) (models.User, error)
	Create(ctx context.Context, u models.User) (models.User, error)
	Update(ctx context.Context, u models.User) (models.User, error)
	Delete(ctx context.Context, id int) error
	TouchLogin(ctx context.Context, id int, at time.Time) error
}

type AuditStore interface {
	Log(ctx context.Context, e models.AuditEntry) error
	List(ctx context.Context, limit, offset int) ([]models.AuditEntry, error)
}

// Store bundles the gateways of every entity.
type Store struct {
	Models      ModelStore
	Deployments DeploymentStore
	Executions  ExecutionStore
	Users       UserStore
	Audit       AuditStore
}
