package repo

import (
	"database/sql"

	"github.com/crucial707/mlregistry/internal/store"
)

// NewStore returns a store.Store backed by PostgreSQL.
func NewStore(db *sql.DB) store.Store {
	return store.Store{
		Models:      NewModelRepo(db),
		Deployments: NewDeploymentRepo(db),
		Executions:  NewExecutionRepo(db),
		Users:       NewUserRepo(db),
		Audit:       NewAuditRepo(db),
	}
}
