package models

import (
	"time"

	"github.com/crucial707/mlregistry/internal/recordfilter"
)

const (
	DeploymentStatusPending   = "pending"
	DeploymentStatusRunning   = "running"
	DeploymentStatusStopped   = "stopped"
	DeploymentStatusFailed    = "failed"
	DeploymentStatusCompleted = "completed"
)

// Deployment binds a model to a run configuration and an optional cron schedule.
// ModelName, Department and Region are copied from the model when the deployment is created.
type Deployment struct {
	ID            int        `json:"id"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	ModelID       int        `json:"model_id"`
	ModelName     string     `json:"model_name"`
	Department    string     `json:"department"`
	Region        string     `json:"region"`
	OwnerID       int        `json:"owner_id"`
	Status        string     `json:"status"`
	Schedule      *string    `json:"schedule"`
	ScheduleLabel string     `json:"schedule_label"`
	DagID         string     `json:"dag_id"`
	LastExecution *time.Time `json:"last_execution,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// DeploymentFilter is the filter bar of the deployments screen.
var DeploymentFilter = recordfilter.Schema{
	Text:        []string{"name", "model_name"},
	Categorical: []string{"department", "region", "status"},
}

func (d Deployment) Record() recordfilter.Record {
	return recordfilter.Record{
		"id":         d.ID,
		"name":       d.Name,
		"model_id":   d.ModelID,
		"model_name": d.ModelName,
		"department": d.Department,
		"region":     d.Region,
		"status":     d.Status,
		"schedule":   d.Schedule,
	}
}
