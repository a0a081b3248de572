package models

import (
	"time"

	"github.com/crucial707/mlregistry/internal/recordfilter"
)

const (
	ExecutionStatusQueued  = "queued"
	ExecutionStatusRunning = "running"
	ExecutionStatusSuccess = "success"
	ExecutionStatusFailed  = "failed"
)

const (
	TriggeredManual   = "manual"
	TriggeredSchedule = "schedule"
)

// Execution is one run of a deployment.
type Execution struct {
	ID             int        `json:"id"`
	RunID          string     `json:"run_id"`
	DeploymentID   int        `json:"deployment_id"`
	DeploymentName string     `json:"deployment_name"`
	ModelID        int        `json:"model_id"`
	ModelName      string     `json:"model_name"`
	Department     string     `json:"department"`
	Region         string     `json:"region"`
	OwnerID        int        `json:"owner_id"`
	TriggeredBy    string     `json:"triggered_by"`
	Status         string     `json:"status"`
	StartTime      *time.Time `json:"start_time,omitempty"`
	EndTime        *time.Time `json:"end_time,omitempty"`
	ResultPath     *string    `json:"result_path,omitempty"`
	Logs           []string   `json:"logs"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Cancellable reports whether the execution may still be cancelled.
func (e Execution) Cancellable() bool {
	return e.Status == ExecutionStatusQueued || e.Status == ExecutionStatusRunning
}

// Duration is the wall time of a finished execution.
func (e Execution) Duration() (time.Duration, bool) {
	if e.StartTime == nil || e.EndTime == nil {
		return 0, false
	}
	return e.EndTime.Sub(*e.StartTime), true
}

// ExecutionFilter is the filter bar of the executions screen.
var ExecutionFilter = recordfilter.Schema{
	Text:        []string{"deployment_name", "model_name"},
	Categorical: []string{"department", "region", "status"},
}

func (e Execution) Record() recordfilter.Record {
	return recordfilter.Record{
		"id":              e.ID,
		"deployment_id":   e.DeploymentID,
		"deployment_name": e.DeploymentName,
		"model_id":        e.ModelID,
		"model_name":      e.ModelName,
		"department":      e.Department,
		"region":          e.Region,
		"triggered_by":    e.TriggeredBy,
		"status":          e.Status,
	}
}
