package handlers

import (
	"net/http"
	"time"

	"github.com/crucial707/mlregistry/internal/metrics"
	"github.com/crucial707/mlregistry/internal/models"
	"github.com/crucial707/mlregistry/internal/session"
	"github.com/crucial707/mlregistry/internal/store"
	"github.com/google/uuid"
)

// CancelledLogLine is appended to the logs of a cancelled execution.
const CancelledLogLine = "Execution cancelled by user"

// ExecutionHandler serves executions. Triggering only records a queued run; no job is started.
type ExecutionHandler struct {
	Executions  store.ExecutionStore
	Deployments store.DeploymentStore
	Audit       store.AuditStore
	Now         func() time.Time
}

func (h *ExecutionHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// ==========================
// List Executions (most recent first; query: q, department, region, status)
// ==========================
func (h *ExecutionHandler) ListExecutions(w http.ResponseWriter, r *http.Request) {
	list, err := h.Executions.List(r.Context())
	if err != nil {
		storeError(w, r, err, "executions")
		return
	}
	writeJSON(w, http.StatusOK, filterList(list, models.ExecutionFilter, r.URL.Query()))
}

// ==========================
// Get Execution
// ==========================
func (h *ExecutionHandler) GetExecution(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "execution")
	if !ok {
		return
	}
	e, err := h.Executions.Get(r.Context(), id)
	if err != nil {
		storeError(w, r, err, "execution")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// ==========================
// Execution Logs
// ==========================
func (h *ExecutionHandler) GetLogs(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "execution")
	if !ok {
		return
	}
	e, err := h.Executions.Get(r.Context(), id)
	if err != nil {
		storeError(w, r, err, "execution")
		return
	}
	writeJSON(w, http.StatusOK, LogsResponse{ExecutionID: e.ID, RunID: e.RunID, Status: e.Status, Logs: e.Logs})
}

// LogsResponse is the body of GET /executions/{id}/logs.
type LogsResponse struct {
	ExecutionID int      `json:"execution_id"`
	RunID       string   `json:"run_id"`
	Status      string   `json:"status"`
	Logs        []string `json:"logs"`
}

type TriggerRequest struct {
	DeploymentID int `json:"deployment_id" validate:"required,gt=0"`
}

// ==========================
// Trigger Execution
// ==========================
func (h *ExecutionHandler) TriggerExecution(w http.ResponseWriter, r *http.Request) {
	var input TriggerRequest
	if !decodeAndValidate(w, r, &input) {
		return
	}

	d, err := h.Deployments.Get(r.Context(), input.DeploymentID)
	if err != nil {
		storeError(w, r, err, "deployment")
		return
	}

	created, err := h.Executions.Create(r.Context(), models.Execution{
		RunID:          uuid.NewString(),
		DeploymentID:   d.ID,
		DeploymentName: d.Name,
		ModelID:        d.ModelID,
		ModelName:      d.ModelName,
		Department:     d.Department,
		Region:         d.Region,
		OwnerID:        session.FromContext(r.Context()).UserID,
		TriggeredBy:    models.TriggeredManual,
		Status:         models.ExecutionStatusQueued,
		Logs:           []string{},
		CreatedAt:      h.now(),
	})
	if err != nil {
		storeError(w, r, err, "execution")
		return
	}
	metrics.IncExecutionsTriggered(created.TriggeredBy)
	recordAudit(r.Context(), h.Audit, models.AuditTrigger, "execution", created.ID, d.Name)
	writeJSON(w, http.StatusAccepted, created)
}

// ==========================
// Cancel Execution (queued or running only)
// ==========================
func (h *ExecutionHandler) CancelExecution(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "execution")
	if !ok {
		return
	}
	e, err := h.Executions.Get(r.Context(), id)
	if err != nil {
		storeError(w, r, err, "execution")
		return
	}
	if !e.Cancellable() {
		JSONError(w, "execution is already "+e.Status, http.StatusConflict)
		return
	}

	logs := append(e.Logs, CancelledLogLine)
	finished, err := h.Executions.Finish(r.Context(), id, models.ExecutionStatusFailed, h.now(), logs)
	if err != nil {
		storeError(w, r, err, "execution")
		return
	}
	metrics.IncExecutionsFinished(finished.Status)
	recordAudit(r.Context(), h.Audit, models.AuditCancel, "execution", id, "")
	writeJSON(w, http.StatusOK, finished)
}
