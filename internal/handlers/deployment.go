package handlers

import (
	"net/http"
	"time"

	"github.com/crucial707/mlregistry/internal/metrics"
	"github.com/crucial707/mlregistry/internal/models"
	"github.com/crucial707/mlregistry/internal/schedule"
	"github.com/crucial707/mlregistry/internal/session"
	"github.com/crucial707/mlregistry/internal/store"
)

// DeploymentHandler serves deployments. Every deployment it returns carries its schedule label.
type DeploymentHandler struct {
	Deployments store.DeploymentStore
	Models      store.ModelStore
	Audit       store.AuditStore
	Now         func() time.Time
}

func (h *DeploymentHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// DeploymentDetail is a deployment with its next scheduled run, for detail screens.
type DeploymentDetail struct {
	models.Deployment
	Cadence schedule.Cadence `json:"cadence"`
	NextRun *time.Time       `json:"next_run,omitempty"`
}

func labelled(d models.Deployment) models.Deployment {
	d.ScheduleLabel = schedule.Label(d.Schedule)
	return d
}

// DeploymentInput is the create and update body of /deployments.
type DeploymentInput struct {
	Name           string `json:"name" validate:"required,min=2,max=255"`
	Description    string `json:"description" validate:"max=2000"`
	ModelID        int    `json:"model_id" validate:"required,gt=0"`
	Cadence        string `json:"cadence" validate:"max=20"`
	CronExpression string `json:"cron_expression" validate:"max=100"`
	DagID          string `json:"dag_id" validate:"max=255"`
	Status         string `json:"status" validate:"omitempty,oneof=pending running stopped failed completed"`
}

// resolveSchedule turns the cadence selector into the stored expression. A bare cron_expression
// without cadence counts as custom. A custom literal must be a valid 5-field cron spec; otherwise
// the field error is written and false returned.
func resolveSchedule(w http.ResponseWriter, in DeploymentInput) (*string, bool) {
	c := schedule.ParseCadence(in.Cadence)
	if in.Cadence == "" && in.CronExpression != "" {
		c = schedule.Custom
	}
	if c == schedule.Custom {
		if in.CronExpression == "" {
			JSONValidationError(w, "validation failed", map[string]string{"cron_expression": "required for custom cadence"}, http.StatusBadRequest)
			return nil, false
		}
		if err := schedule.Validate(in.CronExpression); err != nil {
			JSONValidationError(w, "validation failed", map[string]string{"cron_expression": err.Error()}, http.StatusBadRequest)
			return nil, false
		}
	}
	return schedule.Resolve(c, in.CronExpression), true
}

// ==========================
// List Deployments (query: q, department, region, status)
// ==========================
func (h *DeploymentHandler) ListDeployments(w http.ResponseWriter, r *http.Request) {
	list, err := h.Deployments.List(r.Context())
	if err != nil {
		storeError(w, r, err, "deployments")
		return
	}
	for i := range list {
		list[i] = labelled(list[i])
	}
	writeJSON(w, http.StatusOK, filterList(list, models.DeploymentFilter, r.URL.Query()))
}

// ==========================
// Get Deployment
// ==========================
func (h *DeploymentHandler) GetDeployment(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "deployment")
	if !ok {
		return
	}
	d, err := h.Deployments.Get(r.Context(), id)
	if err != nil {
		storeError(w, r, err, "deployment")
		return
	}
	detail := DeploymentDetail{Deployment: labelled(d), Cadence: schedule.CadenceOf(d.Schedule)}
	if next, ok := schedule.Next(d.Schedule, h.now()); ok {
		detail.NextRun = &next
	}
	writeJSON(w, http.StatusOK, detail)
}

// ==========================
// Create Deployment
// ==========================
func (h *DeploymentHandler) CreateDeployment(w http.ResponseWriter, r *http.Request) {
	var input DeploymentInput
	if !decodeAndValidate(w, r, &input) {
		return
	}
	expr, ok := resolveSchedule(w, input)
	if !ok {
		return
	}

	m, err := h.Models.Get(r.Context(), input.ModelID)
	if err != nil {
		storeError(w, r, err, "model")
		return
	}

	status := input.Status
	if status == "" {
		status = models.DeploymentStatusPending
	}
	created, err := h.Deployments.Create(r.Context(), models.Deployment{
		Name:        input.Name,
		Description: input.Description,
		ModelID:     m.ID,
		ModelName:   m.Name,
		Department:  m.Department,
		Region:      m.Region,
		OwnerID:     session.FromContext(r.Context()).UserID,
		Status:      status,
		Schedule:    expr,
		DagID:       input.DagID,
	})
	if err != nil {
		storeError(w, r, err, "deployment")
		return
	}
	recordAudit(r.Context(), h.Audit, models.AuditCreate, "deployment", created.ID, created.Name)
	writeJSON(w, http.StatusCreated, labelled(created))
}

// ==========================
// Update Deployment (the model of a deployment cannot change)
// ==========================
func (h *DeploymentHandler) UpdateDeployment(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "deployment")
	if !ok {
		return
	}
	var input DeploymentInput
	if !decodeAndValidate(w, r, &input) {
		return
	}
	expr, ok := resolveSchedule(w, input)
	if !ok {
		return
	}

	d, err := h.Deployments.Get(r.Context(), id)
	if err != nil {
		storeError(w, r, err, "deployment")
		return
	}
	if input.ModelID != d.ModelID {
		JSONValidationError(w, "validation failed", map[string]string{"model_id": "cannot change"}, http.StatusBadRequest)
		return
	}
	d.Name = input.Name
	d.Description = input.Description
	d.Schedule = expr
	d.DagID = input.DagID
	if input.Status != "" {
		d.Status = input.Status
	}

	updated, err := h.Deployments.Update(r.Context(), d)
	if err != nil {
		storeError(w, r, err, "deployment")
		return
	}
	recordAudit(r.Context(), h.Audit, models.AuditUpdate, "deployment", updated.ID, updated.Name)
	writeJSON(w, http.StatusOK, labelled(updated))
}

// ==========================
// Delete Deployment
// ==========================
func (h *DeploymentHandler) DeleteDeployment(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "deployment")
	if !ok {
		return
	}
	if err := h.Deployments.Delete(r.Context(), id); err != nil {
		storeError(w, r, err, "deployment")
		return
	}
	recordAudit(r.Context(), h.Audit, models.AuditDelete, "deployment", id, "")
	w.WriteHeader(http.StatusNoContent)
}

// ==========================
// Start / Stop
// ==========================

// StartDeployment marks a deployment running. Nothing is executed.
func (h *DeploymentHandler) StartDeployment(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, models.DeploymentStatusRunning, models.AuditStart)
}

// StopDeployment marks a deployment stopped.
func (h *DeploymentHandler) StopDeployment(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, models.DeploymentStatusStopped, models.AuditStop)
}

func (h *DeploymentHandler) transition(w http.ResponseWriter, r *http.Request, status, action string) {
	id, ok := urlID(w, r, "deployment")
	if !ok {
		return
	}
	d, err := h.Deployments.Get(r.Context(), id)
	if err != nil {
		storeError(w, r, err, "deployment")
		return
	}
	if d.Status == status {
		JSONError(w, "deployment is already "+status, http.StatusConflict)
		return
	}
	d, err = h.Deployments.SetStatus(r.Context(), id, status)
	if err != nil {
		storeError(w, r, err, "deployment")
		return
	}
	metrics.IncDeploymentTransitions(status)
	recordAudit(r.Context(), h.Audit, action, "deployment", id, "")
	writeJSON(w, http.StatusOK, labelled(d))
}
