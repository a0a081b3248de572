package handlers

import (
	"net/http"

	"github.com/crucial707/mlregistry/internal/models"
	"github.com/crucial707/mlregistry/internal/session"
	"github.com/crucial707/mlregistry/internal/store"
)

type ModelHandler struct {
	Models store.ModelStore
	Audit  store.AuditStore
}

// ModelInput is the create and update body of /models.
type ModelInput struct {
	Name        string   `json:"name" validate:"required,min=2,max=255"`
	Description string   `json:"description" validate:"max=2000"`
	Type        string   `json:"type" validate:"required,oneof=classification regression clustering forecasting recommendation custom"`
	Framework   string   `json:"framework" validate:"required,oneof=scikit-learn tensorflow pytorch xgboost r custom"`
	Version     string   `json:"version" validate:"required,max=50"`
	Tags        []string `json:"tags" validate:"max=20,dive,min=1,max=50"`
	Department  string   `json:"department" validate:"required,max=100"`
	Region      string   `json:"region" validate:"required,max=100"`
	Brand       *string  `json:"brand" validate:"omitempty,max=100"`
	Status      string   `json:"status" validate:"omitempty,oneof=draft ready deployed archived"`
	FilePath    *string  `json:"file_path" validate:"omitempty,max=500"`
}

func (in ModelInput) apply(m *models.Model) {
	m.Name = in.Name
	m.Description = in.Description
	m.Type = in.Type
	m.Framework = in.Framework
	m.Version = in.Version
	m.Tags = in.Tags
	if m.Tags == nil {
		m.Tags = []string{}
	}
	m.Department = in.Department
	m.Region = in.Region
	m.Brand = in.Brand
	m.FilePath = in.FilePath
	if in.Status != "" {
		m.Status = in.Status
	}
}

//
// ==========================
// List Models (query: q, department, region, status)
// ==========================
//

func (h *ModelHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	list, err := h.Models.List(r.Context())
	if err != nil {
		storeError(w, r, err, "models")
		return
	}
	writeJSON(w, http.StatusOK, filterList(list, models.ModelFilter, r.URL.Query()))
}

//
// ==========================
// Get Model By ID
// ==========================
//

func (h *ModelHandler) GetModel(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "model")
	if !ok {
		return
	}
	m, err := h.Models.Get(r.Context(), id)
	if err != nil {
		storeError(w, r, err, "model")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

//
// ==========================
// Create Model
// ==========================
//

func (h *ModelHandler) CreateModel(w http.ResponseWriter, r *http.Request) {
	var input ModelInput
	if !decodeAndValidate(w, r, &input) {
		return
	}

	m := models.Model{
		OwnerID: session.FromContext(r.Context()).UserID,
		Status:  models.ModelStatusDraft,
	}
	input.apply(&m)

	created, err := h.Models.Create(r.Context(), m)
	if err != nil {
		storeError(w, r, err, "model")
		return
	}
	recordAudit(r.Context(), h.Audit, models.AuditCreate, "model", created.ID, created.Name)
	writeJSON(w, http.StatusCreated, created)
}

//
// ==========================
// Update Model
// ==========================
//

func (h *ModelHandler) UpdateModel(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "model")
	if !ok {
		return
	}
	var input ModelInput
	if !decodeAndValidate(w, r, &input) {
		return
	}

	m, err := h.Models.Get(r.Context(), id)
	if err != nil {
		storeError(w, r, err, "model")
		return
	}
	input.apply(&m)

	updated, err := h.Models.Update(r.Context(), m)
	if err != nil {
		storeError(w, r, err, "model")
		return
	}
	recordAudit(r.Context(), h.Audit, models.AuditUpdate, "model", updated.ID, updated.Name)
	writeJSON(w, http.StatusOK, updated)
}

//
// ==========================
// Delete Model
// ==========================
//

func (h *ModelHandler) DeleteModel(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "model")
	if !ok {
		return
	}
	if err := h.Models.Delete(r.Context(), id); err != nil {
		storeError(w, r, err, "model")
		return
	}
	recordAudit(r.Context(), h.Audit, models.AuditDelete, "model", id, "")
	w.WriteHeader(http.StatusNoContent)
}
