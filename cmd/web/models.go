package main

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/crucial707/mlregistry/internal/handlers"
	"github.com/crucial707/mlregistry/internal/models"
	"github.com/crucial707/mlregistry/internal/session"
)

var (
	modelTypes      = []string{"classification", "regression", "clustering", "forecasting", "recommendation", "custom"}
	modelFrameworks = []string{"scikit-learn", "tensorflow", "pytorch", "xgboost", "r", "custom"}
	modelStatuses   = []string{models.ModelStatusDraft, models.ModelStatusReady, models.ModelStatusDeployed, models.ModelStatusArchived}
)

func modelsList(w http.ResponseWriter, r *http.Request) {
	list, err := gatewayOf(r).ListModels(r.Context(), nil)
	if err != nil {
		apiFailure(w, r, err)
		return
	}
	renderTemplate(w, r, http.StatusOK, "models.html", map[string]interface{}{
		"Title": "Models",
		"List":  newListView(list.Items, models.ModelFilter, r.URL.Query()),
	})
}

func modelDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	gw := gatewayOf(r)
	m, err := gw.GetModel(r.Context(), id)
	if err != nil {
		apiFailure(w, r, err)
		return
	}
	deps, err := gw.ListDeployments(r.Context(), nil)
	if err != nil {
		apiFailure(w, r, err)
		return
	}
	var own []models.Deployment
	for _, d := range deps.Items {
		if d.ModelID == m.ID {
			own = append(own, d)
		}
	}
	renderTemplate(w, r, http.StatusOK, "model_detail.html", map[string]interface{}{
		"Title":       m.Name,
		"Model":       m,
		"Deployments": own,
	})
}

// ==========================
// Forms
// ==========================

func modelFormData(action, submit string, in handlers.ModelInput) map[string]interface{} {
	return map[string]interface{}{
		"Title":       submit,
		"FormAction":  action,
		"SubmitLabel": submit,
		"Fields":      map[string]string(nil),
		"Input":       in,
		"Tags":        strings.Join(in.Tags, ", "),
		"Types":       modelTypes,
		"Frameworks":  modelFrameworks,
		"Statuses":    modelStatuses,
	}
}

func modelInputOf(m models.Model) handlers.ModelInput {
	return handlers.ModelInput{
		Name:        m.Name,
		Description: m.Description,
		Type:        m.Type,
		Framework:   m.Framework,
		Version:     m.Version,
		Tags:        m.Tags,
		Department:  m.Department,
		Region:      m.Region,
		Brand:       m.Brand,
		Status:      m.Status,
		FilePath:    m.FilePath,
	}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// parseModelForm reads the model form. Tags are comma-separated.
func parseModelForm(r *http.Request) handlers.ModelInput {
	in := handlers.ModelInput{
		Name:        strings.TrimSpace(r.FormValue("name")),
		Description: strings.TrimSpace(r.FormValue("description")),
		Type:        r.FormValue("type"),
		Framework:   r.FormValue("framework"),
		Version:     strings.TrimSpace(r.FormValue("version")),
		Department:  strings.TrimSpace(r.FormValue("department")),
		Region:      strings.TrimSpace(r.FormValue("region")),
		Brand:       optional(r.FormValue("brand")),
		Status:      r.FormValue("status"),
		FilePath:    optional(r.FormValue("file_path")),
	}
	for _, t := range strings.Split(r.FormValue("tags"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			in.Tags = append(in.Tags, t)
		}
	}
	return in
}

func forbidUnlessWriter(w http.ResponseWriter, r *http.Request) bool {
	if !session.FromContext(r.Context()).CanWrite() {
		renderError(w, r, http.StatusForbidden, "Your role does not allow this action.")
		return true
	}
	return false
}

func modelCreateForm(w http.ResponseWriter, r *http.Request) {
	if forbidUnlessWriter(w, r) {
		return
	}
	in := handlers.ModelInput{Version: "1.0.0", Status: models.ModelStatusDraft}
	renderTemplate(w, r, http.StatusOK, "model_form.html", modelFormData("/models", "Create model", in))
}

func modelCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	in := parseModelForm(r)
	m, err := gatewayOf(r).CreateModel(r.Context(), in)
	if err != nil {
		if isFormError(err) {
			data := modelFormData("/models", "Create model", in)
			data["Error"], data["Fields"] = apiMessage(err), apiFields(err)
			renderTemplate(w, r, http.StatusBadRequest, "model_form.html", data)
			return
		}
		apiFailure(w, r, err)
		return
	}
	redirectWithMessage(w, r, "/models/"+strconv.Itoa(m.ID), "Model created")
}

func modelEditForm(w http.ResponseWriter, r *http.Request) {
	if forbidUnlessWriter(w, r) {
		return
	}
	id, err := pathID(r)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	m, err := gatewayOf(r).GetModel(r.Context(), id)
	if err != nil {
		apiFailure(w, r, err)
		return
	}
	renderTemplate(w, r, http.StatusOK, "model_form.html", modelFormData("/models/"+strconv.Itoa(id)+"/edit", "Save model", modelInputOf(m)))
}

func modelUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	in := parseModelForm(r)
	if _, err := gatewayOf(r).UpdateModel(r.Context(), id, in); err != nil {
		if isFormError(err) {
			data := modelFormData("/models/"+strconv.Itoa(id)+"/edit", "Save model", in)
			data["Error"], data["Fields"] = apiMessage(err), apiFields(err)
			renderTemplate(w, r, http.StatusBadRequest, "model_form.html", data)
			return
		}
		apiFailure(w, r, err)
		return
	}
	redirectWithMessage(w, r, "/models/"+strconv.Itoa(id), "Model saved")
}

func modelDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	m, err := gatewayOf(r).GetModel(r.Context(), id)
	if err != nil {
		apiFailure(w, r, err)
		return
	}
	renderTemplate(w, r, http.StatusOK, "confirm_delete.html", map[string]interface{}{
		"Title":      "Delete model",
		"Kind":       "model",
		"Name":       m.Name,
		"Warning":    "Its deployments and their executions are deleted too.",
		"FormAction": "/models/" + strconv.Itoa(id) + "/delete",
		"CancelURL":  "/models/" + strconv.Itoa(id),
	})
}

func modelDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := gatewayOf(r).DeleteModel(r.Context(), id); err != nil {
		apiFailure(w, r, err)
		return
	}
	redirectWithMessage(w, r, "/models", "Model deleted")
}
