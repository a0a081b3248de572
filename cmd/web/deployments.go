package main

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/crucial707/mlregistry/internal/apiclient"
	"github.com/crucial707/mlregistry/internal/handlers"
	"github.com/crucial707/mlregistry/internal/models"
	"github.com/crucial707/mlregistry/internal/schedule"
	"github.com/crucial707/mlregistry/internal/session"
)

func deploymentsList(w http.ResponseWriter, r *http.Request) {
	list, err := gatewayOf(r).ListDeployments(r.Context(), nil)
	if err != nil {
		apiFailure(w, r, err)
		return
	}
	renderTemplate(w, r, http.StatusOK, "deployments.html", map[string]interface{}{
		"Title": "Deployments",
		"List":  newListView(list.Items, models.DeploymentFilter, r.URL.Query()),
	})
}

func deploymentDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	gw := gatewayOf(r)
	d, err := gw.GetDeployment(r.Context(), id)
	if err != nil {
		apiFailure(w, r, err)
		return
	}
	execs, err := gw.ListExecutions(r.Context(), nil)
	if err != nil {
		apiFailure(w, r, err)
		return
	}
	var runs []models.Execution
	for _, e := range execs.Items {
		if e.DeploymentID == d.ID {
			runs = append(runs, e)
		}
	}
	renderTemplate(w, r, http.StatusOK, "deployment_detail.html", map[string]interface{}{
		"Title":      d.Name,
		"Deployment": d,
		"Executions": runs,
		"CanRun":     canRun(r),
	})
}

// canRun reports whether the caller may trigger and cancel executions.
func canRun(r *http.Request) bool {
	return session.FromContext(r.Context()).HasRole(models.RoleAdmin, models.RoleDataScientist, models.RoleBusinessUser)
}

// ==========================
// Forms
// ==========================

func deploymentFormData(r *http.Request, action, submit string, in handlers.DeploymentInput, editing bool) (map[string]interface{}, error) {
	list, err := gatewayOf(r).ListModels(r.Context(), nil)
	if err != nil {
		return nil, err
	}
	cadence := schedule.ParseCadence(in.Cadence)
	return map[string]interface{}{
		"Title":       submit,
		"FormAction":  action,
		"SubmitLabel": submit,
		"Fields":      map[string]string(nil),
		"Input":       in,
		"Editing":     editing,
		"Models":      list.Items,
		"Cadences":    schedule.Cadences,
		"Cadence":     cadence,
		"Preview":     schedule.Label(schedule.Resolve(cadence, in.CronExpression)),
		"Statuses": []string{
			models.DeploymentStatusPending, models.DeploymentStatusRunning, models.DeploymentStatusStopped,
			models.DeploymentStatusFailed, models.DeploymentStatusCompleted,
		},
	}, nil
}

// parseDeploymentForm reads the deployment form. The custom expression is only sent with the
// custom cadence.
func parseDeploymentForm(r *http.Request) handlers.DeploymentInput {
	modelID, _ := strconv.Atoi(r.FormValue("model_id"))
	in := handlers.DeploymentInput{
		Name:        strings.TrimSpace(r.FormValue("name")),
		Description: strings.TrimSpace(r.FormValue("description")),
		ModelID:     modelID,
		Cadence:     string(schedule.ParseCadence(r.FormValue("cadence"))),
		DagID:       strings.TrimSpace(r.FormValue("dag_id")),
		Status:      r.FormValue("status"),
	}
	if schedule.Cadence(in.Cadence) == schedule.Custom {
		in.CronExpression = strings.TrimSpace(r.FormValue("cron_expression"))
	}
	return in
}

func deploymentInputOf(d models.Deployment) handlers.DeploymentInput {
	in := handlers.DeploymentInput{
		Name:        d.Name,
		Description: d.Description,
		ModelID:     d.ModelID,
		Cadence:     string(schedule.CadenceOf(d.Schedule)),
		DagID:       d.DagID,
		Status:      d.Status,
	}
	if schedule.Cadence(in.Cadence) == schedule.Custom {
		in.CronExpression = *d.Schedule
	}
	return in
}

func renderDeploymentForm(w http.ResponseWriter, r *http.Request, status int, action, submit string, in handlers.DeploymentInput, editing bool, formErr error) {
	data, err := deploymentFormData(r, action, submit, in, editing)
	if err != nil {
		apiFailure(w, r, err)
		return
	}
	if formErr != nil {
		data["Error"], data["Fields"] = apiMessage(formErr), apiFields(formErr)
	}
	renderTemplate(w, r, status, "deployment_form.html", data)
}

func deploymentCreateForm(w http.ResponseWriter, r *http.Request) {
	if forbidUnlessWriter(w, r) {
		return
	}
	in := handlers.DeploymentInput{Cadence: string(schedule.Manual)}
	if id, err := strconv.Atoi(r.URL.Query().Get("model_id")); err == nil {
		in.ModelID = id
	}
	renderDeploymentForm(w, r, http.StatusOK, "/deployments", "Create deployment", in, false, nil)
}

func deploymentCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	in := parseDeploymentForm(r)
	d, err := gatewayOf(r).CreateDeployment(r.Context(), in)
	if err != nil {
		if isFormError(err) {
			renderDeploymentForm(w, r, http.StatusBadRequest, "/deployments", "Create deployment", in, false, err)
			return
		}
		apiFailure(w, r, err)
		return
	}
	redirectWithMessage(w, r, "/deployments/"+strconv.Itoa(d.ID), "Deployment created")
}

func deploymentEditForm(w http.ResponseWriter, r *http.Request) {
	if forbidUnlessWriter(w, r) {
		return
	}
	id, err := pathID(r)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	d, err := gatewayOf(r).GetDeployment(r.Context(), id)
	if err != nil {
		apiFailure(w, r, err)
		return
	}
	renderDeploymentForm(w, r, http.StatusOK, "/deployments/"+strconv.Itoa(id)+"/edit", "Save deployment", deploymentInputOf(d.Deployment), true, nil)
}

func deploymentUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	in := parseDeploymentForm(r)
	if _, err := gatewayOf(r).UpdateDeployment(r.Context(), id, in); err != nil {
		if isFormError(err) {
			renderDeploymentForm(w, r, http.StatusBadRequest, "/deployments/"+strconv.Itoa(id)+"/edit", "Save deployment", in, true, err)
			return
		}
		apiFailure(w, r, err)
		return
	}
	redirectWithMessage(w, r, "/deployments/"+strconv.Itoa(id), "Deployment saved")
}

// ==========================
// Actions
// ==========================

func deploymentStart(w http.ResponseWriter, r *http.Request) {
	deploymentAction(w, r, Gateway.StartDeployment, "Deployment started")
}

func deploymentStop(w http.ResponseWriter, r *http.Request) {
	deploymentAction(w, r, Gateway.StopDeployment, "Deployment stopped")
}

func deploymentAction(w http.ResponseWriter, r *http.Request, call func(Gateway, context.Context, int) (models.Deployment, error), done string) {
	id, err := pathID(r)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := call(gatewayOf(r), r.Context(), id); err != nil {
		if apiclient.StatusOf(err) == http.StatusConflict {
			redirectWithMessage(w, r, "/deployments/"+strconv.Itoa(id), apiMessage(err))
			return
		}
		apiFailure(w, r, err)
		return
	}
	redirectWithMessage(w, r, "/deployments/"+strconv.Itoa(id), done)
}

func deploymentTrigger(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	e, err := gatewayOf(r).TriggerExecution(r.Context(), id)
	if err != nil {
		apiFailure(w, r, err)
		return
	}
	redirectWithMessage(w, r, "/executions/"+strconv.Itoa(e.ID), "Execution queued")
}

func deploymentDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	d, err := gatewayOf(r).GetDeployment(r.Context(), id)
	if err != nil {
		apiFailure(w, r, err)
		return
	}
	renderTemplate(w, r, http.StatusOK, "confirm_delete.html", map[string]interface{}{
		"Title":      "Delete deployment",
		"Kind":       "deployment",
		"Name":       d.Name,
		"Warning":    "Its executions are deleted too.",
		"FormAction": "/deployments/" + strconv.Itoa(id) + "/delete",
		"CancelURL":  "/deployments/" + strconv.Itoa(id),
	})
}

func deploymentDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := gatewayOf(r).DeleteDeployment(r.Context(), id); err != nil {
		apiFailure(w, r, err)
		return
	}
	redirectWithMessage(w, r, "/deployments", "Deployment deleted")
}
