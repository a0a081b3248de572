package main

import (
	"net/http"
	"strconv"

	"github.com/crucial707/mlregistry/internal/apiclient"
	"github.com/crucial707/mlregistry/internal/models"
)

func executionsList(w http.ResponseWriter, r *http.Request) {
	list, err := gatewayOf(r).ListExecutions(r.Context(), nil)
	if err != nil {
		apiFailure(w, r, err)
		return
	}
	renderTemplate(w, r, http.StatusOK, "executions.html", map[string]interface{}{
		"Title":  "Executions",
		"List":   newListView(list.Items, models.ExecutionFilter, r.URL.Query()),
		"CanRun": canRun(r),
	})
}

func executionDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	e, err := gatewayOf(r).GetExecution(r.Context(), id)
	if err != nil {
		apiFailure(w, r, err)
		return
	}
	data := map[string]interface{}{
		"Title":     "Execution " + e.RunID,
		"Execution": e,
		"CanRun":    canRun(r),
	}
	if d, ok := e.Duration(); ok {
		data["Duration"] = formatDuration(d)
	}
	renderTemplate(w, r, http.StatusOK, "execution_detail.html", data)
}

func executionCancel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := gatewayOf(r).CancelExecution(r.Context(), id); err != nil {
		if apiclient.StatusOf(err) == http.StatusConflict {
			redirectWithMessage(w, r, "/executions/"+strconv.Itoa(id), apiMessage(err))
			return
		}
		apiFailure(w, r, err)
		return
	}
	redirectWithMessage(w, r, "/executions/"+strconv.Itoa(id), "Execution cancelled")
}
