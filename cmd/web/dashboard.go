package main

import (
	"net/http"

	"github.com/crucial707/mlregistry/internal/models"
)

const recentExecutions = 5

type dashboardCounts struct {
	Models             int
	Deployments        int
	RunningDeployments int
	Executions         int
	ActiveExecutions   int
	FailedExecutions   int
}

func dashboard(w http.ResponseWriter, r *http.Request) {
	gw := gatewayOf(r)
	ms, err := gw.ListModels(r.Context(), nil)
	if err != nil {
		apiFailure(w, r, err)
		return
	}
	ds, err := gw.ListDeployments(r.Context(), nil)
	if err != nil {
		apiFailure(w, r, err)
		return
	}
	es, err := gw.ListExecutions(r.Context(), nil)
	if err != nil {
		apiFailure(w, r, err)
		return
	}

	counts := dashboardCounts{Models: ms.Total, Deployments: ds.Total, Executions: es.Total}
	for _, d := range ds.Items {
		if d.Status == models.DeploymentStatusRunning {
			counts.RunningDeployments++
		}
	}
	for _, e := range es.Items {
		switch {
		case e.Cancellable():
			counts.ActiveExecutions++
		case e.Status == models.ExecutionStatusFailed:
			counts.FailedExecutions++
		}
	}

	recent := es.Items
	if len(recent) > recentExecutions {
		recent = recent[:recentExecutions]
	}
	renderTemplate(w, r, http.StatusOK, "dashboard.html", map[string]interface{}{
		"Title":  "Dashboard",
		"Counts": counts,
		"Recent": recent,
	})
}
