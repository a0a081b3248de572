package main

import (
	"context"
	"net/url"

	"github.com/crucial707/mlregistry/internal/apiclient"
	"github.com/crucial707/mlregistry/internal/handlers"
	"github.com/crucial707/mlregistry/internal/models"
	"github.com/crucial707/mlregistry/internal/recordfilter"
)

// Gateway is what the dashboard needs from the registry. *apiclient.Client implements it; errors
// carry the API status as *apiclient.Error.
type Gateway interface {
	Login(ctx context.Context, username, password string) (handlers.LoginResponse, error)
	Me(ctx context.Context) (models.User, error)

	ListModels(ctx context.Context, q url.Values) (handlers.ListResponse[models.Model], error)
	GetModel(ctx context.Context, id int) (models.Model, error)
	CreateModel(ctx context.Context, in handlers.ModelInput) (models.Model, error)
	UpdateModel(ctx context.Context, id int, in handlers.ModelInput) (models.Model, error)
	DeleteModel(ctx context.Context, id int) error

	ListDeployments(ctx context.Context, q url.Values) (handlers.ListResponse[models.Deployment], error)
	GetDeployment(ctx context.Context, id int) (handlers.DeploymentDetail, error)
	CreateDeployment(ctx context.Context, in handlers.DeploymentInput) (models.Deployment, error)
	UpdateDeployment(ctx context.Context, id int, in handlers.DeploymentInput) (models.Deployment, error)
	DeleteDeployment(ctx context.Context, id int) error
	StartDeployment(ctx context.Context, id int) (models.Deployment, error)
	StopDeployment(ctx context.Context, id int) (models.Deployment, error)

	ListExecutions(ctx context.Context, q url.Values) (handlers.ListResponse[models.Execution], error)
	GetExecution(ctx context.Context, id int) (models.Execution, error)
	TriggerExecution(ctx context.Context, deploymentID int) (models.Execution, error)
	CancelExecution(ctx context.Context, id int) (models.Execution, error)

	ListUsers(ctx context.Context, q url.Values) (handlers.ListResponse[models.User], error)
	GetUser(ctx context.Context, id int) (models.User, error)
	CreateUser(ctx context.Context, in handlers.UserInput) (models.User, error)
	UpdateUser(ctx context.Context, id int, in handlers.UserInput) (models.User, error)
	DeleteUser(ctx context.Context, id int) error
}

// Connector returns a Gateway acting for token.
type Connector func(token string) Gateway

var _ Gateway = (*apiclient.Client)(nil)

// listView is the data of a list screen. The whole collection is fetched; options come from all of
// it and the filter bar state in the query string narrows what is shown.
type listView[T recordfilter.Recorder] struct {
	Items    []T
	Total    int
	Fields   []string
	Options  map[string][]string
	Selected map[string]string
	Query    string
}

func newListView[T recordfilter.Recorder](items []T, schema recordfilter.Schema, q url.Values) listView[T] {
	selected := make(map[string]string, len(schema.Categorical))
	for _, f := range schema.Categorical {
		selected[f] = q.Get(f)
	}
	return listView[T]{
		Items:    recordfilter.Filter(items, handlers.CriteriaFromQuery(schema, q)),
		Total:    len(items),
		Fields:   schema.Categorical,
		Options:  recordfilter.Options(items, schema.Categorical...),
		Selected: selected,
		Query:    q.Get("q"),
	}
}

// Shown is the number of rows left after filtering.
func (v listView[T]) Shown() int { return len(v.Items) }

// Filtered reports whether any filter bar control is set.
func (v listView[T]) Filtered() bool {
	if v.Query != "" {
		return true
	}
	for _, val := range v.Selected {
		if val != "" {
			return true
		}
	}
	return false
}
