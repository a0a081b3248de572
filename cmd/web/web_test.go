package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/crucial707/mlregistry/internal/apiclient"
	"github.com/crucial707/mlregistry/internal/handlers"
	"github.com/crucial707/mlregistry/internal/models"
)

// fakeGateway serves a fixed registry. Lists ignore their query like a full-collection fetch.
type fakeGateway struct {
	me          models.User
	models      []models.Model
	deployments []models.Deployment
	executions  []models.Execution
	users       []models.User

	lastModel      handlers.ModelInput
	lastDeployment handlers.DeploymentInput
	createErr      error
	cancelErr      error
}

func newFakeGateway(role string) *fakeGateway {
	weekly := "0 8 * * 1"
	return &fakeGateway{
		me: models.User{ID: 1, Username: "alice", Role: role},
		models: []models.Model{
			{ID: 1, Name: "Sales forecast", Type: "forecasting", Department: "Sales", Region: "Europe", Status: "ready"},
			{ID: 2, Name: "Churn model", Type: "classification", Department: "HR", Region: "Global", Status: "draft"},
		},
		deployments: []models.Deployment{
			{ID: 1, Name: "Europe - Sales forecast", ModelID: 1, ModelName: "Sales forecast", Department: "Sales", Status: "running", Schedule: &weekly, ScheduleLabel: "Every Monday at 8h"},
		},
		executions: []models.Execution{
			{ID: 2, RunID: "run-2", DeploymentID: 1, DeploymentName: "Europe - Sales forecast", Status: "running", Logs: []string{"Loading input data"}},
			{ID: 1, RunID: "run-1", DeploymentID: 1, DeploymentName: "Europe - Sales forecast", Status: "failed"},
		},
		users: []models.User{{ID: 1, Username: "alice", Role: role, IsActive: true}, {ID: 2, Username: "bob", Role: "viewer"}},
	}
}

func list[T any](items []T) handlers.ListResponse[T] {
	return handlers.ListResponse[T]{Items: items, Total: len(items)}
}

func notFound() error { return &apiclient.Error{Status: http.StatusNotFound, Message: "not found"} }

func (f *fakeGateway) Login(ctx context.Context, username, password string) (handlers.LoginResponse, error) {
	if username != "alice" || password != "secret" {
		return handlers.LoginResponse{}, &apiclient.Error{Status: http.StatusUnauthorized, Message: "invalid credentials"}
	}
	return handlers.LoginResponse{Token: "tok", ExpiresAt: time.Now().Add(time.Hour), User: f.me}, nil
}

func (f *fakeGateway) Me(ctx context.Context) (models.User, error) { return f.me, nil }

func (f *fakeGateway) ListModels(ctx context.Context, q url.Values) (handlers.ListResponse[models.Model], error) {
	return list(f.models), nil
}

func (f *fakeGateway) GetModel(ctx context.Context, id int) (models.Model, error) {
	for _, m := range f.models {
		if m.ID == id {
			return m, nil
		}
	}
	return models.Model{}, notFound()
}

func (f *fakeGateway) CreateModel(ctx context.Context, in handlers.ModelInput) (models.Model, error) {
	f.lastModel = in
	if f.createErr != nil {
		return models.Model{}, f.createErr
	}
	return models.Model{ID: 9, Name: in.Name}, nil
}

func (f *fakeGateway) UpdateModel(ctx context.Context, id int, in handlers.ModelInput) (models.Model, error) {
	f.lastModel = in
	return models.Model{ID: id, Name: in.Name}, nil
}

func (f *fakeGateway) DeleteModel(ctx context.Context, id int) error { return nil }

func (f *fakeGateway) ListDeployments(ctx context.Context, q url.Values) (handlers.ListResponse[models.Deployment], error) {
	return list(f.deployments), nil
}

func (f *fakeGateway) GetDeployment(ctx context.Context, id int) (handlers.DeploymentDetail, error) {
	for _, d := range f.deployments {
		if d.ID == id {
			return handlers.DeploymentDetail{Deployment: d}, nil
		}
	}
	return handlers.DeploymentDetail{}, notFound()
}

func (f *fakeGateway) CreateDeployment(ctx context.Context, in handlers.DeploymentInput) (models.Deployment, error) {
	f.lastDeployment = in
	if f.createErr != nil {
		return models.Deployment{}, f.createErr
	}
	return models.Deployment{ID: 5, Name: in.Name}, nil
}

func (f *fakeGateway) UpdateDeployment(ctx context.Context, id int, in handlers.DeploymentInput) (models.Deployment, error) {
	f.lastDeployment = in
	return models.Deployment{ID: id}, nil
}

func (f *fakeGateway) DeleteDeployment(ctx context.Context, id int) error { return nil }

func (f *fakeGateway) StartDeployment(ctx context.Context, id int) (models.Deployment, error) {
	return models.Deployment{}, &apiclient.Error{Status: http.StatusConflict, Message: "deployment is already running"}
}

func (f *fakeGateway) StopDeployment(ctx context.Context, id int) (models.Deployment, error) {
	return models.Deployment{ID: id, Status: "stopped"}, nil
}

func (f *fakeGateway) ListExecutions(ctx context.Context, q url.Values) (handlers.ListResponse[models.Execution], error) {
	return list(f.executions), nil
}

func (f *fakeGateway) GetExecution(ctx context.Context, id int) (models.Execution, error) {
	for _, e := range f.executions {
		if e.ID == id {
			return e, nil
		}
	}
	return models.Execution{}, notFound()
}

func (f *fakeGateway) TriggerExecution(ctx context.Context, deploymentID int) (models.Execution, error) {
	return models.Execution{ID: 3, DeploymentID: deploymentID, Status: "queued"}, nil
}

func (f *fakeGateway) CancelExecution(ctx context.Context, id int) (models.Execution, error) {
	if f.cancelErr != nil {
		return models.Execution{}, f.cancelErr
	}
	return models.Execution{ID: id, Status: "failed"}, nil
}

func (f *fakeGateway) ListUsers(ctx context.Context, q url.Values) (handlers.ListResponse[models.User], error) {
	return list(f.users), nil
}

func (f *fakeGateway) GetUser(ctx context.Context, id int) (models.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return models.User{}, notFound()
}

func (f *fakeGateway) CreateUser(ctx context.Context, in handlers.UserInput) (models.User, error) {
	return models.User{ID: 3, Username: in.Username}, nil
}

func (f *fakeGateway) UpdateUser(ctx context.Context, id int, in handlers.UserInput) (models.User, error) {
	return models.User{ID: id, Username: in.Username}, nil
}

func (f *fakeGateway) DeleteUser(ctx context.Context, id int) error { return nil }

// expiredGateway rejects every token.
type expiredGateway struct{ *fakeGateway }

func (expiredGateway) Me(ctx context.Context) (models.User, error) {
	return models.User{}, &apiclient.Error{Status: http.StatusUnauthorized, Message: "invalid token"}
}

func newTestRouter(f *fakeGateway) http.Handler {
	return newRouter(func(token string) Gateway {
		if token == "expired" {
			return expiredGateway{f}
		}
		return f
	}, false)
}

func do(t *testing.T, h http.Handler, method, target, token string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: cookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestWeb_Health(t *testing.T) {
	rec := do(t, newTestRouter(newFakeGateway(models.RoleAdmin)), http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("GET /health: %d %q", rec.Code, rec.Body.String())
	}
}

func TestWeb_RedirectsWithoutCookie(t *testing.T) {
	rec := do(t, newTestRouter(newFakeGateway(models.RoleAdmin)), http.MethodGet, "/models", "", nil)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/login?next=%2Fmodels" {
		t.Errorf("got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestWeb_ExpiredTokenClearsCookie(t *testing.T) {
	rec := do(t, newTestRouter(newFakeGateway(models.RoleAdmin)), http.MethodGet, "/deployments?status=running", "expired", nil)
	if rec.Code != http.StatusFound || !strings.HasPrefix(rec.Header().Get("Location"), "/login?next=") {
		t.Fatalf("got %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if c := rec.Result().Cookies(); len(c) != 1 || c[0].MaxAge >= 0 {
		t.Errorf("cookie not cleared: %+v", c)
	}
}

func TestWeb_Login(t *testing.T) {
	h := newTestRouter(newFakeGateway(models.RoleAdmin))

	rec := do(t, h, http.MethodPost, "/login", "", url.Values{"username": {"alice"}, "password": {"secret"}, "next": {"/models"}})
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/models" {
		t.Fatalf("login: %d %q", rec.Code, rec.Header().Get("Location"))
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value != "tok" || !cookies[0].HttpOnly {
		t.Errorf("unexpected cookie: %+v", cookies)
	}

	rec = do(t, h, http.MethodPost, "/login", "", url.Values{"username": {"alice"}, "password": {"wrong"}})
	if rec.Code != http.StatusUnauthorized || !strings.Contains(rec.Body.String(), "Invalid username or password") {
		t.Errorf("bad password: %d", rec.Code)
	}

	rec = do(t, h, http.MethodPost, "/login", "", url.Values{"username": {"alice"}, "password": {"secret"}, "next": {"//evil.example"}})
	if rec.Header().Get("Location") != "/dashboard" {
		t.Errorf("open redirect: %q", rec.Header().Get("Location"))
	}
}

func TestSafeNext(t *testing.T) {
	cases := map[string]string{
		"":                     "/dashboard",
		"/models?status=ready": "/models?status=ready",
		"/deployments/4":       "/deployments/4",
		"//evil.example":       "/dashboard",
		`/\evil.example`:       "/dashboard",
		`/models\..\x`:         "/dashboard",
		"https://evil.example": "/dashboard",
		"models":               "/dashboard",
	}
	for in, want := range cases {
		if got := safeNext(in); got != want {
			t.Errorf("safeNext(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWeb_ModelsFilterKeepsOptions(t *testing.T) {
	rec := do(t, newTestRouter(newFakeGateway(models.RoleViewer)), http.MethodGet, "/models?department=Sales", "tok", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /models: %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Sales forecast") || strings.Contains(body, "Churn model") {
		t.Errorf("filter not applied")
	}
	if !strings.Contains(body, `<option value="HR"`) {
		t.Errorf("options should come from the whole collection")
	}
	if !strings.Contains(body, "1 of 2") {
		t.Errorf("missing shown/total counter")
	}
	if strings.Contains(body, "New model") {
		t.Errorf("viewer should not see the create link")
	}
}

func TestWeb_DeploymentsSearch(t *testing.T) {
	rec := do(t, newTestRouter(newFakeGateway(models.RoleAdmin)), http.MethodGet, "/deployments?q=europe", "tok", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Every Monday at 8h") {
		t.Errorf("GET /deployments: %d", rec.Code)
	}
}

func TestWeb_CreateModelValidationError(t *testing.T) {
	f := newFakeGateway(models.RoleDataScientist)
	f.createErr = &apiclient.Error{Status: http.StatusBadRequest, Message: "validation failed", Fields: map[string]string{"version": "required"}}

	form := url.Values{"name": {"New"}, "type": {"custom"}, "framework": {"r"}, "tags": {"a, b"}}
	rec := do(t, newTestRouter(f), http.MethodPost, "/models", "tok", form)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "validation failed") || !strings.Contains(body, `value="New"`) {
		t.Errorf("form not re-rendered with the error")
	}
	if len(f.lastModel.Tags) != 2 || f.lastModel.Tags[1] != "b" {
		t.Errorf("tags not split: %v", f.lastModel.Tags)
	}
}

func TestWeb_CreateDeploymentCadence(t *testing.T) {
	f := newFakeGateway(models.RoleAdmin)
	h := newTestRouter(f)

	rec := do(t, h, http.MethodPost, "/deployments", "tok", url.Values{"name": {"d"}, "model_id": {"1"}, "cadence": {"daily"}, "cron_expression": {"5 5 * * *"}})
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/deployments/5?msg=Deployment+created" {
		t.Fatalf("create: %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if f.lastDeployment.Cadence != "daily" || f.lastDeployment.CronExpression != "" || f.lastDeployment.ModelID != 1 {
		t.Errorf("daily cadence sent %+v", f.lastDeployment)
	}

	_ = do(t, h, http.MethodPost, "/deployments", "tok", url.Values{"name": {"d"}, "model_id": {"1"}, "cadence": {"custom"}, "cron_expression": {" 0 8 * * 1 "}})
	if f.lastDeployment.Cadence != "custom" || f.lastDeployment.CronExpression != "0 8 * * 1" {
		t.Errorf("custom cadence sent %+v", f.lastDeployment)
	}
}

func TestWeb_DeploymentForms(t *testing.T) {
	h := newTestRouter(newFakeGateway(models.RoleAdmin))
	rec := do(t, h, http.MethodGet, "/deployments/1/edit", "tok", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("edit form: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `name="model_id" value="1"`) {
		t.Errorf("edit form must keep the model")
	}
	if rec := do(t, h, http.MethodGet, "/deployments/new?model_id=2", "tok", nil); rec.Code != http.StatusOK {
		t.Errorf("new form: %d", rec.Code)
	}
}

func TestWeb_DeploymentActions(t *testing.T) {
	h := newTestRouter(newFakeGateway(models.RoleAdmin))

	rec := do(t, h, http.MethodPost, "/deployments/1/start", "tok", url.Values{})
	if loc := rec.Header().Get("Location"); loc != "/deployments/1?msg=deployment+is+already+running" {
		t.Errorf("start conflict: %q", loc)
	}
	rec = do(t, h, http.MethodPost, "/deployments/1/trigger", "tok", url.Values{})
	if loc := rec.Header().Get("Location"); loc != "/executions/3?msg=Execution+queued" {
		t.Errorf("trigger: %q", loc)
	}
	rec = do(t, h, http.MethodGet, "/deployments/1", "tok", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "run-2") {
		t.Errorf("detail: %d", rec.Code)
	}
}

func TestWeb_CancelExecutionConflict(t *testing.T) {
	f := newFakeGateway(models.RoleBusinessUser)
	f.cancelErr = &apiclient.Error{Status: http.StatusConflict, Message: "execution is already failed"}
	rec := do(t, newTestRouter(f), http.MethodPost, "/executions/1/cancel", "tok", url.Values{})
	if loc := rec.Header().Get("Location"); loc != "/executions/1?msg=execution+is+already+failed" {
		t.Errorf("got %q", loc)
	}
}

func TestWeb_ExecutionDetail(t *testing.T) {
	rec := do(t, newTestRouter(newFakeGateway(models.RoleBusinessUser)), http.MethodGet, "/executions/2?msg=Execution+queued", "tok", nil)
	body := rec.Body.String()
	if rec.Code != http.StatusOK || !strings.Contains(body, "Loading input data") || !strings.Contains(body, "Execution queued") {
		t.Errorf("detail: %d", rec.Code)
	}
	if !strings.Contains(body, "Cancel execution") {
		t.Errorf("business user should be offered cancel on a running execution")
	}
	if rec := do(t, newTestRouter(newFakeGateway(models.RoleAdmin)), http.MethodGet, "/executions/99", "tok", nil); rec.Code != http.StatusNotFound {
		t.Errorf("missing execution: %d", rec.Code)
	}
}

func TestWeb_UsersAdminOnly(t *testing.T) {
	if rec := do(t, newTestRouter(newFakeGateway(models.RoleDataScientist)), http.MethodGet, "/users", "tok", nil); rec.Code != http.StatusForbidden {
		t.Errorf("data scientist: %d", rec.Code)
	}
	rec := do(t, newTestRouter(newFakeGateway(models.RoleAdmin)), http.MethodGet, "/users?status=inactive", "tok", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "bob") {
		t.Errorf("admin: %d", rec.Code)
	}
}

func TestWeb_Dashboard(t *testing.T) {
	rec := do(t, newTestRouter(newFakeGateway(models.RoleViewer)), http.MethodGet, "/dashboard", "tok", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard: %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "1 / 1") || !strings.Contains(body, "run-1") {
		t.Errorf("unexpected dashboard")
	}
	if strings.Contains(body, `href="/users"`) {
		t.Errorf("viewer should not see the users link")
	}
}
