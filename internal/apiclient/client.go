// Package apiclient talks to the registry JSON API. The dashboard and the CLI both use it.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/crucial707/mlregistry/internal/handlers"
	"github.com/crucial707/mlregistry/internal/models"
)

// Error is a non-2xx API response.
type Error struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("api: %s (status %d)", e.Message, e.Status)
}

// StatusOf returns the HTTP status carried by err, or 0 when err is not an API error.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Client calls the API as the holder of Token. An empty token sends no Authorization header.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

// WithToken returns a copy of c that authenticates as token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.Token = token
	return &cp
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, in, out any) error {
	u := c.BaseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &Error{Status: resp.StatusCode}
		var payload struct {
			Error  string            `json:"error"`
			Fields map[string]string `json:"fields"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
			apiErr.Message = payload.Error
			apiErr.Fields = payload.Fields
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func idPath(base string, id int, suffix ...string) string {
	return base + "/" + strconv.Itoa(id) + strings.Join(suffix, "")
}

// ==========================
// Auth
// ==========================

func (c *Client) Login(ctx context.Context, username, password string) (handlers.LoginResponse, error) {
	var out handlers.LoginResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", nil, map[string]string{"username": username, "password": password}, &out)
	return out, err
}

func (c *Client) Me(ctx context.Context) (models.User, error) {
	var out models.User
	err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &out)
	return out, err
}

// ==========================
// Models
// ==========================

// ListModels forwards q (q, department, region, status) to the API. A nil q returns the whole collection.
func (c *Client) ListModels(ctx context.Context, q url.Values) (handlers.ListResponse[models.Model], error) {
	var out handlers.ListResponse[models.Model]
	err := c.do(ctx, http.MethodGet, "/models", q, nil, &out)
	return out, err
}

func (c *Client) GetModel(ctx context.Context, id int) (models.Model, error) {
	var out models.Model
	err := c.do(ctx, http.MethodGet, idPath("/models", id), nil, nil, &out)
	return out, err
}

func (c *Client) CreateModel(ctx context.Context, in handlers.ModelInput) (models.Model, error) {
	var out models.Model
	err := c.do(ctx, http.MethodPost, "/models", nil, in, &out)
	return out, err
}

func (c *Client) UpdateModel(ctx context.Context, id int, in handlers.ModelInput) (models.Model, error) {
	var out models.Model
	err := c.do(ctx, http.MethodPut, idPath("/models", id), nil, in, &out)
	return out, err
}

func (c *Client) DeleteModel(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, idPath("/models", id), nil, nil, nil)
}

// ==========================
// Deployments
// ==========================

func (c *Client) ListDeployments(ctx context.Context, q url.Values) (handlers.ListResponse[models.Deployment], error) {
	var out handlers.ListResponse[models.Deployment]
	err := c.do(ctx, http.MethodGet, "/deployments", q, nil, &out)
	return out, err
}

func (c *Client) GetDeployment(ctx context.Context, id int) (handlers.DeploymentDetail, error) {
	var out handlers.DeploymentDetail
	err := c.do(ctx, http.MethodGet, idPath("/deployments", id), nil, nil, &out)
	return out, err
}

func (c *Client) CreateDeployment(ctx context.Context, in handlers.DeploymentInput) (models.Deployment, error) {
	var out models.Deployment
	err := c.do(ctx, http.MethodPost, "/deployments", nil, in, &out)
	return out, err
}

func (c *Client) UpdateDeployment(ctx context.Context, id int, in handlers.DeploymentInput) (models.Deployment, error) {
	var out models.Deployment
	err := c.do(ctx, http.MethodPut, idPath("/deployments", id), nil, in, &out)
	return out, err
}

func (c *Client) DeleteDeployment(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, idPath("/deployments", id), nil, nil, nil)
}

func (c *Client) StartDeployment(ctx context.Context, id int) (models.Deployment, error) {
	var out models.Deployment
	err := c.do(ctx, http.MethodPost, idPath("/deployments", id, "/start"), nil, nil, &out)
	return out, err
}

func (c *Client) StopDeployment(ctx context.Context, id int) (models.Deployment, error) {
	var out models.Deployment
	err := c.do(ctx, http.MethodPost, idPath("/deployments", id, "/stop"), nil, nil, &out)
	return out, err
}

// ==========================
// Executions
// ==========================

func (c *Client) ListExecutions(ctx context.Context, q url.Values) (handlers.ListResponse[models.Execution], error) {
	var out handlers.ListResponse[models.Execution]
	err := c.do(ctx, http.MethodGet, "/executions", q, nil, &out)
	return out, err
}

func (c *Client) GetExecution(ctx context.Context, id int) (models.Execution, error) {
	var out models.Execution
	err := c.do(ctx, http.MethodGet, idPath("/executions", id), nil, nil, &out)
	return out, err
}

func (c *Client) ExecutionLogs(ctx context.Context, id int) (handlers.LogsResponse, error) {
	var out handlers.LogsResponse
	err := c.do(ctx, http.MethodGet, idPath("/executions", id, "/logs"), nil, nil, &out)
	return out, err
}

func (c *Client) TriggerExecution(ctx context.Context, deploymentID int) (models.Execution, error) {
	var out models.Execution
	err := c.do(ctx, http.MethodPost, "/executions", nil, handlers.TriggerRequest{DeploymentID: deploymentID}, &out)
	return out, err
}

func (c *Client) CancelExecution(ctx context.Context, id int) (models.Execution, error) {
	var out models.Execution
	err := c.do(ctx, http.MethodPost, idPath("/executions", id, "/cancel"), nil, nil, &out)
	return out, err
}

// ==========================
// Users
// ==========================

func (c *Client) ListUsers(ctx context.Context, q url.Values) (handlers.ListResponse[models.User], error) {
	var out handlers.ListResponse[models.User]
	err := c.do(ctx, http.MethodGet, "/users", q, nil, &out)
	return out, err
}

func (c *Client) GetUser(ctx context.Context, id int) (models.User, error) {
	var out models.User
	err := c.do(ctx, http.MethodGet, idPath("/users", id), nil, nil, &out)
	return out, err
}

func (c *Client) CreateUser(ctx context.Context, in handlers.UserInput) (models.User, error) {
	var out models.User
	err := c.do(ctx, http.MethodPost, "/users", nil, in, &out)
	return out, err
}

func (c *Client) UpdateUser(ctx context.Context, id int, in handlers.UserInput) (models.User, error) {
	var out models.User
	err := c.do(ctx, http.MethodPut, idPath("/users", id), nil, in, &out)
	return out, err
}

func (c *Client) DeleteUser(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, idPath("/users", id), nil, nil, nil)
}

// ==========================
// Audit & schedules
// ==========================

func (c *Client) ListAudit(ctx context.Context, limit, offset int) ([]models.AuditEntry, error) {
	q := url.Values{"limit": {strconv.Itoa(limit)}, "offset": {strconv.Itoa(offset)}}
	var out []models.AuditEntry
	err := c.do(ctx, http.MethodGet, "/audit", q, nil, &out)
	return out, err
}

func (c *Client) ScheduleLabel(ctx context.Context, expr string) (handlers.LabelResponse, error) {
	var out handlers.LabelResponse
	err := c.do(ctx, http.MethodGet, "/schedules/label", url.Values{"expr": {expr}}, nil, &out)
	return out, err
}

func (c *Client) Cadences(ctx context.Context) ([]handlers.LabelResponse, error) {
	var out []handlers.LabelResponse
	err := c.do(ctx, http.MethodGet, "/schedules/cadences", nil, nil, &out)
	return out, err
}
