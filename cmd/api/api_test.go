package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/crucial707/mlregistry/internal/config"
	"github.com/crucial707/mlregistry/internal/seed"
	"github.com/crucial707/mlregistry/internal/store"
)

func testConfig() config.Config {
	return config.Config{JWTSecret: "test-secret-for-integration", JWTExpireHours: 1}
}

func seededServer(t *testing.T, ping pingFunc) *httptest.Server {
	t.Helper()
	st := store.NewMemory(nil)
	if err := seed.Apply(context.Background(), st, seed.Default()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if ping == nil {
		ping = func(context.Context) error { return nil }
	}
	srv := httptest.NewServer(newRouter(st, ping, testConfig()))
	t.Cleanup(srv.Close)
	return srv
}

func login(t *testing.T, srv *httptest.Server, username, password string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	resp, err := http.Post(srv.URL+"/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s status: got %d, want 200", username, resp.StatusCode)
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.Token == "" {
		t.Fatalf("login response: %v", err)
	}
	return out.Token
}

func do(t *testing.T, srv *httptest.Server, method, path, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, srv.URL+path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// TestAPI_LoginThenListModels logs in with a seeded account, then lists models with the token.
func TestAPI_LoginThenListModels(t *testing.T) {
	srv := seededServer(t, nil)
	token := login(t, srv, "admin", "admin123")

	resp := do(t, srv, http.MethodGet, "/models?department=Sales", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /models status: got %d, want 200", resp.StatusCode)
	}
	var out struct {
		Items []struct {
			Name       string `json:"name"`
			Department string `json:"department"`
		} `json:"items"`
		Total   int                 `json:"total"`
		Options map[string][]string `json:"options"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode models: %v", err)
	}
	if len(out.Items) != 1 || out.Items[0].Name != "Sales forecast" || out.Total != 1 {
		t.Errorf("unexpected models: %+v", out)
	}
	if len(out.Options["department"]) < 2 {
		t.Errorf("options should come from the full collection: %v", out.Options)
	}
}

func TestAPI_RequiresToken(t *testing.T) {
	srv := seededServer(t, nil)
	if resp := do(t, srv, http.MethodGet, "/models", "", nil); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("no token: got %d, want 401", resp.StatusCode)
	}
	if resp := do(t, srv, http.MethodGet, "/models", "garbage", nil); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad token: got %d, want 401", resp.StatusCode)
	}
}

func TestAPI_RoleGates(t *testing.T) {
	srv := seededServer(t, nil)
	analyst := login(t, srv, "analyst", "analyst")

	newModel := map[string]any{"name": "Blocked", "type": "regression", "framework": "sklearn"}
	if resp := do(t, srv, http.MethodPost, "/models", analyst, newModel); resp.StatusCode != http.StatusForbidden {
		t.Errorf("business user creating a model: got %d, want 403", resp.StatusCode)
	}
	if resp := do(t, srv, http.MethodGet, "/users", analyst, nil); resp.StatusCode != http.StatusForbidden {
		t.Errorf("business user listing users: got %d, want 403", resp.StatusCode)
	}
	if resp := do(t, srv, http.MethodPost, "/executions", analyst, map[string]int{"deployment_id": 1}); resp.StatusCode != http.StatusAccepted {
		t.Errorf("business user triggering: got %d, want 202", resp.StatusCode)
	}

	admin := login(t, srv, "admin", "admin123")
	if resp := do(t, srv, http.MethodGet, "/audit", admin, nil); resp.StatusCode != http.StatusOK {
		t.Errorf("admin reading audit: got %d, want 200", resp.StatusCode)
	}
}

func TestAPI_InactiveUserCannotLogin(t *testing.T) {
	srv := seededServer(t, nil)
	body := strings.NewReader(`{"username":"observer","password":"whatever"}`)
	resp, err := http.Post(srv.URL+"/auth/login", "application/json", body)
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		t.Errorf("inactive user without password logged in")
	}
}

// TestAPI_Health verifies GET /health returns 200 and {"status":"ok"}.
func TestAPI_Health(t *testing.T) {
	r := newRouter(store.NewMemory(nil), func(context.Context) error { return nil }, testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("GET /health: got %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body["status"] != "ok" {
		t.Errorf("GET /health body: %v, %v", body, err)
	}
}

func TestAPI_Ready(t *testing.T) {
	ok := newRouter(store.NewMemory(nil), func(context.Context) error { return nil }, testConfig())
	rec := httptest.NewRecorder()
	ok.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET /ready: got %d, want 200", rec.Code)
	}

	down := newRouter(store.NewMemory(nil), func(context.Context) error { return errors.New("connection refused") }, testConfig())
	rec = httptest.NewRecorder()
	down.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("GET /ready with store down: got %d, want 503", rec.Code)
	}
}

func TestAPI_Metrics(t *testing.T) {
	r := newRouter(store.NewMemory(nil), func(context.Context) error { return nil }, testConfig())
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "http_requests_total") {
		t.Errorf("GET /metrics: %d, body missing request counter", rec.Code)
	}
}
