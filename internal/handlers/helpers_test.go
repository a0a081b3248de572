package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/crucial707/mlregistry/internal/models"
	"github.com/crucial707/mlregistry/internal/seed"
	"github.com/crucial707/mlregistry/internal/session"
	"github.com/crucial707/mlregistry/internal/store"
	"github.com/go-chi/chi/v5"
)

// requestWithChiURLParams builds a request with chi URL params set so handlers that use chi.URLParam work in tests.
func requestWithChiURLParams(method, path string, body []byte, params map[string]string) *http.Request {
	var r *http.Request
	if body != nil {
		r = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	return r
}

var (
	adminSession   = session.Session{UserID: 1, Username: "admin", Role: models.RoleAdmin}
	analystSession = session.Session{UserID: 3, Username: "analyst", Role: models.RoleBusinessUser}
)

func withSession(r *http.Request, s session.Session) *http.Request {
	return r.WithContext(session.NewContext(r.Context(), s))
}

// seededStore returns a memory store holding the embedded sample data:
// users admin(1) datascientist(2) analyst(3) observer(4), models 1-5, deployments 1-5, executions 1-4.
func seededStore(t *testing.T) store.Store {
	t.Helper()
	st := store.NewMemory(nil)
	if err := seed.Apply(context.Background(), st, seed.Default()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return st
}

func fixedNow() time.Time {
	return time.Date(2025, 3, 18, 9, 30, 0, 0, time.UTC)
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
	return out
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}
