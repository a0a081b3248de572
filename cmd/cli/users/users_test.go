package users

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/crucial707/mlregistry/cmd/cli/config"
	"github.com/crucial707/mlregistry/internal/apiclient"
	"github.com/crucial707/mlregistry/internal/handlers"
	"github.com/crucial707/mlregistry/internal/models"
)

func serve(t *testing.T, h http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	t.Setenv("MLREG_API_URL", srv.URL)
	t.Setenv("MLREG_TOKEN_FILE", filepath.Join(t.TempDir(), "token"))
	if err := config.SaveToken("tok"); err != nil {
		t.Fatal(err)
	}
}

func TestListUsers_TableOutput(t *testing.T) {
	serve(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(handlers.ListResponse[models.User]{
			Items: []models.User{{ID: 1, Username: "alice", IsActive: true}, {ID: 2, Username: "bob"}},
			Total: 2,
		})
	})

	cmd := listUsersCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out.String(), "alice") || !strings.Contains(out.String(), "inactive") {
		t.Fatalf("expected usernames and status in output, got: %s", out.String())
	}
}

func TestListUsers_JSONOutput(t *testing.T) {
	serve(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("role") != "admin" {
			t.Errorf("role filter not forwarded: %s", r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode(handlers.ListResponse[models.User]{Items: []models.User{{ID: 1, Username: "alice"}}, Total: 1})
	})

	cmd := listUsersCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--json", "--role", "admin"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out.String(), `"username": "alice"`) {
		t.Fatalf("expected JSON output, got: %s", out.String())
	}
}

func TestListUsers_Forbidden(t *testing.T) {
	serve(t, func(w http.ResponseWriter, r *http.Request) {
		handlers.JSONError(w, "forbidden", http.StatusForbidden)
	})
	cmd := listUsersCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); apiclient.StatusOf(err) != http.StatusForbidden {
		t.Errorf("got %v, want 403", err)
	}
}
