package executions

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/crucial707/mlregistry/cmd/cli/config"
	"github.com/crucial707/mlregistry/internal/handlers"
	"github.com/crucial707/mlregistry/internal/models"
)

func loggedIn(t *testing.T, h http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	t.Setenv("MLREG_API_URL", srv.URL)
	t.Setenv("MLREG_TOKEN_FILE", filepath.Join(t.TempDir(), "token"))
	if err := config.SaveToken("tok"); err != nil {
		t.Fatal(err)
	}
}

func TestListExecutions_Duration(t *testing.T) {
	start := time.Date(2025, 3, 18, 8, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Second)
	loggedIn(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(handlers.ListResponse[models.Execution]{
			Items: []models.Execution{{ID: 2, DeploymentName: "Europe - Sales forecast", Status: "success", StartTime: &start, EndTime: &end, CreatedAt: start}},
			Total: 1,
		})
	})

	cmd := listExecutionsCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out.String(), "1m30s") || !strings.Contains(out.String(), "Europe - Sales forecast") {
		t.Errorf("unexpected output: %s", out.String())
	}
}

func TestTrigger(t *testing.T) {
	loggedIn(t, func(w http.ResponseWriter, r *http.Request) {
		var in handlers.TriggerRequest
		_ = json.NewDecoder(r.Body).Decode(&in)
		if r.URL.Path != "/executions" || in.DeploymentID != 3 {
			t.Errorf("unexpected trigger: %s %+v", r.URL.Path, in)
		}
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(models.Execution{ID: 5, RunID: "abc", Status: "queued"})
	})

	cmd := triggerCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"3"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if !strings.Contains(out.String(), "Execution 5 queued (run abc)") {
		t.Errorf("got %s", out.String())
	}
}

func TestLogs(t *testing.T) {
	loggedIn(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/executions/4/logs" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(handlers.LogsResponse{ExecutionID: 4, RunID: "seed-4", Status: "running", Logs: []string{"Loading input data"}})
	})

	cmd := logsCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"4"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("logs: %v", err)
	}
	if !strings.Contains(out.String(), "Loading input data") {
		t.Errorf("got %s", out.String())
	}
}

func TestCancel_InvalidID(t *testing.T) {
	cmd := cancelCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"0"})
	if err := cmd.Execute(); err == nil {
		t.Error("expected error for id 0")
	}
}
