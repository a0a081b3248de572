package models

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/crucial707/mlregistry/cmd/cli/config"
	"github.com/crucial707/mlregistry/internal/handlers"
	mlmodels "github.com/crucial707/mlregistry/internal/models"
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

func TestListModels_TableOutput(t *testing.T) {
	loggedIn(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("department") != "Sales" {
			t.Errorf("department filter not forwarded: %s", r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode(handlers.ListResponse[mlmodels.Model]{
			Items: []mlmodels.Model{{ID: 1, Name: "Sales forecast", Department: "Sales"}},
			Total: 1,
		})
	})

	cmd := listModelsCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--department", "Sales"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out.String(), "Sales forecast") {
		t.Fatalf("expected model name in output, got: %s", out.String())
	}
}

func TestListModels_JSONOutput(t *testing.T) {
	loggedIn(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(handlers.ListResponse[mlmodels.Model]{
			Items: []mlmodels.Model{{ID: 1, Name: "Churn"}},
			Total: 1,
		})
	})

	cmd := listModelsCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--json"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out.String(), `"name": "Churn"`) {
		t.Fatalf("expected JSON output, got: %s", out.String())
	}
}

func TestCreateModel_SendsTags(t *testing.T) {
	loggedIn(t, func(w http.ResponseWriter, r *http.Request) {
		var in handlers.ModelInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		if r.Method != http.MethodPost || len(in.Tags) != 2 || in.Tags[1] != "b" {
			t.Errorf("unexpected create: %s %+v", r.Method, in)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(mlmodels.Model{ID: 6, Name: in.Name})
	})

	cmd := createModelCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--name", "New", "--type", "custom", "--framework", "r", "--tags", "a, b,"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.Contains(out.String(), "Model 6 created") {
		t.Errorf("got %s", out.String())
	}
}

func TestDeleteModel_InvalidID(t *testing.T) {
	cmd := deleteModelCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"abc"})
	if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), "invalid model id") {
		t.Errorf("got %v", err)
	}
}

func TestListModels_RequiresLogin(t *testing.T) {
	t.Setenv("MLREG_TOKEN_FILE", filepath.Join(t.TempDir(), "none"))
	cmd := listModelsCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != config.ErrNotLoggedIn {
		t.Errorf("got %v, want ErrNotLoggedIn", err)
	}
}
