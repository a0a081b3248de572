// Package seed loads sample registry content from YAML and writes it through a store.Store.
// Records reference each other by name (model of a deployment, owner of a model), never by id,
// so the same file can populate any backend.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/crucial707/mlregistry/internal/models"
	"github.com/crucial707/mlregistry/internal/store"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

type User struct {
	Username   string `yaml:"username"`
	Email      string `yaml:"email"`
	FullName   string `yaml:"full_name"`
	Department string `yaml:"department"`
	Region     string `yaml:"region"`
	Role       string `yaml:"role"`
	IsActive   bool   `yaml:"is_active"`
	Password   string `yaml:"password"`
}

type Model struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Type        string   `yaml:"type"`
	Framework   string   `yaml:"framework"`
	Version     string   `yaml:"version"`
	Tags        []string `yaml:"tags"`
	Owner       string   `yaml:"owner"`
	Department  string   `yaml:"department"`
	Region      string   `yaml:"region"`
	Brand       *string  `yaml:"brand"`
	Status      string   `yaml:"status"`
	FilePath    *string  `yaml:"file_path"`
}

type Deployment struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Model       string  `yaml:"model"`
	Owner       string  `yaml:"owner"`
	Status      string  `yaml:"status"`
	Schedule    *string `yaml:"schedule"`
	DagID       string  `yaml:"dag_id"`
}

type Execution struct {
	Deployment  string     `yaml:"deployment"`
	Owner       string     `yaml:"owner"`
	TriggeredBy string     `yaml:"triggered_by"`
	Status      string     `yaml:"status"`
	StartTime   *time.Time `yaml:"start_time"`
	EndTime     *time.Time `yaml:"end_time"`
	ResultPath  *string    `yaml:"result_path"`
	Logs        []string   `yaml:"logs"`
}

// Data is the content of a seed file.
type Data struct {
	Users       []User       `yaml:"users"`
	Models      []Model      `yaml:"models"`
	Deployments []Deployment `yaml:"deployments"`
	Executions  []Execution  `yaml:"executions"`
}

// Parse decodes a seed document.
func Parse(b []byte) (Data, error) {
	var d Data
	if err := yaml.Unmarshal(b, &d); err != nil {
		return Data{}, fmt.Errorf("parse seed: %w", err)
	}
	return d, nil
}

// Load reads a seed file from disk.
func Load(path string) (Data, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Data{}, fmt.Errorf("read seed: %w", err)
	}
	return Parse(b)
}

// Default returns the seed compiled into the binary.
func Default() Data {
	d, err := Parse(defaultSeed)
	if err != nil {
		panic(err)
	}
	return d
}

// Apply creates every record of d in st, users first.
func Apply(ctx context.Context, st store.Store, d Data) error {
	userIDs := make(map[string]int)
	for _, u := range d.Users {
		var hash string
		if u.Password != "" {
			b, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hash password for %s: %w", u.Username, err)
			}
			hash = string(b)
		}
		role := u.Role
		if role == "" {
			role = models.RoleViewer
		}
		created, err := st.Users.Create(ctx, models.User{
			Username:     u.Username,
			Email:        u.Email,
			FullName:     u.FullName,
			Department:   u.Department,
			Region:       u.Region,
			Role:         role,
			IsActive:     u.IsActive,
			PasswordHash: hash,
		})
		if err != nil {
			return fmt.Errorf("seed user %s: %w", u.Username, err)
		}
		userIDs[u.Username] = created.ID
	}

	seededModels := make(map[string]models.Model)
	for _, m := range d.Models {
		status := m.Status
		if status == "" {
			status = models.ModelStatusDraft
		}
		created, err := st.Models.Create(ctx, models.Model{
			Name:        m.Name,
			Description: m.Description,
			Type:        m.Type,
			Framework:   m.Framework,
			Version:     m.Version,
			Tags:        m.Tags,
			OwnerID:     userIDs[m.Owner],
			Department:  m.Department,
			Region:      m.Region,
			Brand:       m.Brand,
			Status:      status,
			FilePath:    m.FilePath,
		})
		if err != nil {
			return fmt.Errorf("seed model %s: %w", m.Name, err)
		}
		seededModels[m.Name] = created
	}

	seededDeployments := make(map[string]models.Deployment)
	for _, dep := range d.Deployments {
		m, ok := seededModels[dep.Model]
		if !ok {
			return fmt.Errorf("seed deployment %s: unknown model %q", dep.Name, dep.Model)
		}
		status := dep.Status
		if status == "" {
			status = models.DeploymentStatusPending
		}
		created, err := st.Deployments.Create(ctx, models.Deployment{
			Name:        dep.Name,
			Description: dep.Description,
			ModelID:     m.ID,
			ModelName:   m.Name,
			Department:  m.Department,
			Region:      m.Region,
			OwnerID:     userIDs[dep.Owner],
			Status:      status,
			Schedule:    dep.Schedule,
			DagID:       dep.DagID,
		})
		if err != nil {
			return fmt.Errorf("seed deployment %s: %w", dep.Name, err)
		}
		seededDeployments[dep.Name] = created
	}

	for i, e := range d.Executions {
		dep, ok := seededDeployments[e.Deployment]
		if !ok {
			return fmt.Errorf("seed execution %d: unknown deployment %q", i, e.Deployment)
		}
		triggeredBy := e.TriggeredBy
		if triggeredBy == "" {
			triggeredBy = models.TriggeredManual
		}
		exec := models.Execution{
			RunID:          fmt.Sprintf("seed-%d", i+1),
			DeploymentID:   dep.ID,
			DeploymentName: dep.Name,
			ModelID:        dep.ModelID,
			ModelName:      dep.ModelName,
			Department:     dep.Department,
			Region:         dep.Region,
			OwnerID:        userIDs[e.Owner],
			TriggeredBy:    triggeredBy,
			Status:         e.Status,
			StartTime:      e.StartTime,
			EndTime:        e.EndTime,
			ResultPath:     e.ResultPath,
			Logs:           e.Logs,
		}
		if e.StartTime != nil {
			exec.CreatedAt = *e.StartTime
		}
		if _, err := st.Executions.Create(ctx, exec); err != nil {
			return fmt.Errorf("seed execution %d: %w", i, err)
		}
	}
	return nil
}
