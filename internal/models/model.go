package models

import (
	"time"

	"github.com/crucial707/mlregistry/internal/recordfilter"
)

const (
	ModelStatusDraft    = "draft"
	ModelStatusReady    = "ready"
	ModelStatusDeployed = "deployed"
	ModelStatusArchived = "archived"
)

// Model is a registered machine-learning model.
type Model struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Type        string    `json:"type"`      // classification, regression, clustering, forecasting, recommendation, custom
	Framework   string    `json:"framework"` // scikit-learn, tensorflow, pytorch, xgboost, r, custom
	Version     string    `json:"version"`
	Tags        []string  `json:"tags"`
	OwnerID     int       `json:"owner_id"`
	Department  string    `json:"department"`
	Region      string    `json:"region"`
	Brand       *string   `json:"brand,omitempty"`
	Status      string    `json:"status"`
	FilePath    *string   `json:"file_path,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ModelFilter is the filter bar of the models screen.
var ModelFilter = recordfilter.Schema{
	Text:        []string{"name", "type", "framework"},
	Categorical: []string{"department", "region", "status"},
}

func (m Model) Record() recordfilter.Record {
	return recordfilter.Record{
		"id":         m.ID,
		"name":       m.Name,
		"type":       m.Type,
		"framework":  m.Framework,
		"version":    m.Version,
		"tags":       m.Tags,
		"department": m.Department,
		"region":     m.Region,
		"brand":      m.Brand,
		"status":     m.Status,
	}
}
