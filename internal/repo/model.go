package repo

import (
	"context"
	"database/sql"

	"github.com/crucial707/mlregistry/internal/models"
	"github.com/lib/pq"
)

// ========================
// REPOSITORY STRUCT
// ========================

type ModelRepo struct {
	DB *sql.DB
}

func NewModelRepo(db *sql.DB) *ModelRepo {
	return &ModelRepo{DB: db}
}

const modelColumns = `id, name, description, type, framework, version, tags, owner_id,
	department, region, brand, status, file_path, created_at, updated_at`

func scanModel(row scanner) (models.Model, error) {
	var m models.Model
	err := row.Scan(
		&m.ID, &m.Name, &m.Description, &m.Type, &m.Framework, &m.Version,
		pq.Array(&m.Tags), &m.OwnerID, &m.Department, &m.Region, &m.Brand,
		&m.Status, &m.FilePath, &m.CreatedAt, &m.UpdatedAt,
	)
	if m.Tags == nil {
		m.Tags = []string{}
	}
	return m, mapErr(err)
}

// ========================
// LIST MODELS
// ========================

func (r *ModelRepo) List(ctx context.Context) ([]models.Model, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+modelColumns+` FROM models ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.Model{}
	for rows.Next() {
		m, err := scanModel(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// ========================
// GET MODEL BY ID
// ========================

func (r *ModelRepo) Get(ctx context.Context, id int) (models.Model, error) {
	return scanModel(r.DB.QueryRowContext(ctx, `SELECT `+modelColumns+` FROM models WHERE id = $1`, id))
}

// ========================
// CREATE MODEL
// ========================

func (r *ModelRepo) Create(ctx context.Context, m models.Model) (models.Model, error) {
	return scanModel(r.DB.QueryRowContext(ctx,
		`INSERT INTO models (name, description, type, framework, version, tags, owner_id,
			department, region, brand, status, file_path)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING `+modelColumns,
		m.Name, m.Description, m.Type, m.Framework, m.Version, pq.Array(m.Tags), m.OwnerID,
		m.Department, m.Region, m.Brand, m.Status, m.FilePath,
	))
}

// ========================
// UPDATE MODEL
// ========================

func (r *ModelRepo) Update(ctx context.Context, m models.Model) (models.Model, error) {
	return scanModel(r.DB.QueryRowContext(ctx,
		`UPDATE models
		 SET name = $1, description = $2, type = $3, framework = $4, version = $5, tags = $6,
			department = $7, region = $8, brand = $9, status = $10, file_path = $11, updated_at = NOW()
		 WHERE id = $12
		 RETURNING `+modelColumns,
		m.Name, m.Description, m.Type, m.Framework, m.Version, pq.Array(m.Tags),
		m.Department, m.Region, m.Brand, m.Status, m.FilePath, m.ID,
	))
}

// ========================
// DELETE MODEL
// ========================

func (r *ModelRepo) Delete(ctx context.Context, id int) error {
	return expectOne(r.DB.ExecContext(ctx, `DELETE FROM models WHERE id = $1`, id))
}
