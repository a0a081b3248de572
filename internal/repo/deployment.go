package repo

import (
	"context"
	"database/sql"

	"github.com/crucial707/mlregistry/internal/models"
)

// DeploymentRepo persists deployments. The schedule label is computed by callers, not stored.
type DeploymentRepo struct {
	DB *sql.DB
}

func NewDeploymentRepo(db *sql.DB) *DeploymentRepo {
	return &DeploymentRepo{DB: db}
}

const deploymentColumns = `id, name, description, model_id, model_name, department, region,
	owner_id, status, schedule, dag_id, last_execution, created_at, updated_at`

func scanDeployment(row scanner) (models.Deployment, error) {
	var d models.Deployment
	err := row.Scan(
		&d.ID, &d.Name, &d.Description, &d.ModelID, &d.ModelName, &d.Department, &d.Region,
		&d.OwnerID, &d.Status, &d.Schedule, &d.DagID, &d.LastExecution, &d.CreatedAt, &d.UpdatedAt,
	)
	return d, mapErr(err)
}

func (r *DeploymentRepo) List(ctx context.Context) ([]models.Deployment, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+deploymentColumns+` FROM deployments ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.Deployment{}
	for rows.Next() {
		d, err := scanDeployment(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, d)
	}
	return list, rows.Err()
}

func (r *DeploymentRepo) Get(ctx context.Context, id int) (models.Deployment, error) {
	return scanDeployment(r.DB.QueryRowContext(ctx, `SELECT `+deploymentColumns+` FROM deployments WHERE id = $1`, id))
}

func (r *DeploymentRepo) Create(ctx context.Context, d models.Deployment) (models.Deployment, error) {
	return scanDeployment(r.DB.QueryRowContext(ctx,
		`INSERT INTO deployments (name, description, model_id, model_name, department, region,
			owner_id, status, schedule, dag_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING `+deploymentColumns,
		d.Name, d.Description, d.ModelID, d.ModelName, d.Department, d.Region,
		d.OwnerID, d.Status, d.Schedule, d.DagID,
	))
}

func (r *DeploymentRepo) Update(ctx context.Context, d models.Deployment) (models.Deployment, error) {
	return scanDeployment(r.DB.QueryRowContext(ctx,
		`UPDATE deployments
		 SET name = $1, description = $2, status = $3, schedule = $4, dag_id = $5, updated_at = NOW()
		 WHERE id = $6
		 RETURNING `+deploymentColumns,
		d.Name, d.Description, d.Status, d.Schedule, d.DagID, d.ID,
	))
}

func (r *DeploymentRepo) SetStatus(ctx context.Context, id int, status string) (models.Deployment, error) {
	return scanDeployment(r.DB.QueryRowContext(ctx,
		`UPDATE deployments SET status = $1, updated_at = NOW() WHERE id = $2 RETURNING `+deploymentColumns,
		status, id,
	))
}

func (r *DeploymentRepo) Delete(ctx context.Context, id int) error {
	return expectOne(r.DB.ExecContext(ctx, `DELETE FROM deployments WHERE id = $1`, id))
}
