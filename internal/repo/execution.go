package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/crucial707/mlregistry/internal/models"
	"github.com/lib/pq"
)

// ExecutionRepo persists deployment executions.
type ExecutionRepo struct {
	DB *sql.DB
}

func NewExecutionRepo(db *sql.DB) *ExecutionRepo {
	return &ExecutionRepo{DB: db}
}

const executionColumns = `id, run_id, deployment_id, deployment_name, model_id, model_name,
	department, region, owner_id, triggered_by, status, start_time, end_time, result_path, logs, created_at`

func scanExecution(row scanner) (models.Execution, error) {
	var e models.Execution
	err := row.Scan(
		&e.ID, &e.RunID, &e.DeploymentID, &e.DeploymentName, &e.ModelID, &e.ModelName,
		&e.Department, &e.Region, &e.OwnerID, &e.TriggeredBy, &e.Status,
		&e.StartTime, &e.EndTime, &e.ResultPath, pq.Array(&e.Logs), &e.CreatedAt,
	)
	if e.Logs == nil {
		e.Logs = []string{}
	}
	return e, mapErr(err)
}

// List returns executions, most recent first.
func (r *ExecutionRepo) List(ctx context.Context) ([]models.Execution, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+executionColumns+` FROM executions ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.Execution{}
	for rows.Next() {
		e, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

func (r *ExecutionRepo) Get(ctx context.Context, id int) (models.Execution, error) {
	return scanExecution(r.DB.QueryRowContext(ctx, `SELECT `+executionColumns+` FROM executions WHERE id = $1`, id))
}

// Create inserts e and stamps the owning deployment's last_execution in the same statement.
// A zero CreatedAt defaults to NOW().
func (r *ExecutionRepo) Create(ctx context.Context, e models.Execution) (models.Execution, error) {
	var createdAt any
	if !e.CreatedAt.IsZero() {
		createdAt = e.CreatedAt
	}
	if e.Logs == nil {
		e.Logs = []string{}
	}
	return scanExecution(r.DB.QueryRowContext(ctx,
		`WITH inserted AS (
			INSERT INTO executions (run_id, deployment_id, deployment_name, model_id, model_name,
				department, region, owner_id, triggered_by, status, start_time, end_time,
				result_path, logs, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, COALESCE($15, NOW()))
			RETURNING `+executionColumns+`
		), touched AS (
			UPDATE deployments SET last_execution = inserted.created_at
			FROM inserted WHERE deployments.id = inserted.deployment_id
		)
		SELECT `+executionColumns+` FROM inserted`,
		e.RunID, e.DeploymentID, e.DeploymentName, e.ModelID, e.ModelName,
		e.Department, e.Region, e.OwnerID, e.TriggeredBy, e.Status, e.StartTime, e.EndTime,
		e.ResultPath, pq.Array(e.Logs), createdAt,
	))
}

func (r *ExecutionRepo) Finish(ctx context.Context, id int, status string, end time.Time, logs []string) (models.Execution, error) {
	return scanExecution(r.DB.QueryRowContext(ctx,
		`UPDATE executions SET status = $1, end_time = $2, logs = $3 WHERE id = $4 RETURNING `+executionColumns,
		status, end, pq.Array(logs), id,
	))
}
