package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/crucial707/mlregistry/internal/models"
)

// ==========================
// UserRepo
// ==========================
type UserRepo struct {
	DB *sql.DB
}

// ==========================
// Constructor
// ==========================
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

const userColumns = `id, username, email, full_name, department, region, role, is_active,
	password_hash, created_at, updated_at, last_login`

func scanUser(row scanner) (models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.FullName, &u.Department, &u.Region, &u.Role,
		&u.IsActive, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt, &u.LastLogin,
	)
	return u, mapErr(err)
}

// ==========================
// Create User
// ==========================
func (r *UserRepo) Create(ctx context.Context, u models.User) (models.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		`INSERT INTO users (username, email, full_name, department, region, role, is_active, password_hash)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+userColumns,
		u.Username, u.Email, u.FullName, u.Department, u.Region, u.Role, u.IsActive, u.PasswordHash,
	))
}

// ==========================
// Get By ID
// ==========================
func (r *UserRepo) Get(ctx context.Context, id int) (models.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// ==========================
// Get By Username
// ==========================
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (models.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

// ==========================
// Update User
// ==========================

// Update replaces the profile fields of u. An empty PasswordHash keeps the stored one.
func (r *UserRepo) Update(ctx context.Context, u models.User) (models.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		`UPDATE users
		 SET username = $1, email = $2, full_name = $3, department = $4, region = $5, role = $6,
			is_active = $7, password_hash = COALESCE(NULLIF($8, ''), password_hash), updated_at = NOW()
		 WHERE id = $9
		 RETURNING `+userColumns,
		u.Username, u.Email, u.FullName, u.Department, u.Region, u.Role, u.IsActive, u.PasswordHash, u.ID,
	))
}

// ==========================
// Touch Login
// ==========================
func (r *UserRepo) TouchLogin(ctx context.Context, id int, at time.Time) error {
	return expectOne(r.DB.ExecContext(ctx, `UPDATE users SET last_login = $1 WHERE id = $2`, at, id))
}

// ==========================
// Delete User
// ==========================
func (r *UserRepo) Delete(ctx context.Context, id int) error {
	return expectOne(r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id))
}

// ==========================
// List Users
// ==========================
func (r *UserRepo) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
