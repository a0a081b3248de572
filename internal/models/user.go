package models

import (
	"time"

	"github.com/crucial707/mlregistry/internal/recordfilter"
)

const (
	RoleAdmin         = "admin"
	RoleDataScientist = "data_scientist"
	RoleBusinessUser  = "business_user"
	RoleViewer        = "viewer"
)

// Roles lists every assignable role.
var Roles = []string{RoleAdmin, RoleDataScientist, RoleBusinessUser, RoleViewer}

type User struct {
	ID           int        `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	FullName     string     `json:"full_name"`
	Department   string     `json:"department"`
	Region       string     `json:"region"`
	Role         string     `json:"role"`
	IsActive     bool       `json:"is_active"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// Status is "active" or "inactive"; the users screen filters on it.
func (u User) Status() string {
	if u.IsActive {
		return "active"
	}
	return "inactive"
}

// UserFilter is the filter bar of the users screen.
var UserFilter = recordfilter.Schema{
	Text:        []string{"username", "email", "full_name"},
	Categorical: []string{"department", "role", "status"},
}

func (u User) Record() recordfilter.Record {
	return recordfilter.Record{
		"id":         u.ID,
		"username":   u.Username,
		"email":      u.Email,
		"full_name":  u.FullName,
		"department": u.Department,
		"region":     u.Region,
		"role":       u.Role,
		"status":     u.Status(),
		"is_active":  u.IsActive,
	}
}
