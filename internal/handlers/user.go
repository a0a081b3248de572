package handlers

import (
	"net/http"

	"github.com/crucial707/mlregistry/internal/models"
	"github.com/crucial707/mlregistry/internal/session"
	"github.com/crucial707/mlregistry/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// ==========================
// UserHandler
// ==========================
type UserHandler struct {
	Users store.UserStore
	Audit store.AuditStore
}

// UserInput is the create and update body of /users. An empty password keeps the current one on update.
type UserInput struct {
	Username   string `json:"username" validate:"required,min=3,max=50,alphanum"`
	Email      string `json:"email" validate:"required,email"`
	FullName   string `json:"full_name" validate:"max=255"`
	Department string `json:"department" validate:"max=100"`
	Region     string `json:"region" validate:"max=100"`
	Role       string `json:"role" validate:"omitempty,oneof=admin data_scientist business_user viewer"`
	IsActive   *bool  `json:"is_active"`
	Password   string `json:"password" validate:"omitempty,min=6,max=72"`
}

func (in UserInput) apply(u *models.User) error {
	u.Username = in.Username
	u.Email = in.Email
	u.FullName = in.FullName
	u.Department = in.Department
	u.Region = in.Region
	if in.Role != "" {
		u.Role = in.Role
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
	u.PasswordHash = ""
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		u.PasswordHash = string(hash)
	}
	return nil
}

// ==========================
// Create User (role defaults to viewer; a password is required)
// ==========================
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var input UserInput
	if !decodeAndValidate(w, r, &input) {
		return
	}
	if input.Password == "" {
		JSONValidationError(w, "validation failed", map[string]string{"password": "required"}, http.StatusBadRequest)
		return
	}

	u := models.User{Role: models.RoleViewer, IsActive: true}
	if err := input.apply(&u); err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	user, err := h.Users.Create(r.Context(), u)
	if err != nil {
		storeError(w, r, err, "user")
		return
	}
	recordAudit(r.Context(), h.Audit, models.AuditCreate, "user", user.ID, user.Username)
	writeJSON(w, http.StatusCreated, user)
}

// ==========================
// List Users (query: q, department, role, status)
// ==========================
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.List(r.Context())
	if err != nil {
		storeError(w, r, err, "users")
		return
	}
	writeJSON(w, http.StatusOK, filterList(users, models.UserFilter, r.URL.Query()))
}

// ==========================
// Get User
// ==========================
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "user")
	if !ok {
		return
	}
	user, err := h.Users.Get(r.Context(), id)
	if err != nil {
		storeError(w, r, err, "user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ==========================
// Update User (an empty password keeps the current one)
// ==========================
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "user")
	if !ok {
		return
	}
	var input UserInput
	if !decodeAndValidate(w, r, &input) {
		return
	}

	u, err := h.Users.Get(r.Context(), id)
	if err != nil {
		storeError(w, r, err, "user")
		return
	}
	if id == session.FromContext(r.Context()).UserID && (input.Role != "" && input.Role != u.Role || input.IsActive != nil && !*input.IsActive) {
		JSONError(w, "cannot change your own role or deactivate yourself", http.StatusConflict)
		return
	}
	if err := input.apply(&u); err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	user, err := h.Users.Update(r.Context(), u)
	if err != nil {
		storeError(w, r, err, "user")
		return
	}
	recordAudit(r.Context(), h.Audit, models.AuditUpdate, "user", user.ID, user.Username)
	writeJSON(w, http.StatusOK, user)
}

// ==========================
// Delete User
// ==========================
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "user")
	if !ok {
		return
	}
	if id == session.FromContext(r.Context()).UserID {
		JSONError(w, "cannot delete your own account", http.StatusConflict)
		return
	}
	if err := h.Users.Delete(r.Context(), id); err != nil {
		storeError(w, r, err, "user")
		return
	}
	recordAudit(r.Context(), h.Audit, models.AuditDelete, "user", id, "")
	w.WriteHeader(http.StatusNoContent)
}
