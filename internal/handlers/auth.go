package handlers

import (
	"net/http"
	"time"

	"github.com/crucial707/mlregistry/internal/models"
	"github.com/crucial707/mlregistry/internal/session"
	"github.com/crucial707/mlregistry/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// ==========================
// Auth Handler
// ==========================
type AuthHandler struct {
	Users  store.UserStore
	Audit  store.AuditStore
	Secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

func (h *AuthHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
}

// ==========================
// Login (username and password; only active users with a password can log in)
// ==========================
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	if !decodeAndValidate(w, r, &input) {
		return
	}

	user, err := h.Users.GetByUsername(r.Context(), input.Username)
	if err != nil || user.PasswordHash == "" {
		JSONError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		JSONError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if !user.IsActive {
		JSONError(w, "inactive user", http.StatusForbidden)
		return
	}

	now := h.now()
	token, s, err := session.Issue(h.Secret, user, now, h.TTL)
	if err != nil {
		JSONError(w, "failed to issue token", http.StatusInternalServerError)
		return
	}
	if err := h.Users.TouchLogin(r.Context(), user.ID, now); err != nil {
		storeError(w, r, err, "user")
		return
	}
	user.LastLogin = &now
	recordAudit(session.NewContext(r.Context(), s), h.Audit, models.AuditLogin, "user", user.ID, "")

	writeJSON(w, http.StatusOK, LoginResponse{Token: token, ExpiresAt: s.ExpiresAt, User: user})
}

// ==========================
// Me (the user behind the current session)
// ==========================
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	if !s.Authenticated() {
		JSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	user, err := h.Users.Get(r.Context(), s.UserID)
	if err != nil {
		storeError(w, r, err, "user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}
