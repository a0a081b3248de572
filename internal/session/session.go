// Package session models who is calling: an explicit value issued at login as a signed JWT and
// parsed back on every request. There is no process-wide auth state.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crucial707/mlregistry/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// Session identifies an authenticated user until ExpiresAt.
type Session struct {
	UserID    int       `json:"user_id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Anonymous is the session of a caller that is not logged in.
var Anonymous = Session{}

// Authenticated reports whether s belongs to a user.
func (s Session) Authenticated() bool {
	return s.UserID != 0
}

// IsAdmin reports whether s may manage users and read the audit log.
func (s Session) IsAdmin() bool {
	return s.Role == models.RoleAdmin
}

// CanWrite reports whether s may create, edit and act on registry records.
func (s Session) CanWrite() bool {
	return s.Role == models.RoleAdmin || s.Role == models.RoleDataScientist
}

// HasRole reports whether the session role is one of roles.
func (s Session) HasRole(roles ...string) bool {
	for _, r := range roles {
		if s.Role == r {
			return true
		}
	}
	return false
}

var ErrInvalidToken = errors.New("invalid token")

type claims struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Issue signs a session for u valid for ttl from now.
func Issue(secret []byte, u models.User, now time.Time, ttl time.Duration) (string, Session, error) {
	s := Session{
		UserID:    u.ID,
		Username:  u.Username,
		Role:      u.Role,
		ExpiresAt: now.Add(ttl).Truncate(time.Second),
	}
	c := claims{
		UserID:   s.UserID,
		Username: s.Username,
		Role:     s.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(secret)
	if err != nil {
		return "", Anonymous, fmt.Errorf("sign token: %w", err)
	}
	return signed, s, nil
}

// Parse verifies token and returns its session. Expired, malformed or foreign tokens yield
// Anonymous and ErrInvalidToken.
func Parse(secret []byte, token string) (Session, error) {
	var c claims
	t, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !t.Valid || c.UserID == 0 {
		return Anonymous, ErrInvalidToken
	}
	return Session{
		UserID:    c.UserID,
		Username:  c.Username,
		Role:      c.Role,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying s.
func NewContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored in ctx, or Anonymous.
func FromContext(ctx context.Context) Session {
	if s, ok := ctx.Value(ctxKey{}).(Session); ok {
		return s
	}
	return Anonymous
}
