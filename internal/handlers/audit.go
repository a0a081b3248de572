package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/crucial707/mlregistry/internal/models"
	"github.com/crucial707/mlregistry/internal/session"
	"github.com/crucial707/mlregistry/internal/store"
)

// AuditHandler serves audit log endpoints.
type AuditHandler struct {
	Audit store.AuditStore
}

// ListAudit returns recent audit log entries. Query: limit (default 50, max 200), offset (default 0).
func (h *AuditHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	limit := 50
	offset := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil && val > 0 && val <= 200 {
			limit = val
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if val, err := strconv.Atoi(o); err == nil && val >= 0 {
			offset = val
		}
	}

	entries, err := h.Audit.List(r.Context(), limit, offset)
	if err != nil {
		storeError(w, r, err, "audit log")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// recordAudit logs an action by the session user. Failures are logged, never returned:
// the action itself already succeeded.
func recordAudit(ctx context.Context, a store.AuditStore, action, resourceType string, resourceID int, details string) {
	if a == nil {
		return
	}
	s := session.FromContext(ctx)
	err := a.Log(ctx, models.AuditEntry{
		UserID:       s.UserID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      details,
	})
	if err != nil {
		slog.WarnContext(ctx, "audit log failed", "action", action, "resource_type", resourceType, "resource_id", resourceID, "err", err)
	}
}
