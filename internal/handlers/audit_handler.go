package handlers

import (
	"net/http"

	"fuelsync-backend/internal/services"
)

// AuditHandler serves the login history and the admin action trail.
type AuditHandler struct {
	Service *services.AuditService
}

func NewAuditHandler(s *services.AuditService) *AuditHandler {
	return &AuditHandler{Service: s}
}

// GET /v1/audit/logins?limit=
func (h *AuditHandler) ListLoginLogs(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	logs, err := h.Service.ListLogins(r.Context(), actor, queryInt(r, "limit", 0))
	respond(w, http.StatusOK, logs, err)
}

// GET /v1/audit/actions?limit=
func (h *AuditHandler) ListActionLogs(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	logs, err := h.Service.ListActions(r.Context(), actor, queryInt(r, "limit", 0))
	respond(w, http.StatusOK, logs, err)
}
