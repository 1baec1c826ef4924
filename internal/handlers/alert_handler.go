package handlers

import (
	"net/http"

	"fuelsync-backend/internal/models"
	"fuelsync-backend/internal/realtime"
	"fuelsync-backend/internal/services"
)

type AlertHandler struct {
	Service *services.AlertService
	Hub     *realtime.Hub
}

func NewAlertHandler(s *services.AlertService, hub *realtime.Hub) *AlertHandler {
	return &AlertHandler{Service: s, Hub: hub}
}

// GET /v1/alerts?stationId=&unread=true&limit=
func (h *AlertHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	f := models.AlertFilter{
		UnreadOnly: r.URL.Query().Get("unread") == "true",
		Limit:      queryInt(r, "limit", 0),
	}
	if f.StationID, ok = queryID(w, r, "stationId"); !ok {
		return
	}
	alerts, err := h.Service.List(r.Context(), actor, f)
	respond(w, http.StatusOK, alerts, err)
}

// GET /v1/alerts/count
func (h *AlertHandler) CountUnread(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	n, err := h.Service.CountUnread(r.Context(), actor)
	respond(w, http.StatusOK, map[string]int{"unread": n}, err)
}

// PATCH /v1/alerts/{id}/read
func (h *AlertHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	err := h.Service.MarkRead(r.Context(), actor, id)
	respond(w, http.StatusOK, map[string]string{"message": "Alert marked as read"}, err)
}

// DELETE /v1/alerts/{id}
func (h *AlertHandler) DeleteAlert(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	err := h.Service.Delete(r.Context(), actor, id)
	respond(w, http.StatusOK, map[string]string{"message": "Alert deleted"}, err)
}

// RunRules evaluates the alert rules for the caller's tenant now.
// POST /v1/alerts/run
func (h *AlertHandler) RunRules(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	raised, err := h.Service.RunNow(r.Context(), actor)
	if raised == nil {
		raised = []models.Alert{}
	}
	respond(w, http.StatusOK, raised, err)
}

// Stream upgrades to a websocket that receives the tenant's new alerts.
// GET /v1/alerts/stream
func (h *AlertHandler) Stream(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	h.Hub.Serve(w, r, actor.TenantID)
}
