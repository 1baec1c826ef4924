package handlers

import (
	"net/http"

	"fuelsync-backend/internal/models"
	"fuelsync-backend/internal/services"
)

type ReconciliationHandler struct {
	Service *services.ReconciliationService
}

func NewReconciliationHandler(s *services.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{Service: s}
}

// RunReconciliation finalizes a station-day.
// POST /v1/reconciliation
func (h *ReconciliationHandler) RunReconciliation(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req models.ReconciliationRequest
	if !decode(w, r, &req) {
		return
	}
	d, err := h.Service.Run(r.Context(), actor, &req)
	respond(w, http.StatusOK, d, err)
}

// GET /v1/reconciliation?stationId=
func (h *ReconciliationHandler) ListReconciliations(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	stationID, ok := queryID(w, r, "stationId")
	if !ok {
		return
	}
	list, err := h.Service.List(r.Context(), actor, stationID)
	respond(w, http.StatusOK, list, err)
}

// GET /v1/reconciliation/summary?stationId=&date=
func (h *ReconciliationHandler) DailySummary(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	stationID, ok := queryID(w, r, "stationId")
	if !ok {
		return
	}
	d, err := h.Service.Summary(r.Context(), actor, stationID, r.URL.Query().Get("date"))
	respond(w, http.StatusOK, d, err)
}

// POST /v1/cash-reports
func (h *ReconciliationHandler) SubmitCashReport(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req models.CashReportRequest
	if !decode(w, r, &req) {
		return
	}
	c, err := h.Service.SubmitCashReport(r.Context(), actor, &req)
	respond(w, http.StatusCreated, c, err)
}

// GET /v1/cash-reports
func (h *ReconciliationHandler) ListCashReports(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	list, err := h.Service.CashReports(r.Context(), actor)
	respond(w, http.StatusOK, list, err)
}
