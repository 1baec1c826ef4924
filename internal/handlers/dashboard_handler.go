package handlers

import (
	"net/http"

	"fuelsync-backend/internal/services"
)

type DashboardHandler struct {
	Service *services.DashboardService
}

func NewDashboardHandler(s *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{Service: s}
}

// Dashboard returns the role-specific dashboard.
// GET /v1/dashboard
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	d, err := h.Service.Compose(r.Context(), actor)
	respond(w, http.StatusOK, d, err)
}

// GET /v1/dashboard/sales-summary?range=&stationId=
func (h *DashboardHandler) SalesSummary(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	stationID, ok := queryID(w, r, "stationId")
	if !ok {
		return
	}
	s, err := h.Service.Summary(r.Context(), actor, r.URL.Query().Get("range"), stationID)
	respond(w, http.StatusOK, s, err)
}

// GET /v1/dashboard/payment-methods?range=&stationId=
func (h *DashboardHandler) PaymentMethods(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	stationID, ok := queryID(w, r, "stationId")
	if !ok {
		return
	}
	list, err := h.Service.PaymentMethods(r.Context(), actor, r.URL.Query().Get("range"), stationID)
	respond(w, http.StatusOK, list, err)
}

// GET /v1/dashboard/fuel-types?range=&stationId=
func (h *DashboardHandler) FuelTypes(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	stationID, ok := queryID(w, r, "stationId")
	if !ok {
		return
	}
	list, err := h.Service.FuelTypes(r.Context(), actor, r.URL.Query().Get("range"), stationID)
	respond(w, http.StatusOK, list, err)
}

// GET /v1/dashboard/top-creditors?limit=
func (h *DashboardHandler) TopCreditors(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	list, err := h.Service.TopCreditors(r.Context(), actor, queryInt(r, "limit", 5))
	respond(w, http.StatusOK, list, err)
}

// GET /v1/dashboard/daily-trend?days=&stationId=
func (h *DashboardHandler) DailyTrend(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	stationID, ok := queryID(w, r, "stationId")
	if !ok {
		return
	}
	list, err := h.Service.DailyTrend(r.Context(), actor, queryInt(r, "days", 7), stationID)
	respond(w, http.StatusOK, list, err)
}

// GET /v1/analytics/hourly-sales?date=&stationId=
func (h *DashboardHandler) HourlySales(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	stationID, ok := queryID(w, r, "stationId")
	if !ok {
		return
	}
	list, err := h.Service.Hourly(r.Context(), actor, r.URL.Query().Get("date"), stationID)
	respond(w, http.StatusOK, list, err)
}

// GET /v1/analytics/peak-hours?date=&stationId=
func (h *DashboardHandler) PeakHour(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	stationID, ok := queryID(w, r, "stationId")
	if !ok {
		return
	}
	p, err := h.Service.PeakHour(r.Context(), actor, r.URL.Query().Get("date"), stationID)
	respond(w, http.StatusOK, p, err)
}

// GET /v1/analytics/fuel-performance?range=&stationId=
func (h *DashboardHandler) FuelPerformance(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	stationID, ok := queryID(w, r, "stationId")
	if !ok {
		return
	}
	list, err := h.Service.FuelPerformance(r.Context(), actor, r.URL.Query().Get("range"), stationID)
	respond(w, http.StatusOK, list, err)
}
