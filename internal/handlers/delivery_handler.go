package handlers

import (
	"net/http"

	"fuelsync-backend/internal/models"
	"fuelsync-backend/internal/services"
)

type DeliveryHandler struct {
	Service *services.DeliveryService
}

func NewDeliveryHandler(s *services.DeliveryService) *DeliveryHandler {
	return &DeliveryHandler{Service: s}
}

// POST /v1/fuel-deliveries
func (h *DeliveryHandler) CreateDelivery(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req models.FuelDeliveryRequest
	if !decode(w, r, &req) {
		return
	}
	d, err := h.Service.Create(r.Context(), actor, &req)
	respond(w, http.StatusCreated, d, err)
}

// GET /v1/fuel-deliveries?stationId=
func (h *DeliveryHandler) ListDeliveries(w http.ResponseWriter, r *http.Request) {
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

// GET /v1/fuel-inventory?stationId=
func (h *DeliveryHandler) Inventory(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	stationID, ok := queryID(w, r, "stationId")
	if !ok {
		return
	}
	levels, err := h.Service.Inventory(r.Context(), actor, stationID)
	respond(w, http.StatusOK, levels, err)
}
