package handlers

import (
	"net/http"

	"fuelsync-backend/internal/models"
	"fuelsync-backend/internal/services"
)

type FuelPriceHandler struct {
	Service *services.FuelPriceService
}

func NewFuelPriceHandler(s *services.FuelPriceService) *FuelPriceHandler {
	return &FuelPriceHandler{Service: s}
}

// CreatePrice adds a price and closes the previous open one.
// POST /v1/fuel-prices
func (h *FuelPriceHandler) CreatePrice(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req models.FuelPriceRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.Service.Create(r.Context(), actor, &req)
	respond(w, http.StatusCreated, p, err)
}

// GET /v1/fuel-prices?stationId=&fuelType=
func (h *FuelPriceHandler) ListPrices(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	stationID, ok := queryID(w, r, "stationId")
	if !ok {
		return
	}
	list, err := h.Service.List(r.Context(), actor, stationID, r.URL.Query().Get("fuelType"))
	respond(w, http.StatusOK, list, err)
}

// GET /v1/fuel-prices/current?stationId=&fuelType=
func (h *FuelPriceHandler) CurrentPrice(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	stationID, ok := queryID(w, r, "stationId")
	if !ok {
		return
	}
	p, err := h.Service.Current(r.Context(), actor, stationID, r.URL.Query().Get("fuelType"))
	respond(w, http.StatusOK, p, err)
}

// PUT /v1/fuel-prices/{id}
func (h *FuelPriceHandler) UpdatePrice(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.FuelPriceRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.Service.Update(r.Context(), actor, id, &req)
	respond(w, http.StatusOK, p, err)
}

// DELETE /v1/fuel-prices/{id}
func (h *FuelPriceHandler) DeletePrice(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	err := h.Service.Delete(r.Context(), actor, id)
	respond(w, http.StatusOK, map[string]string{"message": "Fuel price deleted"}, err)
}
