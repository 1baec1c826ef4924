package handlers

import (
	"net/http"

	"fuelsync-backend/internal/models"
	"fuelsync-backend/internal/services"
)

// StationHandler serves stations, pumps and nozzles.
type StationHandler struct {
	Stations *services.StationService
	Pumps    *services.PumpService
	Nozzles  *services.NozzleService
}

func NewStationHandler(stations *services.StationService, pumps *services.PumpService, nozzles *services.NozzleService) *StationHandler {
	return &StationHandler{Stations: stations, Pumps: pumps, Nozzles: nozzles}
}

// POST /v1/stations
func (h *StationHandler) CreateStation(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req models.StationRequest
	if !decode(w, r, &req) {
		return
	}
	station, err := h.Stations.Create(r.Context(), actor, &req)
	respond(w, http.StatusCreated, station, err)
}

// GET /v1/stations
func (h *StationHandler) ListStations(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	stations, err := h.Stations.List(r.Context(), actor)
	respond(w, http.StatusOK, stations, err)
}

// GET /v1/stations/{id}
func (h *StationHandler) GetStation(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	station, err := h.Stations.Get(r.Context(), actor, id)
	respond(w, http.StatusOK, station, err)
}

// PUT /v1/stations/{id}
func (h *StationHandler) UpdateStation(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.StationRequest
	if !decode(w, r, &req) {
		return
	}
	station, err := h.Stations.Update(r.Context(), actor, id, &req)
	respond(w, http.StatusOK, station, err)
}

// DELETE /v1/stations/{id}
func (h *StationHandler) DeleteStation(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	err := h.Stations.Delete(r.Context(), actor, id)
	respond(w, http.StatusOK, map[string]string{"message": "Station deleted"}, err)
}

// GET /v1/stations/{id}/metrics
func (h *StationHandler) StationMetrics(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	m, err := h.Stations.Metrics(r.Context(), actor, id)
	respond(w, http.StatusOK, m, err)
}

// GET /v1/stations/ranking?metric=sales|volume&range=monthly
func (h *StationHandler) StationRanking(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	ranking, err := h.Stations.Ranking(r.Context(), actor, q.Get("metric"), q.Get("range"))
	respond(w, http.StatusOK, ranking, err)
}

// POST /v1/pumps
func (h *StationHandler) CreatePump(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req models.PumpRequest
	if !decode(w, r, &req) {
		return
	}
	pump, err := h.Pumps.Create(r.Context(), actor, &req)
	respond(w, http.StatusCreated, pump, err)
}

// GET /v1/pumps?stationId=
func (h *StationHandler) ListPumps(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	stationID, ok := queryID(w, r, "stationId")
	if !ok {
		return
	}
	pumps, err := h.Pumps.List(r.Context(), actor, stationID)
	respond(w, http.StatusOK, pumps, err)
}

// GET /v1/pumps/{id}
func (h *StationHandler) GetPump(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	pump, err := h.Pumps.Get(r.Context(), actor, id)
	respond(w, http.StatusOK, pump, err)
}

// PUT /v1/pumps/{id}
func (h *StationHandler) UpdatePump(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.PumpRequest
	if !decode(w, r, &req) {
		return
	}
	pump, err := h.Pumps.Update(r.Context(), actor, id, &req)
	respond(w, http.StatusOK, pump, err)
}

// DELETE /v1/pumps/{id}
func (h *StationHandler) DeletePump(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	err := h.Pumps.Delete(r.Context(), actor, id)
	respond(w, http.StatusOK, map[string]string{"message": "Pump deleted"}, err)
}

// POST /v1/nozzles
func (h *StationHandler) CreateNozzle(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req models.NozzleRequest
	if !decode(w, r, &req) {
		return
	}
	nozzle, err := h.Nozzles.Create(r.Context(), actor, &req)
	respond(w, http.StatusCreated, nozzle, err)
}

// GET /v1/nozzles?pumpId=&stationId=
func (h *StationHandler) ListNozzles(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	pumpID, ok := queryID(w, r, "pumpId")
	if !ok {
		return
	}
	stationID, ok := queryID(w, r, "stationId")
	if !ok {
		return
	}
	nozzles, err := h.Nozzles.List(r.Context(), actor, pumpID, stationID)
	respond(w, http.StatusOK, nozzles, err)
}

// GET /v1/nozzles/{id}
func (h *StationHandler) GetNozzle(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	nozzle, err := h.Nozzles.Get(r.Context(), actor, id)
	respond(w, http.StatusOK, nozzle, err)
}

// PUT /v1/nozzles/{id}
func (h *StationHandler) UpdateNozzle(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.NozzleRequest
	if !decode(w, r, &req) {
		return
	}
	nozzle, err := h.Nozzles.Update(r.Context(), actor, id, &req)
	respond(w, http.StatusOK, nozzle, err)
}

// DELETE /v1/nozzles/{id}
func (h *StationHandler) DeleteNozzle(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	err := h.Nozzles.Delete(r.Context(), actor, id)
	respond(w, http.StatusOK, map[string]string{"message": "Nozzle deleted"}, err)
}
