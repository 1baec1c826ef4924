package handlers

import (
	"net/http"

	"fuelsync-backend/internal/selection"
	"fuelsync-backend/internal/services"
)

type SelectionHandler struct {
	Service *services.SelectionService
}

func NewSelectionHandler(s *services.SelectionService) *SelectionHandler {
	return &SelectionHandler{Service: s}
}

// Resolve returns the attendant's station/pump/nozzle selection with
// invalid children cleared and the option lists for each level.
// GET /v1/attendant/selection?stationId=&pumpId=&nozzleId=&preselectedStationId=...
func (h *SelectionHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	sel := selection.Selection{
		StationID:          q.Get("stationId"),
		PumpID:             q.Get("pumpId"),
		NozzleID:           q.Get("nozzleId"),
		PreselectedStation: q.Get("preselectedStationId"),
		PreselectedPump:    q.Get("preselectedPumpId"),
		PreselectedNozzle:  q.Get("preselectedNozzleId"),
	}
	view, err := h.Service.Resolve(r.Context(), actor, sel)
	respond(w, http.StatusOK, view, err)
}
