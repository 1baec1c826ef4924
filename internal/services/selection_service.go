package services

import (
	"context"
	"fmt"

	"fuelsync-backend/internal/models"
	"fuelsync-backend/internal/selection"
)

// SelectionView is the resolved selection plus the options the attendant can
// pick from at each level.
type SelectionView struct {
	selection.Resolved
	Stations []models.Station `json:"stations"`
	Pumps    []models.Pump    `json:"pumps"`
	Nozzles  []models.Nozzle  `json:"nozzles"`
}

// SelectionService serves the attendant's station → pump → nozzle picker.
type SelectionService struct {
	Stations *StationService
	Pumps    *PumpService
	Nozzles  *NozzleService
}

func NewSelectionService(stations *StationService, pumps *PumpService, nozzles *NozzleService) *SelectionService {
	return &SelectionService{Stations: stations, Pumps: pumps, Nozzles: nozzles}
}

func (s *SelectionService) Resolve(ctx context.Context, actor models.Actor, sel selection.Selection) (*SelectionView, error) {
	for _, id := range []string{sel.StationID, sel.PumpID, sel.NozzleID, sel.PreselectedStation, sel.PreselectedPump, sel.PreselectedNozzle} {
		if id != "" && !validID(id) {
			return nil, validationf("invalid id %q", id)
		}
	}

	stations, err := s.Stations.List(ctx, actor)
	if err != nil {
		return nil, err
	}
	view := &SelectionView{Stations: stations, Pumps: []models.Pump{}, Nozzles: []models.Nozzle{}}

	station, pump, _ := sel.Effective()
	if station != "" && !stationListed(stations, station) {
		if sel.PreselectedStation != "" {
			return nil, fmt.Errorf("%w: station not assigned", models.ErrForbidden)
		}
		sel.StationID = ""
		station = ""
	}

	var opts selection.Options
	if station != "" {
		if view.Pumps, err = s.Pumps.List(ctx, actor, station); err != nil {
			return nil, err
		}
		for _, p := range view.Pumps {
			opts.PumpIDs = append(opts.PumpIDs, p.ID)
		}
	}
	if pump != "" && (sel.PreselectedPump != "" || containsID(opts.PumpIDs, pump)) {
		if view.Nozzles, err = s.Nozzles.List(ctx, actor, pump, ""); err != nil {
			return nil, err
		}
		for _, n := range view.Nozzles {
			opts.NozzleIDs = append(opts.NozzleIDs, n.ID)
		}
	}

	view.Resolved = selection.Resolve(sel, opts)
	return view, nil
}

func stationListed(stations []models.Station, id string) bool {
	for _, st := range stations {
		if st.ID == id {
			return true
		}
	}
	return false
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
