// Package selection keeps a station → pump → nozzle selection consistent
// with the options available under each parent.
package selection

// Selection is the attendant's current choice. Preselected values arrive from
// navigation (for example a "record reading" link on a nozzle card).
type Selection struct {
	StationID string `json:"stationId"`
	PumpID    string `json:"pumpId"`
	NozzleID  string `json:"nozzleId"`

	PreselectedStation string `json:"preselectedStationId,omitempty"`
	PreselectedPump    string `json:"preselectedPumpId,omitempty"`
	PreselectedNozzle  string `json:"preselectedNozzleId,omitempty"`
}

// Options lists the children of the currently selected station and pump.
type Options struct {
	PumpIDs   []string
	NozzleIDs []string
}

type Locks struct {
	Station bool `json:"station"`
	Pump    bool `json:"pump"`
	Nozzle  bool `json:"nozzle"`
}

type Resolved struct {
	StationID string   `json:"stationId"`
	PumpID    string   `json:"pumpId"`
	NozzleID  string   `json:"nozzleId"`
	Locked    Locks    `json:"locked"`
	Cleared   []string `json:"cleared,omitempty"`
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// Effective applies preselected values over the plain selection.
func (s Selection) Effective() (station, pump, nozzle string) {
	station, pump, nozzle = s.StationID, s.PumpID, s.NozzleID
	if s.PreselectedStation != "" {
		station = s.PreselectedStation
	}
	if s.PreselectedPump != "" {
		pump = s.PreselectedPump
	}
	if s.PreselectedNozzle != "" {
		nozzle = s.PreselectedNozzle
	}
	return station, pump, nozzle
}

// Resolve clears a pump that does not belong to the station's pumps and a
// nozzle that does not belong to the pump's nozzles. Preselected values are
// never cleared and are reported as locked.
func Resolve(s Selection, opts Options) Resolved {
	station, pump, nozzle := s.Effective()
	out := Resolved{
		StationID: station,
		PumpID:    pump,
		NozzleID:  nozzle,
		Locked: Locks{
			Station: s.PreselectedStation != "",
			Pump:    s.PreselectedPump != "",
			Nozzle:  s.PreselectedNozzle != "",
		},
	}

	if out.StationID == "" {
		if !out.Locked.Pump && out.PumpID != "" {
			out.PumpID = ""
			out.Cleared = append(out.Cleared, "pump")
		}
		if !out.Locked.Nozzle && out.NozzleID != "" {
			out.NozzleID = ""
			out.Cleared = append(out.Cleared, "nozzle")
		}
		return out
	}

	if out.PumpID != "" && !out.Locked.Pump && !contains(opts.PumpIDs, out.PumpID) {
		out.PumpID = ""
		out.Cleared = append(out.Cleared, "pump")
	}

	if out.NozzleID != "" && !out.Locked.Nozzle {
		if out.PumpID == "" || !contains(opts.NozzleIDs, out.NozzleID) {
			out.NozzleID = ""
			out.Cleared = append(out.Cleared, "nozzle")
		}
	}

	return out
}
