package cache

import "sort"

const (
	Stations  = "stations"
	Pumps     = "pumps"
	Nozzles   = "nozzles"
	Readings  = "readings"
	Dashboard = "dashboard"

	station = "station"
	pump    = "pump"
	nozzle  = "nozzle"
)

type Op int

const (
	Create Op = iota
	Update
	Delete
)

// ListKey is the key of a list of resource filtered by parent ("" for all).
func ListKey(tenant, resource, parent string) string {
	if parent == "" {
		parent = "all"
	}
	return tenant + ":" + resource + ":" + parent
}

// ItemKey is the key of a single row.
func ItemKey(tenant, resource, id string) string {
	return tenant + ":" + resource + ":id:" + id
}

// DashboardKey caches one dashboard aggregate.
func DashboardKey(tenant, name string) string {
	return tenant + ":" + Dashboard + ":" + name
}

func StationKey(tenant, id string) string { return ItemKey(tenant, station, id) }
func PumpKey(tenant, id string) string    { return ItemKey(tenant, pump, id) }
func NozzleKey(tenant, id string) string  { return ItemKey(tenant, nozzle, id) }

// Invalidation lists exact keys and glob patterns to drop after a mutation.
type Invalidation struct {
	Keys     []string
	Patterns []string
}

func (inv *Invalidation) add(keys ...string) {
	inv.Keys = append(inv.Keys, keys...)
}

func (inv Invalidation) normalized() Invalidation {
	sort.Strings(inv.Keys)
	sort.Strings(inv.Patterns)
	return inv
}

// StationChanged: station lists include pump counts, so every op drops the list.
// Deletes cascade to pumps, nozzles, readings and sales.
func StationChanged(tenant string, op Op, id string) Invalidation {
	inv := Invalidation{}
	inv.add(ListKey(tenant, Stations, ""))
	if op != Create {
		inv.add(StationKey(tenant, id))
	}
	if op == Delete {
		inv.add(ListKey(tenant, Pumps, id), ListKey(tenant, Pumps, ""))
		inv.Patterns = append(inv.Patterns,
			tenant+":"+Nozzles+":*",
			tenant+":"+pump+":id:*",
			tenant+":"+nozzle+":id:*",
			tenant+":"+Readings+":*",
			tenant+":"+Dashboard+":*",
		)
	}
	return inv.normalized()
}

// PumpChanged invalidates the pump lists and the owning station's aggregate.
func PumpChanged(tenant string, op Op, id, stationID string) Invalidation {
	inv := Invalidation{}
	inv.add(
		ListKey(tenant, Pumps, stationID),
		ListKey(tenant, Pumps, ""),
		StationKey(tenant, stationID),
	)
	if op != Update {
		inv.add(ListKey(tenant, Stations, ""))
	}
	if op != Create {
		inv.add(PumpKey(tenant, id))
	}
	if op == Delete {
		inv.add(ListKey(tenant, Nozzles, id), ListKey(tenant, Nozzles, ""))
		inv.Patterns = append(inv.Patterns,
			tenant+":"+nozzle+":id:*",
			tenant+":"+Readings+":*",
			tenant+":"+Dashboard+":*",
		)
	}
	return inv.normalized()
}

// NozzleChanged invalidates the nozzle lists and the owning pump's aggregate.
func NozzleChanged(tenant string, op Op, id, pumpID, stationID string) Invalidation {
	inv := Invalidation{}
	inv.add(
		ListKey(tenant, Nozzles, pumpID),
		ListKey(tenant, Nozzles, ""),
		PumpKey(tenant, pumpID),
	)
	if op != Update {
		inv.add(ListKey(tenant, Pumps, stationID), ListKey(tenant, Pumps, ""), StationKey(tenant, stationID))
	}
	if op != Create {
		inv.add(NozzleKey(tenant, id))
	}
	if op == Delete {
		inv.add(ListKey(tenant, Readings, id), ListKey(tenant, Readings, ""))
		inv.Patterns = append(inv.Patterns, tenant+":"+Dashboard+":*")
	}
	return inv.normalized()
}

// ReadingChanged covers both create and void.
func ReadingChanged(tenant, nozzleID string) Invalidation {
	inv := Invalidation{
		Patterns: []string{tenant + ":" + Dashboard + ":*"},
	}
	inv.add(
		ListKey(tenant, Readings, nozzleID),
		ListKey(tenant, Readings, ""),
		NozzleKey(tenant, nozzleID),
	)
	return inv.normalized()
}
