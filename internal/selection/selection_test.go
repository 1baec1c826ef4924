package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveKeepsPumpOfStation(t *testing.T) {
	got := Resolve(
		Selection{StationID: "s1", PumpID: "p1", NozzleID: "n1"},
		Options{PumpIDs: []string{"p1", "p2"}, NozzleIDs: []string{"n1"}},
	)
	assert.Equal(t, "p1", got.PumpID)
	assert.Equal(t, "n1", got.NozzleID)
	assert.Empty(t, got.Cleared)
}

func TestResolveClearsOrphanPump(t *testing.T) {
	// station changed to s2 whose pumps do not include p1
	got := Resolve(
		Selection{StationID: "s2", PumpID: "p1", NozzleID: "n1"},
		Options{PumpIDs: []string{"p7"}},
	)
	assert.Equal(t, "s2", got.StationID)
	assert.Empty(t, got.PumpID)
	assert.Empty(t, got.NozzleID)
	assert.Equal(t, []string{"pump", "nozzle"}, got.Cleared)
}

func TestResolveClearsOrphanNozzle(t *testing.T) {
	got := Resolve(
		Selection{StationID: "s1", PumpID: "p2", NozzleID: "n1"},
		Options{PumpIDs: []string{"p1", "p2"}, NozzleIDs: []string{"n5"}},
	)
	assert.Equal(t, "p2", got.PumpID)
	assert.Empty(t, got.NozzleID)
	assert.Equal(t, []string{"nozzle"}, got.Cleared)
}

func TestResolvePreselectedIsLocked(t *testing.T) {
	got := Resolve(
		Selection{StationID: "s2", PreselectedPump: "p1", PreselectedNozzle: "n1"},
		Options{PumpIDs: []string{"p7"}},
	)
	assert.Equal(t, "p1", got.PumpID)
	assert.Equal(t, "n1", got.NozzleID)
	assert.True(t, got.Locked.Pump)
	assert.True(t, got.Locked.Nozzle)
	assert.False(t, got.Locked.Station)
	assert.Empty(t, got.Cleared)
}

func TestResolveNoStation(t *testing.T) {
	got := Resolve(Selection{PumpID: "p1"}, Options{})
	assert.Empty(t, got.PumpID)
	assert.Equal(t, []string{"pump"}, got.Cleared)
}
