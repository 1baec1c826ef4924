package cache

import (
	"context"
	"errors"
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "t1:pumps:all", ListKey("t1", Pumps, ""))
	assert.Equal(t, "t1:pumps:s1", ListKey("t1", Pumps, "s1"))
	assert.Equal(t, "t1:station:id:s1", StationKey("t1", "s1"))
}

func TestPumpCreateInvalidation(t *testing.T) {
	inv := PumpChanged("t1", Create, "p1", "s1")
	assert.ElementsMatch(t, []string{
		"t1:pumps:s1",
		"t1:pumps:all",
		"t1:station:id:s1",
		"t1:stations:all",
	}, inv.Keys)
	assert.Empty(t, inv.Patterns)
}

func TestPumpUpdateInvalidation(t *testing.T) {
	inv := PumpChanged("t1", Update, "p1", "s1")
	assert.ElementsMatch(t, []string{
		"t1:pumps:s1",
		"t1:pumps:all",
		"t1:station:id:s1",
		"t1:pump:id:p1",
	}, inv.Keys)
}

func TestNozzleDeleteInvalidation(t *testing.T) {
	inv := NozzleChanged("t1", Delete, "n1", "p1", "s1")
	assert.ElementsMatch(t, []string{
		"t1:nozzles:p1",
		"t1:nozzles:all",
		"t1:pump:id:p1",
		"t1:pumps:s1",
		"t1:pumps:all",
		"t1:station:id:s1",
		"t1:nozzle:id:n1",
		"t1:readings:n1",
		"t1:readings:all",
	}, inv.Keys)
	assert.Equal(t, []string{"t1:dashboard:*"}, inv.Patterns)
}

func TestStationInvalidation(t *testing.T) {
	assert.Equal(t, []string{"t1:stations:all"}, StationChanged("t1", Create, "s1").Keys)

	inv := StationChanged("t1", Delete, "s1")
	assert.ElementsMatch(t, []string{"t1:stations:all", "t1:station:id:s1", "t1:pumps:s1", "t1:pumps:all"}, inv.Keys)
	assert.ElementsMatch(t, []string{
		"t1:nozzles:*",
		"t1:pump:id:*",
		"t1:nozzle:id:*",
		"t1:readings:*",
		"t1:dashboard:*",
	}, inv.Patterns)
}

// dropped reports whether key is removed by inv, matching patterns the way
// redis SCAN MATCH does for these simple globs.
func dropped(inv Invalidation, key string) bool {
	for _, k := range inv.Keys {
		if k == key {
			return true
		}
	}
	for _, p := range inv.Patterns {
		if ok, _ := path.Match(p, key); ok {
			return true
		}
	}
	return false
}

func TestDeleteInvalidationCoversCascade(t *testing.T) {
	tests := []struct {
		name string
		inv  Invalidation
		keys []string
	}{
		{
			name: "station",
			inv:  StationChanged("t1", Delete, "s1"),
			keys: []string{
				"t1:pump:id:p1", "t1:nozzle:id:n1", "t1:nozzles:p1",
				"t1:readings:all", "t1:readings:n1", "t1:dashboard:summary",
			},
		},
		{
			name: "pump",
			inv:  PumpChanged("t1", Delete, "p1", "s1"),
			keys: []string{"t1:nozzle:id:n1", "t1:readings:all", "t1:readings:n1", "t1:dashboard:summary"},
		},
		{
			name: "nozzle",
			inv:  NozzleChanged("t1", Delete, "n1", "p1", "s1"),
			keys: []string{"t1:nozzle:id:n1", "t1:readings:all", "t1:readings:n1", "t1:dashboard:summary"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range tt.keys {
				assert.True(t, dropped(tt.inv, k), k)
			}
			assert.False(t, dropped(tt.inv, "t2:readings:all"))
		})
	}
}

func TestReadingInvalidation(t *testing.T) {
	inv := ReadingChanged("t1", "n1")
	assert.ElementsMatch(t, []string{"t1:readings:n1", "t1:readings:all", "t1:nozzle:id:n1"}, inv.Keys)
	assert.Equal(t, []string{"t1:dashboard:*"}, inv.Patterns)
}

func TestInvalidationIsTenantScoped(t *testing.T) {
	for _, k := range PumpChanged("t2", Delete, "p1", "s1").Keys {
		assert.Contains(t, k, "t2:")
	}
}

func TestFetchWithoutRedisCallsLoader(t *testing.T) {
	SetClient(nil)
	calls := 0
	load := func(context.Context) ([]string, error) {
		calls++
		return []string{"a"}, nil
	}

	v, err := Fetch(context.Background(), "k", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, v)

	_, err = Fetch(context.Background(), "k", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	_, err = Fetch(context.Background(), "k", time.Minute, func(context.Context) (int, error) {
		return 0, errors.New("boom")
	})
	assert.Error(t, err)
}
