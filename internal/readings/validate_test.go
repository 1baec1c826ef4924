package readings

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func f(v float64) *float64 { return &v }

func TestValidate(t *testing.T) {
	opts := DefaultOptions()

	tests := []struct {
		name       string
		candidate  *float64
		last       *float64
		want       Outcome
		first      bool
		meterReset bool
	}{
		{name: "missing", candidate: nil, last: f(1000), want: Rejected},
		{name: "nan", candidate: f(math.NaN()), last: f(1000), want: Rejected},
		{name: "negative", candidate: f(-1), last: nil, want: Rejected},
		{name: "first reading", candidate: f(123456), last: nil, want: Accepted, first: true},
		{name: "first reading zero", candidate: f(0), last: nil, want: Accepted, first: true},
		{name: "below last", candidate: f(950), last: f(1000), want: Rejected, meterReset: true},
		{name: "below last large", candidate: f(15000), last: f(20000), want: Rejected},
		{name: "zero below last", candidate: f(0), last: f(1000), want: Rejected},
		{name: "equal", candidate: f(1000), last: f(1000), want: Accepted},
		{name: "normal increase", candidate: f(1050), last: f(1000), want: Accepted},
		{name: "exactly threshold", candidate: f(11000), last: f(1000), want: Accepted},
		{name: "large increase", candidate: f(12000), last: f(1000), want: NeedsConfirmation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(tt.candidate, tt.last, opts)
			assert.Equal(t, tt.want, res.Outcome)
			assert.Equal(t, tt.want.String(), res.Status)
			assert.Equal(t, tt.first, res.FirstReading)
			assert.Equal(t, tt.meterReset, res.MeterReset)
		})
	}
}

func TestValidateCustomThreshold(t *testing.T) {
	res := Validate(f(1600), f(1000), Options{ConfirmDelta: 500, MeterResetThreshold: 100})
	assert.Equal(t, NeedsConfirmation, res.Outcome)
	assert.InDelta(t, 600, res.Delta, 1e-9)
}

func TestDerive(t *testing.T) {
	volume, amount := Derive(1050.1234, 1000, 100)
	assert.InDelta(t, 50.123, volume, 1e-9)
	assert.InDelta(t, 5012.3, amount, 1e-9)

	volume, amount = Derive(1050, 1000, 96.72)
	assert.InDelta(t, 50, volume, 1e-9)
	assert.InDelta(t, 4836, amount, 1e-9)
}
