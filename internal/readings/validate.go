// Package readings validates a nozzle totalizer value against the nozzle's
// last recorded reading and derives dispensed volume and sale amount.
package readings

import (
	"fmt"
	"math"
)

// Outcome of validating a candidate reading.
type Outcome int

const (
	Accepted Outcome = iota
	NeedsConfirmation
	Rejected
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case NeedsConfirmation:
		return "needs_confirmation"
	default:
		return "rejected"
	}
}

const (
	DefaultConfirmDelta        = 10000
	DefaultMeterResetThreshold = 10000
)

type Options struct {
	// ConfirmDelta is the largest increase accepted without explicit confirmation.
	ConfirmDelta float64
	// MeterResetThreshold: a decreasing reading below this value is flagged
	// as a probable meter reset.
	MeterResetThreshold float64
}

func DefaultOptions() Options {
	return Options{ConfirmDelta: DefaultConfirmDelta, MeterResetThreshold: DefaultMeterResetThreshold}
}

type Result struct {
	Outcome      Outcome  `json:"-"`
	Status       string   `json:"status"`
	Reason       string   `json:"reason,omitempty"`
	FirstReading bool     `json:"firstReading"`
	MeterReset   bool     `json:"meterReset"`
	LastReading  *float64 `json:"lastReading,omitempty"`
	Delta        float64  `json:"delta"`
}

func result(o Outcome, reason string) Result {
	return Result{Outcome: o, Status: o.String(), Reason: reason}
}

// Validate checks candidate against last (nil when the nozzle has no reading).
// A decreasing reading is always rejected; MeterReset only annotates the rejection.
func Validate(candidate *float64, last *float64, opts Options) Result {
	if candidate == nil {
		return result(Rejected, "reading is required")
	}
	r := *candidate
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return result(Rejected, "reading must be a number")
	}
	if r < 0 {
		return result(Rejected, "reading must not be negative")
	}
	if last == nil {
		res := result(Accepted, "")
		res.FirstReading = true
		return res
	}

	l := *last
	delta := r - l
	if delta < 0 {
		res := result(Rejected, fmt.Sprintf("reading %.3f is below the last reading %.3f", r, l))
		res.MeterReset = r > 0 && r < opts.MeterResetThreshold
		res.LastReading = last
		res.Delta = delta
		return res
	}
	if delta > opts.ConfirmDelta {
		res := result(NeedsConfirmation, fmt.Sprintf("reading increases by %.3f, above %.0f", delta, opts.ConfirmDelta))
		res.LastReading = last
		res.Delta = delta
		return res
	}

	res := result(Accepted, "")
	res.LastReading = last
	res.Delta = delta
	return res
}

// Round3 rounds a volume to millilitre precision.
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// Round2 rounds an amount to paise.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Derive returns the dispensed volume and its value at price.
func Derive(reading, last, price float64) (volume, amount float64) {
	volume = Round3(reading - last)
	amount = Round2(volume * price)
	return volume, amount
}
