package models

import "time"

type FuelPrice struct {
	ID          string     `json:"id"`
	TenantID    string     `json:"-"`
	StationID   string     `json:"stationId"`
	StationName string     `json:"stationName,omitempty"`
	FuelType    string     `json:"fuelType"`
	Price       float64    `json:"price"`
	ValidFrom   time.Time  `json:"validFrom"`
	EffectiveTo *time.Time `json:"effectiveTo,omitempty"`
	CreatedBy   string     `json:"createdBy,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type FuelPriceRequest struct {
	StationID string  `json:"stationId"`
	FuelType  string  `json:"fuelType"`
	Price     float64 `json:"price"`
	ValidFrom string  `json:"validFrom"`
}

// CurrentPrice picks the entry in force at t: the greatest validFrom not
// after t whose effectiveTo is unset or later than t. Returns nil when none.
func CurrentPrice(prices []FuelPrice, t time.Time) *FuelPrice {
	var best *FuelPrice
	for i := range prices {
		p := &prices[i]
		if p.ValidFrom.After(t) {
			continue
		}
		if p.EffectiveTo != nil && !p.EffectiveTo.After(t) {
			continue
		}
		if best == nil || p.ValidFrom.After(best.ValidFrom) {
			best = p
		}
	}
	return best
}
