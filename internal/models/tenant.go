package models

import "time"

const (
	TenantActive    = "active"
	TenantSuspended = "suspended"
	TenantCancelled = "cancelled"
)

type Plan struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	MaxStations        int       `json:"maxStations"`
	MaxPumpsPerStation int       `json:"maxPumpsPerStation"`
	MaxNozzlesPerPump  int       `json:"maxNozzlesPerPump"`
	PriceMonthly       float64   `json:"priceMonthly"`
	PriceYearly        float64   `json:"priceYearly"`
	Features           []string  `json:"features"`
	CreatedAt          time.Time `json:"createdAt"`
}

type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	PlanID    string    `json:"planId"`
	PlanName  string    `json:"planName,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type CreatePlanRequest struct {
	Name               string   `json:"name"`
	MaxStations        int      `json:"maxStations"`
	MaxPumpsPerStation int      `json:"maxPumpsPerStation"`
	MaxNozzlesPerPump  int      `json:"maxNozzlesPerPump"`
	PriceMonthly       float64  `json:"priceMonthly"`
	PriceYearly        float64  `json:"priceYearly"`
	Features           []string `json:"features"`
}

// CreateTenantRequest also provisions the tenant's first owner account.
type CreateTenantRequest struct {
	Name          string `json:"name"`
	PlanID        string `json:"planId"`
	OwnerName     string `json:"ownerName"`
	OwnerEmail    string `json:"ownerEmail"`
	OwnerPassword string `json:"ownerPassword"`
}

type UpdateTenantStatusRequest struct {
	Status string `json:"status"`
}

// PlanUsage is the tenant's current consumption against its plan.
type PlanUsage struct {
	Plan     Plan `json:"plan"`
	Stations int  `json:"stations"`
}
