package models

import "time"

const (
	StatusActive      = "active"
	StatusInactive    = "inactive"
	StatusMaintenance = "maintenance"
)

// ValidEquipmentStatus covers stations, pumps and nozzles.
func ValidEquipmentStatus(s string) bool {
	return s == StatusActive || s == StatusInactive || s == StatusMaintenance
}

const (
	FuelPetrol  = "petrol"
	FuelDiesel  = "diesel"
	FuelPremium = "premium"
)

func ValidFuelType(f string) bool {
	return f == FuelPetrol || f == FuelDiesel || f == FuelPremium
}

type Station struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"-"`
	Name        string    `json:"name"`
	Address     string    `json:"address"`
	Status      string    `json:"status"`
	PumpCount   int       `json:"pumpCount"`
	NozzleCount int       `json:"nozzleCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Pump struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"-"`
	StationID    string    `json:"stationId"`
	StationName  string    `json:"stationName,omitempty"`
	Name         string    `json:"name"`
	SerialNumber string    `json:"serialNumber"`
	Status       string    `json:"status"`
	NozzleCount  int       `json:"nozzleCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Nozzle struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"-"`
	PumpID       string    `json:"pumpId"`
	StationID    string    `json:"stationId"`
	NozzleNumber int       `json:"nozzleNumber"`
	FuelType     string    `json:"fuelType"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type StationRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Status  string `json:"status"`
}

type PumpRequest struct {
	StationID    string `json:"stationId"`
	Name         string `json:"name"`
	SerialNumber string `json:"serialNumber"`
	Status       string `json:"status"`
}

type NozzleRequest struct {
	PumpID       string `json:"pumpId"`
	NozzleNumber int    `json:"nozzleNumber"`
	FuelType     string `json:"fuelType"`
	Status       string `json:"status"`
}

// StationMetrics summarises a station's sales for today and the current month.
type StationMetrics struct {
	StationID     string  `json:"stationId"`
	TodaySales    float64 `json:"todaySales"`
	TodayVolume   float64 `json:"todayVolume"`
	MonthlySales  float64 `json:"monthlySales"`
	MonthlyVolume float64 `json:"monthlyVolume"`
	ActivePumps   int     `json:"activePumps"`
	TotalPumps    int     `json:"totalPumps"`
}

type StationRanking struct {
	StationID    string  `json:"stationId"`
	StationName  string  `json:"stationName"`
	TotalSales   float64 `json:"totalSales"`
	TotalVolume  float64 `json:"totalVolume"`
	Transactions int     `json:"transactions"`
	Rank         int     `json:"rank"`
}
