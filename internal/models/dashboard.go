package models

import "time"

type SalesSummary struct {
	Range        string  `json:"range"`
	TotalSales   float64 `json:"totalSales"`
	TotalVolume  float64 `json:"totalVolume"`
	Transactions int     `json:"transactionCount"`
	CreditSales  float64 `json:"creditSales"`
}

type PaymentMethodBreakdown struct {
	PaymentMethod string  `json:"paymentMethod"`
	Amount        float64 `json:"amount"`
	Percentage    float64 `json:"percentage"`
}

type FuelTypeBreakdown struct {
	FuelType string  `json:"fuelType"`
	Volume   float64 `json:"volume"`
	Amount   float64 `json:"amount"`
}

type TopCreditor struct {
	ID          string  `json:"id"`
	PartyName   string  `json:"partyName"`
	Outstanding float64 `json:"outstandingAmount"`
	CreditLimit float64 `json:"creditLimit"`
}

type DailyTrend struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
	Volume float64 `json:"volume"`
}

type HourlySales struct {
	Hour         int     `json:"hour"`
	Amount       float64 `json:"amount"`
	Volume       float64 `json:"volume"`
	Transactions int     `json:"transactions"`
}

type FuelPerformance struct {
	FuelType     string  `json:"fuelType"`
	Volume       float64 `json:"volume"`
	Amount       float64 `json:"amount"`
	AveragePrice float64 `json:"averagePrice"`
	Transactions int     `json:"transactions"`
}

type SystemHealth struct {
	CPUPercent    float64 `json:"cpuPercent"`
	MemoryPercent float64 `json:"memoryPercent"`
	DiskPercent   float64 `json:"diskPercent"`
	Uptime        uint64  `json:"uptimeSeconds"`
	Database      string  `json:"database"`
	Cache         string  `json:"cache"`
}

type PlatformCounts struct {
	Tenants       int `json:"tenants"`
	ActiveTenants int `json:"activeTenants"`
	Users         int `json:"users"`
	Stations      int `json:"stations"`
}

// Dashboard is the role-dependent composition served by GET /dashboard.
// Sections not visible to the caller's role are omitted.
type Dashboard struct {
	Role           string                   `json:"role"`
	GeneratedAt    time.Time                `json:"generatedAt"`
	Summary        *SalesSummary            `json:"summary,omitempty"`
	PaymentMethods []PaymentMethodBreakdown `json:"paymentMethods,omitempty"`
	FuelTypes      []FuelTypeBreakdown      `json:"fuelTypes,omitempty"`
	StationRanking []StationRanking         `json:"stationRanking,omitempty"`
	TopCreditors   []TopCreditor            `json:"topCreditors,omitempty"`
	RecentReadings []NozzleReading          `json:"recentReadings,omitempty"`
	Platform       *PlatformCounts          `json:"platform,omitempty"`
	SystemHealth   *SystemHealth            `json:"systemHealth,omitempty"`
}

// SalesFilter scopes dashboard aggregates.
type SalesFilter struct {
	StationID  string
	StationIDs []string
	From       time.Time
	To         time.Time
}

type PeakHour struct {
	Hour         int     `json:"hour"`
	Label        string  `json:"label"`
	Amount       float64 `json:"amount"`
	Transactions int     `json:"transactions"`
}
