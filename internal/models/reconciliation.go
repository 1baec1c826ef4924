package models

import "time"

type DayReconciliation struct {
	ID           string     `json:"id"`
	TenantID     string     `json:"-"`
	StationID    string     `json:"stationId"`
	Date         string     `json:"date"`
	TotalSales   float64    `json:"totalSales"`
	TotalVolume  float64    `json:"totalVolume"`
	CashTotal    float64    `json:"cashTotal"`
	CardTotal    float64    `json:"cardTotal"`
	UPITotal     float64    `json:"upiTotal"`
	CreditTotal  float64    `json:"creditTotal"`
	ReportedCash float64    `json:"reportedCash"`
	Difference   float64    `json:"difference"`
	Finalized    bool       `json:"finalized"`
	FinalizedBy  string     `json:"finalizedBy,omitempty"`
	FinalizedAt  *time.Time `json:"finalizedAt,omitempty"`
}

type ReconciliationRequest struct {
	StationID string `json:"stationId"`
	Date      string `json:"date"`
}

// PaymentTotals are sales of one station-day grouped by payment method.
type PaymentTotals struct {
	Volume float64
	Cash   float64
	Card   float64
	UPI    float64
	Credit float64
}

func (p PaymentTotals) Total() float64 {
	return p.Cash + p.Card + p.UPI + p.Credit
}

type CashReport struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"-"`
	StationID    string    `json:"stationId"`
	UserID       string    `json:"userId"`
	Date         string    `json:"date"`
	CashAmount   float64   `json:"cashAmount"`
	CreditAmount float64   `json:"creditAmount"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type CashReportRequest struct {
	StationID    string  `json:"stationId"`
	Date         string  `json:"date"`
	CashAmount   float64 `json:"cashAmount"`
	CreditAmount float64 `json:"creditAmount"`
	Notes        string  `json:"notes"`
}
