package models

import "time"

const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

const (
	AlertNoReadings      = "no_readings_24h"
	AlertMissingPrice    = "missing_fuel_price"
	AlertCreditNearLimit = "credit_near_limit"
	AlertStationInactive = "station_inactive"
	AlertPumpMaintenance = "pump_maintenance_overdue"
	AlertReadingJump     = "reading_jump"
	AlertNoCashReport    = "no_cash_report"
)

type Alert struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenantId"`
	StationID *string   `json:"stationId,omitempty"`
	AlertType string    `json:"alertType"`
	Message   string    `json:"message"`
	Severity  string    `json:"severity"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

type AlertFilter struct {
	StationID  string
	UnreadOnly bool
	Limit      int
}
