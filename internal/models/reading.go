package models

import "time"

const (
	PaymentCash   = "cash"
	PaymentCard   = "card"
	PaymentUPI    = "upi"
	PaymentCredit = "credit"
)

func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentUPI, PaymentCredit:
		return true
	}
	return false
}

const (
	ReadingRecorded = "recorded"
	ReadingVoided   = "voided"
)

type NozzleReading struct {
	ID              string    `json:"id"`
	TenantID        string    `json:"-"`
	NozzleID        string    `json:"nozzleId"`
	PumpID          string    `json:"pumpId,omitempty"`
	StationID       string    `json:"stationId,omitempty"`
	NozzleNumber    int       `json:"nozzleNumber,omitempty"`
	FuelType        string    `json:"fuelType,omitempty"`
	Reading         float64   `json:"reading"`
	PreviousReading *float64  `json:"previousReading,omitempty"`
	RecordedAt      time.Time `json:"recordedAt"`
	PaymentMethod   string    `json:"paymentMethod"`
	CreditorID      *string   `json:"creditorId,omitempty"`
	Status          string    `json:"status"`
	VoidReason      string    `json:"voidReason,omitempty"`
	Volume          float64   `json:"volume"`
	Amount          float64   `json:"amount"`
	FuelPrice       float64   `json:"fuelPrice"`
	CreatedBy       string    `json:"createdBy"`
	CreatedAt       time.Time `json:"createdAt"`
}

type Sale struct {
	ID            string    `json:"id"`
	TenantID      string    `json:"-"`
	ReadingID     string    `json:"readingId"`
	NozzleID      string    `json:"nozzleId"`
	StationID     string    `json:"stationId"`
	FuelType      string    `json:"fuelType"`
	Volume        float64   `json:"volume"`
	FuelPrice     float64   `json:"fuelPrice"`
	Amount        float64   `json:"amount"`
	PaymentMethod string    `json:"paymentMethod"`
	CreditorID    *string   `json:"creditorId,omitempty"`
	CreatedBy     string    `json:"createdBy"`
	RecordedAt    time.Time `json:"recordedAt"`
	Status        string    `json:"status"`
}

// CreateReadingRequest is the POST /nozzle-readings body.
type CreateReadingRequest struct {
	NozzleID          string   `json:"nozzleId"`
	Reading           *float64 `json:"reading"`
	RecordedAt        string   `json:"recordedAt"`
	PaymentMethod     string   `json:"paymentMethod"`
	CreditorID        string   `json:"creditorId"`
	ConfirmLargeDelta bool     `json:"confirmLargeDelta"`
}

type VoidReadingRequest struct {
	Reason string `json:"reason"`
}

type ReadingFilter struct {
	StationID string
	PumpID    string
	NozzleID  string
	From      *time.Time
	To        *time.Time
	CreatedBy string
	Limit     int
}

// ReadingCreated is the create response: the stored reading, its sale, and
// any hint produced by validation.
type ReadingCreated struct {
	Reading      *NozzleReading `json:"reading"`
	Sale         *Sale          `json:"sale"`
	FirstReading bool           `json:"firstReading"`
	MeterReset   bool           `json:"meterReset,omitempty"`
	Alerts       []Alert        `json:"alerts,omitempty"`
}

type CanCreateResult struct {
	Allowed     bool     `json:"allowed"`
	Reason      string   `json:"reason,omitempty"`
	LastReading *float64 `json:"lastReading,omitempty"`
	Price       *float64 `json:"price,omitempty"`
}

type ReadingPreviewRequest struct {
	NozzleID string   `json:"nozzleId"`
	Reading  *float64 `json:"reading"`
}
