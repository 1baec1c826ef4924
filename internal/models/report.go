package models

import "time"

const (
	ReportCSV  = "csv"
	ReportXLSX = "xlsx"
	ReportPDF  = "pdf"
)

func ValidReportFormat(f string) bool {
	return f == ReportCSV || f == ReportXLSX || f == ReportPDF
}

// SalesReportRow is one recorded sale as it appears in exported reports.
type SalesReportRow struct {
	RecordedAt    time.Time `json:"recordedAt"`
	StationName   string    `json:"stationName"`
	PumpName      string    `json:"pumpName"`
	NozzleNumber  int       `json:"nozzleNumber"`
	FuelType      string    `json:"fuelType"`
	Volume        float64   `json:"volume"`
	FuelPrice     float64   `json:"fuelPrice"`
	Amount        float64   `json:"amount"`
	PaymentMethod string    `json:"paymentMethod"`
	Creditor      string    `json:"creditor,omitempty"`
}

type ReportRequest struct {
	StationID string
	From      time.Time
	To        time.Time
	Format    string
}

type ReportArchive struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"-"`
	Format    string    `json:"format"`
	ObjectKey string    `json:"objectKey"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

// ReportFile is a rendered report ready to be streamed to the client.
type ReportFile struct {
	Name        string
	ContentType string
	Data        []byte
	ObjectKey   string
}
