package models

import "time"

type FuelDelivery struct {
	ID            string    `json:"id"`
	TenantID      string    `json:"-"`
	StationID     string    `json:"stationId"`
	FuelType      string    `json:"fuelType"`
	Volume        float64   `json:"volume"`
	DeliveredAt   time.Time `json:"deliveredAt"`
	Supplier      string    `json:"supplier"`
	InvoiceNumber string    `json:"invoiceNumber"`
	CreatedBy     string    `json:"createdBy"`
}

type FuelDeliveryRequest struct {
	StationID     string  `json:"stationId"`
	FuelType      string  `json:"fuelType"`
	Volume        float64 `json:"volume"`
	DeliveredAt   string  `json:"deliveredAt"`
	Supplier      string  `json:"supplier"`
	InvoiceNumber string  `json:"invoiceNumber"`
}

type InventoryLevel struct {
	StationID    string  `json:"stationId"`
	FuelType     string  `json:"fuelType"`
	Delivered    float64 `json:"delivered"`
	Sold         float64 `json:"sold"`
	CurrentStock float64 `json:"currentStock"`
}
