package models

import "time"

type Creditor struct {
	ID            string    `json:"id"`
	TenantID      string    `json:"-"`
	PartyName     string    `json:"partyName"`
	ContactNumber string    `json:"contactNumber"`
	Address       string    `json:"address"`
	CreditLimit   float64   `json:"creditLimit"`
	Balance       float64   `json:"outstandingAmount"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Utilization is balance/limit, zero for creditors without a limit.
func (c *Creditor) Utilization() float64 {
	if c.CreditLimit <= 0 {
		return 0
	}
	return c.Balance / c.CreditLimit
}

type CreditorRequest struct {
	PartyName     string  `json:"partyName"`
	ContactNumber string  `json:"contactNumber"`
	Address       string  `json:"address"`
	CreditLimit   float64 `json:"creditLimit"`
	Status        string  `json:"status"`
}

type CreditPayment struct {
	ID              string    `json:"id"`
	TenantID        string    `json:"-"`
	CreditorID      string    `json:"creditorId"`
	PartyName       string    `json:"partyName,omitempty"`
	Amount          float64   `json:"amount"`
	PaymentMethod   string    `json:"paymentMethod"`
	ReferenceNumber string    `json:"referenceNumber,omitempty"`
	ReceivedBy      string    `json:"receivedBy"`
	ReceivedAt      time.Time `json:"receivedAt"`
}

type CreditPaymentRequest struct {
	CreditorID      string  `json:"creditorId"`
	Amount          float64 `json:"amount"`
	PaymentMethod   string  `json:"paymentMethod"`
	ReferenceNumber string  `json:"referenceNumber"`
}

// Razorpay settlement of an outstanding creditor balance.
type CreateOrderRequest struct {
	CreditorID string  `json:"creditorId"`
	Amount     float64 `json:"amount"`
}

type CreateOrderResponse struct {
	OrderID  string `json:"orderId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"keyId"`
}

type VerifyPaymentRequest struct {
	CreditorID string  `json:"creditorId"`
	Amount     float64 `json:"amount"`
	OrderID    string  `json:"razorpayOrderId"`
	PaymentID  string  `json:"razorpayPaymentId"`
	Signature  string  `json:"razorpaySignature"`
}
