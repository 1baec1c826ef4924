package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"fuelsync-backend/internal/models"

	razorpay "github.com/razorpay/razorpay-go"
	log "github.com/sirupsen/logrus"
)

// RazorpayService settles creditor balances online. An order carries the
// tenant and creditor in its notes; a verified payment is recorded as a
// upi credit payment referenced by the Razorpay payment id.
type RazorpayService struct {
	Creditors *CreditorService

	keyID         string
	keySecret     string
	webhookSecret string
}

func NewRazorpayService(keyID, keySecret, webhookSecret string, creditors *CreditorService) *RazorpayService {
	return &RazorpayService{
		Creditors:     creditors,
		keyID:         keyID,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
	}
}

// getClient returns nil when credentials are not configured
func (s *RazorpayService) getClient() *razorpay.Client {
	if s.keyID == "" || s.keySecret == "" {
		return nil
	}
	return razorpay.NewClient(s.keyID, s.keySecret)
}

func (s *RazorpayService) Enabled() bool {
	return s.getClient() != nil
}

// CreateOrder opens a Razorpay order for part or all of a creditor's balance.
func (s *RazorpayService) CreateOrder(ctx context.Context, actor models.Actor, req *models.CreateOrderRequest) (*models.CreateOrderResponse, error) {
	client := s.getClient()
	if client == nil {
		return nil, validationf("online payments are not configured")
	}
	if req.Amount <= 0 {
		return nil, validationf("amount must be positive")
	}
	if !validID(req.CreditorID) {
		return nil, validationf("creditorId is required")
	}
	creditor, err := s.Creditors.Get(ctx, actor, req.CreditorID)
	if err != nil {
		return nil, parentRef(err, "creditor")
	}
	if req.Amount > creditor.Balance {
		return nil, validationf("amount exceeds outstanding balance")
	}

	amountPaise := int64(math.Round(req.Amount * 100))
	orderData := map[string]interface{}{
		"amount":   amountPaise,
		"currency": "INR",
		"receipt":  fmt.Sprintf("cr_%s_%d", creditor.ID[:8], time.Now().Unix()),
		"notes": map[string]interface{}{
			"tenant_id":   actor.TenantID,
			"creditor_id": creditor.ID,
		},
	}

	order, err := client.Order.Create(orderData, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create razorpay order: %w", err)
	}
	orderID, _ := order["id"].(string)

	log.Printf("[Razorpay] Order %s created for creditor %s (%d paise)", orderID, creditor.ID, amountPaise)
	return &models.CreateOrderResponse{
		OrderID:  orderID,
		Amount:   amountPaise,
		Currency: "INR",
		KeyID:    s.keyID,
	}, nil
}

// signature is the hex HMAC-SHA256 Razorpay uses for checkout callbacks.
func signature(secret, orderID, paymentID string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(h.Sum(nil))
}

func verifySignature(secret, orderID, paymentID, sig string) bool {
	if secret == "" {
		return false
	}
	return hmac.Equal([]byte(signature(secret, orderID, paymentID)), []byte(sig))
}

// VerifyPayment checks the checkout signature and records the payment.
func (s *RazorpayService) VerifyPayment(ctx context.Context, actor models.Actor, req *models.VerifyPaymentRequest) (*models.CreditPayment, error) {
	if !verifySignature(s.keySecret, req.OrderID, req.PaymentID, req.Signature) {
		return nil, validationf("invalid payment signature")
	}
	return s.settleOrder(ctx, actor, req.OrderID, req.PaymentID)
}

// settleOrder reads tenant, creditor and amount back from the order so the
// client cannot change them.
func (s *RazorpayService) settleOrder(ctx context.Context, actor models.Actor, orderID, paymentID string) (*models.CreditPayment, error) {
	client := s.getClient()
	if client == nil {
		return nil, validationf("online payments are not configured")
	}
	order, err := client.Order.Fetch(orderID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch razorpay order: %w", err)
	}
	notes, _ := order["notes"].(map[string]interface{})
	tenantID, _ := notes["tenant_id"].(string)
	creditorID, _ := notes["creditor_id"].(string)
	amountPaise, _ := order["amount"].(float64)

	if tenantID == "" || creditorID == "" {
		return nil, validationf("order %s is not a creditor settlement", orderID)
	}
	if actor.TenantID != "" && actor.TenantID != tenantID {
		return nil, fmt.Errorf("%w: order belongs to another tenant", models.ErrForbidden)
	}
	actor.TenantID = tenantID

	p, err := s.Creditors.RecordPayment(ctx, actor, &models.CreditPaymentRequest{
		CreditorID:      creditorID,
		Amount:          amountPaise / 100,
		PaymentMethod:   models.PaymentUPI,
		ReferenceNumber: paymentID,
	})
	if errors.Is(err, models.ErrConflict) {
		log.Printf("[Razorpay] Payment already processed: %s", paymentID)
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	log.Printf("[Razorpay] Payment %s settled %.2f for creditor %s", paymentID, p.Amount, creditorID)
	return p, nil
}

// VerifyWebhookSignature checks the X-Razorpay-Signature header.
func (s *RazorpayService) VerifyWebhookSignature(body []byte, sig string) bool {
	if s.webhookSecret == "" {
		return false
	}
	h := hmac.New(sha256.New, []byte(s.webhookSecret))
	h.Write(body)
	expected := hex.EncodeToString(h.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(sig))
}

// ProcessWebhook records captured payments that never went through VerifyPayment.
func (s *RazorpayService) ProcessWebhook(ctx context.Context, event string, payload map[string]interface{}) error {
	if event != "payment.captured" {
		log.Printf("[Razorpay] Unhandled webhook event: %s", event)
		return nil
	}
	paymentEntity, ok := payload["payment"].(map[string]interface{})
	if !ok {
		paymentEntity = payload
	}
	entity, ok := paymentEntity["entity"].(map[string]interface{})
	if !ok {
		entity = paymentEntity
	}
	orderID, _ := entity["order_id"].(string)
	paymentID, _ := entity["id"].(string)
	if orderID == "" || paymentID == "" {
		return fmt.Errorf("missing order_id in webhook")
	}

	_, err := s.settleOrder(ctx, models.Actor{}, orderID, paymentID)
	if errors.Is(err, models.ErrConflict) {
		return nil
	}
	return err
}
