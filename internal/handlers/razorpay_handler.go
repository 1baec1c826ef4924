package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"fuelsync-backend/internal/models"
	"fuelsync-backend/internal/services"
	"fuelsync-backend/pkg/utils"

	log "github.com/sirupsen/logrus"
)

type RazorpayHandler struct {
	Service *services.RazorpayService
}

func NewRazorpayHandler(service *services.RazorpayService) *RazorpayHandler {
	return &RazorpayHandler{Service: service}
}

// CheckPaymentStatus reports whether online settlement is configured.
// GET /v1/payments/status
func (h *RazorpayHandler) CheckPaymentStatus(w http.ResponseWriter, r *http.Request) {
	utils.Success(w, http.StatusOK, map[string]bool{"enabled": h.Service.Enabled()})
}

// CreateOrder opens a Razorpay order against a creditor's balance.
// POST /v1/payments/create-order
func (h *RazorpayHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req models.CreateOrderRequest
	if !decode(w, r, &req) {
		return
	}
	order, err := h.Service.CreateOrder(r.Context(), actor, &req)
	respond(w, http.StatusCreated, order, err)
}

// VerifyPayment checks the checkout signature and records the payment.
// POST /v1/payments/verify
func (h *RazorpayHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req models.VerifyPaymentRequest
	if !decode(w, r, &req) {
		return
	}
	payment, err := h.Service.VerifyPayment(r.Context(), actor, &req)
	respond(w, http.StatusOK, payment, err)
}

// HandleWebhook processes Razorpay webhook events
// POST /v1/payments/webhook
func (h *RazorpayHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		log.Printf("[Razorpay] Failed to read webhook body: %v", err)
		utils.Error(w, http.StatusBadRequest, "Failed to read body")
		return
	}

	signature := r.Header.Get("X-Razorpay-Signature")
	if !h.Service.VerifyWebhookSignature(body, signature) {
		log.Printf("[Razorpay] Invalid webhook signature")
		utils.Error(w, http.StatusUnauthorized, "Invalid signature")
		return
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Printf("[Razorpay] Failed to parse webhook: %v", err)
		utils.Error(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	event, _ := payload["event"].(string)
	payloadData, _ := payload["payload"].(map[string]interface{})
	log.Printf("[Razorpay] Received webhook: %s", event)

	// Acknowledge regardless so Razorpay does not retry known failures.
	if err := h.Service.ProcessWebhook(r.Context(), event, payloadData); err != nil {
		log.Errorf("[Razorpay] Webhook processing error: %v", err)
	}
	utils.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
