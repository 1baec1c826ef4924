package handlers

import (
	"net/http"

	"fuelsync-backend/internal/models"
	"fuelsync-backend/internal/services"
)

type CreditorHandler struct {
	Service *services.CreditorService
}

func NewCreditorHandler(s *services.CreditorService) *CreditorHandler {
	return &CreditorHandler{Service: s}
}

// POST /v1/creditors
func (h *CreditorHandler) CreateCreditor(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req models.CreditorRequest
	if !decode(w, r, &req) {
		return
	}
	c, err := h.Service.Create(r.Context(), actor, &req)
	respond(w, http.StatusCreated, c, err)
}

// GET /v1/creditors?active=true
func (h *CreditorHandler) ListCreditors(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	list, err := h.Service.List(r.Context(), actor, r.URL.Query().Get("active") == "true")
	respond(w, http.StatusOK, list, err)
}

// GET /v1/creditors/{id}
func (h *CreditorHandler) GetCreditor(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	c, err := h.Service.Get(r.Context(), actor, id)
	respond(w, http.StatusOK, c, err)
}

// PUT /v1/creditors/{id}
func (h *CreditorHandler) UpdateCreditor(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.CreditorRequest
	if !decode(w, r, &req) {
		return
	}
	c, err := h.Service.Update(r.Context(), actor, id, &req)
	respond(w, http.StatusOK, c, err)
}

// DeleteCreditor marks the creditor inactive.
// DELETE /v1/creditors/{id}
func (h *CreditorHandler) DeleteCreditor(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	err := h.Service.Delete(r.Context(), actor, id)
	respond(w, http.StatusOK, map[string]string{"message": "Creditor deactivated"}, err)
}

// POST /v1/credit-payments
func (h *CreditorHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req models.CreditPaymentRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.Service.RecordPayment(r.Context(), actor, &req)
	respond(w, http.StatusCreated, p, err)
}

// GET /v1/credit-payments?creditorId=
func (h *CreditorHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	creditorID, ok := queryID(w, r, "creditorId")
	if !ok {
		return
	}
	list, err := h.Service.ListPayments(r.Context(), actor, creditorID)
	respond(w, http.StatusOK, list, err)
}
