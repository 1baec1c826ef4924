package handlers

import (
	"fmt"
	"net/http"

	"fuelsync-backend/internal/models"
	"fuelsync-backend/internal/services"
)

// TenantHandler serves tenant and plan administration.
type TenantHandler struct {
	Service *services.TenantService
	Audit   *services.AuditService
}

func NewTenantHandler(s *services.TenantService, audit *services.AuditService) *TenantHandler {
	return &TenantHandler{Service: s, Audit: audit}
}

// CreateTenant creates a tenant together with its first owner.
// POST /v1/admin/tenants
func (h *TenantHandler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req models.CreateTenantRequest
	if !decode(w, r, &req) {
		return
	}
	t, err := h.Service.Create(r.Context(), actor, &req)
	if err == nil {
		recordAction(r, h.Audit, actor, models.AdminActionLog{
			TenantID: t.ID, ActionType: models.ActionCreate, TargetType: "tenant", TargetID: t.ID,
			Description: fmt.Sprintf("Created tenant %s with owner %s", t.Name, req.OwnerEmail),
		})
	}
	respond(w, http.StatusCreated, t, err)
}

// GET /v1/admin/tenants
func (h *TenantHandler) ListTenants(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	list, err := h.Service.List(r.Context(), actor)
	respond(w, http.StatusOK, list, err)
}

// GET /v1/admin/tenants/{id}
func (h *TenantHandler) GetTenant(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	t, err := h.Service.Get(r.Context(), actor, id)
	respond(w, http.StatusOK, t, err)
}

// PATCH /v1/admin/tenants/{id}/status
func (h *TenantHandler) UpdateTenantStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.UpdateTenantStatusRequest
	if !decode(w, r, &req) {
		return
	}
	t, err := h.Service.UpdateStatus(r.Context(), actor, id, req.Status)
	if err == nil {
		recordAction(r, h.Audit, actor, models.AdminActionLog{
			TenantID: id, ActionType: models.ActionStatus, TargetType: "tenant", TargetID: id,
			Description: fmt.Sprintf("Set tenant %s status to %s", t.Name, t.Status),
		})
	}
	respond(w, http.StatusOK, t, err)
}

// Usage reports the caller tenant's consumption against its plan.
// GET /v1/tenant/usage
func (h *TenantHandler) Usage(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	u, err := h.Service.Usage(r.Context(), actor)
	respond(w, http.StatusOK, u, err)
}

// GET /v1/plans
func (h *TenantHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.Service.ListPlans(r.Context())
	respond(w, http.StatusOK, plans, err)
}

// POST /v1/admin/plans
func (h *TenantHandler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req models.CreatePlanRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.Service.CreatePlan(r.Context(), actor, &req)
	if err == nil {
		recordAction(r, h.Audit, actor, models.AdminActionLog{
			ActionType: models.ActionCreate, TargetType: "plan", TargetID: p.ID, Description: "Created plan " + p.Name,
		})
	}
	respond(w, http.StatusCreated, p, err)
}

// PUT /v1/admin/plans/{id}
func (h *TenantHandler) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.CreatePlanRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.Service.UpdatePlan(r.Context(), actor, id, &req)
	if err == nil {
		recordAction(r, h.Audit, actor, models.AdminActionLog{
			ActionType: models.ActionUpdate, TargetType: "plan", TargetID: id, Description: "Updated plan " + p.Name,
		})
	}
	respond(w, http.StatusOK, p, err)
}

// DELETE /v1/admin/plans/{id}
func (h *TenantHandler) DeletePlan(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	err := h.Service.DeletePlan(r.Context(), actor, id)
	if err == nil {
		recordAction(r, h.Audit, actor, models.AdminActionLog{
			ActionType: models.ActionDelete, TargetType: "plan", TargetID: id, Description: "Deleted plan",
		})
	}
	respond(w, http.StatusOK, map[string]string{"message": "Plan deleted"}, err)
}
