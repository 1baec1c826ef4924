package handlers

import (
	"fmt"
	"net/http"

	"fuelsync-backend/internal/models"
	"fuelsync-backend/internal/services"
)

type UserHandler struct {
	Service *services.UserService
	Audit   *services.AuditService
}

func NewUserHandler(s *services.UserService, audit *services.AuditService) *UserHandler {
	return &UserHandler{Service: s, Audit: audit}
}

// POST /v1/users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req models.CreateUserRequest
	if !decode(w, r, &req) {
		return
	}
	user, err := h.Service.Create(r.Context(), actor, &req)
	if err == nil {
		recordAction(r, h.Audit, actor, models.AdminActionLog{
			ActionType: models.ActionCreate, TargetType: "user", TargetID: user.ID,
			Description: fmt.Sprintf("Created %s %s", user.Role, user.Email),
		})
	}
	respond(w, http.StatusCreated, user, err)
}

// GET /v1/users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	users, err := h.Service.List(r.Context(), actor)
	respond(w, http.StatusOK, users, err)
}

// GET /v1/users/{id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	user, err := h.Service.Get(r.Context(), actor, id)
	respond(w, http.StatusOK, user, err)
}

// PUT /v1/users/{id}
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.UpdateUserRequest
	if !decode(w, r, &req) {
		return
	}
	user, err := h.Service.Update(r.Context(), actor, id, &req)
	if err == nil {
		recordAction(r, h.Audit, actor, models.AdminActionLog{
			ActionType: models.ActionUpdate, TargetType: "user", TargetID: id,
			Description: fmt.Sprintf("Updated %s (role %s, active %t)", user.Email, user.Role, user.IsActive),
		})
	}
	respond(w, http.StatusOK, user, err)
}

// DELETE /v1/users/{id}
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	err := h.Service.Delete(r.Context(), actor, id)
	if err == nil {
		recordAction(r, h.Audit, actor, models.AdminActionLog{
			ActionType: models.ActionDelete, TargetType: "user", TargetID: id, Description: "Deleted user",
		})
	}
	respond(w, http.StatusOK, map[string]string{"message": "User deleted"}, err)
}

// ResetPassword sets another user's password.
// POST /v1/users/{id}/reset-password
func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.ResetPasswordRequest
	if !decode(w, r, &req) {
		return
	}
	err := h.Service.ResetPassword(r.Context(), actor, id, req.NewPassword)
	if err == nil {
		recordAction(r, h.Audit, actor, models.AdminActionLog{
			ActionType: models.ActionResetPassword, TargetType: "user", TargetID: id, Description: "Reset password",
		})
	}
	respond(w, http.StatusOK, map[string]string{"message": "Password reset"}, err)
}
