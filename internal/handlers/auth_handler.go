package handlers

import (
	"net/http"
	"strings"

	"fuelsync-backend/internal/middleware"
	"fuelsync-backend/internal/models"
	"fuelsync-backend/internal/services"
	"fuelsync-backend/pkg/utils"

	log "github.com/sirupsen/logrus"
)

type AuthHandler struct {
	Service *services.UserService
	TOTP    *services.TOTPService
	Audit   *services.AuditService
}

func NewAuthHandler(s *services.UserService, totp *services.TOTPService, audit *services.AuditService) *AuthHandler {
	return &AuthHandler{Service: s, TOTP: totp, Audit: audit}
}

func (h *AuthHandler) recordLogin(r *http.Request, entry models.LoginLog) {
	entry.IPAddress = getIPAddress(r)
	entry.UserAgent = r.UserAgent()
	h.Audit.RecordLogin(r.Context(), entry)
}

// Login authenticates a tenant user, or the superadmin when no tenant
// header is sent.
// POST /v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decode(w, r, &req) {
		return
	}
	tenantID := strings.TrimSpace(r.Header.Get(middleware.TenantHeader))

	authResp, step1, err := h.Service.Login(r.Context(), tenantID, &req)
	if err != nil {
		log.WithField("ip", getIPAddress(r)).Warnf("[Auth] Login failed for %s: %v", req.Email, err)
		h.recordLogin(r, models.LoginLog{TenantID: tenantID, Email: req.Email, Reason: err.Error()})
		utils.ErrorFrom(w, err)
		return
	}
	if step1 != nil {
		utils.Success(w, http.StatusOK, step1)
		return
	}
	log.Infof("[Auth] %s logged in from %s", authResp.User.Email, getIPAddress(r))
	h.recordLogin(r, models.LoginLog{
		TenantID: authResp.User.TenantID, UserID: authResp.User.ID, Email: authResp.User.Email, Success: true,
	})
	utils.Success(w, http.StatusOK, authResp)
}

// VerifyTOTP completes a two-step login.
// POST /v1/auth/verify-2fa
func (h *AuthHandler) VerifyTOTP(w http.ResponseWriter, r *http.Request) {
	var req models.TOTPVerifyRequest
	if !decode(w, r, &req) {
		return
	}
	authResp, err := h.Service.VerifyTOTP(r.Context(), &req)
	if err != nil {
		h.recordLogin(r, models.LoginLog{Step: models.LoginStepTOTP, Reason: err.Error()})
		utils.ErrorFrom(w, err)
		return
	}
	h.recordLogin(r, models.LoginLog{
		TenantID: authResp.User.TenantID, UserID: authResp.User.ID, Email: authResp.User.Email,
		Success: true, Step: models.LoginStepTOTP,
	})
	utils.Success(w, http.StatusOK, authResp)
}

// GET /v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	user, err := h.Service.Me(r.Context(), actor)
	respond(w, http.StatusOK, user, err)
}

// POST /v1/auth/change-password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req models.ChangePasswordRequest
	if !decode(w, r, &req) {
		return
	}
	err := h.Service.ChangePassword(r.Context(), actor, &req)
	respond(w, http.StatusOK, map[string]string{"message": "Password updated"}, err)
}

// SetupTOTP issues a new secret and QR code; 2FA stays off until enabled.
// POST /v1/auth/2fa/setup
func (h *AuthHandler) SetupTOTP(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	setup, err := h.TOTP.GenerateSetup(r.Context(), actor)
	respond(w, http.StatusOK, setup, err)
}

// POST /v1/auth/2fa/enable
func (h *AuthHandler) EnableTOTP(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req models.TOTPCodeRequest
	if !decode(w, r, &req) {
		return
	}
	err := h.TOTP.Enable(r.Context(), actor, req.Code)
	respond(w, http.StatusOK, map[string]bool{"totpEnabled": true}, err)
}

// POST /v1/auth/2fa/disable
func (h *AuthHandler) DisableTOTP(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req models.TOTPDisableRequest
	if !decode(w, r, &req) {
		return
	}
	err := h.TOTP.Disable(r.Context(), actor, req.Password, req.Code)
	respond(w, http.StatusOK, map[string]bool{"totpEnabled": false}, err)
}

// getIPAddress extracts the client address, preferring the first
// X-Forwarded-For hop.
func getIPAddress(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
