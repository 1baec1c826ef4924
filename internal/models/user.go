package models

import "time"

const (
	RoleSuperAdmin = "superadmin"
	RoleOwner      = "owner"
	RoleManager    = "manager"
	RoleAttendant  = "attendant"
)

// ValidRole reports whether role may be assigned to a tenant user.
func ValidRole(role string) bool {
	switch role {
	case RoleOwner, RoleManager, RoleAttendant:
		return true
	}
	return false
}

type User struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenantId,omitempty"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"isActive"`
	TOTPEnabled  bool      `json:"totpEnabled"`
	TOTPSecret   string    `json:"-"`
	StationIDs   []string  `json:"stationIds,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// LoginStep1Response is returned when the account has TOTP enabled.
type LoginStep1Response struct {
	Requires2FA bool   `json:"requires2fa"`
	TempToken   string `json:"tempToken"`
}

type CreateUserRequest struct {
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Password   string   `json:"password"`
	Role       string   `json:"role"`
	StationIDs []string `json:"stationIds"`
}

type UpdateUserRequest struct {
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Password   string   `json:"password,omitempty"`
	Role       string   `json:"role"`
	IsActive   *bool    `json:"isActive,omitempty"`
	StationIDs []string `json:"stationIds"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type ResetPasswordRequest struct {
	NewPassword string `json:"newPassword"`
}
