package models

import "time"

// Admin action types.
const (
	ActionCreate        = "CREATE"
	ActionUpdate        = "UPDATE"
	ActionDelete        = "DELETE"
	ActionStatus        = "STATUS"
	ActionVoid          = "VOID"
	ActionResetPassword = "RESET_PASSWORD"
)

// Login steps.
const (
	LoginStepPassword = "password"
	LoginStepTOTP     = "2fa"
)

// LoginLog is one attempt on the login or 2FA endpoint.
type LoginLog struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenantId,omitempty"`
	UserID    string    `json:"userId,omitempty"`
	Email     string    `json:"email"`
	Success   bool      `json:"success"`
	Step      string    `json:"step"`
	Reason    string    `json:"reason,omitempty"`
	IPAddress string    `json:"ipAddress,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// AdminActionLog records a change made by an owner, manager or superadmin.
type AdminActionLog struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenantId,omitempty"`
	ActorID     string    `json:"actorId"`
	ActorName   string    `json:"actorName,omitempty"`
	ActorRole   string    `json:"actorRole"`
	ActionType  string    `json:"actionType"`
	TargetType  string    `json:"targetType"`
	TargetID    string    `json:"targetId,omitempty"`
	Description string    `json:"description"`
	IPAddress   string    `json:"ipAddress,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
