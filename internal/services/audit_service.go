package services

import (
	"context"
	"fmt"

	"fuelsync-backend/internal/models"

	log "github.com/sirupsen/logrus"
)

type LoginLogStore interface {
	CreateLoginLog(ctx context.Context, l *models.LoginLog) error
	ListLoginLogs(ctx context.Context, tenantID string, limit int) ([]models.LoginLog, error)
}

type ActionLogStore interface {
	CreateActionLog(ctx context.Context, l *models.AdminActionLog) error
	ListActionLogs(ctx context.Context, tenantID string, limit int) ([]models.AdminActionLog, error)
}

// AuditService keeps the login history and the admin action trail. Writes
// never fail the request that caused them; a nil service records nothing.
type AuditService struct {
	Logins  LoginLogStore
	Actions ActionLogStore
}

func NewAuditService(logins LoginLogStore, actions ActionLogStore) *AuditService {
	return &AuditService{Logins: logins, Actions: actions}
}

const (
	defaultAuditLimit = 100
	maxAuditLimit     = 500
)

func (s *AuditService) RecordLogin(ctx context.Context, entry models.LoginLog) {
	if s == nil || s.Logins == nil {
		return
	}
	if !validID(entry.TenantID) {
		entry.TenantID = ""
	}
	if entry.Step == "" {
		entry.Step = models.LoginStepPassword
	}
	if err := s.Logins.CreateLoginLog(ctx, &entry); err != nil {
		log.Warnf("[Audit] Failed to record login for %s: %v", entry.Email, err)
	}
}

// RecordAction stamps entry with the actor. The actor's tenant is used
// unless the entry names the tenant it acted on.
func (s *AuditService) RecordAction(ctx context.Context, actor models.Actor, entry models.AdminActionLog) {
	if s == nil || s.Actions == nil {
		return
	}
	entry.ActorID = actor.UserID
	entry.ActorRole = actor.Role
	if entry.TenantID == "" {
		entry.TenantID = actor.TenantID
	}
	if err := s.Actions.CreateActionLog(ctx, &entry); err != nil {
		log.Warnf("[Audit] Failed to record %s %s: %v", entry.ActionType, entry.TargetType, err)
	}
}

// auditTenant is the tenant whose history actor may read. The superadmin
// without a tenant header reads every tenant.
func auditTenant(actor models.Actor) (string, error) {
	if !actor.CanManage() {
		return "", fmt.Errorf("%w: audit history requires a manager", models.ErrForbidden)
	}
	if !actor.IsSuperadmin() && actor.TenantID == "" {
		return "", fmt.Errorf("%w: tenant required", models.ErrForbidden)
	}
	return actor.TenantID, nil
}

func auditLimit(limit int) int {
	if limit <= 0 {
		return defaultAuditLimit
	}
	if limit > maxAuditLimit {
		return maxAuditLimit
	}
	return limit
}

func (s *AuditService) ListLogins(ctx context.Context, actor models.Actor, limit int) ([]models.LoginLog, error) {
	tenantID, err := auditTenant(actor)
	if err != nil {
		return nil, err
	}
	return s.Logins.ListLoginLogs(ctx, tenantID, auditLimit(limit))
}

func (s *AuditService) ListActions(ctx context.Context, actor models.Actor, limit int) ([]models.AdminActionLog, error) {
	tenantID, err := auditTenant(actor)
	if err != nil {
		return nil, err
	}
	return s.Actions.ListActionLogs(ctx, tenantID, auditLimit(limit))
}
