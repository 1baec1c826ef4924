package services

import (
	"context"
	"errors"
	"testing"

	"fuelsync-backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memAudit struct {
	logins  []models.LoginLog
	actions []models.AdminActionLog
	tenant  string
	limit   int
	fail    bool
}

func (m *memAudit) CreateLoginLog(ctx context.Context, l *models.LoginLog) error {
	if m.fail {
		return errors.New("db down")
	}
	m.logins = append(m.logins, *l)
	return nil
}

func (m *memAudit) ListLoginLogs(ctx context.Context, tenantID string, limit int) ([]models.LoginLog, error) {
	m.tenant, m.limit = tenantID, limit
	return m.logins, nil
}

func (m *memAudit) CreateActionLog(ctx context.Context, l *models.AdminActionLog) error {
	if m.fail {
		return errors.New("db down")
	}
	m.actions = append(m.actions, *l)
	return nil
}

func (m *memAudit) ListActionLogs(ctx context.Context, tenantID string, limit int) ([]models.AdminActionLog, error) {
	m.tenant, m.limit = tenantID, limit
	return m.actions, nil
}

func TestAuditService_RecordLogin(t *testing.T) {
	store := &memAudit{}
	svc := NewAuditService(store, store)

	svc.RecordLogin(context.Background(), models.LoginLog{TenantID: "acme", Email: "a@b.co", Reason: "bad password"})
	svc.RecordLogin(context.Background(), models.LoginLog{TenantID: testTenant, Email: "a@b.co", Success: true, Step: models.LoginStepTOTP})

	require.Len(t, store.logins, 2)
	assert.Empty(t, store.logins[0].TenantID, "non-uuid tenant header is not stored")
	assert.Equal(t, models.LoginStepPassword, store.logins[0].Step)
	assert.Equal(t, testTenant, store.logins[1].TenantID)
	assert.Equal(t, models.LoginStepTOTP, store.logins[1].Step)
}

func TestAuditService_RecordAction(t *testing.T) {
	store := &memAudit{}
	svc := NewAuditService(store, store)
	owner := models.Actor{UserID: uuid.NewString(), TenantID: testTenant, Role: models.RoleOwner}

	svc.RecordAction(context.Background(), owner, models.AdminActionLog{
		ActionType: models.ActionVoid, TargetType: "nozzle_reading", TargetID: "r1",
	})
	otherTenant := uuid.NewString()
	svc.RecordAction(context.Background(), models.Actor{UserID: uuid.NewString(), Role: models.RoleSuperAdmin},
		models.AdminActionLog{ActionType: models.ActionStatus, TargetType: "tenant", TenantID: otherTenant})

	require.Len(t, store.actions, 2)
	assert.Equal(t, owner.UserID, store.actions[0].ActorID)
	assert.Equal(t, models.RoleOwner, store.actions[0].ActorRole)
	assert.Equal(t, testTenant, store.actions[0].TenantID)
	assert.Equal(t, otherTenant, store.actions[1].TenantID)
}

func TestAuditService_WritesNeverFail(t *testing.T) {
	var nilSvc *AuditService
	assert.NotPanics(t, func() {
		nilSvc.RecordLogin(context.Background(), models.LoginLog{})
		nilSvc.RecordAction(context.Background(), testActor, models.AdminActionLog{})
	})

	svc := NewAuditService(&memAudit{fail: true}, &memAudit{fail: true})
	assert.NotPanics(t, func() {
		svc.RecordLogin(context.Background(), models.LoginLog{})
	})
}

func TestAuditService_ListScope(t *testing.T) {
	ctx := context.Background()
	store := &memAudit{}
	svc := NewAuditService(store, store)

	_, err := svc.ListLogins(ctx, testActor, 10)
	assert.True(t, errors.Is(err, models.ErrForbidden), "attendants cannot read the audit trail")

	manager := models.Actor{UserID: uuid.NewString(), TenantID: testTenant, Role: models.RoleManager}
	_, err = svc.ListActions(ctx, manager, 0)
	require.NoError(t, err)
	assert.Equal(t, testTenant, store.tenant)
	assert.Equal(t, 100, store.limit)

	_, err = svc.ListLogins(ctx, models.Actor{UserID: uuid.NewString(), Role: models.RoleSuperAdmin}, 5000)
	require.NoError(t, err)
	assert.Empty(t, store.tenant)
	assert.Equal(t, 500, store.limit)
}
