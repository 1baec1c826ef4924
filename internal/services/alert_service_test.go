package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"fuelsync-backend/internal/models"
	"fuelsync-backend/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memAlerts serves fixed rule output and dedupes inserts on unread keys.
type memAlerts struct {
	results map[string][]repositories.AlertCandidate
	failing map[string]bool
	unread  map[string]bool
	stored  []models.Alert

	jumpRatio float64
	since     time.Time
	date      string
}

func newMemAlerts() *memAlerts {
	return &memAlerts{
		results: map[string][]repositories.AlertCandidate{},
		failing: map[string]bool{},
		unread:  map[string]bool{},
	}
}

func (m *memAlerts) rule(name string) ([]repositories.AlertCandidate, error) {
	if m.failing[name] {
		return nil, errors.New("boom")
	}
	return m.results[name], nil
}

func (m *memAlerts) Insert(ctx context.Context, a *models.Alert, key string) (bool, error) {
	if m.unread[key] {
		return false, nil
	}
	m.unread[key] = true
	a.ID = key
	m.stored = append(m.stored, *a)
	return true, nil
}

func (m *memAlerts) List(ctx context.Context, tenantID string, f models.AlertFilter) ([]models.Alert, error) {
	return m.stored, nil
}

func (m *memAlerts) CountUnread(ctx context.Context, tenantID string) (int, error) {
	return len(m.unread), nil
}

func (m *memAlerts) MarkRead(ctx context.Context, tenantID, id string) error {
	if !m.unread[id] {
		return models.ErrNotFound
	}
	delete(m.unread, id)
	return nil
}

func (m *memAlerts) Delete(ctx context.Context, tenantID, id string) error { return nil }

func (m *memAlerts) NoRecentReadings(ctx context.Context, tenantID string, since time.Time) ([]repositories.AlertCandidate, error) {
	m.since = since
	return m.rule(models.AlertNoReadings)
}

func (m *memAlerts) MissingPrices(ctx context.Context, tenantID string, at time.Time) ([]repositories.AlertCandidate, error) {
	return m.rule(models.AlertMissingPrice)
}

func (m *memAlerts) CreditorsNearLimit(ctx context.Context, tenantID string, ratio float64) ([]repositories.AlertCandidate, error) {
	return m.rule(models.AlertCreditNearLimit)
}

func (m *memAlerts) InactiveStations(ctx context.Context, tenantID string, since time.Time) ([]repositories.AlertCandidate, error) {
	return m.rule(models.AlertStationInactive)
}

func (m *memAlerts) PumpsInMaintenance(ctx context.Context, tenantID string, before time.Time) ([]repositories.AlertCandidate, error) {
	return m.rule(models.AlertPumpMaintenance)
}

func (m *memAlerts) ReadingJumps(ctx context.Context, tenantID string, ratio float64) ([]repositories.AlertCandidate, error) {
	m.jumpRatio = ratio
	return m.rule(models.AlertReadingJump)
}

func (m *memAlerts) MissingCashReports(ctx context.Context, tenantID, date string) ([]repositories.AlertCandidate, error) {
	m.date = date
	return m.rule(models.AlertNoCashReport)
}

type staticTenants []string

func (s staticTenants) ActiveIDs(ctx context.Context) ([]string, error) { return s, nil }

func candidate(alertType, key string) repositories.AlertCandidate {
	return repositories.AlertCandidate{
		Alert:     models.Alert{AlertType: alertType, Message: alertType, Severity: models.SeverityWarning},
		DedupeKey: key,
	}
}

func newAlertFixture() (*AlertService, *memAlerts, *recordingNotifier) {
	store := newMemAlerts()
	notifier := &recordingNotifier{}
	svc := &AlertService{
		Store:           store,
		Tenants:         staticTenants{testTenant},
		Notifier:        notifier,
		CreditWarnRatio: 0.9,
		now:             fixedNow,
	}
	return svc, store, notifier
}

func TestAlertService_EvaluateDedupes(t *testing.T) {
	svc, store, notifier := newAlertFixture()
	store.results[models.AlertReadingJump] = []repositories.AlertCandidate{candidate(models.AlertReadingJump, "reading_jump:n1")}
	store.results[models.AlertNoCashReport] = []repositories.AlertCandidate{candidate(models.AlertNoCashReport, "no_cash_report:s1:2025-03-10")}

	raised, err := svc.Evaluate(context.Background(), testTenant)
	require.NoError(t, err)
	assert.Len(t, raised, 2)
	assert.Len(t, notifier.alerts, 2)
	assert.Equal(t, testTenant, raised[0].TenantID)

	// the same conditions again raise nothing while unread
	raised, err = svc.Evaluate(context.Background(), testTenant)
	require.NoError(t, err)
	assert.Empty(t, raised)
	assert.Len(t, notifier.alerts, 2)

	require.NoError(t, svc.MarkRead(context.Background(), testActor, "reading_jump:n1"))
	raised, err = svc.Evaluate(context.Background(), testTenant)
	require.NoError(t, err)
	require.Len(t, raised, 1)
	assert.Equal(t, models.AlertReadingJump, raised[0].AlertType)
}

func TestAlertService_RuleParameters(t *testing.T) {
	svc, store, _ := newAlertFixture()
	_, err := svc.Evaluate(context.Background(), testTenant)
	require.NoError(t, err)

	assert.Equal(t, fixedNow().Add(-24*time.Hour), store.since)
	assert.Equal(t, 0.2, store.jumpRatio)
	assert.Equal(t, "2025-03-10", store.date)
}

func TestAlertService_FailingRuleDoesNotStopOthers(t *testing.T) {
	svc, store, _ := newAlertFixture()
	store.failing[models.AlertMissingPrice] = true
	store.results[models.AlertStationInactive] = []repositories.AlertCandidate{candidate(models.AlertStationInactive, "station_inactive:s1")}

	raised, err := svc.Evaluate(context.Background(), testTenant)
	require.NoError(t, err)
	assert.Len(t, raised, 1)
}

func TestAlertService_RunNowRequiresManager(t *testing.T) {
	svc, _, _ := newAlertFixture()
	_, err := svc.RunNow(context.Background(), testActor)
	assert.ErrorIs(t, err, models.ErrForbidden)

	manager := testActor
	manager.Role = models.RoleManager
	raised, err := svc.RunNow(context.Background(), manager)
	require.NoError(t, err)
	assert.NotNil(t, raised)
}

func TestAlertService_Schedule(t *testing.T) {
	svc, _, _ := newAlertFixture()
	c, err := svc.Schedule(context.Background(), "@every 1h")
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 1)

	_, err = svc.Schedule(context.Background(), "not a schedule")
	assert.Error(t, err)
}
