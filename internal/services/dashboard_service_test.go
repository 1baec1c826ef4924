package services

import (
	"context"
	"testing"
	"time"

	"fuelsync-backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSales struct {
	filters []models.SalesFilter
	hours   []models.HourlySales
}

func (f *fakeSales) Summary(ctx context.Context, tenantID string, sf models.SalesFilter) (*models.SalesSummary, error) {
	f.filters = append(f.filters, sf)
	return &models.SalesSummary{TotalSales: 500, TotalVolume: 5, Transactions: 2}, nil
}

func (f *fakeSales) PaymentMethods(ctx context.Context, tenantID string, sf models.SalesFilter) ([]models.PaymentMethodBreakdown, error) {
	return []models.PaymentMethodBreakdown{{PaymentMethod: models.PaymentCash, Amount: 500, Percentage: 100}}, nil
}

func (f *fakeSales) FuelTypes(ctx context.Context, tenantID string, sf models.SalesFilter) ([]models.FuelTypeBreakdown, error) {
	return []models.FuelTypeBreakdown{{FuelType: models.FuelPetrol, Volume: 5, Amount: 500}}, nil
}

func (f *fakeSales) DailyTrend(ctx context.Context, tenantID string, sf models.SalesFilter) ([]models.DailyTrend, error) {
	f.filters = append(f.filters, sf)
	return nil, nil
}

func (f *fakeSales) Hourly(ctx context.Context, tenantID string, sf models.SalesFilter) ([]models.HourlySales, error) {
	f.filters = append(f.filters, sf)
	return f.hours, nil
}

func (f *fakeSales) FuelPerformance(ctx context.Context, tenantID string, sf models.SalesFilter) ([]models.FuelPerformance, error) {
	return nil, nil
}

type fakeRankings struct{}

func (fakeRankings) Ranking(ctx context.Context, tenantID, metric string, from time.Time) ([]models.StationRanking, error) {
	return []models.StationRanking{{StationID: testStation, Rank: 1}}, nil
}

func (fakeRankings) Top(ctx context.Context, tenantID string, limit int) ([]models.TopCreditor, error) {
	return []models.TopCreditor{{ID: "c1", PartyName: "Acme", Outstanding: 900, CreditLimit: 1000}}, nil
}

func (fakeRankings) PlatformCounts(ctx context.Context) (*models.PlatformCounts, error) {
	return &models.PlatformCounts{Tenants: 3, ActiveTenants: 2}, nil
}

func (fakeRankings) Collect(ctx context.Context) *models.SystemHealth {
	return &models.SystemHealth{Database: "healthy", Cache: "disabled"}
}

type fakeRecent struct {
	filter models.ReadingFilter
}

func (f *fakeRecent) InTx(ctx context.Context, fn func(ReadingTx) error) error { return nil }

func (f *fakeRecent) List(ctx context.Context, tenantID string, rf models.ReadingFilter) ([]models.NozzleReading, error) {
	f.filter = rf
	return []models.NozzleReading{{ID: "r1", Reading: 1050}}, nil
}

func (f *fakeRecent) Get(ctx context.Context, tenantID, id string) (*models.NozzleReading, error) {
	return nil, models.ErrNotFound
}

// fixedScope gives attendants a fixed station list.
type fixedScope []string

func (s fixedScope) Stations(ctx context.Context, actor models.Actor) ([]string, error) {
	if actor.Role != models.RoleAttendant {
		return nil, nil
	}
	return s, nil
}

func newDashboardFixture() (*DashboardService, *fakeSales, *fakeRecent) {
	sales := &fakeSales{}
	recent := &fakeRecent{}
	svc := NewDashboardService(sales, fakeRankings{}, fakeRankings{}, fakeRankings{}, recent, fakeRankings{},
		fixedScope{testStation}, time.Minute)
	svc.now = fixedNow
	return svc, sales, recent
}

func TestDashboardService_ComposeByRole(t *testing.T) {
	ctx := context.Background()

	t.Run("owner", func(t *testing.T) {
		svc, _, _ := newDashboardFixture()
		d, err := svc.Compose(ctx, models.Actor{UserID: "u", TenantID: testTenant, Role: models.RoleOwner})
		require.NoError(t, err)
		assert.NotNil(t, d.Summary)
		assert.NotEmpty(t, d.PaymentMethods)
		assert.NotEmpty(t, d.FuelTypes)
		assert.NotEmpty(t, d.StationRanking)
		assert.NotEmpty(t, d.TopCreditors)
		assert.Nil(t, d.SystemHealth)
		assert.Empty(t, d.RecentReadings)
	})

	t.Run("attendant", func(t *testing.T) {
		svc, sales, recent := newDashboardFixture()
		d, err := svc.Compose(ctx, testActor)
		require.NoError(t, err)
		assert.NotNil(t, d.Summary)
		assert.Len(t, d.RecentReadings, 1)
		assert.Empty(t, d.TopCreditors)
		assert.Empty(t, d.StationRanking)
		assert.Equal(t, testActor.UserID, recent.filter.CreatedBy)
		require.NotEmpty(t, sales.filters)
		assert.Equal(t, []string{testStation}, sales.filters[0].StationIDs)
	})

	t.Run("superadmin", func(t *testing.T) {
		svc, _, _ := newDashboardFixture()
		d, err := svc.Compose(ctx, models.Actor{UserID: "root", Role: models.RoleSuperAdmin})
		require.NoError(t, err)
		require.NotNil(t, d.Platform)
		assert.Equal(t, 3, d.Platform.Tenants)
		assert.NotNil(t, d.SystemHealth)
		assert.Nil(t, d.Summary)
	})

	t.Run("unknown role", func(t *testing.T) {
		svc, _, _ := newDashboardFixture()
		_, err := svc.Compose(ctx, models.Actor{UserID: "x", TenantID: testTenant, Role: "guest"})
		assert.ErrorIs(t, err, models.ErrForbidden)
	})
}

func TestDashboardService_AttendantCannotReadOtherStation(t *testing.T) {
	svc, _, _ := newDashboardFixture()
	_, err := svc.Summary(context.Background(), testActor, "daily", uuid.NewString())
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = svc.Summary(context.Background(), testActor, "fortnightly", "")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestDashboardService_PeakHour(t *testing.T) {
	svc, sales, _ := newDashboardFixture()
	sales.hours = []models.HourlySales{
		{Hour: 8, Amount: 1200, Transactions: 4},
		{Hour: 18, Amount: 3400, Transactions: 9},
		{Hour: 23, Amount: 300, Transactions: 1},
	}
	owner := models.Actor{UserID: "u", TenantID: testTenant, Role: models.RoleOwner}

	peak, err := svc.PeakHour(context.Background(), owner, "2025-03-09", "")
	require.NoError(t, err)
	require.NotNil(t, peak)
	assert.Equal(t, 18, peak.Hour)
	assert.Equal(t, "18:00-19:00", peak.Label)

	sales.hours = nil
	peak, err = svc.PeakHour(context.Background(), owner, "", "")
	require.NoError(t, err)
	assert.Nil(t, peak)

	_, err = svc.PeakHour(context.Background(), owner, "09/03/2025", "")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestDashboardService_DailyTrendWindow(t *testing.T) {
	svc, sales, _ := newDashboardFixture()
	owner := models.Actor{UserID: "u", TenantID: testTenant, Role: models.RoleOwner}

	_, err := svc.DailyTrend(context.Background(), owner, 7, "")
	require.NoError(t, err)
	require.Len(t, sales.filters, 1)
	assert.Equal(t, "2025-03-04", sales.filters[0].From.Format("2006-01-02"))

	_, err = svc.DailyTrend(context.Background(), owner, 400, "")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestDashboardService_SystemHealthSuperadminOnly(t *testing.T) {
	svc, _, _ := newDashboardFixture()
	_, err := svc.SystemHealth(context.Background(), models.Actor{TenantID: testTenant, Role: models.RoleOwner})
	assert.ErrorIs(t, err, models.ErrForbidden)

	h, err := svc.SystemHealth(context.Background(), models.Actor{Role: models.RoleSuperAdmin})
	require.NoError(t, err)
	assert.Equal(t, "healthy", h.Database)
}
