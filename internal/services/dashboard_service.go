package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fuelsync-backend/internal/cache"
	"fuelsync-backend/internal/models"
	"fuelsync-backend/internal/timeutil"

	log "github.com/sirupsen/logrus"
)

// SalesAggregator is implemented by *repositories.DashboardRepository.
type SalesAggregator interface {
	Summary(ctx context.Context, tenantID string, f models.SalesFilter) (*models.SalesSummary, error)
	PaymentMethods(ctx context.Context, tenantID string, f models.SalesFilter) ([]models.PaymentMethodBreakdown, error)
	FuelTypes(ctx context.Context, tenantID string, f models.SalesFilter) ([]models.FuelTypeBreakdown, error)
	DailyTrend(ctx context.Context, tenantID string, f models.SalesFilter) ([]models.DailyTrend, error)
	Hourly(ctx context.Context, tenantID string, f models.SalesFilter) ([]models.HourlySales, error)
	FuelPerformance(ctx context.Context, tenantID string, f models.SalesFilter) ([]models.FuelPerformance, error)
}

type StationRanker interface {
	Ranking(ctx context.Context, tenantID, metric string, from time.Time) ([]models.StationRanking, error)
}

type CreditorRanker interface {
	Top(ctx context.Context, tenantID string, limit int) ([]models.TopCreditor, error)
}

type PlatformCounter interface {
	PlatformCounts(ctx context.Context) (*models.PlatformCounts, error)
}

type HealthCollector interface {
	Collect(ctx context.Context) *models.SystemHealth
}

const (
	topCreditorLimit   = 5
	recentReadingLimit = 10
	maxTrendDays       = 366
)

type DashboardService struct {
	Sales     SalesAggregator
	Stations  StationRanker
	Creditors CreditorRanker
	Platform  PlatformCounter
	Readings  ReadingStore
	Health    HealthCollector
	Scope     StationScope
	TTL       time.Duration

	now func() time.Time
}

func NewDashboardService(sales SalesAggregator, stations StationRanker, creditors CreditorRanker,
	platform PlatformCounter, readings ReadingStore, health HealthCollector, scope StationScope, ttl time.Duration) *DashboardService {
	return &DashboardService{
		Sales:     sales,
		Stations:  stations,
		Creditors: creditors,
		Platform:  platform,
		Readings:  readings,
		Health:    health,
		Scope:     scope,
		TTL:       ttl,
		now:       timeutil.Now,
	}
}

// salesFilter narrows aggregates to the actor's stations and an optional
// single station.
func (s *DashboardService) salesFilter(ctx context.Context, actor models.Actor, stationID string, from, to time.Time) (models.SalesFilter, error) {
	f := models.SalesFilter{StationID: stationID, From: from, To: to}
	if stationID != "" && !validID(stationID) {
		return f, validationf("invalid stationId")
	}
	scope, err := s.Scope.Stations(ctx, actor)
	if err != nil {
		return f, err
	}
	if stationID != "" && !inScope(scope, stationID) {
		return f, fmt.Errorf("%w: station not assigned", models.ErrForbidden)
	}
	f.StationIDs = scope
	return f, nil
}

func (s *DashboardService) rangeFilter(ctx context.Context, actor models.Actor, rangeName, stationID string) (models.SalesFilter, error) {
	from, err := timeutil.RangeStart(rangeName, s.now())
	if err != nil {
		return models.SalesFilter{}, validationf("%v", err)
	}
	return s.salesFilter(ctx, actor, stationID, from, time.Time{})
}

// cacheName is empty for scoped filters, which are never cached.
func cacheName(kind string, f models.SalesFilter, parts ...string) string {
	if f.StationIDs != nil {
		return ""
	}
	return kind + ":" + strings.Join(append(parts, f.StationID), ":")
}

func fetchDashboard[T any](ctx context.Context, s *DashboardService, tenantID, name string, load func(context.Context) (T, error)) (T, error) {
	if name == "" {
		return load(ctx)
	}
	return cache.Fetch(ctx, cache.DashboardKey(tenantID, name), s.TTL, load)
}

func (s *DashboardService) Summary(ctx context.Context, actor models.Actor, rangeName, stationID string) (*models.SalesSummary, error) {
	f, err := s.rangeFilter(ctx, actor, rangeName, stationID)
	if err != nil {
		return nil, err
	}
	if rangeName == "" {
		rangeName = "daily"
	}
	summary, err := fetchDashboard(ctx, s, actor.TenantID, cacheName("summary", f, rangeName),
		func(ctx context.Context) (*models.SalesSummary, error) {
			return s.Sales.Summary(ctx, actor.TenantID, f)
		})
	if err != nil {
		return nil, err
	}
	summary.Range = rangeName
	return summary, nil
}

func (s *DashboardService) PaymentMethods(ctx context.Context, actor models.Actor, rangeName, stationID string) ([]models.PaymentMethodBreakdown, error) {
	f, err := s.rangeFilter(ctx, actor, rangeName, stationID)
	if err != nil {
		return nil, err
	}
	return fetchDashboard(ctx, s, actor.TenantID, cacheName("payments", f, rangeName),
		func(ctx context.Context) ([]models.PaymentMethodBreakdown, error) {
			return s.Sales.PaymentMethods(ctx, actor.TenantID, f)
		})
}

func (s *DashboardService) FuelTypes(ctx context.Context, actor models.Actor, rangeName, stationID string) ([]models.FuelTypeBreakdown, error) {
	f, err := s.rangeFilter(ctx, actor, rangeName, stationID)
	if err != nil {
		return nil, err
	}
	return fetchDashboard(ctx, s, actor.TenantID, cacheName("fuel", f, rangeName),
		func(ctx context.Context) ([]models.FuelTypeBreakdown, error) {
			return s.Sales.FuelTypes(ctx, actor.TenantID, f)
		})
}

func (s *DashboardService) TopCreditors(ctx context.Context, actor models.Actor, limit int) ([]models.TopCreditor, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 50 {
		limit = topCreditorLimit
	}
	return s.Creditors.Top(ctx, actor.TenantID, limit)
}

// DailyTrend covers the last n days including today.
func (s *DashboardService) DailyTrend(ctx context.Context, actor models.Actor, days int, stationID string) ([]models.DailyTrend, error) {
	if days <= 0 {
		days = 7
	}
	if days > maxTrendDays {
		return nil, validationf("days must be at most %d", maxTrendDays)
	}
	from := timeutil.StartOfDay(s.now()).AddDate(0, 0, -(days - 1))
	f, err := s.salesFilter(ctx, actor, stationID, from, time.Time{})
	if err != nil {
		return nil, err
	}
	return fetchDashboard(ctx, s, actor.TenantID, cacheName("trend", f, fmt.Sprint(days)),
		func(ctx context.Context) ([]models.DailyTrend, error) {
			return s.Sales.DailyTrend(ctx, actor.TenantID, f)
		})
}

// dayFilter selects one IST business day, today when date is empty.
func (s *DashboardService) dayFilter(ctx context.Context, actor models.Actor, date, stationID string) (models.SalesFilter, error) {
	day := timeutil.StartOfDay(s.now())
	if date != "" {
		d, err := timeutil.ParseDate(date)
		if err != nil {
			return models.SalesFilter{}, validationf("invalid date %q", date)
		}
		day = d
	}
	return s.salesFilter(ctx, actor, stationID, day, timeutil.EndOfDay(day))
}

func (s *DashboardService) Hourly(ctx context.Context, actor models.Actor, date, stationID string) ([]models.HourlySales, error) {
	f, err := s.dayFilter(ctx, actor, date, stationID)
	if err != nil {
		return nil, err
	}
	return s.Sales.Hourly(ctx, actor.TenantID, f)
}

// PeakHour is the hour with the highest sales amount; nil when nothing sold.
func (s *DashboardService) PeakHour(ctx context.Context, actor models.Actor, date, stationID string) (*models.PeakHour, error) {
	hours, err := s.Hourly(ctx, actor, date, stationID)
	if err != nil {
		return nil, err
	}
	return peakHour(hours), nil
}

func peakHour(hours []models.HourlySales) *models.PeakHour {
	var peak *models.PeakHour
	for _, h := range hours {
		if peak == nil || h.Amount > peak.Amount {
			peak = &models.PeakHour{Hour: h.Hour, Amount: h.Amount, Transactions: h.Transactions}
		}
	}
	if peak != nil {
		peak.Label = fmt.Sprintf("%02d:00-%02d:00", peak.Hour, (peak.Hour+1)%24)
	}
	return peak
}

func (s *DashboardService) FuelPerformance(ctx context.Context, actor models.Actor, rangeName, stationID string) ([]models.FuelPerformance, error) {
	f, err := s.rangeFilter(ctx, actor, rangeName, stationID)
	if err != nil {
		return nil, err
	}
	return s.Sales.FuelPerformance(ctx, actor.TenantID, f)
}

func (s *DashboardService) SystemHealth(ctx context.Context, actor models.Actor) (*models.SystemHealth, error) {
	if !actor.IsSuperadmin() {
		return nil, fmt.Errorf("%w: superadmin only", models.ErrForbidden)
	}
	return s.Health.Collect(ctx), nil
}

// Compose builds the dashboard the caller's role is allowed to see.
func (s *DashboardService) Compose(ctx context.Context, actor models.Actor) (*models.Dashboard, error) {
	d := &models.Dashboard{Role: actor.Role, GeneratedAt: s.now()}
	var err error

	switch {
	case actor.IsSuperadmin():
		if d.Platform, err = s.Platform.PlatformCounts(ctx); err != nil {
			return nil, err
		}
		d.SystemHealth = s.Health.Collect(ctx)

	case actor.CanManage():
		if d.Summary, err = s.Summary(ctx, actor, "daily", ""); err != nil {
			return nil, err
		}
		if d.PaymentMethods, err = s.PaymentMethods(ctx, actor, "daily", ""); err != nil {
			return nil, err
		}
		if d.FuelTypes, err = s.FuelTypes(ctx, actor, "daily", ""); err != nil {
			return nil, err
		}
		from, _ := timeutil.RangeStart("monthly", s.now())
		if d.StationRanking, err = s.Stations.Ranking(ctx, actor.TenantID, "sales", from); err != nil {
			return nil, err
		}
		if d.TopCreditors, err = s.Creditors.Top(ctx, actor.TenantID, topCreditorLimit); err != nil {
			return nil, err
		}

	case actor.Role == models.RoleAttendant:
		if d.Summary, err = s.Summary(ctx, actor, "daily", ""); err != nil {
			return nil, err
		}
		if d.RecentReadings, err = s.Readings.List(ctx, actor.TenantID, models.ReadingFilter{
			CreatedBy: actor.UserID,
			Limit:     recentReadingLimit,
		}); err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("%w: unknown role %q", models.ErrForbidden, actor.Role)
	}

	log.Debugf("[Dashboard] Composed %s dashboard for user %s", actor.Role, actor.UserID)
	return d, nil
}
