package services

import (
	"context"
	"fmt"
	"time"

	"fuelsync-backend/internal/config"
	"fuelsync-backend/internal/metrics"
	"fuelsync-backend/internal/models"
	"fuelsync-backend/internal/repositories"
	"fuelsync-backend/internal/timeutil"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// AlertStore is the persistence the alert rules run against;
// *repositories.AlertRepository implements it.
type AlertStore interface {
	Insert(ctx context.Context, a *models.Alert, dedupeKey string) (bool, error)
	List(ctx context.Context, tenantID string, f models.AlertFilter) ([]models.Alert, error)
	CountUnread(ctx context.Context, tenantID string) (int, error)
	MarkRead(ctx context.Context, tenantID, id string) error
	Delete(ctx context.Context, tenantID, id string) error

	NoRecentReadings(ctx context.Context, tenantID string, since time.Time) ([]repositories.AlertCandidate, error)
	MissingPrices(ctx context.Context, tenantID string, at time.Time) ([]repositories.AlertCandidate, error)
	CreditorsNearLimit(ctx context.Context, tenantID string, ratio float64) ([]repositories.AlertCandidate, error)
	InactiveStations(ctx context.Context, tenantID string, since time.Time) ([]repositories.AlertCandidate, error)
	PumpsInMaintenance(ctx context.Context, tenantID string, before time.Time) ([]repositories.AlertCandidate, error)
	ReadingJumps(ctx context.Context, tenantID string, ratio float64) ([]repositories.AlertCandidate, error)
	MissingCashReports(ctx context.Context, tenantID, date string) ([]repositories.AlertCandidate, error)
}

// TenantLister yields the tenants the scheduler evaluates.
type TenantLister interface {
	ActiveIDs(ctx context.Context) ([]string, error)
}

const (
	noReadingsWindow      = 24 * time.Hour
	stationInactiveWindow = 48 * time.Hour
	maintenanceWindow     = 7 * 24 * time.Hour
	readingJumpRatio      = 0.2
)

type AlertService struct {
	Store           AlertStore
	Tenants         TenantLister
	Notifier        AlertNotifier
	CreditWarnRatio float64

	now func() time.Time
}

func NewAlertService(store AlertStore, tenants TenantLister, notifier AlertNotifier, cfg *config.Config) *AlertService {
	ratio := cfg.Reading.CreditWarnRatio
	if ratio <= 0 {
		ratio = 0.9
	}
	return &AlertService{
		Store:           store,
		Tenants:         tenants,
		Notifier:        notifier,
		CreditWarnRatio: ratio,
		now:             timeutil.Now,
	}
}

type alertRule struct {
	name string
	run  func(ctx context.Context, tenantID string) ([]repositories.AlertCandidate, error)
}

func (s *AlertService) rules(now time.Time) []alertRule {
	return []alertRule{
		{"no readings", func(ctx context.Context, t string) ([]repositories.AlertCandidate, error) {
			return s.Store.NoRecentReadings(ctx, t, now.Add(-noReadingsWindow))
		}},
		{"missing prices", func(ctx context.Context, t string) ([]repositories.AlertCandidate, error) {
			return s.Store.MissingPrices(ctx, t, now)
		}},
		{"credit limits", func(ctx context.Context, t string) ([]repositories.AlertCandidate, error) {
			return s.Store.CreditorsNearLimit(ctx, t, s.CreditWarnRatio)
		}},
		{"inactive stations", func(ctx context.Context, t string) ([]repositories.AlertCandidate, error) {
			return s.Store.InactiveStations(ctx, t, now.Add(-stationInactiveWindow))
		}},
		{"pump maintenance", func(ctx context.Context, t string) ([]repositories.AlertCandidate, error) {
			return s.Store.PumpsInMaintenance(ctx, t, now.Add(-maintenanceWindow))
		}},
		{"reading jumps", func(ctx context.Context, t string) ([]repositories.AlertCandidate, error) {
			return s.Store.ReadingJumps(ctx, t, readingJumpRatio)
		}},
		{"cash reports", func(ctx context.Context, t string) ([]repositories.AlertCandidate, error) {
			return s.Store.MissingCashReports(ctx, t, timeutil.BusinessDate(now))
		}},
	}
}

// Evaluate runs every rule for one tenant and returns the alerts that were
// newly raised. A failing rule is logged and the others still run.
func (s *AlertService) Evaluate(ctx context.Context, tenantID string) ([]models.Alert, error) {
	var raised []models.Alert
	var failed int
	rules := s.rules(s.now())
	for _, rule := range rules {
		candidates, err := rule.run(ctx, tenantID)
		if err != nil {
			failed++
			log.Errorf("[Alerts] Rule %q failed for tenant %s: %v", rule.name, tenantID, err)
			continue
		}
		for _, c := range candidates {
			a := c.Alert
			a.TenantID = tenantID
			created, err := s.Store.Insert(ctx, &a, c.DedupeKey)
			if err != nil {
				return raised, fmt.Errorf("insert %s alert: %w", a.AlertType, err)
			}
			if !created {
				continue
			}
			metrics.AlertsRaised.WithLabelValues(a.AlertType).Inc()
			if s.Notifier != nil {
				s.Notifier.Broadcast(tenantID, a)
			}
			raised = append(raised, a)
		}
	}
	if failed == len(rules) {
		return raised, fmt.Errorf("all alert rules failed for tenant %s", tenantID)
	}
	return raised, nil
}

// RunAll evaluates the rules for every active tenant.
func (s *AlertService) RunAll(ctx context.Context) {
	start := time.Now()
	defer func() { metrics.AlertRunDuration.Observe(time.Since(start).Seconds()) }()

	tenants, err := s.Tenants.ActiveIDs(ctx)
	if err != nil {
		log.Errorf("[Alerts] Failed to list tenants: %v", err)
		return
	}
	total := 0
	for _, tenantID := range tenants {
		raised, err := s.Evaluate(ctx, tenantID)
		if err != nil {
			log.Errorf("[Alerts] %v", err)
		}
		total += len(raised)
	}
	log.WithFields(log.Fields{
		"tenants":  len(tenants),
		"raised":   total,
		"duration": time.Since(start).String(),
	}).Info("[Alerts] Rule evaluation finished")
}

// Schedule registers RunAll on a cron spec such as "@every 1h". The caller
// starts and stops the returned scheduler.
func (s *AlertService) Schedule(ctx context.Context, spec string) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() { s.RunAll(ctx) }); err != nil {
		return nil, fmt.Errorf("invalid alert schedule %q: %w", spec, err)
	}
	return c, nil
}

// RunNow evaluates the caller's tenant on demand.
func (s *AlertService) RunNow(ctx context.Context, actor models.Actor) ([]models.Alert, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	raised, err := s.Evaluate(ctx, actor.TenantID)
	if raised == nil {
		raised = []models.Alert{}
	}
	return raised, err
}

func (s *AlertService) List(ctx context.Context, actor models.Actor, f models.AlertFilter) ([]models.Alert, error) {
	if f.StationID != "" && !validID(f.StationID) {
		return nil, validationf("invalid stationId")
	}
	return s.Store.List(ctx, actor.TenantID, f)
}

func (s *AlertService) CountUnread(ctx context.Context, actor models.Actor) (int, error) {
	return s.Store.CountUnread(ctx, actor.TenantID)
}

func (s *AlertService) MarkRead(ctx context.Context, actor models.Actor, id string) error {
	return s.Store.MarkRead(ctx, actor.TenantID, id)
}

func (s *AlertService) Delete(ctx context.Context, actor models.Actor, id string) error {
	if err := requireManager(actor); err != nil {
		return err
	}
	return s.Store.Delete(ctx, actor.TenantID, id)
}
