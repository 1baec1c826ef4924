package services

import (
	"context"
	"fmt"

	"fuelsync-backend/internal/cache"
	"fuelsync-backend/internal/models"
	"fuelsync-backend/internal/repositories"
	"fuelsync-backend/internal/timeutil"

	log "github.com/sirupsen/logrus"
)

type ReconciliationService struct {
	Repo     *repositories.ReconciliationRepository
	Stations *repositories.StationRepository
	Scope    StationScope
}

func NewReconciliationService(repo *repositories.ReconciliationRepository, stations *repositories.StationRepository, scope StationScope) *ReconciliationService {
	return &ReconciliationService{Repo: repo, Stations: stations, Scope: scope}
}

// businessDate validates a YYYY-MM-DD date, defaulting to today in IST.
func businessDate(value string) (string, error) {
	if value == "" {
		return timeutil.BusinessDate(timeutil.Now()), nil
	}
	t, err := timeutil.ParseDate(value)
	if err != nil {
		return "", validationf("date must be YYYY-MM-DD")
	}
	return t.Format(timeutil.DateLayout), nil
}

// Run computes the station-day totals and finalizes the day. A finalized
// day blocks new readings, voids and credit payments.
func (s *ReconciliationService) Run(ctx context.Context, actor models.Actor, req *models.ReconciliationRequest) (*models.DayReconciliation, error) {
	if !validID(req.StationID) {
		return nil, validationf("stationId is required")
	}
	date, err := businessDate(req.Date)
	if err != nil {
		return nil, err
	}
	if _, err := s.Stations.Get(ctx, actor.TenantID, req.StationID); err != nil {
		return nil, parentRef(err, "station")
	}

	d, err := s.Repo.Finalize(ctx, actor.TenantID, req.StationID, date, actor.UserID)
	if err != nil {
		return nil, err
	}
	cache.InvalidatePattern(ctx, cache.DashboardKey(actor.TenantID, "*"))
	log.WithFields(log.Fields{
		"station":    d.StationID,
		"date":       d.Date,
		"total":      d.TotalSales,
		"difference": d.Difference,
	}).Info("[Reconciliation] Day finalized")
	return d, nil
}

// Summary shows the live totals of a station-day without finalizing it.
func (s *ReconciliationService) Summary(ctx context.Context, actor models.Actor, stationID, date string) (*models.DayReconciliation, error) {
	if !validID(stationID) {
		return nil, validationf("stationId is required")
	}
	day, err := businessDate(date)
	if err != nil {
		return nil, err
	}
	return s.Repo.Summary(ctx, actor.TenantID, stationID, day)
}

func (s *ReconciliationService) List(ctx context.Context, actor models.Actor, stationID string) ([]models.DayReconciliation, error) {
	return s.Repo.List(ctx, actor.TenantID, stationID)
}

// SubmitCashReport stores the cash and credit an attendant collected for a
// station-day. It records amounts only and creates no sales.
func (s *ReconciliationService) SubmitCashReport(ctx context.Context, actor models.Actor, req *models.CashReportRequest) (*models.CashReport, error) {
	if !validID(req.StationID) {
		return nil, validationf("stationId is required")
	}
	if req.CashAmount < 0 || req.CreditAmount < 0 {
		return nil, validationf("amounts must not be negative")
	}
	date, err := businessDate(req.Date)
	if err != nil {
		return nil, err
	}
	scope, err := s.Scope.Stations(ctx, actor)
	if err != nil {
		return nil, err
	}
	if !inScope(scope, req.StationID) {
		return nil, fmt.Errorf("%w: station not assigned", models.ErrForbidden)
	}
	if _, err := s.Stations.Get(ctx, actor.TenantID, req.StationID); err != nil {
		return nil, parentRef(err, "station")
	}
	finalized, err := s.Repo.IsDayFinalized(ctx, actor.TenantID, req.StationID, date)
	if err != nil {
		return nil, err
	}
	if finalized {
		return nil, fmt.Errorf("%w: Day already finalized for this station", models.ErrFinalized)
	}

	c := &models.CashReport{
		TenantID:     actor.TenantID,
		StationID:    req.StationID,
		UserID:       actor.UserID,
		Date:         date,
		CashAmount:   req.CashAmount,
		CreditAmount: req.CreditAmount,
		Notes:        req.Notes,
	}
	if err := s.Repo.SaveCashReport(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// CashReports lists reports; attendants only see their own.
func (s *ReconciliationService) CashReports(ctx context.Context, actor models.Actor) ([]models.CashReport, error) {
	userID := ""
	if actor.Role == models.RoleAttendant {
		userID = actor.UserID
	}
	return s.Repo.ListCashReports(ctx, actor.TenantID, userID)
}
