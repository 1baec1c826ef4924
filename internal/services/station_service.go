package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fuelsync-backend/internal/cache"
	"fuelsync-backend/internal/models"
	"fuelsync-backend/internal/repositories"
	"fuelsync-backend/internal/timeutil"

	log "github.com/sirupsen/logrus"
)

type StationService struct {
	Repo    *repositories.StationRepository
	Tenants *repositories.TenantRepository
	Scope   StationScope
	TTL     time.Duration
}

func NewStationService(repo *repositories.StationRepository, tenants *repositories.TenantRepository, scope StationScope, ttl time.Duration) *StationService {
	return &StationService{Repo: repo, Tenants: tenants, Scope: scope, TTL: ttl}
}

func stationFromRequest(req *models.StationRequest) (*models.Station, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validationf("name is required")
	}
	status := req.Status
	if status == "" {
		status = models.StatusActive
	}
	if !models.ValidEquipmentStatus(status) {
		return nil, validationf("invalid status %q", status)
	}
	return &models.Station{Name: name, Address: strings.TrimSpace(req.Address), Status: status}, nil
}

func (s *StationService) Create(ctx context.Context, actor models.Actor, req *models.StationRequest) (*models.Station, error) {
	st, err := stationFromRequest(req)
	if err != nil {
		return nil, err
	}
	plan, err := planFor(ctx, s.Tenants, actor.TenantID)
	if err != nil {
		return nil, err
	}
	if plan != nil {
		count, err := s.Repo.Count(ctx, actor.TenantID)
		if err != nil {
			return nil, err
		}
		if err := checkLimit(plan.MaxStations, count, "stations"); err != nil {
			return nil, err
		}
	}

	st.TenantID = actor.TenantID
	if err := s.Repo.Create(ctx, st); err != nil {
		return nil, err
	}
	cache.Apply(ctx, cache.StationChanged(actor.TenantID, cache.Create, st.ID))
	log.Printf("[Stations] Created station %s (%s)", st.Name, st.ID)
	return st, nil
}

func (s *StationService) List(ctx context.Context, actor models.Actor) ([]models.Station, error) {
	scope, err := s.Scope.Stations(ctx, actor)
	if err != nil {
		return nil, err
	}
	if scope != nil {
		return s.Repo.List(ctx, actor.TenantID, scope)
	}
	return cache.Fetch(ctx, cache.ListKey(actor.TenantID, cache.Stations, ""), s.TTL,
		func(ctx context.Context) ([]models.Station, error) {
			return s.Repo.List(ctx, actor.TenantID, nil)
		})
}

func (s *StationService) Get(ctx context.Context, actor models.Actor, id string) (*models.Station, error) {
	scope, err := s.Scope.Stations(ctx, actor)
	if err != nil {
		return nil, err
	}
	if !inScope(scope, id) {
		return nil, fmt.Errorf("station %w", models.ErrNotFound)
	}
	return cache.Fetch(ctx, cache.StationKey(actor.TenantID, id), s.TTL,
		func(ctx context.Context) (*models.Station, error) {
			return s.Repo.Get(ctx, actor.TenantID, id)
		})
}

func (s *StationService) Update(ctx context.Context, actor models.Actor, id string, req *models.StationRequest) (*models.Station, error) {
	st, err := stationFromRequest(req)
	if err != nil {
		return nil, err
	}
	st.ID = id
	st.TenantID = actor.TenantID
	if err := s.Repo.Update(ctx, st); err != nil {
		return nil, err
	}
	cache.Apply(ctx, cache.StationChanged(actor.TenantID, cache.Update, id))
	return s.Repo.Get(ctx, actor.TenantID, id)
}

func (s *StationService) Delete(ctx context.Context, actor models.Actor, id string) error {
	if err := s.Repo.Delete(ctx, actor.TenantID, id); err != nil {
		return err
	}
	cache.Apply(ctx, cache.StationChanged(actor.TenantID, cache.Delete, id))
	log.Printf("[Stations] Deleted station %s", id)
	return nil
}

func (s *StationService) Metrics(ctx context.Context, actor models.Actor, id string) (*models.StationMetrics, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	now := timeutil.Now()
	day := timeutil.StartOfDay(now)
	month := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, timeutil.IST)
	return s.Repo.Metrics(ctx, actor.TenantID, id, day, month)
}

// Ranking orders stations by sales or volume over a named range.
func (s *StationService) Ranking(ctx context.Context, actor models.Actor, metric, rangeName string) ([]models.StationRanking, error) {
	if metric == "" {
		metric = "sales"
	}
	if metric != "sales" && metric != "volume" {
		return nil, validationf("metric must be sales or volume")
	}
	from, err := timeutil.RangeStart(rangeName, timeutil.Now())
	if err != nil {
		return nil, validationf("%v", err)
	}
	return s.Repo.Ranking(ctx, actor.TenantID, metric, from)
}
