package services

import (
	"context"
	"fmt"
	"time"

	"fuelsync-backend/internal/cache"
	"fuelsync-backend/internal/models"
	"fuelsync-backend/internal/repositories"

	log "github.com/sirupsen/logrus"
)

type NozzleService struct {
	Repo    *repositories.NozzleRepository
	Pumps   *repositories.PumpRepository
	Tenants *repositories.TenantRepository
	Scope   StationScope
	TTL     time.Duration
}

func NewNozzleService(repo *repositories.NozzleRepository, pumps *repositories.PumpRepository,
	tenants *repositories.TenantRepository, scope StationScope, ttl time.Duration) *NozzleService {
	return &NozzleService{Repo: repo, Pumps: pumps, Tenants: tenants, Scope: scope, TTL: ttl}
}

func nozzleFromRequest(req *models.NozzleRequest) (*models.Nozzle, error) {
	if req.NozzleNumber <= 0 {
		return nil, validationf("nozzleNumber must be positive")
	}
	if !models.ValidFuelType(req.FuelType) {
		return nil, validationf("invalid fuelType %q", req.FuelType)
	}
	status := req.Status
	if status == "" {
		status = models.StatusActive
	}
	if !models.ValidEquipmentStatus(status) {
		return nil, validationf("invalid status %q", status)
	}
	return &models.Nozzle{
		PumpID:       req.PumpID,
		NozzleNumber: req.NozzleNumber,
		FuelType:     req.FuelType,
		Status:       status,
	}, nil
}

func (s *NozzleService) Create(ctx context.Context, actor models.Actor, req *models.NozzleRequest) (*models.Nozzle, error) {
	n, err := nozzleFromRequest(req)
	if err != nil {
		return nil, err
	}
	if !validID(n.PumpID) {
		return nil, validationf("pumpId is required")
	}
	pump, err := s.Pumps.Get(ctx, actor.TenantID, n.PumpID)
	if err != nil {
		return nil, parentRef(err, "pump")
	}

	plan, err := planFor(ctx, s.Tenants, actor.TenantID)
	if err != nil {
		return nil, err
	}
	if plan != nil {
		count, err := s.Repo.CountByPump(ctx, actor.TenantID, pump.ID)
		if err != nil {
			return nil, err
		}
		if err := checkLimit(plan.MaxNozzlesPerPump, count, "nozzles per pump"); err != nil {
			return nil, err
		}
	}

	n.TenantID = actor.TenantID
	n.StationID = pump.StationID
	if err := s.Repo.Create(ctx, n); err != nil {
		return nil, err
	}
	cache.Apply(ctx, cache.NozzleChanged(actor.TenantID, cache.Create, n.ID, pump.ID, pump.StationID))
	log.Printf("[Nozzles] Created nozzle %d on pump %s", n.NozzleNumber, pump.ID)
	return n, nil
}

// List returns nozzles filtered by pump and/or station.
func (s *NozzleService) List(ctx context.Context, actor models.Actor, pumpID, stationID string) ([]models.Nozzle, error) {
	scope, err := s.Scope.Stations(ctx, actor)
	if err != nil {
		return nil, err
	}
	if scope != nil || stationID != "" {
		return s.Repo.List(ctx, actor.TenantID, pumpID, stationID, scope)
	}
	return cache.Fetch(ctx, cache.ListKey(actor.TenantID, cache.Nozzles, pumpID), s.TTL,
		func(ctx context.Context) ([]models.Nozzle, error) {
			return s.Repo.List(ctx, actor.TenantID, pumpID, "", nil)
		})
}

func (s *NozzleService) Get(ctx context.Context, actor models.Actor, id string) (*models.Nozzle, error) {
	n, err := cache.Fetch(ctx, cache.NozzleKey(actor.TenantID, id), s.TTL,
		func(ctx context.Context) (*models.Nozzle, error) {
			return s.Repo.Get(ctx, actor.TenantID, id)
		})
	if err != nil {
		return nil, err
	}
	scope, err := s.Scope.Stations(ctx, actor)
	if err != nil {
		return nil, err
	}
	if !inScope(scope, n.StationID) {
		return nil, fmt.Errorf("nozzle %w", models.ErrNotFound)
	}
	return n, nil
}

func (s *NozzleService) Update(ctx context.Context, actor models.Actor, id string, req *models.NozzleRequest) (*models.Nozzle, error) {
	current, err := s.Repo.Get(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if req.PumpID == "" {
		req.PumpID = current.PumpID
	}
	n, err := nozzleFromRequest(req)
	if err != nil {
		return nil, err
	}
	n.ID = id
	n.TenantID = actor.TenantID
	if err := s.Repo.Update(ctx, n); err != nil {
		return nil, err
	}
	cache.Apply(ctx, cache.NozzleChanged(actor.TenantID, cache.Update, id, n.PumpID, current.StationID))
	return s.Repo.Get(ctx, actor.TenantID, id)
}

func (s *NozzleService) Delete(ctx context.Context, actor models.Actor, id string) error {
	n, err := s.Repo.Get(ctx, actor.TenantID, id)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, actor.TenantID, id); err != nil {
		return err
	}
	cache.Apply(ctx, cache.NozzleChanged(actor.TenantID, cache.Delete, id, n.PumpID, n.StationID))
	log.Printf("[Nozzles] Deleted nozzle %s", id)
	return nil
}
