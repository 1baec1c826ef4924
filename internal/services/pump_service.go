package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fuelsync-backend/internal/cache"
	"fuelsync-backend/internal/models"
	"fuelsync-backend/internal/repositories"

	log "github.com/sirupsen/logrus"
)

// NozzleCounter reports how many nozzles hang off a pump.
type NozzleCounter interface {
	CountByPump(ctx context.Context, tenantID, pumpID string) (int, error)
}

type PumpService struct {
	Repo     *repositories.PumpRepository
	Stations *repositories.StationRepository
	Tenants  *repositories.TenantRepository
	Nozzles  NozzleCounter
	Scope    StationScope
	TTL      time.Duration
}

func NewPumpService(repo *repositories.PumpRepository, stations *repositories.StationRepository,
	tenants *repositories.TenantRepository, nozzles NozzleCounter, scope StationScope, ttl time.Duration) *PumpService {
	return &PumpService{Repo: repo, Stations: stations, Tenants: tenants, Nozzles: nozzles, Scope: scope, TTL: ttl}
}

// parentRef turns a missing referenced row into a validation error.
func parentRef(err error, what string) error {
	if errors.Is(err, models.ErrNotFound) {
		return validationf("%s not found", what)
	}
	return err
}

func pumpFromRequest(req *models.PumpRequest) (*models.Pump, error) {
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
	return &models.Pump{
		StationID:    req.StationID,
		Name:         name,
		SerialNumber: strings.TrimSpace(req.SerialNumber),
		Status:       status,
	}, nil
}

func (s *PumpService) Create(ctx context.Context, actor models.Actor, req *models.PumpRequest) (*models.Pump, error) {
	p, err := pumpFromRequest(req)
	if err != nil {
		return nil, err
	}
	if !validID(p.StationID) {
		return nil, validationf("stationId is required")
	}
	if _, err := s.Stations.Get(ctx, actor.TenantID, p.StationID); err != nil {
		return nil, parentRef(err, "station")
	}

	plan, err := planFor(ctx, s.Tenants, actor.TenantID)
	if err != nil {
		return nil, err
	}
	if plan != nil {
		count, err := s.Repo.CountByStation(ctx, actor.TenantID, p.StationID)
		if err != nil {
			return nil, err
		}
		if err := checkLimit(plan.MaxPumpsPerStation, count, "pumps per station"); err != nil {
			return nil, err
		}
	}

	p.TenantID = actor.TenantID
	if err := s.Repo.Create(ctx, p); err != nil {
		return nil, err
	}
	cache.Apply(ctx, cache.PumpChanged(actor.TenantID, cache.Create, p.ID, p.StationID))
	log.Printf("[Pumps] Created pump %s at station %s", p.Name, p.StationID)
	return p, nil
}

// List returns pumps, optionally of one station.
func (s *PumpService) List(ctx context.Context, actor models.Actor, stationID string) ([]models.Pump, error) {
	scope, err := s.Scope.Stations(ctx, actor)
	if err != nil {
		return nil, err
	}
	if scope != nil {
		if stationID != "" && !inScope(scope, stationID) {
			return []models.Pump{}, nil
		}
		return s.Repo.List(ctx, actor.TenantID, stationID, scope)
	}
	return cache.Fetch(ctx, cache.ListKey(actor.TenantID, cache.Pumps, stationID), s.TTL,
		func(ctx context.Context) ([]models.Pump, error) {
			return s.Repo.List(ctx, actor.TenantID, stationID, nil)
		})
}

func (s *PumpService) Get(ctx context.Context, actor models.Actor, id string) (*models.Pump, error) {
	p, err := cache.Fetch(ctx, cache.PumpKey(actor.TenantID, id), s.TTL,
		func(ctx context.Context) (*models.Pump, error) {
			return s.Repo.Get(ctx, actor.TenantID, id)
		})
	if err != nil {
		return nil, err
	}
	scope, err := s.Scope.Stations(ctx, actor)
	if err != nil {
		return nil, err
	}
	if !inScope(scope, p.StationID) {
		return nil, fmt.Errorf("pump %w", models.ErrNotFound)
	}
	return p, nil
}

func (s *PumpService) Update(ctx context.Context, actor models.Actor, id string, req *models.PumpRequest) (*models.Pump, error) {
	p, err := pumpFromRequest(req)
	if err != nil {
		return nil, err
	}
	p.ID = id
	p.TenantID = actor.TenantID
	if err := s.Repo.Update(ctx, p); err != nil {
		return nil, err
	}
	cache.Apply(ctx, cache.PumpChanged(actor.TenantID, cache.Update, id, p.StationID))
	return s.Repo.Get(ctx, actor.TenantID, id)
}

// Delete refuses pumps that still have nozzles; removing them would cascade
// through their readings and sales.
func (s *PumpService) Delete(ctx context.Context, actor models.Actor, id string) error {
	count, err := s.Nozzles.CountByPump(ctx, actor.TenantID, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: Cannot delete pump with nozzles", models.ErrConflict)
	}
	p, err := s.Repo.Get(ctx, actor.TenantID, id)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, actor.TenantID, id); err != nil {
		return err
	}
	cache.Apply(ctx, cache.PumpChanged(actor.TenantID, cache.Delete, id, p.StationID))
	log.Printf("[Pumps] Deleted pump %s", id)
	return nil
}
