package services

import (
	"context"
	"strings"

	"fuelsync-backend/internal/cache"
	"fuelsync-backend/internal/models"
	"fuelsync-backend/internal/repositories"
	"fuelsync-backend/internal/timeutil"

	log "github.com/sirupsen/logrus"
)

type DeliveryService struct {
	Repo     *repositories.DeliveryRepository
	Stations *repositories.StationRepository
	Scope    StationScope
}

func NewDeliveryService(repo *repositories.DeliveryRepository, stations *repositories.StationRepository, scope StationScope) *DeliveryService {
	return &DeliveryService{Repo: repo, Stations: stations, Scope: scope}
}

func (s *DeliveryService) Create(ctx context.Context, actor models.Actor, req *models.FuelDeliveryRequest) (*models.FuelDelivery, error) {
	if !validID(req.StationID) {
		return nil, validationf("stationId is required")
	}
	if !models.ValidFuelType(req.FuelType) {
		return nil, validationf("invalid fuelType %q", req.FuelType)
	}
	if req.Volume <= 0 {
		return nil, validationf("volume must be positive")
	}
	deliveredAt := timeutil.Now()
	if req.DeliveredAt != "" {
		t, err := timeutil.ParseRecordedAt(req.DeliveredAt)
		if err != nil {
			return nil, validationf("invalid deliveredAt")
		}
		deliveredAt = t
	}
	if _, err := s.Stations.Get(ctx, actor.TenantID, req.StationID); err != nil {
		return nil, parentRef(err, "station")
	}

	d := &models.FuelDelivery{
		TenantID:      actor.TenantID,
		StationID:     req.StationID,
		FuelType:      req.FuelType,
		Volume:        req.Volume,
		DeliveredAt:   deliveredAt,
		Supplier:      strings.TrimSpace(req.Supplier),
		InvoiceNumber: strings.TrimSpace(req.InvoiceNumber),
		CreatedBy:     actor.UserID,
	}
	if err := s.Repo.Create(ctx, d); err != nil {
		return nil, err
	}
	cache.InvalidatePattern(ctx, cache.DashboardKey(actor.TenantID, "*"))
	log.Printf("[Deliveries] %.3f L of %s delivered to station %s", d.Volume, d.FuelType, d.StationID)
	return d, nil
}

func (s *DeliveryService) List(ctx context.Context, actor models.Actor, stationID string) ([]models.FuelDelivery, error) {
	return s.Repo.List(ctx, actor.TenantID, stationID)
}

// Inventory reports stock per station and fuel type, limited to the
// stations the actor can see.
func (s *DeliveryService) Inventory(ctx context.Context, actor models.Actor, stationID string) ([]models.InventoryLevel, error) {
	scope, err := s.Scope.Stations(ctx, actor)
	if err != nil {
		return nil, err
	}
	levels, err := s.Repo.Inventory(ctx, actor.TenantID, stationID)
	if err != nil {
		return nil, err
	}
	if scope == nil {
		return levels, nil
	}
	visible := levels[:0]
	for _, l := range levels {
		if inScope(scope, l.StationID) {
			visible = append(visible, l)
		}
	}
	return visible, nil
}
