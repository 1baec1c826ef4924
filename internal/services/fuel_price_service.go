package services

import (
	"context"
	"time"

	"fuelsync-backend/internal/cache"
	"fuelsync-backend/internal/models"
	"fuelsync-backend/internal/repositories"
	"fuelsync-backend/internal/timeutil"

	log "github.com/sirupsen/logrus"
)

type FuelPriceService struct {
	Repo     *repositories.FuelPriceRepository
	Stations *repositories.StationRepository
}

func NewFuelPriceService(repo *repositories.FuelPriceRepository, stations *repositories.StationRepository) *FuelPriceService {
	return &FuelPriceService{Repo: repo, Stations: stations}
}

func parseValidFrom(value string) (time.Time, error) {
	if value == "" {
		return timeutil.Now(), nil
	}
	t, err := timeutil.ParseRecordedAt(value)
	if err != nil {
		return time.Time{}, validationf("invalid validFrom")
	}
	return t, nil
}

// Create records a new price; the entry it supersedes is closed at validFrom.
func (s *FuelPriceService) Create(ctx context.Context, actor models.Actor, req *models.FuelPriceRequest) (*models.FuelPrice, error) {
	if !validID(req.StationID) {
		return nil, validationf("stationId is required")
	}
	if !models.ValidFuelType(req.FuelType) {
		return nil, validationf("invalid fuelType %q", req.FuelType)
	}
	if req.Price <= 0 {
		return nil, validationf("price must be positive")
	}
	validFrom, err := parseValidFrom(req.ValidFrom)
	if err != nil {
		return nil, err
	}
	if _, err := s.Stations.Get(ctx, actor.TenantID, req.StationID); err != nil {
		return nil, parentRef(err, "station")
	}

	fp := &models.FuelPrice{
		TenantID:  actor.TenantID,
		StationID: req.StationID,
		FuelType:  req.FuelType,
		Price:     req.Price,
		ValidFrom: validFrom,
		CreatedBy: actor.UserID,
	}
	if err := s.Repo.Create(ctx, fp); err != nil {
		return nil, err
	}
	cache.InvalidatePattern(ctx, cache.DashboardKey(actor.TenantID, "*"))
	log.Printf("[FuelPrices] %s at station %s set to %.2f from %s", fp.FuelType, fp.StationID, fp.Price, fp.ValidFrom.Format(time.RFC3339))
	return fp, nil
}

func (s *FuelPriceService) List(ctx context.Context, actor models.Actor, stationID, fuelType string) ([]models.FuelPrice, error) {
	return s.Repo.List(ctx, actor.TenantID, stationID, fuelType)
}

// Current returns the price in force now for a station and fuel type.
func (s *FuelPriceService) Current(ctx context.Context, actor models.Actor, stationID, fuelType string) (*models.FuelPrice, error) {
	if !validID(stationID) || !models.ValidFuelType(fuelType) {
		return nil, validationf("stationId and fuelType are required")
	}
	fp, err := s.Repo.PriceAt(ctx, actor.TenantID, stationID, fuelType, timeutil.Now())
	if err != nil {
		return nil, err
	}
	if fp == nil {
		return nil, validationf("Fuel price not found")
	}
	return fp, nil
}

func (s *FuelPriceService) Update(ctx context.Context, actor models.Actor, id string, req *models.FuelPriceRequest) (*models.FuelPrice, error) {
	current, err := s.Repo.Get(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if req.Price <= 0 {
		return nil, validationf("price must be positive")
	}
	validFrom := current.ValidFrom
	if req.ValidFrom != "" {
		if validFrom, err = parseValidFrom(req.ValidFrom); err != nil {
			return nil, err
		}
	}
	current.Price = req.Price
	current.ValidFrom = validFrom
	if err := s.Repo.Update(ctx, current); err != nil {
		return nil, err
	}
	return s.Repo.Get(ctx, actor.TenantID, id)
}

func (s *FuelPriceService) Delete(ctx context.Context, actor models.Actor, id string) error {
	return s.Repo.Delete(ctx, actor.TenantID, id)
}
