package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"fuelsync-backend/internal/auth"
	"fuelsync-backend/internal/models"
	"fuelsync-backend/internal/repositories"

	log "github.com/sirupsen/logrus"
)

// TenantService backs the superadmin console: tenants, their first owner,
// and subscription plans.
type TenantService struct {
	Repo     *repositories.TenantRepository
	Stations *repositories.StationRepository
}

func NewTenantService(repo *repositories.TenantRepository, stations *repositories.StationRepository) *TenantService {
	return &TenantService{Repo: repo, Stations: stations}
}

func requireSuperadmin(actor models.Actor) error {
	if !actor.IsSuperadmin() {
		return fmt.Errorf("%w: superadmin only", models.ErrForbidden)
	}
	return nil
}

func (s *TenantService) Create(ctx context.Context, actor models.Actor, req *models.CreateTenantRequest) (*models.Tenant, error) {
	if err := requireSuperadmin(actor); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.OwnerEmail))
	if name == "" || req.OwnerName == "" || email == "" {
		return nil, validationf("name, ownerName and ownerEmail are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, validationf("invalid ownerEmail")
	}
	if err := validatePassword(req.OwnerPassword); err != nil {
		return nil, err
	}
	if !validID(req.PlanID) {
		return nil, validationf("planId is required")
	}
	plan, err := s.Repo.GetPlan(ctx, req.PlanID)
	if err != nil {
		return nil, parentRef(err, "plan")
	}

	hash, err := auth.HashPassword(req.OwnerPassword)
	if err != nil {
		return nil, err
	}
	t := &models.Tenant{Name: name, PlanID: plan.ID, PlanName: plan.Name}
	owner := &models.User{
		Name:         strings.TrimSpace(req.OwnerName),
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleOwner,
	}
	if err := s.Repo.CreateWithOwner(ctx, t, owner); err != nil {
		return nil, err
	}
	log.Printf("[Tenants] Created tenant %s (%s) with owner %s", t.Name, t.ID, owner.Email)
	return t, nil
}

func (s *TenantService) List(ctx context.Context, actor models.Actor) ([]models.Tenant, error) {
	if err := requireSuperadmin(actor); err != nil {
		return nil, err
	}
	return s.Repo.List(ctx)
}

func (s *TenantService) Get(ctx context.Context, actor models.Actor, id string) (*models.Tenant, error) {
	if !actor.IsSuperadmin() && actor.TenantID != id {
		return nil, fmt.Errorf("tenant %w", models.ErrNotFound)
	}
	return s.Repo.Get(ctx, id)
}

func (s *TenantService) UpdateStatus(ctx context.Context, actor models.Actor, id, status string) (*models.Tenant, error) {
	if err := requireSuperadmin(actor); err != nil {
		return nil, err
	}
	switch status {
	case models.TenantActive, models.TenantSuspended, models.TenantCancelled:
	default:
		return nil, validationf("status must be active, suspended or cancelled")
	}
	if err := s.Repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	log.Printf("[Tenants] Tenant %s is now %s", id, status)
	return s.Repo.Get(ctx, id)
}

// Usage reports the caller's plan and how much of it is in use.
func (s *TenantService) Usage(ctx context.Context, actor models.Actor) (*models.PlanUsage, error) {
	plan, err := s.Repo.PlanForTenant(ctx, actor.TenantID)
	if err != nil {
		return nil, err
	}
	stations, err := s.Stations.Count(ctx, actor.TenantID)
	if err != nil {
		return nil, err
	}
	return &models.PlanUsage{Plan: *plan, Stations: stations}, nil
}

func planFromRequest(req *models.CreatePlanRequest) (*models.Plan, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validationf("name is required")
	}
	if req.MaxStations < 0 || req.MaxPumpsPerStation < 0 || req.MaxNozzlesPerPump < 0 {
		return nil, validationf("limits must not be negative")
	}
	if req.PriceMonthly < 0 || req.PriceYearly < 0 {
		return nil, validationf("prices must not be negative")
	}
	return &models.Plan{
		Name:               name,
		MaxStations:        req.MaxStations,
		MaxPumpsPerStation: req.MaxPumpsPerStation,
		MaxNozzlesPerPump:  req.MaxNozzlesPerPump,
		PriceMonthly:       req.PriceMonthly,
		PriceYearly:        req.PriceYearly,
		Features:           req.Features,
	}, nil
}

func (s *TenantService) CreatePlan(ctx context.Context, actor models.Actor, req *models.CreatePlanRequest) (*models.Plan, error) {
	if err := requireSuperadmin(actor); err != nil {
		return nil, err
	}
	p, err := planFromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.CreatePlan(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *TenantService) ListPlans(ctx context.Context) ([]models.Plan, error) {
	return s.Repo.ListPlans(ctx)
}

func (s *TenantService) UpdatePlan(ctx context.Context, actor models.Actor, id string, req *models.CreatePlanRequest) (*models.Plan, error) {
	if err := requireSuperadmin(actor); err != nil {
		return nil, err
	}
	p, err := planFromRequest(req)
	if err != nil {
		return nil, err
	}
	p.ID = id
	if p.Features == nil {
		p.Features = []string{}
	}
	if err := s.Repo.UpdatePlan(ctx, p); err != nil {
		return nil, err
	}
	return s.Repo.GetPlan(ctx, id)
}

func (s *TenantService) DeletePlan(ctx context.Context, actor models.Actor, id string) error {
	if err := requireSuperadmin(actor); err != nil {
		return err
	}
	return s.Repo.DeletePlan(ctx, id)
}
