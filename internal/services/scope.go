package services

import (
	"context"
	"errors"
	"fmt"

	"fuelsync-backend/internal/models"
	"fuelsync-backend/internal/repositories"
)

// StationScope resolves the stations an actor may see. A nil slice means
// every station of the tenant.
type StationScope interface {
	Stations(ctx context.Context, actor models.Actor) ([]string, error)
}

// UserStationScope limits attendants to the stations assigned to them.
type UserStationScope struct {
	Users *repositories.UserRepository
}

func (s UserStationScope) Stations(ctx context.Context, actor models.Actor) ([]string, error) {
	if actor.Role != models.RoleAttendant {
		return nil, nil
	}
	u, err := s.Users.Get(ctx, actor.TenantID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if u.StationIDs == nil {
		return []string{}, nil
	}
	return u.StationIDs, nil
}

func inScope(scope []string, stationID string) bool {
	if scope == nil {
		return true
	}
	for _, id := range scope {
		if id == stationID {
			return true
		}
	}
	return false
}

// checkLimit rejects creation once count reaches a positive plan limit.
func checkLimit(limit, count int, what string) error {
	if limit > 0 && count >= limit {
		return fmt.Errorf("%w: plan allows at most %d %s", models.ErrPlanLimit, limit, what)
	}
	return nil
}

// planFor returns nil for tenants without a plan, which are not limited.
func planFor(ctx context.Context, tenants *repositories.TenantRepository, tenantID string) (*models.Plan, error) {
	p, err := tenants.PlanForTenant(ctx, tenantID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	return p, err
}

func requireManager(actor models.Actor) error {
	if !actor.CanManage() {
		return fmt.Errorf("%w: insufficient role", models.ErrForbidden)
	}
	return nil
}
