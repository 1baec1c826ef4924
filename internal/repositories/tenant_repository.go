package repositories

import (
	"context"

	"fuelsync-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type TenantRepository struct {
	DB *pgxpool.Pool
}

func NewTenantRepository(db *pgxpool.Pool) *TenantRepository {
	return &TenantRepository{DB: db}
}

const planColumns = `id, name, max_stations, max_pumps_per_station, max_nozzles_per_pump,
	price_monthly, price_yearly, features, created_at`

func scanPlan(row interface{ Scan(...any) error }) (*models.Plan, error) {
	var p models.Plan
	err := row.Scan(&p.ID, &p.Name, &p.MaxStations, &p.MaxPumpsPerStation, &p.MaxNozzlesPerPump,
		&p.PriceMonthly, &p.PriceYearly, &p.Features, &p.CreatedAt)
	return &p, err
}

func (r *TenantRepository) CreatePlan(ctx context.Context, p *models.Plan) error {
	p.ID = newID()
	if p.Features == nil {
		p.Features = []string{}
	}
	err := r.DB.QueryRow(ctx,
		`INSERT INTO plans (id, name, max_stations, max_pumps_per_station, max_nozzles_per_pump, price_monthly, price_yearly, features)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at`,
		p.ID, p.Name, p.MaxStations, p.MaxPumpsPerStation, p.MaxNozzlesPerPump, p.PriceMonthly, p.PriceYearly, p.Features,
	).Scan(&p.CreatedAt)
	return conflict(err, "plan name already exists")
}

func (r *TenantRepository) UpdatePlan(ctx context.Context, p *models.Plan) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE plans SET name=$2, max_stations=$3, max_pumps_per_station=$4, max_nozzles_per_pump=$5,
		        price_monthly=$6, price_yearly=$7, features=$8
		 WHERE id=$1`,
		p.ID, p.Name, p.MaxStations, p.MaxPumpsPerStation, p.MaxNozzlesPerPump, p.PriceMonthly, p.PriceYearly, p.Features)
	if err != nil {
		return conflict(err, "plan name already exists")
	}
	return affected(tag, "plan")
}

func (r *TenantRepository) DeletePlan(ctx context.Context, id string) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM plans WHERE id=$1`, id)
	if err != nil {
		return conflict(err, "plan is in use")
	}
	return affected(tag, "plan")
}

func (r *TenantRepository) ListPlans(ctx context.Context) ([]models.Plan, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+planColumns+` FROM plans ORDER BY price_monthly`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans := []models.Plan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}

func (r *TenantRepository) GetPlan(ctx context.Context, id string) (*models.Plan, error) {
	p, err := scanPlan(r.DB.QueryRow(ctx, `SELECT `+planColumns+` FROM plans WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err, "plan")
	}
	return p, nil
}

// PlanForTenant returns the plan the tenant is subscribed to.
func (r *TenantRepository) PlanForTenant(ctx context.Context, tenantID string) (*models.Plan, error) {
	p, err := scanPlan(r.DB.QueryRow(ctx,
		`SELECT p.id, p.name, p.max_stations, p.max_pumps_per_station, p.max_nozzles_per_pump,
		        p.price_monthly, p.price_yearly, p.features, p.created_at
		 FROM tenants t JOIN plans p ON p.id = t.plan_id
		 WHERE t.id=$1`, tenantID))
	if err != nil {
		return nil, notFound(err, "tenant")
	}
	return p, nil
}

// CreateWithOwner inserts the tenant and its first owner in one transaction.
func (r *TenantRepository) CreateWithOwner(ctx context.Context, t *models.Tenant, owner *models.User) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	t.ID = newID()
	if t.Status == "" {
		t.Status = models.TenantActive
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO tenants (id, name, plan_id, status) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		t.ID, t.Name, t.PlanID, t.Status,
	).Scan(&t.CreatedAt)
	if err != nil {
		return err
	}

	owner.TenantID = t.ID
	if err := insertUser(ctx, tx, owner); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *TenantRepository) List(ctx context.Context) ([]models.Tenant, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT t.id, t.name, t.plan_id, p.name, t.status, t.created_at
		 FROM tenants t JOIN plans p ON p.id = t.plan_id
		 ORDER BY t.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tenants := []models.Tenant{}
	for rows.Next() {
		var t models.Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.PlanID, &t.PlanName, &t.Status, &t.CreatedAt); err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

func (r *TenantRepository) Get(ctx context.Context, id string) (*models.Tenant, error) {
	var t models.Tenant
	err := r.DB.QueryRow(ctx,
		`SELECT t.id, t.name, t.plan_id, p.name, t.status, t.created_at
		 FROM tenants t JOIN plans p ON p.id = t.plan_id
		 WHERE t.id=$1`, id,
	).Scan(&t.ID, &t.Name, &t.PlanID, &t.PlanName, &t.Status, &t.CreatedAt)
	if err != nil {
		return nil, notFound(err, "tenant")
	}
	return &t, nil
}

func (r *TenantRepository) UpdateStatus(ctx context.Context, id, status string) error {
	tag, err := r.DB.Exec(ctx, `UPDATE tenants SET status=$2 WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	return affected(tag, "tenant")
}

// ActiveIDs lists tenants whose alert rules should run.
func (r *TenantRepository) ActiveIDs(ctx context.Context) ([]string, error) {
	rows, err := r.DB.Query(ctx, `SELECT id FROM tenants WHERE status='active'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *TenantRepository) PlatformCounts(ctx context.Context) (*models.PlatformCounts, error) {
	var c models.PlatformCounts
	err := r.DB.QueryRow(ctx,
		`SELECT (SELECT COUNT(*) FROM tenants),
		        (SELECT COUNT(*) FROM tenants WHERE status='active'),
		        (SELECT COUNT(*) FROM users WHERE tenant_id IS NOT NULL),
		        (SELECT COUNT(*) FROM stations)`,
	).Scan(&c.Tenants, &c.ActiveTenants, &c.Users, &c.Stations)
	return &c, err
}
