package repositories

import (
	"context"
	"fmt"
	"strings"

	"fuelsync-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DashboardRepository aggregates recorded sales for dashboards and analytics.
type DashboardRepository struct {
	DB *pgxpool.Pool
}

func NewDashboardRepository(db *pgxpool.Pool) *DashboardRepository {
	return &DashboardRepository{DB: db}
}

// salesWhere builds the shared predicate over the sales table.
func salesWhere(tenantID string, f models.SalesFilter) (string, []any) {
	where := []string{"tenant_id = $1", "status = 'recorded'"}
	args := []any{tenantID}
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.StationID != "" {
		add("station_id::text = $%d", f.StationID)
	}
	if f.StationIDs != nil {
		add("station_id::text = ANY($%d)", f.StationIDs)
	}
	if !f.From.IsZero() {
		add("recorded_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("recorded_at <= $%d", f.To)
	}
	return strings.Join(where, " AND "), args
}

func (r *DashboardRepository) Summary(ctx context.Context, tenantID string, f models.SalesFilter) (*models.SalesSummary, error) {
	where, args := salesWhere(tenantID, f)
	var s models.SalesSummary
	err := r.DB.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0), COALESCE(SUM(volume), 0), COUNT(*),
		        COALESCE(SUM(amount) FILTER (WHERE payment_method = 'credit'), 0)
		 FROM sales WHERE `+where, args...,
	).Scan(&s.TotalSales, &s.TotalVolume, &s.Transactions, &s.CreditSales)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *DashboardRepository) PaymentMethods(ctx context.Context, tenantID string, f models.SalesFilter) ([]models.PaymentMethodBreakdown, error) {
	where, args := salesWhere(tenantID, f)
	rows, err := r.DB.Query(ctx,
		`SELECT payment_method, SUM(amount),
		        COALESCE(ROUND(SUM(amount) * 100 / NULLIF(SUM(SUM(amount)) OVER (), 0), 2), 0)
		 FROM sales WHERE `+where+`
		 GROUP BY payment_method
		 ORDER BY 2 DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.PaymentMethodBreakdown{}
	for rows.Next() {
		var p models.PaymentMethodBreakdown
		if err := rows.Scan(&p.PaymentMethod, &p.Amount, &p.Percentage); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func (r *DashboardRepository) FuelTypes(ctx context.Context, tenantID string, f models.SalesFilter) ([]models.FuelTypeBreakdown, error) {
	where, args := salesWhere(tenantID, f)
	rows, err := r.DB.Query(ctx,
		`SELECT fuel_type, SUM(volume), SUM(amount)
		 FROM sales WHERE `+where+`
		 GROUP BY fuel_type
		 ORDER BY 3 DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.FuelTypeBreakdown{}
	for rows.Next() {
		var ft models.FuelTypeBreakdown
		if err := rows.Scan(&ft.FuelType, &ft.Volume, &ft.Amount); err != nil {
			return nil, err
		}
		list = append(list, ft)
	}
	return list, rows.Err()
}

// DailyTrend groups sales by IST calendar day.
func (r *DashboardRepository) DailyTrend(ctx context.Context, tenantID string, f models.SalesFilter) ([]models.DailyTrend, error) {
	where, args := salesWhere(tenantID, f)
	rows, err := r.DB.Query(ctx,
		`SELECT (recorded_at AT TIME ZONE 'Asia/Kolkata')::date::text AS day, SUM(amount), SUM(volume)
		 FROM sales WHERE `+where+`
		 GROUP BY day
		 ORDER BY day`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.DailyTrend{}
	for rows.Next() {
		var d models.DailyTrend
		if err := rows.Scan(&d.Date, &d.Amount, &d.Volume); err != nil {
			return nil, err
		}
		list = append(list, d)
	}
	return list, rows.Err()
}

// Hourly groups sales by IST hour of day.
func (r *DashboardRepository) Hourly(ctx context.Context, tenantID string, f models.SalesFilter) ([]models.HourlySales, error) {
	where, args := salesWhere(tenantID, f)
	rows, err := r.DB.Query(ctx,
		`SELECT EXTRACT(HOUR FROM recorded_at AT TIME ZONE 'Asia/Kolkata')::int AS hour,
		        SUM(amount), SUM(volume), COUNT(*)
		 FROM sales WHERE `+where+`
		 GROUP BY hour
		 ORDER BY hour`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.HourlySales{}
	for rows.Next() {
		var h models.HourlySales
		if err := rows.Scan(&h.Hour, &h.Amount, &h.Volume, &h.Transactions); err != nil {
			return nil, err
		}
		list = append(list, h)
	}
	return list, rows.Err()
}

func (r *DashboardRepository) FuelPerformance(ctx context.Context, tenantID string, f models.SalesFilter) ([]models.FuelPerformance, error) {
	where, args := salesWhere(tenantID, f)
	rows, err := r.DB.Query(ctx,
		`SELECT fuel_type, SUM(volume), SUM(amount), COALESCE(ROUND(AVG(fuel_price), 2), 0), COUNT(*)
		 FROM sales WHERE `+where+`
		 GROUP BY fuel_type
		 ORDER BY 2 DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.FuelPerformance{}
	for rows.Next() {
		var p models.FuelPerformance
		if err := rows.Scan(&p.FuelType, &p.Volume, &p.Amount, &p.AveragePrice, &p.Transactions); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}
