package repositories

import (
	"context"
	"fmt"

	"fuelsync-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ReconciliationRepository struct {
	DB *pgxpool.Pool
}

func NewReconciliationRepository(db *pgxpool.Pool) *ReconciliationRepository {
	return &ReconciliationRepository{DB: db}
}

// lockStationDay serialises writers of one station's business day. It is
// held until the transaction ends.
func lockStationDay(ctx context.Context, q querier, stationID, date string) error {
	_, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1::text || ':' || $2::text))`, stationID, date)
	return err
}

// lockTenantDay takes the station-day lock of every station of the tenant,
// in id order.
func lockTenantDay(ctx context.Context, q querier, tenantID, date string) error {
	rows, err := q.Query(ctx, `SELECT id::text FROM stations WHERE tenant_id=$1 ORDER BY id`, tenantID)
	if err != nil {
		return err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	for _, id := range ids {
		if err := lockStationDay(ctx, q, id, date); err != nil {
			return err
		}
	}
	return nil
}

func isDayFinalized(ctx context.Context, q querier, tenantID, stationID, date string) (bool, error) {
	var finalized bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM day_reconciliations
		                WHERE tenant_id=$1 AND station_id=$2 AND business_date=$3::date AND finalized)`,
		tenantID, stationID, date,
	).Scan(&finalized)
	return finalized, err
}

func (r *ReconciliationRepository) IsDayFinalized(ctx context.Context, tenantID, stationID, date string) (bool, error) {
	return isDayFinalized(ctx, r.DB, tenantID, stationID, date)
}

const dayColumns = `id, station_id, business_date::text, total_sales, total_volume, cash_total, card_total, upi_total,
	credit_total, reported_cash, difference, finalized, COALESCE(finalized_by::text, ''), finalized_at`

func scanDay(row interface{ Scan(...any) error }) (*models.DayReconciliation, error) {
	var d models.DayReconciliation
	err := row.Scan(&d.ID, &d.StationID, &d.Date, &d.TotalSales, &d.TotalVolume, &d.CashTotal, &d.CardTotal,
		&d.UPITotal, &d.CreditTotal, &d.ReportedCash, &d.Difference, &d.Finalized, &d.FinalizedBy, &d.FinalizedAt)
	return &d, err
}

// Finalize computes the station-day totals and stores them as finalized.
// The station-day lock makes a concurrent finalize, reading or void wait for
// this one to commit.
func (r *ReconciliationRepository) Finalize(ctx context.Context, tenantID, stationID, date, userID string) (*models.DayReconciliation, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := lockStationDay(ctx, tx, stationID, date); err != nil {
		return nil, err
	}

	finalized, err := isDayFinalized(ctx, tx, tenantID, stationID, date)
	if err != nil {
		return nil, err
	}
	if finalized {
		return nil, fmt.Errorf("%w: reconciliation for %s", models.ErrFinalized, date)
	}

	totals, err := dayTotals(ctx, tx, tenantID, stationID, date)
	if err != nil {
		return nil, err
	}

	var reported float64
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(SUM(cash_amount), 0) FROM cash_reports
		 WHERE tenant_id=$1 AND station_id=$2 AND business_date=$3::date`,
		tenantID, stationID, date,
	).Scan(&reported)
	if err != nil {
		return nil, err
	}

	d, err := scanDay(tx.QueryRow(ctx,
		`INSERT INTO day_reconciliations (id, tenant_id, station_id, business_date, total_sales, total_volume,
		        cash_total, card_total, upi_total, credit_total, reported_cash, difference, finalized, finalized_by, finalized_at)
		 VALUES ($1, $2, $3, $4::date, $5, $6, $7, $8, $9, $10, $11, $12, TRUE, $13, NOW())
		 ON CONFLICT (station_id, business_date) DO UPDATE SET
		        total_sales=EXCLUDED.total_sales, total_volume=EXCLUDED.total_volume,
		        cash_total=EXCLUDED.cash_total, card_total=EXCLUDED.card_total,
		        upi_total=EXCLUDED.upi_total, credit_total=EXCLUDED.credit_total,
		        reported_cash=EXCLUDED.reported_cash, difference=EXCLUDED.difference,
		        finalized=TRUE, finalized_by=EXCLUDED.finalized_by, finalized_at=NOW()
		 RETURNING `+dayColumns,
		newID(), tenantID, stationID, date, totals.Total(), totals.Volume,
		totals.Cash, totals.Card, totals.UPI, totals.Credit, reported, reported-totals.Cash, nullable(userID)))
	if err != nil {
		return nil, err
	}
	return d, tx.Commit(ctx)
}

func dayTotals(ctx context.Context, q querier, tenantID, stationID, date string) (models.PaymentTotals, error) {
	var t models.PaymentTotals
	err := q.QueryRow(ctx,
		`SELECT COALESCE(SUM(volume), 0),
		        COALESCE(SUM(amount) FILTER (WHERE payment_method='cash'), 0),
		        COALESCE(SUM(amount) FILTER (WHERE payment_method='card'), 0),
		        COALESCE(SUM(amount) FILTER (WHERE payment_method='upi'), 0),
		        COALESCE(SUM(amount) FILTER (WHERE payment_method='credit'), 0)
		 FROM sales
		 WHERE tenant_id=$1 AND station_id=$2 AND status='recorded'
		   AND (recorded_at AT TIME ZONE 'Asia/Kolkata')::date = $3::date`,
		tenantID, stationID, date,
	).Scan(&t.Volume, &t.Cash, &t.Card, &t.UPI, &t.Credit)
	return t, err
}

// Summary returns live totals for a station-day without finalizing it.
func (r *ReconciliationRepository) Summary(ctx context.Context, tenantID, stationID, date string) (*models.DayReconciliation, error) {
	d, err := scanDay(r.DB.QueryRow(ctx,
		`SELECT `+dayColumns+` FROM day_reconciliations
		 WHERE tenant_id=$1 AND station_id=$2 AND business_date=$3::date`, tenantID, stationID, date))
	if err == nil && d.Finalized {
		return d, nil
	}

	totals, err := dayTotals(ctx, r.DB, tenantID, stationID, date)
	if err != nil {
		return nil, err
	}
	var reported float64
	err = r.DB.QueryRow(ctx,
		`SELECT COALESCE(SUM(cash_amount), 0) FROM cash_reports
		 WHERE tenant_id=$1 AND station_id=$2 AND business_date=$3::date`,
		tenantID, stationID, date,
	).Scan(&reported)
	if err != nil {
		return nil, err
	}
	return &models.DayReconciliation{
		StationID:    stationID,
		Date:         date,
		TotalSales:   totals.Total(),
		TotalVolume:  totals.Volume,
		CashTotal:    totals.Cash,
		CardTotal:    totals.Card,
		UPITotal:     totals.UPI,
		CreditTotal:  totals.Credit,
		ReportedCash: reported,
		Difference:   reported - totals.Cash,
	}, nil
}

func (r *ReconciliationRepository) List(ctx context.Context, tenantID, stationID string) ([]models.DayReconciliation, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+dayColumns+` FROM day_reconciliations
		 WHERE tenant_id=$1 AND ($2 = '' OR station_id::text = $2)
		 ORDER BY business_date DESC
		 LIMIT 90`, tenantID, stationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.DayReconciliation{}
	for rows.Next() {
		d, err := scanDay(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *d)
	}
	return list, rows.Err()
}

// SaveCashReport upserts the attendant's report for the station-day.
func (r *ReconciliationRepository) SaveCashReport(ctx context.Context, c *models.CashReport) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO cash_reports (id, tenant_id, station_id, user_id, business_date, cash_amount, credit_amount, notes)
		 VALUES ($1, $2, $3, $4, $5::date, $6, $7, $8)
		 ON CONFLICT (station_id, user_id, business_date) DO UPDATE SET
		        cash_amount=EXCLUDED.cash_amount, credit_amount=EXCLUDED.credit_amount, notes=EXCLUDED.notes
		 RETURNING id, created_at`,
		newID(), c.TenantID, c.StationID, c.UserID, c.Date, c.CashAmount, c.CreditAmount, c.Notes,
	).Scan(&c.ID, &c.CreatedAt)
}

func (r *ReconciliationRepository) ListCashReports(ctx context.Context, tenantID, userID string) ([]models.CashReport, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, station_id, user_id, business_date::text, cash_amount, credit_amount, notes, created_at
		 FROM cash_reports
		 WHERE tenant_id=$1 AND ($2 = '' OR user_id::text = $2)
		 ORDER BY business_date DESC, created_at DESC
		 LIMIT 200`, tenantID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.CashReport{}
	for rows.Next() {
		var c models.CashReport
		if err := rows.Scan(&c.ID, &c.StationID, &c.UserID, &c.Date, &c.CashAmount, &c.CreditAmount, &c.Notes, &c.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}
