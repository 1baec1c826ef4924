package repositories

import (
	"context"
	"time"

	"fuelsync-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ReportRepository struct {
	DB *pgxpool.Pool
}

func NewReportRepository(db *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{DB: db}
}

// SalesRows returns recorded sales in [from, to] ordered by time.
func (r *ReportRepository) SalesRows(ctx context.Context, tenantID, stationID string, from, to time.Time) ([]models.SalesReportRow, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT s.recorded_at, st.name, p.name, n.nozzle_number, s.fuel_type, s.volume, s.fuel_price, s.amount,
		        s.payment_method, COALESCE(c.party_name, '')
		 FROM sales s
		 JOIN nozzles n ON n.id = s.nozzle_id
		 JOIN pumps p ON p.id = n.pump_id
		 JOIN stations st ON st.id = s.station_id
		 LEFT JOIN creditors c ON c.id = s.creditor_id
		 WHERE s.tenant_id = $1 AND s.status = 'recorded'
		   AND ($2 = '' OR s.station_id::text = $2)
		   AND s.recorded_at >= $3 AND s.recorded_at <= $4
		 ORDER BY s.recorded_at`, tenantID, stationID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.SalesReportRow{}
	for rows.Next() {
		var row models.SalesReportRow
		if err := rows.Scan(&row.RecordedAt, &row.StationName, &row.PumpName, &row.NozzleNumber, &row.FuelType,
			&row.Volume, &row.FuelPrice, &row.Amount, &row.PaymentMethod, &row.Creditor); err != nil {
			return nil, err
		}
		list = append(list, row)
	}
	return list, rows.Err()
}

func (r *ReportRepository) RecordArchive(ctx context.Context, a *models.ReportArchive) error {
	a.ID = newID()
	return r.DB.QueryRow(ctx,
		`INSERT INTO report_archives (id, tenant_id, format, object_key, range_from, range_to, created_by)
		 VALUES ($1, $2, $3, $4, $5::date, $6::date, $7)
		 RETURNING created_at`,
		a.ID, a.TenantID, a.Format, a.ObjectKey, a.From, a.To, nullable(a.CreatedBy),
	).Scan(&a.CreatedAt)
}

func (r *ReportRepository) ListArchives(ctx context.Context, tenantID string) ([]models.ReportArchive, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, format, object_key, range_from::text, range_to::text, COALESCE(created_by::text, ''), created_at
		 FROM report_archives WHERE tenant_id=$1
		 ORDER BY created_at DESC
		 LIMIT 100`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.ReportArchive{}
	for rows.Next() {
		var a models.ReportArchive
		if err := rows.Scan(&a.ID, &a.Format, &a.ObjectKey, &a.From, &a.To, &a.CreatedBy, &a.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}
