package repositories

import (
	"context"

	"fuelsync-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type NozzleRepository struct {
	DB *pgxpool.Pool
}

func NewNozzleRepository(db *pgxpool.Pool) *NozzleRepository {
	return &NozzleRepository{DB: db}
}

const nozzleSelect = `
	SELECT n.id, n.tenant_id, n.pump_id, p.station_id, n.nozzle_number, n.fuel_type, n.status,
	       n.created_at, n.updated_at
	FROM nozzles n
	JOIN pumps p ON p.id = n.pump_id`

func scanNozzle(row interface{ Scan(...any) error }) (*models.Nozzle, error) {
	var n models.Nozzle
	err := row.Scan(&n.ID, &n.TenantID, &n.PumpID, &n.StationID, &n.NozzleNumber, &n.FuelType, &n.Status,
		&n.CreatedAt, &n.UpdatedAt)
	return &n, err
}

func (r *NozzleRepository) Create(ctx context.Context, n *models.Nozzle) error {
	n.ID = newID()
	err := r.DB.QueryRow(ctx,
		`INSERT INTO nozzles (id, tenant_id, pump_id, nozzle_number, fuel_type, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at, updated_at`,
		n.ID, n.TenantID, n.PumpID, n.NozzleNumber, n.FuelType, n.Status,
	).Scan(&n.CreatedAt, &n.UpdatedAt)
	return conflict(err, "nozzle number already used on this pump")
}

func (r *NozzleRepository) Get(ctx context.Context, tenantID, id string) (*models.Nozzle, error) {
	n, err := scanNozzle(r.DB.QueryRow(ctx, nozzleSelect+` WHERE n.tenant_id=$1 AND n.id=$2`, tenantID, id))
	if err != nil {
		return nil, notFound(err, "nozzle")
	}
	return n, nil
}

// List filters by pump and/or station; only restricts to the given stations.
func (r *NozzleRepository) List(ctx context.Context, tenantID, pumpID, stationID string, only []string) ([]models.Nozzle, error) {
	query := nozzleSelect + ` WHERE n.tenant_id=$1
		AND ($2 = '' OR n.pump_id::text = $2)
		AND ($3 = '' OR p.station_id::text = $3)`
	args := []any{tenantID, pumpID, stationID}
	if only != nil {
		query += ` AND p.station_id::text = ANY($4)`
		args = append(args, only)
	}
	query += ` ORDER BY p.name, n.nozzle_number`

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	nozzles := []models.Nozzle{}
	for rows.Next() {
		n, err := scanNozzle(rows)
		if err != nil {
			return nil, err
		}
		nozzles = append(nozzles, *n)
	}
	return nozzles, rows.Err()
}

func (r *NozzleRepository) Update(ctx context.Context, n *models.Nozzle) error {
	err := r.DB.QueryRow(ctx,
		`UPDATE nozzles SET nozzle_number=$3, fuel_type=$4, status=$5, updated_at=NOW()
		 WHERE tenant_id=$1 AND id=$2
		 RETURNING pump_id, created_at, updated_at`,
		n.TenantID, n.ID, n.NozzleNumber, n.FuelType, n.Status,
	).Scan(&n.PumpID, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return conflict(notFound(err, "nozzle"), "nozzle number already used on this pump")
	}
	return nil
}

func (r *NozzleRepository) Delete(ctx context.Context, tenantID, id string) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM nozzles WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	if err != nil {
		return err
	}
	return affected(tag, "nozzle")
}

func (r *NozzleRepository) CountByPump(ctx context.Context, tenantID, pumpID string) (int, error) {
	var n int
	err := r.DB.QueryRow(ctx,
		`SELECT COUNT(*) FROM nozzles WHERE tenant_id=$1 AND pump_id=$2`, tenantID, pumpID,
	).Scan(&n)
	return n, err
}
