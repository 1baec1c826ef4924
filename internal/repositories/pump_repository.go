package repositories

import (
	"context"

	"fuelsync-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PumpRepository struct {
	DB *pgxpool.Pool
}

func NewPumpRepository(db *pgxpool.Pool) *PumpRepository {
	return &PumpRepository{DB: db}
}

const pumpSelect = `
	SELECT p.id, p.tenant_id, p.station_id, st.name, p.name, p.serial_number, p.status,
	       p.created_at, p.updated_at,
	       (SELECT COUNT(*) FROM nozzles n WHERE n.pump_id = p.id)
	FROM pumps p
	JOIN stations st ON st.id = p.station_id`

func scanPump(row interface{ Scan(...any) error }) (*models.Pump, error) {
	var p models.Pump
	err := row.Scan(&p.ID, &p.TenantID, &p.StationID, &p.StationName, &p.Name, &p.SerialNumber, &p.Status,
		&p.CreatedAt, &p.UpdatedAt, &p.NozzleCount)
	return &p, err
}

func (r *PumpRepository) Create(ctx context.Context, p *models.Pump) error {
	p.ID = newID()
	err := r.DB.QueryRow(ctx,
		`INSERT INTO pumps (id, tenant_id, station_id, name, serial_number, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at, updated_at`,
		p.ID, p.TenantID, p.StationID, p.Name, p.SerialNumber, p.Status,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	return conflict(err, "pump name already exists at this station")
}

func (r *PumpRepository) Get(ctx context.Context, tenantID, id string) (*models.Pump, error) {
	p, err := scanPump(r.DB.QueryRow(ctx, pumpSelect+` WHERE p.tenant_id=$1 AND p.id=$2`, tenantID, id))
	if err != nil {
		return nil, notFound(err, "pump")
	}
	return p, nil
}

// List returns pumps, optionally of one station and restricted to stations in only.
func (r *PumpRepository) List(ctx context.Context, tenantID, stationID string, only []string) ([]models.Pump, error) {
	query := pumpSelect + ` WHERE p.tenant_id=$1 AND ($2 = '' OR p.station_id::text = $2)`
	args := []any{tenantID, stationID}
	if only != nil {
		query += ` AND p.station_id::text = ANY($3)`
		args = append(args, only)
	}
	query += ` ORDER BY st.name, p.name`

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pumps := []models.Pump{}
	for rows.Next() {
		p, err := scanPump(rows)
		if err != nil {
			return nil, err
		}
		pumps = append(pumps, *p)
	}
	return pumps, rows.Err()
}

func (r *PumpRepository) Update(ctx context.Context, p *models.Pump) error {
	err := r.DB.QueryRow(ctx,
		`UPDATE pumps
		 SET name=$3, serial_number=$4,
		     status_changed_at = CASE WHEN status <> $5 THEN NOW() ELSE status_changed_at END,
		     status=$5, updated_at=NOW()
		 WHERE tenant_id=$1 AND id=$2
		 RETURNING station_id, created_at, updated_at`,
		p.TenantID, p.ID, p.Name, p.SerialNumber, p.Status,
	).Scan(&p.StationID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return conflict(notFound(err, "pump"), "pump name already exists at this station")
	}
	return nil
}

func (r *PumpRepository) Delete(ctx context.Context, tenantID, id string) error {
	tag, err := r.DB.Exec(ctx,
		`DELETE FROM pumps WHERE tenant_id=$1 AND id=$2
		 AND NOT EXISTS (SELECT 1 FROM nozzles WHERE pump_id=$2)`, tenantID, id)
	if err != nil {
		return err
	}
	return affected(tag, "pump")
}

func (r *PumpRepository) CountByStation(ctx context.Context, tenantID, stationID string) (int, error) {
	var n int
	err := r.DB.QueryRow(ctx,
		`SELECT COUNT(*) FROM pumps WHERE tenant_id=$1 AND station_id=$2`, tenantID, stationID,
	).Scan(&n)
	return n, err
}
