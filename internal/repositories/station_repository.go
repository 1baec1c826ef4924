package repositories

import (
	"context"
	"time"

	"fuelsync-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type StationRepository struct {
	DB *pgxpool.Pool
}

func NewStationRepository(db *pgxpool.Pool) *StationRepository {
	return &StationRepository{DB: db}
}

const stationSelect = `
	SELECT s.id, s.tenant_id, s.name, s.address, s.status, s.created_at, s.updated_at,
	       (SELECT COUNT(*) FROM pumps p WHERE p.station_id = s.id),
	       (SELECT COUNT(*) FROM nozzles n JOIN pumps p ON p.id = n.pump_id WHERE p.station_id = s.id)
	FROM stations s`

func scanStation(row interface{ Scan(...any) error }) (*models.Station, error) {
	var s models.Station
	err := row.Scan(&s.ID, &s.TenantID, &s.Name, &s.Address, &s.Status, &s.CreatedAt, &s.UpdatedAt,
		&s.PumpCount, &s.NozzleCount)
	return &s, err
}

func (r *StationRepository) Create(ctx context.Context, s *models.Station) error {
	s.ID = newID()
	err := r.DB.QueryRow(ctx,
		`INSERT INTO stations (id, tenant_id, name, address, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at, updated_at`,
		s.ID, s.TenantID, s.Name, s.Address, s.Status,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	return conflict(err, "station name already exists")
}

func (r *StationRepository) Get(ctx context.Context, tenantID, id string) (*models.Station, error) {
	s, err := scanStation(r.DB.QueryRow(ctx, stationSelect+` WHERE s.tenant_id=$1 AND s.id=$2`, tenantID, id))
	if err != nil {
		return nil, notFound(err, "station")
	}
	return s, nil
}

// List returns the tenant's stations; a non-nil only restricts to those ids.
func (r *StationRepository) List(ctx context.Context, tenantID string, only []string) ([]models.Station, error) {
	query := stationSelect + ` WHERE s.tenant_id=$1`
	args := []any{tenantID}
	if only != nil {
		query += ` AND s.id::text = ANY($2)`
		args = append(args, only)
	}
	query += ` ORDER BY s.name`

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stations := []models.Station{}
	for rows.Next() {
		s, err := scanStation(rows)
		if err != nil {
			return nil, err
		}
		stations = append(stations, *s)
	}
	return stations, rows.Err()
}

func (r *StationRepository) Update(ctx context.Context, s *models.Station) error {
	err := r.DB.QueryRow(ctx,
		`UPDATE stations
		 SET name=$3, address=$4,
		     status_changed_at = CASE WHEN status <> $5 THEN NOW() ELSE status_changed_at END,
		     status=$5, updated_at=NOW()
		 WHERE tenant_id=$1 AND id=$2
		 RETURNING created_at, updated_at`,
		s.TenantID, s.ID, s.Name, s.Address, s.Status,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return conflict(notFound(err, "station"), "station name already exists")
	}
	return nil
}

func (r *StationRepository) Delete(ctx context.Context, tenantID, id string) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM stations WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	if err != nil {
		return err
	}
	return affected(tag, "station")
}

func (r *StationRepository) Count(ctx context.Context, tenantID string) (int, error) {
	var n int
	err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM stations WHERE tenant_id=$1`, tenantID).Scan(&n)
	return n, err
}

// Metrics aggregates recorded sales since startOfDay and startOfMonth.
func (r *StationRepository) Metrics(ctx context.Context, tenantID, id string, startOfDay, startOfMonth time.Time) (*models.StationMetrics, error) {
	m := models.StationMetrics{StationID: id}
	err := r.DB.QueryRow(ctx,
		`SELECT
		    COALESCE(SUM(amount) FILTER (WHERE recorded_at >= $3), 0),
		    COALESCE(SUM(volume) FILTER (WHERE recorded_at >= $3), 0),
		    COALESCE(SUM(amount), 0),
		    COALESCE(SUM(volume), 0)
		 FROM sales
		 WHERE tenant_id=$1 AND station_id=$2 AND status='recorded' AND recorded_at >= $4`,
		tenantID, id, startOfDay, startOfMonth,
	).Scan(&m.TodaySales, &m.TodayVolume, &m.MonthlySales, &m.MonthlyVolume)
	if err != nil {
		return nil, err
	}

	err = r.DB.QueryRow(ctx,
		`SELECT COUNT(*) FILTER (WHERE status='active'), COUNT(*)
		 FROM pumps WHERE tenant_id=$1 AND station_id=$2`, tenantID, id,
	).Scan(&m.ActivePumps, &m.TotalPumps)
	return &m, err
}

// Ranking ranks every station of the tenant by sales or volume since from.
func (r *StationRepository) Ranking(ctx context.Context, tenantID, metric string, from time.Time) ([]models.StationRanking, error) {
	order := "total_sales"
	if metric == "volume" {
		order = "total_volume"
	}

	rows, err := r.DB.Query(ctx,
		`SELECT id, name, total_sales, total_volume, tx_count,
		        RANK() OVER (ORDER BY `+order+` DESC)
		 FROM (
		    SELECT st.id, st.name,
		           COALESCE(SUM(s.amount), 0) AS total_sales,
		           COALESCE(SUM(s.volume), 0) AS total_volume,
		           COUNT(s.id) AS tx_count
		    FROM stations st
		    LEFT JOIN sales s ON s.station_id = st.id AND s.status = 'recorded' AND s.recorded_at >= $2
		    WHERE st.tenant_id = $1
		    GROUP BY st.id, st.name
		 ) agg
		 ORDER BY `+order+` DESC, name`,
		tenantID, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ranking := []models.StationRanking{}
	for rows.Next() {
		var sr models.StationRanking
		if err := rows.Scan(&sr.StationID, &sr.StationName, &sr.TotalSales, &sr.TotalVolume, &sr.Transactions, &sr.Rank); err != nil {
			return nil, err
		}
		ranking = append(ranking, sr)
	}
	return ranking, rows.Err()
}
