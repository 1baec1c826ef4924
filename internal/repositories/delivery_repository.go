package repositories

import (
	"context"

	"fuelsync-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type DeliveryRepository struct {
	DB *pgxpool.Pool
}

func NewDeliveryRepository(db *pgxpool.Pool) *DeliveryRepository {
	return &DeliveryRepository{DB: db}
}

func (r *DeliveryRepository) Create(ctx context.Context, d *models.FuelDelivery) error {
	d.ID = newID()
	_, err := r.DB.Exec(ctx,
		`INSERT INTO fuel_deliveries (id, tenant_id, station_id, fuel_type, volume, delivered_at, supplier, invoice_number, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		d.ID, d.TenantID, d.StationID, d.FuelType, d.Volume, d.DeliveredAt, d.Supplier, d.InvoiceNumber, nullable(d.CreatedBy))
	return err
}

func (r *DeliveryRepository) List(ctx context.Context, tenantID, stationID string) ([]models.FuelDelivery, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, station_id, fuel_type, volume, delivered_at, supplier, invoice_number, COALESCE(created_by::text, '')
		 FROM fuel_deliveries
		 WHERE tenant_id=$1 AND ($2 = '' OR station_id::text = $2)
		 ORDER BY delivered_at DESC`, tenantID, stationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.FuelDelivery{}
	for rows.Next() {
		var d models.FuelDelivery
		if err := rows.Scan(&d.ID, &d.StationID, &d.FuelType, &d.Volume, &d.DeliveredAt, &d.Supplier,
			&d.InvoiceNumber, &d.CreatedBy); err != nil {
			return nil, err
		}
		list = append(list, d)
	}
	return list, rows.Err()
}

// Inventory computes stock per station and fuel type as delivered minus sold.
func (r *DeliveryRepository) Inventory(ctx context.Context, tenantID, stationID string) ([]models.InventoryLevel, error) {
	rows, err := r.DB.Query(ctx,
		`WITH delivered AS (
		    SELECT station_id, fuel_type, SUM(volume) AS volume
		    FROM fuel_deliveries WHERE tenant_id=$1
		    GROUP BY station_id, fuel_type
		 ), sold AS (
		    SELECT station_id, fuel_type, SUM(volume) AS volume
		    FROM sales WHERE tenant_id=$1 AND status='recorded'
		    GROUP BY station_id, fuel_type
		 )
		 SELECT COALESCE(d.station_id, s.station_id), COALESCE(d.fuel_type, s.fuel_type),
		        COALESCE(d.volume, 0), COALESCE(s.volume, 0)
		 FROM delivered d
		 FULL OUTER JOIN sold s ON s.station_id = d.station_id AND s.fuel_type = d.fuel_type
		 WHERE $2 = '' OR COALESCE(d.station_id, s.station_id)::text = $2
		 ORDER BY 1, 2`, tenantID, stationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.InventoryLevel{}
	for rows.Next() {
		var l models.InventoryLevel
		if err := rows.Scan(&l.StationID, &l.FuelType, &l.Delivered, &l.Sold); err != nil {
			return nil, err
		}
		l.CurrentStock = l.Delivered - l.Sold
		list = append(list, l)
	}
	return list, rows.Err()
}
