package repositories

import (
	"context"
	"errors"
	"time"

	"fuelsync-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FuelPriceRepository struct {
	DB *pgxpool.Pool
}

func NewFuelPriceRepository(db *pgxpool.Pool) *FuelPriceRepository {
	return &FuelPriceRepository{DB: db}
}

const fuelPriceSelect = `
	SELECT fp.id, fp.tenant_id, fp.station_id, st.name, fp.fuel_type, fp.price, fp.valid_from, fp.effective_to,
	       COALESCE(fp.created_by::text, ''), fp.created_at
	FROM fuel_prices fp
	JOIN stations st ON st.id = fp.station_id`

func scanFuelPrice(row interface{ Scan(...any) error }) (*models.FuelPrice, error) {
	var fp models.FuelPrice
	err := row.Scan(&fp.ID, &fp.TenantID, &fp.StationID, &fp.StationName, &fp.FuelType, &fp.Price,
		&fp.ValidFrom, &fp.EffectiveTo, &fp.CreatedBy, &fp.CreatedAt)
	return &fp, err
}

// priceAt mirrors models.CurrentPrice in SQL.
func priceAt(ctx context.Context, q querier, tenantID, stationID, fuelType string, at time.Time) (*models.FuelPrice, error) {
	fp, err := scanFuelPrice(q.QueryRow(ctx, fuelPriceSelect+`
		WHERE fp.tenant_id=$1 AND fp.station_id=$2 AND fp.fuel_type=$3
		  AND fp.valid_from <= $4
		  AND (fp.effective_to IS NULL OR fp.effective_to > $4)
		ORDER BY fp.valid_from DESC
		LIMIT 1`, tenantID, stationID, fuelType, at))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return fp, nil
}

func (r *FuelPriceRepository) PriceAt(ctx context.Context, tenantID, stationID, fuelType string, at time.Time) (*models.FuelPrice, error) {
	return priceAt(ctx, r.DB, tenantID, stationID, fuelType, at)
}

// Create inserts a price and closes the entry it supersedes. If a later
// entry already exists the new one ends where that one starts.
func (r *FuelPriceRepository) Create(ctx context.Context, fp *models.FuelPrice) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// serialise price changes per station and fuel
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1::text || ':' || $2::text))`, fp.StationID, fp.FuelType); err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`UPDATE fuel_prices SET effective_to=$4
		 WHERE tenant_id=$1 AND station_id=$2 AND fuel_type=$3
		   AND valid_from < $4 AND (effective_to IS NULL OR effective_to > $4)`,
		fp.TenantID, fp.StationID, fp.FuelType, fp.ValidFrom)
	if err != nil {
		return err
	}

	var next *time.Time
	err = tx.QueryRow(ctx,
		`SELECT MIN(valid_from) FROM fuel_prices
		 WHERE tenant_id=$1 AND station_id=$2 AND fuel_type=$3 AND valid_from > $4`,
		fp.TenantID, fp.StationID, fp.FuelType, fp.ValidFrom,
	).Scan(&next)
	if err != nil {
		return err
	}
	fp.EffectiveTo = next

	fp.ID = newID()
	err = tx.QueryRow(ctx,
		`INSERT INTO fuel_prices (id, tenant_id, station_id, fuel_type, price, valid_from, effective_to, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at`,
		fp.ID, fp.TenantID, fp.StationID, fp.FuelType, fp.Price, fp.ValidFrom, fp.EffectiveTo, nullable(fp.CreatedBy),
	).Scan(&fp.CreatedAt)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *FuelPriceRepository) Get(ctx context.Context, tenantID, id string) (*models.FuelPrice, error) {
	fp, err := scanFuelPrice(r.DB.QueryRow(ctx, fuelPriceSelect+` WHERE fp.tenant_id=$1 AND fp.id=$2`, tenantID, id))
	if err != nil {
		return nil, notFound(err, "fuel price")
	}
	return fp, nil
}

func (r *FuelPriceRepository) List(ctx context.Context, tenantID, stationID, fuelType string) ([]models.FuelPrice, error) {
	rows, err := r.DB.Query(ctx, fuelPriceSelect+`
		WHERE fp.tenant_id=$1
		  AND ($2 = '' OR fp.station_id::text = $2)
		  AND ($3 = '' OR fp.fuel_type = $3)
		ORDER BY st.name, fp.fuel_type, fp.valid_from DESC`, tenantID, stationID, fuelType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prices := []models.FuelPrice{}
	for rows.Next() {
		fp, err := scanFuelPrice(rows)
		if err != nil {
			return nil, err
		}
		prices = append(prices, *fp)
	}
	return prices, rows.Err()
}

// Update changes the price amount and start of an entry.
func (r *FuelPriceRepository) Update(ctx context.Context, fp *models.FuelPrice) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE fuel_prices SET price=$3, valid_from=$4 WHERE tenant_id=$1 AND id=$2`,
		fp.TenantID, fp.ID, fp.Price, fp.ValidFrom)
	if err != nil {
		return err
	}
	return affected(tag, "fuel price")
}

func (r *FuelPriceRepository) Delete(ctx context.Context, tenantID, id string) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM fuel_prices WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	if err != nil {
		return err
	}
	return affected(tag, "fuel price")
}
