package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fuelsync-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReadingRepository struct {
	DB *pgxpool.Pool
}

func NewReadingRepository(db *pgxpool.Pool) *ReadingRepository {
	return &ReadingRepository{DB: db}
}

// readingWindow exposes every recorded reading with its predecessor on the
// same nozzle. Date filters are applied outside the window so the first row
// of a range still sees the reading before it.
const readingWindow = `
	SELECT nr.id, nr.tenant_id, nr.nozzle_id, p.id AS pump_id, p.station_id, n.nozzle_number, n.fuel_type,
	       nr.reading,
	       LAG(nr.reading) OVER (PARTITION BY nr.nozzle_id ORDER BY nr.recorded_at, nr.created_at) AS previous_reading,
	       nr.recorded_at, nr.payment_method, nr.creditor_id::text, nr.status, nr.void_reason,
	       COALESCE(s.volume, 0) AS volume, COALESCE(s.amount, 0) AS amount, COALESCE(s.fuel_price, 0) AS fuel_price,
	       COALESCE(nr.created_by::text, '') AS created_by, nr.created_at
	FROM nozzle_readings nr
	JOIN nozzles n ON n.id = nr.nozzle_id
	JOIN pumps p ON p.id = n.pump_id
	LEFT JOIN sales s ON s.reading_id = nr.id`

const readingColumns = `id, tenant_id, nozzle_id, pump_id, station_id, nozzle_number, fuel_type, reading,
	previous_reading, recorded_at, payment_method, creditor_id, status, void_reason,
	volume, amount, fuel_price, created_by, created_at`

func scanReading(row interface{ Scan(...any) error }) (*models.NozzleReading, error) {
	var nr models.NozzleReading
	err := row.Scan(&nr.ID, &nr.TenantID, &nr.NozzleID, &nr.PumpID, &nr.StationID, &nr.NozzleNumber, &nr.FuelType,
		&nr.Reading, &nr.PreviousReading, &nr.RecordedAt, &nr.PaymentMethod, &nr.CreditorID, &nr.Status, &nr.VoidReason,
		&nr.Volume, &nr.Amount, &nr.FuelPrice, &nr.CreatedBy, &nr.CreatedAt)
	return &nr, err
}

// List returns recorded readings newest first with previousReading derived by LAG.
func (r *ReadingRepository) List(ctx context.Context, tenantID string, f models.ReadingFilter) ([]models.NozzleReading, error) {
	inner := []string{"nr.tenant_id = $1", "nr.status = 'recorded'"}
	outer := []string{"TRUE"}
	args := []any{tenantID}

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.NozzleID != "" {
		inner = append(inner, "nr.nozzle_id::text = "+arg(f.NozzleID))
	}
	if f.PumpID != "" {
		inner = append(inner, "p.id::text = "+arg(f.PumpID))
	}
	if f.StationID != "" {
		inner = append(inner, "p.station_id::text = "+arg(f.StationID))
	}
	if f.From != nil {
		outer = append(outer, "recorded_at >= "+arg(*f.From))
	}
	if f.To != nil {
		outer = append(outer, "recorded_at <= "+arg(*f.To))
	}
	if f.CreatedBy != "" {
		outer = append(outer, "created_by = "+arg(f.CreatedBy))
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `SELECT ` + readingColumns + ` FROM (` + readingWindow +
		` WHERE ` + strings.Join(inner, " AND ") + `) w
		 WHERE ` + strings.Join(outer, " AND ") + `
		 ORDER BY recorded_at DESC, created_at DESC
		 LIMIT ` + arg(limit)

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.NozzleReading{}
	for rows.Next() {
		nr, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *nr)
	}
	return list, rows.Err()
}

func (r *ReadingRepository) Get(ctx context.Context, tenantID, id string) (*models.NozzleReading, error) {
	nr, err := scanReading(r.DB.QueryRow(ctx,
		`SELECT `+readingColumns+` FROM (`+readingWindow+` WHERE nr.tenant_id = $1) w WHERE id::text = $2`,
		tenantID, id))
	if err != nil {
		return nil, notFound(err, "reading")
	}
	return nr, nil
}

// InTx runs fn inside one database transaction.
func (r *ReadingRepository) InTx(ctx context.Context, fn func(*ReadingTx) error) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(&ReadingTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ReadingTx holds the statements used while recording or voiding a reading.
type ReadingTx struct {
	tx pgx.Tx
}

// NozzleForUpdate locks the nozzle row so concurrent readings on the same
// nozzle are serialised.
func (t *ReadingTx) NozzleForUpdate(ctx context.Context, tenantID, id string) (*models.Nozzle, error) {
	n, err := scanNozzle(t.tx.QueryRow(ctx,
		nozzleSelect+` WHERE n.tenant_id=$1 AND n.id=$2 FOR UPDATE OF n`, tenantID, id))
	if err != nil {
		return nil, notFound(err, "nozzle")
	}
	return n, nil
}

// LastReading returns nil when the nozzle has no recorded reading.
func (t *ReadingTx) LastReading(ctx context.Context, tenantID, nozzleID string) (*models.NozzleReading, error) {
	var nr models.NozzleReading
	err := t.tx.QueryRow(ctx,
		`SELECT id, reading, recorded_at FROM nozzle_readings
		 WHERE tenant_id=$1 AND nozzle_id=$2 AND status='recorded'
		 ORDER BY recorded_at DESC, created_at DESC
		 LIMIT 1`, tenantID, nozzleID,
	).Scan(&nr.ID, &nr.Reading, &nr.RecordedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	nr.NozzleID = nozzleID
	return &nr, nil
}

// IsDayFinalized takes the station-day lock before checking, so a reading
// cannot commit into a day that Finalize has already totalled.
func (t *ReadingTx) IsDayFinalized(ctx context.Context, tenantID, stationID, date string) (bool, error) {
	if err := lockStationDay(ctx, t.tx, stationID, date); err != nil {
		return false, err
	}
	return isDayFinalized(ctx, t.tx, tenantID, stationID, date)
}

// PriceAt returns nil when no price is in force at the given instant.
func (t *ReadingTx) PriceAt(ctx context.Context, tenantID, stationID, fuelType string, at time.Time) (*models.FuelPrice, error) {
	return priceAt(ctx, t.tx, tenantID, stationID, fuelType, at)
}

func (t *ReadingTx) CreditorForUpdate(ctx context.Context, tenantID, id string) (*models.Creditor, error) {
	c, err := scanCreditor(t.tx.QueryRow(ctx,
		`SELECT `+creditorColumns+` FROM creditors WHERE tenant_id=$1 AND id=$2 FOR UPDATE`, tenantID, id))
	if err != nil {
		return nil, notFound(err, "creditor")
	}
	return c, nil
}

func (t *ReadingTx) AdjustCreditorBalance(ctx context.Context, tenantID, id string, delta float64) error {
	return adjustBalance(ctx, t.tx, tenantID, id, delta)
}

func (t *ReadingTx) InsertReading(ctx context.Context, nr *models.NozzleReading) error {
	nr.ID = newID()
	return t.tx.QueryRow(ctx,
		`INSERT INTO nozzle_readings (id, tenant_id, nozzle_id, reading, recorded_at, payment_method, creditor_id, status, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING created_at`,
		nr.ID, nr.TenantID, nr.NozzleID, nr.Reading, nr.RecordedAt, nr.PaymentMethod, nr.CreditorID, nr.Status, nullable(nr.CreatedBy),
	).Scan(&nr.CreatedAt)
}

func (t *ReadingTx) InsertSale(ctx context.Context, s *models.Sale) error {
	s.ID = newID()
	_, err := t.tx.Exec(ctx,
		`INSERT INTO sales (id, tenant_id, reading_id, nozzle_id, station_id, fuel_type, volume, fuel_price, amount,
		                    payment_method, creditor_id, created_by, recorded_at, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		s.ID, s.TenantID, s.ReadingID, s.NozzleID, s.StationID, s.FuelType, s.Volume, s.FuelPrice, s.Amount,
		s.PaymentMethod, s.CreditorID, nullable(s.CreatedBy), s.RecordedAt, s.Status)
	return err
}

func (t *ReadingTx) InsertAlert(ctx context.Context, a *models.Alert, dedupeKey string) (bool, error) {
	return insertAlert(ctx, t.tx, a, dedupeKey)
}

// ReadingForUpdate locks a reading together with its sale figures.
func (t *ReadingTx) ReadingForUpdate(ctx context.Context, tenantID, id string) (*models.NozzleReading, error) {
	var nr models.NozzleReading
	err := t.tx.QueryRow(ctx,
		`SELECT nr.id, nr.nozzle_id, p.station_id, nr.reading, nr.recorded_at, nr.payment_method,
		        nr.creditor_id::text, nr.status, COALESCE(s.amount, 0), COALESCE(s.volume, 0)
		 FROM nozzle_readings nr
		 JOIN nozzles n ON n.id = nr.nozzle_id
		 JOIN pumps p ON p.id = n.pump_id
		 LEFT JOIN sales s ON s.reading_id = nr.id
		 WHERE nr.tenant_id=$1 AND nr.id=$2
		 FOR UPDATE OF nr`, tenantID, id,
	).Scan(&nr.ID, &nr.NozzleID, &nr.StationID, &nr.Reading, &nr.RecordedAt, &nr.PaymentMethod,
		&nr.CreditorID, &nr.Status, &nr.Amount, &nr.Volume)
	if err != nil {
		return nil, notFound(err, "reading")
	}
	nr.TenantID = tenantID
	return &nr, nil
}

// MarkVoided flags the reading and its sale as voided.
func (t *ReadingTx) MarkVoided(ctx context.Context, tenantID, id, reason string) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE nozzle_readings SET status='voided', void_reason=$3 WHERE tenant_id=$1 AND id=$2`,
		tenantID, id, reason)
	if err != nil {
		return err
	}
	if err := affected(tag, "reading"); err != nil {
		return err
	}
	_, err = t.tx.Exec(ctx,
		`UPDATE sales SET status='voided' WHERE tenant_id=$1 AND reading_id=$2`, tenantID, id)
	return err
}
