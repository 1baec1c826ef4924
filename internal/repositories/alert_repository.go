package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fuelsync-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type AlertRepository struct {
	DB *pgxpool.Pool
}

func NewAlertRepository(db *pgxpool.Pool) *AlertRepository {
	return &AlertRepository{DB: db}
}

// AlertCandidate is an alert produced by a rule together with the key that
// keeps it from being raised twice while still unread.
type AlertCandidate struct {
	Alert     models.Alert
	DedupeKey string
}

// insertAlert reports false when an unread alert with the same key exists.
func insertAlert(ctx context.Context, q querier, a *models.Alert, dedupeKey string) (bool, error) {
	a.ID = newID()
	if a.Severity == "" {
		a.Severity = models.SeverityWarning
	}
	var stationID any
	if a.StationID != nil {
		stationID = *a.StationID
	}
	tag, err := q.Exec(ctx,
		`INSERT INTO alerts (id, tenant_id, station_id, alert_type, message, severity, dedupe_key)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (tenant_id, dedupe_key) WHERE dedupe_key IS NOT NULL AND is_read = FALSE DO NOTHING`,
		a.ID, a.TenantID, stationID, a.AlertType, a.Message, a.Severity, nullable(dedupeKey))
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	a.CreatedAt = time.Now()
	return true, nil
}

func (r *AlertRepository) Insert(ctx context.Context, a *models.Alert, dedupeKey string) (bool, error) {
	return insertAlert(ctx, r.DB, a, dedupeKey)
}

func (r *AlertRepository) List(ctx context.Context, tenantID string, f models.AlertFilter) ([]models.Alert, error) {
	where := []string{"tenant_id = $1"}
	args := []any{tenantID}
	if f.StationID != "" {
		args = append(args, f.StationID)
		where = append(where, fmt.Sprintf("station_id::text = $%d", len(args)))
	}
	if f.UnreadOnly {
		where = append(where, "is_read = FALSE")
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	args = append(args, limit)

	rows, err := r.DB.Query(ctx,
		`SELECT id, tenant_id, station_id::text, alert_type, message, severity, is_read, created_at
		 FROM alerts
		 WHERE `+strings.Join(where, " AND ")+`
		 ORDER BY created_at DESC
		 LIMIT `+fmt.Sprintf("$%d", len(args)), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.Alert{}
	for rows.Next() {
		var a models.Alert
		if err := rows.Scan(&a.ID, &a.TenantID, &a.StationID, &a.AlertType, &a.Message, &a.Severity, &a.IsRead, &a.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

func (r *AlertRepository) CountUnread(ctx context.Context, tenantID string) (int, error) {
	var n int
	err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM alerts WHERE tenant_id=$1 AND is_read = FALSE`, tenantID).Scan(&n)
	return n, err
}

func (r *AlertRepository) MarkRead(ctx context.Context, tenantID, id string) error {
	tag, err := r.DB.Exec(ctx, `UPDATE alerts SET is_read = TRUE WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	if err != nil {
		return err
	}
	return affected(tag, "alert")
}

func (r *AlertRepository) Delete(ctx context.Context, tenantID, id string) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM alerts WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	if err != nil {
		return err
	}
	return affected(tag, "alert")
}

func (r *AlertRepository) candidates(ctx context.Context, tenantID, alertType, severity string,
	query string, args []any, build func(id, stationID, detail string) (string, string)) ([]AlertCandidate, error) {
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AlertCandidate
	for rows.Next() {
		var id, stationID, detail string
		if err := rows.Scan(&id, &stationID, &detail); err != nil {
			return nil, err
		}
		msg, key := build(id, stationID, detail)
		sid := stationID
		out = append(out, AlertCandidate{
			Alert: models.Alert{
				TenantID:  tenantID,
				StationID: &sid,
				AlertType: alertType,
				Message:   msg,
				Severity:  severity,
			},
			DedupeKey: key,
		})
	}
	return out, rows.Err()
}

// NoRecentReadings finds active nozzles without a reading since the cutoff.
func (r *AlertRepository) NoRecentReadings(ctx context.Context, tenantID string, since time.Time) ([]AlertCandidate, error) {
	return r.candidates(ctx, tenantID, models.AlertNoReadings, models.SeverityWarning,
		`SELECT n.id::text, p.station_id::text, ('nozzle ' || n.nozzle_number || ' on pump ' || p.name)
		 FROM nozzles n
		 JOIN pumps p ON p.id = n.pump_id
		 LEFT JOIN LATERAL (
		     SELECT MAX(recorded_at) AS last_at FROM nozzle_readings nr
		     WHERE nr.nozzle_id = n.id AND nr.status = 'recorded'
		 ) r ON TRUE
		 WHERE n.tenant_id = $1 AND n.status = 'active'
		   AND (r.last_at IS NULL OR r.last_at < $2)`,
		[]any{tenantID, since},
		func(id, _, detail string) (string, string) {
			return fmt.Sprintf("No readings for %s in the last 24h", detail), models.AlertNoReadings + ":" + id
		})
}

// MissingPrices finds active nozzles whose fuel has no price in force.
func (r *AlertRepository) MissingPrices(ctx context.Context, tenantID string, at time.Time) ([]AlertCandidate, error) {
	return r.candidates(ctx, tenantID, models.AlertMissingPrice, models.SeverityCritical,
		`SELECT DISTINCT p.station_id::text || ':' || n.fuel_type, p.station_id::text, n.fuel_type
		 FROM nozzles n
		 JOIN pumps p ON p.id = n.pump_id
		 WHERE n.tenant_id = $1 AND n.status = 'active'
		   AND NOT EXISTS (
		       SELECT 1 FROM fuel_prices fp
		       WHERE fp.tenant_id = n.tenant_id AND fp.station_id = p.station_id AND fp.fuel_type = n.fuel_type
		         AND fp.valid_from <= $2 AND (fp.effective_to IS NULL OR fp.effective_to > $2)
		   )`,
		[]any{tenantID, at},
		func(id, _, fuel string) (string, string) {
			return fmt.Sprintf("No current price for %s", fuel), models.AlertMissingPrice + ":" + id
		})
}

// CreditorsNearLimit finds active creditors at or above ratio of their limit.
// Creditors are tenant wide so the station is left empty.
func (r *AlertRepository) CreditorsNearLimit(ctx context.Context, tenantID string, ratio float64) ([]AlertCandidate, error) {
	out, err := r.candidates(ctx, tenantID, models.AlertCreditNearLimit, models.SeverityWarning,
		`SELECT id::text, '', party_name
		 FROM creditors
		 WHERE tenant_id = $1 AND status = 'active' AND credit_limit > 0 AND balance >= credit_limit * $2`,
		[]any{tenantID, ratio},
		func(id, _, name string) (string, string) {
			return fmt.Sprintf("%s is over %.0f%% of credit limit", name, ratio*100), models.AlertCreditNearLimit + ":" + id
		})
	for i := range out {
		out[i].Alert.StationID = nil
	}
	return out, err
}

// InactiveStations finds stations with no reading since the cutoff.
func (r *AlertRepository) InactiveStations(ctx context.Context, tenantID string, since time.Time) ([]AlertCandidate, error) {
	return r.candidates(ctx, tenantID, models.AlertStationInactive, models.SeverityWarning,
		`SELECT st.id::text, st.id::text, st.name
		 FROM stations st
		 LEFT JOIN LATERAL (
		     SELECT MAX(nr.recorded_at) AS last_at
		     FROM nozzle_readings nr
		     JOIN nozzles n ON n.id = nr.nozzle_id
		     JOIN pumps p ON p.id = n.pump_id
		     WHERE p.station_id = st.id AND nr.status = 'recorded'
		 ) r ON TRUE
		 WHERE st.tenant_id = $1 AND st.status = 'active'
		   AND (r.last_at IS NULL OR r.last_at < $2)`,
		[]any{tenantID, since},
		func(id, _, name string) (string, string) {
			return fmt.Sprintf("Station %s inactive for 48h", name), models.AlertStationInactive + ":" + id
		})
}

// PumpsInMaintenance finds pumps whose maintenance status predates the cutoff.
func (r *AlertRepository) PumpsInMaintenance(ctx context.Context, tenantID string, before time.Time) ([]AlertCandidate, error) {
	return r.candidates(ctx, tenantID, models.AlertPumpMaintenance, models.SeverityWarning,
		`SELECT id::text, station_id::text, name
		 FROM pumps
		 WHERE tenant_id = $1 AND status = 'maintenance' AND status_changed_at < $2`,
		[]any{tenantID, before},
		func(id, _, name string) (string, string) {
			return fmt.Sprintf("Pump %s in maintenance for over 7 days", name), models.AlertPumpMaintenance + ":" + id
		})
}

// ReadingJumps finds nozzles whose latest reading jumped by more than ratio
// of the previous one.
func (r *AlertRepository) ReadingJumps(ctx context.Context, tenantID string, ratio float64) ([]AlertCandidate, error) {
	return r.candidates(ctx, tenantID, models.AlertReadingJump, models.SeverityWarning,
		`WITH ordered AS (
		     SELECT nr.id, nr.nozzle_id, p.station_id, n.nozzle_number, nr.reading,
		            LAG(nr.reading) OVER (PARTITION BY nr.nozzle_id ORDER BY nr.recorded_at, nr.created_at) AS prev,
		            ROW_NUMBER() OVER (PARTITION BY nr.nozzle_id ORDER BY nr.recorded_at DESC, nr.created_at DESC) AS rn
		     FROM nozzle_readings nr
		     JOIN nozzles n ON n.id = nr.nozzle_id
		     JOIN pumps p ON p.id = n.pump_id
		     WHERE nr.tenant_id = $1 AND nr.status = 'recorded'
		 )
		 SELECT id::text, station_id::text, nozzle_number || ':' || (reading - prev)::text
		 FROM ordered
		 WHERE rn = 1 AND prev IS NOT NULL AND prev > 0 AND (reading - prev) > prev * $2`,
		[]any{tenantID, ratio},
		func(id, _, detail string) (string, string) {
			nozzle, delta, _ := strings.Cut(detail, ":")
			return fmt.Sprintf("Large jump (%s) detected for nozzle %s", delta, nozzle), models.AlertReadingJump + ":" + id
		})
}

// MissingCashReports finds active stations without a cash report for date.
func (r *AlertRepository) MissingCashReports(ctx context.Context, tenantID, date string) ([]AlertCandidate, error) {
	return r.candidates(ctx, tenantID, models.AlertNoCashReport, models.SeverityInfo,
		`SELECT st.id::text, st.id::text, st.name
		 FROM stations st
		 WHERE st.tenant_id = $1 AND st.status = 'active'
		   AND NOT EXISTS (
		       SELECT 1 FROM cash_reports cr
		       WHERE cr.station_id = st.id AND cr.business_date = $2::date
		   )`,
		[]any{tenantID, date},
		func(id, _, name string) (string, string) {
			return fmt.Sprintf("No cash report submitted today for %s", name), models.AlertNoCashReport + ":" + id + ":" + date
		})
}
