package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fuelsync-backend/internal/cache"
	"fuelsync-backend/internal/config"
	"fuelsync-backend/internal/metrics"
	"fuelsync-backend/internal/models"
	"fuelsync-backend/internal/readings"
	"fuelsync-backend/internal/repositories"
	"fuelsync-backend/internal/timeutil"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// ReadingTx is the set of statements a reading write needs inside one transaction.
type ReadingTx interface {
	NozzleForUpdate(ctx context.Context, tenantID, id string) (*models.Nozzle, error)
	LastReading(ctx context.Context, tenantID, nozzleID string) (*models.NozzleReading, error)
	IsDayFinalized(ctx context.Context, tenantID, stationID, date string) (bool, error)
	PriceAt(ctx context.Context, tenantID, stationID, fuelType string, at time.Time) (*models.FuelPrice, error)
	CreditorForUpdate(ctx context.Context, tenantID, id string) (*models.Creditor, error)
	AdjustCreditorBalance(ctx context.Context, tenantID, id string, delta float64) error
	InsertReading(ctx context.Context, nr *models.NozzleReading) error
	InsertSale(ctx context.Context, s *models.Sale) error
	InsertAlert(ctx context.Context, a *models.Alert, dedupeKey string) (bool, error)
	ReadingForUpdate(ctx context.Context, tenantID, id string) (*models.NozzleReading, error)
	MarkVoided(ctx context.Context, tenantID, id, reason string) error
}

type ReadingStore interface {
	InTx(ctx context.Context, fn func(ReadingTx) error) error
	List(ctx context.Context, tenantID string, f models.ReadingFilter) ([]models.NozzleReading, error)
	Get(ctx context.Context, tenantID, id string) (*models.NozzleReading, error)
}

// AlertNotifier pushes freshly raised alerts to connected clients.
type AlertNotifier interface {
	Broadcast(tenantID string, alert models.Alert)
}

type readingStore struct {
	repo *repositories.ReadingRepository
}

// NewReadingStore adapts the Postgres repository to ReadingStore.
func NewReadingStore(repo *repositories.ReadingRepository) ReadingStore {
	return &readingStore{repo: repo}
}

func (s *readingStore) InTx(ctx context.Context, fn func(ReadingTx) error) error {
	return s.repo.InTx(ctx, func(tx *repositories.ReadingTx) error { return fn(tx) })
}

func (s *readingStore) List(ctx context.Context, tenantID string, f models.ReadingFilter) ([]models.NozzleReading, error) {
	return s.repo.List(ctx, tenantID, f)
}

func (s *readingStore) Get(ctx context.Context, tenantID, id string) (*models.NozzleReading, error) {
	return s.repo.Get(ctx, tenantID, id)
}

type ReadingService struct {
	Store    ReadingStore
	Notifier AlertNotifier
	// Scope limits attendants to their stations; nil allows every station.
	Scope StationScope

	Options         readings.Options
	MaxPriceAge     time.Duration
	CreditWarnRatio float64
	TTL             time.Duration

	now func() time.Time
}

func NewReadingService(store ReadingStore, cfg *config.Config, notifier AlertNotifier) *ReadingService {
	opts := readings.DefaultOptions()
	if cfg.Reading.ConfirmDelta > 0 {
		opts.ConfirmDelta = cfg.Reading.ConfirmDelta
	}
	if cfg.Reading.MeterResetThreshold > 0 {
		opts.MeterResetThreshold = cfg.Reading.MeterResetThreshold
	}
	warnRatio := cfg.Reading.CreditWarnRatio
	if warnRatio <= 0 {
		warnRatio = 0.9
	}
	return &ReadingService{
		Store:           store,
		Notifier:        notifier,
		Options:         opts,
		MaxPriceAge:     cfg.Reading.MaxPriceAge,
		CreditWarnRatio: warnRatio,
		TTL:             cfg.Redis.ListTTL,
		now:             timeutil.Now,
	}
}

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", models.ErrValidation, fmt.Sprintf(format, args...))
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// resolvePayment applies the payment defaults: credit when a creditor is
// given, cash otherwise, and no creditor for non-credit payments.
func resolvePayment(method, creditorID string) (string, *string, error) {
	if method == "" {
		method = models.PaymentCash
		if creditorID != "" {
			method = models.PaymentCredit
		}
	}
	if !models.ValidPaymentMethod(method) {
		return "", nil, validationf("invalid payment method %q", method)
	}
	if method != models.PaymentCredit {
		return method, nil, nil
	}
	if creditorID == "" {
		return "", nil, validationf("creditorId is required for credit sales")
	}
	if !validID(creditorID) {
		return "", nil, validationf("invalid creditorId")
	}
	return method, &creditorID, nil
}

// Create validates and stores a reading together with the sale it implies.
// Nothing is written unless every check passes.
func (s *ReadingService) Create(ctx context.Context, actor models.Actor, req *models.CreateReadingRequest) (*models.ReadingCreated, error) {
	if req.NozzleID == "" || !validID(req.NozzleID) {
		return nil, validationf("nozzleId is required")
	}
	recordedAt := s.now()
	if req.RecordedAt != "" {
		t, err := timeutil.ParseRecordedAt(req.RecordedAt)
		if err != nil {
			return nil, validationf("invalid recordedAt")
		}
		recordedAt = t
	}
	method, creditorID, err := resolvePayment(req.PaymentMethod, req.CreditorID)
	if err != nil {
		return nil, err
	}

	scope, err := s.stations(ctx, actor)
	if err != nil {
		return nil, err
	}

	var out *models.ReadingCreated
	var raised []models.Alert
	var outcome readings.Result

	err = s.Store.InTx(ctx, func(tx ReadingTx) error {
		nozzle, err := tx.NozzleForUpdate(ctx, actor.TenantID, req.NozzleID)
		if err != nil {
			return err
		}
		if !inScope(scope, nozzle.StationID) {
			return fmt.Errorf("%w: station not assigned", models.ErrForbidden)
		}
		if nozzle.Status != models.StatusActive {
			return validationf("Nozzle is not active")
		}

		last, err := tx.LastReading(ctx, actor.TenantID, nozzle.ID)
		if err != nil {
			return err
		}
		var lastValue *float64
		if last != nil {
			lastValue = &last.Reading
			if recordedAt.Before(last.RecordedAt) {
				return validationf("recordedAt is earlier than the last reading")
			}
		}

		outcome = readings.Validate(req.Reading, lastValue, s.Options)
		switch outcome.Outcome {
		case readings.Rejected:
			if outcome.MeterReset {
				return validationf("%s (possible meter reset)", outcome.Reason)
			}
			return validationf("%s", outcome.Reason)
		case readings.NeedsConfirmation:
			if !req.ConfirmLargeDelta {
				return fmt.Errorf("%w: %s", models.ErrConfirmationRequired, outcome.Reason)
			}
		}

		finalized, err := tx.IsDayFinalized(ctx, actor.TenantID, nozzle.StationID, timeutil.BusinessDate(recordedAt))
		if err != nil {
			return err
		}
		if finalized {
			return fmt.Errorf("%w: Day already finalized for this station", models.ErrFinalized)
		}

		reading := *req.Reading
		var volume, amount, price float64
		if last != nil {
			fp, err := tx.PriceAt(ctx, actor.TenantID, nozzle.StationID, nozzle.FuelType, recordedAt)
			if err != nil {
				return err
			}
			if fp == nil {
				return validationf("Fuel price not found")
			}
			if s.MaxPriceAge > 0 && recordedAt.Sub(fp.ValidFrom) > s.MaxPriceAge {
				return validationf("Fuel price outdated")
			}
			price = fp.Price
			volume, amount = readings.Derive(reading, last.Reading, price)
		}

		if creditorID != nil {
			c, err := tx.CreditorForUpdate(ctx, actor.TenantID, *creditorID)
			if err != nil {
				return parentRef(err, "creditor")
			}
			if c.Status != models.StatusActive {
				return validationf("Creditor is not active")
			}
			balance := c.Balance + amount
			if c.CreditLimit > 0 && balance > c.CreditLimit {
				return validationf("Credit limit exceeded")
			}
			if c.CreditLimit > 0 && balance >= c.CreditLimit*s.CreditWarnRatio {
				stationID := nozzle.StationID
				a := models.Alert{
					TenantID:  actor.TenantID,
					StationID: &stationID,
					AlertType: models.AlertCreditNearLimit,
					Message:   fmt.Sprintf("%s is above %.0f%% of credit limit", c.PartyName, s.CreditWarnRatio*100),
					Severity:  models.SeverityWarning,
				}
				created, err := tx.InsertAlert(ctx, &a, models.AlertCreditNearLimit+":"+c.ID)
				if err != nil {
					return err
				}
				if created {
					raised = append(raised, a)
				}
			}
			if amount > 0 {
				if err := tx.AdjustCreditorBalance(ctx, actor.TenantID, c.ID, amount); err != nil {
					return err
				}
			}
		}

		nr := &models.NozzleReading{
			TenantID:        actor.TenantID,
			NozzleID:        nozzle.ID,
			PumpID:          nozzle.PumpID,
			StationID:       nozzle.StationID,
			NozzleNumber:    nozzle.NozzleNumber,
			FuelType:        nozzle.FuelType,
			Reading:         reading,
			PreviousReading: lastValue,
			RecordedAt:      recordedAt,
			PaymentMethod:   method,
			CreditorID:      creditorID,
			Status:          models.ReadingRecorded,
			Volume:          volume,
			Amount:          amount,
			FuelPrice:       price,
			CreatedBy:       actor.UserID,
		}
		if err := tx.InsertReading(ctx, nr); err != nil {
			return err
		}

		sale := &models.Sale{
			TenantID:      actor.TenantID,
			ReadingID:     nr.ID,
			NozzleID:      nozzle.ID,
			StationID:     nozzle.StationID,
			FuelType:      nozzle.FuelType,
			Volume:        volume,
			FuelPrice:     price,
			Amount:        amount,
			PaymentMethod: method,
			CreditorID:    creditorID,
			CreatedBy:     actor.UserID,
			RecordedAt:    recordedAt,
			Status:        models.ReadingRecorded,
		}
		if err := tx.InsertSale(ctx, sale); err != nil {
			return err
		}

		out = &models.ReadingCreated{
			Reading:      nr,
			Sale:         sale,
			FirstReading: outcome.FirstReading,
			Alerts:       raised,
		}
		return nil
	})
	if err != nil {
		label := "error"
		switch {
		case errors.Is(err, models.ErrConfirmationRequired):
			label = readings.NeedsConfirmation.String()
		case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrFinalized):
			label = readings.Rejected.String()
		}
		metrics.ReadingsTotal.WithLabelValues(label).Inc()
		return nil, err
	}

	metrics.ReadingsTotal.WithLabelValues(readings.Accepted.String()).Inc()
	metrics.SalesVolume.WithLabelValues(out.Sale.FuelType, out.Sale.PaymentMethod).Add(out.Sale.Volume)
	cache.Apply(ctx, cache.ReadingChanged(actor.TenantID, out.Reading.NozzleID))
	s.broadcast(actor.TenantID, raised)

	log.WithFields(log.Fields{
		"tenant": actor.TenantID,
		"nozzle": out.Reading.NozzleID,
		"volume": out.Sale.Volume,
	}).Info("[Readings] Reading recorded")
	return out, nil
}

func (s *ReadingService) broadcast(tenantID string, alerts []models.Alert) {
	for _, a := range alerts {
		metrics.AlertsRaised.WithLabelValues(a.AlertType).Inc()
		if s.Notifier != nil {
			s.Notifier.Broadcast(tenantID, a)
		}
	}
}

// Preview runs validation against the stored last reading without writing.
func (s *ReadingService) Preview(ctx context.Context, actor models.Actor, req *models.ReadingPreviewRequest) (*readings.Result, error) {
	if req.NozzleID == "" || !validID(req.NozzleID) {
		return nil, validationf("nozzleId is required")
	}
	scope, err := s.stations(ctx, actor)
	if err != nil {
		return nil, err
	}
	var res readings.Result
	err = s.Store.InTx(ctx, func(tx ReadingTx) error {
		nozzle, err := tx.NozzleForUpdate(ctx, actor.TenantID, req.NozzleID)
		if err != nil {
			return err
		}
		if !inScope(scope, nozzle.StationID) {
			return fmt.Errorf("nozzle %w", models.ErrNotFound)
		}
		last, err := tx.LastReading(ctx, actor.TenantID, req.NozzleID)
		if err != nil {
			return err
		}
		var lastValue *float64
		if last != nil {
			lastValue = &last.Reading
		}
		res = readings.Validate(req.Reading, lastValue, s.Options)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// CanCreate reports whether a reading can be entered on the nozzle now.
func (s *ReadingService) CanCreate(ctx context.Context, actor models.Actor, nozzleID string) (*models.CanCreateResult, error) {
	if !validID(nozzleID) {
		return nil, fmt.Errorf("nozzle %w", models.ErrNotFound)
	}
	scope, err := s.stations(ctx, actor)
	if err != nil {
		return nil, err
	}
	result := &models.CanCreateResult{}
	err = s.Store.InTx(ctx, func(tx ReadingTx) error {
		nozzle, err := tx.NozzleForUpdate(ctx, actor.TenantID, nozzleID)
		if err != nil {
			return err
		}
		if !inScope(scope, nozzle.StationID) {
			return fmt.Errorf("nozzle %w", models.ErrNotFound)
		}
		last, err := tx.LastReading(ctx, actor.TenantID, nozzleID)
		if err != nil {
			return err
		}
		if last != nil {
			result.LastReading = &last.Reading
		}
		if nozzle.Status != models.StatusActive {
			result.Reason = "Nozzle inactive"
			return nil
		}
		fp, err := tx.PriceAt(ctx, actor.TenantID, nozzle.StationID, nozzle.FuelType, s.now())
		if err != nil {
			return err
		}
		if fp == nil {
			result.Reason = "Active price missing"
			return nil
		}
		result.Price = &fp.Price
		result.Allowed = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *ReadingService) stations(ctx context.Context, actor models.Actor) ([]string, error) {
	if s.Scope == nil {
		return nil, nil
	}
	return s.Scope.Stations(ctx, actor)
}

// List serves the unfiltered and per-nozzle lists from cache. Attendants
// see a named station of theirs, or otherwise their own entries.
func (s *ReadingService) List(ctx context.Context, actor models.Actor, f models.ReadingFilter) ([]models.NozzleReading, error) {
	scope, err := s.stations(ctx, actor)
	if err != nil {
		return nil, err
	}
	if scope != nil {
		if f.StationID == "" {
			f.CreatedBy = actor.UserID
		} else if !inScope(scope, f.StationID) {
			return nil, fmt.Errorf("%w: station not assigned", models.ErrForbidden)
		}
		return s.Store.List(ctx, actor.TenantID, f)
	}
	plain := f.StationID == "" && f.PumpID == "" && f.From == nil && f.To == nil && f.CreatedBy == "" && f.Limit == 0
	if !plain {
		return s.Store.List(ctx, actor.TenantID, f)
	}
	return cache.Fetch(ctx, cache.ListKey(actor.TenantID, cache.Readings, f.NozzleID), s.TTL,
		func(ctx context.Context) ([]models.NozzleReading, error) {
			return s.Store.List(ctx, actor.TenantID, f)
		})
}

// Get hides readings of stations outside the caller's scope as not found.
func (s *ReadingService) Get(ctx context.Context, actor models.Actor, id string) (*models.NozzleReading, error) {
	scope, err := s.stations(ctx, actor)
	if err != nil {
		return nil, err
	}
	nr, err := s.Store.Get(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if !inScope(scope, nr.StationID) {
		return nil, fmt.Errorf("reading %w", models.ErrNotFound)
	}
	return nr, nil
}

// Void marks a reading and its sale voided. Only the latest reading of a
// nozzle on a day that is not finalized can be voided; a credit sale is
// taken back off the creditor's balance.
func (s *ReadingService) Void(ctx context.Context, actor models.Actor, id, reason string) error {
	if reason == "" {
		return validationf("reason is required")
	}
	var nozzleID string
	err := s.Store.InTx(ctx, func(tx ReadingTx) error {
		nr, err := tx.ReadingForUpdate(ctx, actor.TenantID, id)
		if err != nil {
			return err
		}
		if nr.Status == models.ReadingVoided {
			return fmt.Errorf("%w: reading already voided", models.ErrConflict)
		}
		if _, err := tx.NozzleForUpdate(ctx, actor.TenantID, nr.NozzleID); err != nil {
			return err
		}
		last, err := tx.LastReading(ctx, actor.TenantID, nr.NozzleID)
		if err != nil {
			return err
		}
		if last == nil || last.ID != nr.ID {
			return validationf("only the latest reading of a nozzle can be voided")
		}
		finalized, err := tx.IsDayFinalized(ctx, actor.TenantID, nr.StationID, timeutil.BusinessDate(nr.RecordedAt))
		if err != nil {
			return err
		}
		if finalized {
			return fmt.Errorf("%w: Day already finalized for this station", models.ErrFinalized)
		}
		if nr.CreditorID != nil && nr.Amount > 0 {
			if err := tx.AdjustCreditorBalance(ctx, actor.TenantID, *nr.CreditorID, -nr.Amount); err != nil {
				return err
			}
		}
		nozzleID = nr.NozzleID
		return tx.MarkVoided(ctx, actor.TenantID, nr.ID, reason)
	})
	if err != nil {
		return err
	}

	cache.Apply(ctx, cache.ReadingChanged(actor.TenantID, nozzleID))
	log.Printf("[Readings] Reading %s voided by %s: %s", id, actor.UserID, reason)
	return nil
}
