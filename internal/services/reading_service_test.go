package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"fuelsync-backend/internal/config"
	"fuelsync-backend/internal/models"
	"fuelsync-backend/internal/readings"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memReadings is an in-memory ReadingStore. A transaction works on a copy
// and is only kept when fn returns nil.
type memReadings struct {
	nozzles   map[string]models.Nozzle
	readings  []models.NozzleReading
	sales     []models.Sale
	prices    []models.FuelPrice
	creditors map[string]models.Creditor
	finalized map[string]bool
	alerts    map[string]models.Alert
}

func newMemReadings() *memReadings {
	return &memReadings{
		nozzles:   map[string]models.Nozzle{},
		creditors: map[string]models.Creditor{},
		finalized: map[string]bool{},
		alerts:    map[string]models.Alert{},
	}
}

func (m *memReadings) clone() *memReadings {
	c := newMemReadings()
	for k, v := range m.nozzles {
		c.nozzles[k] = v
	}
	for k, v := range m.creditors {
		c.creditors[k] = v
	}
	for k, v := range m.finalized {
		c.finalized[k] = v
	}
	for k, v := range m.alerts {
		c.alerts[k] = v
	}
	c.readings = append(c.readings, m.readings...)
	c.sales = append(c.sales, m.sales...)
	c.prices = append(c.prices, m.prices...)
	return c
}

func (m *memReadings) InTx(ctx context.Context, fn func(ReadingTx) error) error {
	work := m.clone()
	if err := fn(&memTx{m: work}); err != nil {
		return err
	}
	*m = *work
	return nil
}

func (m *memReadings) List(ctx context.Context, tenantID string, f models.ReadingFilter) ([]models.NozzleReading, error) {
	return m.readings, nil
}

func (m *memReadings) Get(ctx context.Context, tenantID, id string) (*models.NozzleReading, error) {
	for _, r := range m.readings {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, models.ErrNotFound
}

type memTx struct {
	m *memReadings
}

func (t *memTx) NozzleForUpdate(ctx context.Context, tenantID, id string) (*models.Nozzle, error) {
	n, ok := t.m.nozzles[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &n, nil
}

func (t *memTx) LastReading(ctx context.Context, tenantID, nozzleID string) (*models.NozzleReading, error) {
	var last *models.NozzleReading
	for i := range t.m.readings {
		r := t.m.readings[i]
		if r.NozzleID == nozzleID && r.Status == models.ReadingRecorded {
			last = &r
		}
	}
	return last, nil
}

func (t *memTx) IsDayFinalized(ctx context.Context, tenantID, stationID, date string) (bool, error) {
	return t.m.finalized[stationID+":"+date], nil
}

func (t *memTx) PriceAt(ctx context.Context, tenantID, stationID, fuelType string, at time.Time) (*models.FuelPrice, error) {
	return models.CurrentPrice(t.m.prices, at), nil
}

func (t *memTx) CreditorForUpdate(ctx context.Context, tenantID, id string) (*models.Creditor, error) {
	c, ok := t.m.creditors[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &c, nil
}

func (t *memTx) AdjustCreditorBalance(ctx context.Context, tenantID, id string, delta float64) error {
	c := t.m.creditors[id]
	c.Balance += delta
	t.m.creditors[id] = c
	return nil
}

func (t *memTx) InsertReading(ctx context.Context, nr *models.NozzleReading) error {
	nr.ID = uuid.NewString()
	t.m.readings = append(t.m.readings, *nr)
	return nil
}

func (t *memTx) InsertSale(ctx context.Context, s *models.Sale) error {
	s.ID = uuid.NewString()
	t.m.sales = append(t.m.sales, *s)
	return nil
}

func (t *memTx) InsertAlert(ctx context.Context, a *models.Alert, dedupeKey string) (bool, error) {
	if _, ok := t.m.alerts[dedupeKey]; ok {
		return false, nil
	}
	a.ID = uuid.NewString()
	t.m.alerts[dedupeKey] = *a
	return true, nil
}

func (t *memTx) ReadingForUpdate(ctx context.Context, tenantID, id string) (*models.NozzleReading, error) {
	for _, r := range t.m.readings {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, models.ErrNotFound
}

func (t *memTx) MarkVoided(ctx context.Context, tenantID, id, reason string) error {
	for i := range t.m.readings {
		if t.m.readings[i].ID == id {
			t.m.readings[i].Status = models.ReadingVoided
			t.m.readings[i].VoidReason = reason
		}
	}
	for i := range t.m.sales {
		if t.m.sales[i].ReadingID == id {
			t.m.sales[i].Status = models.ReadingVoided
		}
	}
	return nil
}

type recordingNotifier struct {
	alerts []models.Alert
}

func (n *recordingNotifier) Broadcast(tenantID string, a models.Alert) {
	n.alerts = append(n.alerts, a)
}

var (
	testTenant  = uuid.NewString()
	testStation = uuid.NewString()
	testNozzle  = uuid.NewString()
	testActor   = models.Actor{UserID: uuid.NewString(), TenantID: testTenant, Role: models.RoleAttendant}
)

func fixedNow() time.Time {
	return time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
}

func newReadingFixture(t *testing.T, last *float64) (*ReadingService, *memReadings, *recordingNotifier) {
	t.Helper()
	store := newMemReadings()
	store.nozzles[testNozzle] = models.Nozzle{
		ID: testNozzle, PumpID: uuid.NewString(), StationID: testStation,
		NozzleNumber: 1, FuelType: models.FuelPetrol, Status: models.StatusActive,
	}
	store.prices = []models.FuelPrice{{
		ID: uuid.NewString(), StationID: testStation, FuelType: models.FuelPetrol,
		Price: 100, ValidFrom: fixedNow().Add(-24 * time.Hour),
	}}
	if last != nil {
		store.readings = append(store.readings, models.NozzleReading{
			ID: uuid.NewString(), NozzleID: testNozzle, StationID: testStation, Reading: *last,
			RecordedAt: fixedNow().Add(-time.Hour), PaymentMethod: models.PaymentCash, Status: models.ReadingRecorded,
		})
	}
	notifier := &recordingNotifier{}
	svc := &ReadingService{
		Store:           store,
		Notifier:        notifier,
		Options:         readings.DefaultOptions(),
		MaxPriceAge:     7 * 24 * time.Hour,
		CreditWarnRatio: 0.9,
		now:             fixedNow,
	}
	return svc, store, notifier
}

func f64(v float64) *float64 { return &v }

func TestReadingService_NozzleScenario(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newReadingFixture(t, f64(1000))

	_, err := svc.Create(ctx, testActor, &models.CreateReadingRequest{NozzleID: testNozzle, Reading: f64(950)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrValidation))
	assert.Len(t, store.readings, 1, "rejected reading must not be stored")

	_, err = svc.Create(ctx, testActor, &models.CreateReadingRequest{NozzleID: testNozzle, Reading: f64(12000)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrConfirmationRequired))
	assert.Len(t, store.readings, 1, "unconfirmed reading must not be stored")
	assert.Empty(t, store.sales)

	created, err := svc.Create(ctx, testActor, &models.CreateReadingRequest{NozzleID: testNozzle, Reading: f64(1050)})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCash, created.Reading.PaymentMethod)
	assert.InDelta(t, 50, created.Sale.Volume, 0.0001)
	assert.InDelta(t, 5000, created.Sale.Amount, 0.0001)
	assert.False(t, created.FirstReading)

	created, err = svc.Create(ctx, testActor, &models.CreateReadingRequest{
		NozzleID: testNozzle, Reading: f64(12000), ConfirmLargeDelta: true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCash, created.Reading.PaymentMethod)
	assert.Nil(t, created.Reading.CreditorID)
	assert.InDelta(t, 10950, created.Sale.Volume, 0.0001)
	assert.Len(t, store.readings, 3)
	assert.Len(t, store.sales, 2)
}

func TestReadingService_FirstReadingNeedsNoConfirmation(t *testing.T) {
	svc, store, _ := newReadingFixture(t, nil)

	created, err := svc.Create(context.Background(), testActor, &models.CreateReadingRequest{NozzleID: testNozzle, Reading: f64(250000)})
	require.NoError(t, err)
	assert.True(t, created.FirstReading)
	assert.Zero(t, created.Sale.Volume)
	assert.Len(t, store.readings, 1)
}

func TestReadingService_CreditSales(t *testing.T) {
	ctx := context.Background()
	creditorID := uuid.NewString()

	t.Run("limit exceeded", func(t *testing.T) {
		svc, store, _ := newReadingFixture(t, f64(1000))
		store.creditors[creditorID] = models.Creditor{ID: creditorID, PartyName: "Acme", CreditLimit: 1000, Status: models.StatusActive}

		_, err := svc.Create(ctx, testActor, &models.CreateReadingRequest{NozzleID: testNozzle, Reading: f64(1020), CreditorID: creditorID})
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrValidation))
		assert.Contains(t, err.Error(), "Credit limit exceeded")
		assert.Zero(t, store.creditors[creditorID].Balance)
	})

	t.Run("near limit raises alert", func(t *testing.T) {
		svc, store, notifier := newReadingFixture(t, f64(1000))
		store.creditors[creditorID] = models.Creditor{ID: creditorID, PartyName: "Acme", CreditLimit: 1000, Status: models.StatusActive}

		created, err := svc.Create(ctx, testActor, &models.CreateReadingRequest{NozzleID: testNozzle, Reading: f64(1009.5), CreditorID: creditorID})
		require.NoError(t, err)
		assert.Equal(t, models.PaymentCredit, created.Reading.PaymentMethod)
		assert.InDelta(t, 950, store.creditors[creditorID].Balance, 0.001)
		require.Len(t, notifier.alerts, 1)
		assert.Equal(t, models.AlertCreditNearLimit, notifier.alerts[0].AlertType)
	})

	t.Run("credit without creditor", func(t *testing.T) {
		svc, _, _ := newReadingFixture(t, f64(1000))
		_, err := svc.Create(ctx, testActor, &models.CreateReadingRequest{NozzleID: testNozzle, Reading: f64(1010), PaymentMethod: models.PaymentCredit})
		assert.True(t, errors.Is(err, models.ErrValidation))
	})

	t.Run("creditor dropped for cash", func(t *testing.T) {
		svc, store, _ := newReadingFixture(t, f64(1000))
		created, err := svc.Create(ctx, testActor, &models.CreateReadingRequest{
			NozzleID: testNozzle, Reading: f64(1010), PaymentMethod: models.PaymentCash, CreditorID: creditorID,
		})
		require.NoError(t, err)
		assert.Nil(t, created.Sale.CreditorID)
		assert.Len(t, store.sales, 1)
	})
}

func TestReadingService_PriceAndDayChecks(t *testing.T) {
	ctx := context.Background()

	t.Run("finalized day", func(t *testing.T) {
		svc, store, _ := newReadingFixture(t, f64(1000))
		store.finalized[testStation+":2025-03-10"] = true
		_, err := svc.Create(ctx, testActor, &models.CreateReadingRequest{NozzleID: testNozzle, Reading: f64(1010)})
		assert.True(t, errors.Is(err, models.ErrFinalized))
	})

	t.Run("missing price", func(t *testing.T) {
		svc, store, _ := newReadingFixture(t, f64(1000))
		store.prices = nil
		_, err := svc.Create(ctx, testActor, &models.CreateReadingRequest{NozzleID: testNozzle, Reading: f64(1010)})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Fuel price not found")
	})

	t.Run("outdated price", func(t *testing.T) {
		svc, store, _ := newReadingFixture(t, f64(1000))
		store.prices[0].ValidFrom = fixedNow().Add(-10 * 24 * time.Hour)
		_, err := svc.Create(ctx, testActor, &models.CreateReadingRequest{NozzleID: testNozzle, Reading: f64(1010)})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Fuel price outdated")
	})

	t.Run("inactive nozzle", func(t *testing.T) {
		svc, store, _ := newReadingFixture(t, f64(1000))
		n := store.nozzles[testNozzle]
		n.Status = models.StatusMaintenance
		store.nozzles[testNozzle] = n
		_, err := svc.Create(ctx, testActor, &models.CreateReadingRequest{NozzleID: testNozzle, Reading: f64(1010)})
		assert.True(t, errors.Is(err, models.ErrValidation))
	})

	t.Run("unknown nozzle", func(t *testing.T) {
		svc, _, _ := newReadingFixture(t, f64(1000))
		_, err := svc.Create(ctx, testActor, &models.CreateReadingRequest{NozzleID: uuid.NewString(), Reading: f64(1010)})
		assert.True(t, errors.Is(err, models.ErrNotFound))
	})
}

func TestReadingService_Preview(t *testing.T) {
	svc, store, _ := newReadingFixture(t, f64(1000))

	res, err := svc.Preview(context.Background(), testActor, &models.ReadingPreviewRequest{NozzleID: testNozzle, Reading: f64(12000)})
	require.NoError(t, err)
	assert.Equal(t, readings.NeedsConfirmation, res.Outcome)
	assert.Len(t, store.readings, 1)
}

func TestReadingService_CanCreate(t *testing.T) {
	svc, store, _ := newReadingFixture(t, f64(1000))

	res, err := svc.CanCreate(context.Background(), testActor, testNozzle)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	require.NotNil(t, res.Price)
	assert.Equal(t, 100.0, *res.Price)

	store.prices = nil
	res, err = svc.CanCreate(context.Background(), testActor, testNozzle)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, "Active price missing", res.Reason)
}

func TestReadingService_Void(t *testing.T) {
	ctx := context.Background()
	creditorID := uuid.NewString()
	svc, store, _ := newReadingFixture(t, f64(1000))
	store.creditors[creditorID] = models.Creditor{ID: creditorID, CreditLimit: 100000, Status: models.StatusActive}

	first := store.readings[0].ID
	created, err := svc.Create(ctx, testActor, &models.CreateReadingRequest{NozzleID: testNozzle, Reading: f64(1010), CreditorID: creditorID})
	require.NoError(t, err)
	assert.InDelta(t, 1000, store.creditors[creditorID].Balance, 0.001)

	err = svc.Void(ctx, testActor, first, "typo")
	assert.True(t, errors.Is(err, models.ErrValidation), "only the latest reading can be voided")

	require.NoError(t, svc.Void(ctx, testActor, created.Reading.ID, "wrong nozzle"))
	assert.Zero(t, store.creditors[creditorID].Balance)
	assert.Equal(t, models.ReadingVoided, store.sales[0].Status)

	err = svc.Void(ctx, testActor, created.Reading.ID, "again")
	assert.True(t, errors.Is(err, models.ErrConflict))
}

func TestReadingService_ScopeHidesOtherStations(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newReadingFixture(t, f64(1000))
	readingID := store.readings[0].ID

	svc.Scope = fixedScope{testStation}
	_, err := svc.Get(ctx, testActor, readingID)
	require.NoError(t, err)

	svc.Scope = fixedScope{uuid.NewString()}

	_, err = svc.Create(ctx, testActor, &models.CreateReadingRequest{NozzleID: testNozzle, Reading: f64(1010)})
	assert.True(t, errors.Is(err, models.ErrForbidden))

	_, err = svc.Get(ctx, testActor, readingID)
	assert.True(t, errors.Is(err, models.ErrNotFound))

	_, err = svc.Preview(ctx, testActor, &models.ReadingPreviewRequest{NozzleID: testNozzle, Reading: f64(1010)})
	assert.True(t, errors.Is(err, models.ErrNotFound))

	res, err := svc.CanCreate(ctx, testActor, testNozzle)
	assert.True(t, errors.Is(err, models.ErrNotFound))
	assert.Nil(t, res)
}

func TestNewReadingService_DefaultCreditWarnRatio(t *testing.T) {
	cfg := &config.Config{}
	svc := NewReadingService(newMemReadings(), cfg, nil)
	assert.Equal(t, 0.9, svc.CreditWarnRatio)

	cfg.Reading.CreditWarnRatio = 0.75
	assert.Equal(t, 0.75, NewReadingService(newMemReadings(), cfg, nil).CreditWarnRatio)
}
