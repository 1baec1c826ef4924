package services

import (
	"context"
	"errors"
	"testing"

	"fuelsync-backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedNozzleCount int

func (n fixedNozzleCount) CountByPump(ctx context.Context, tenantID, pumpID string) (int, error) {
	return int(n), nil
}

type failingNozzleCount struct{}

func (failingNozzleCount) CountByPump(ctx context.Context, tenantID, pumpID string) (int, error) {
	return 0, errors.New("db down")
}

func TestPumpService_DeleteRefusesPumpWithNozzles(t *testing.T) {
	svc := &PumpService{Nozzles: fixedNozzleCount(2)}

	err := svc.Delete(context.Background(), testActor, uuid.NewString())
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrConflict))
	assert.Contains(t, err.Error(), "Cannot delete pump with nozzles")
}

func TestPumpService_DeleteCountError(t *testing.T) {
	svc := &PumpService{Nozzles: failingNozzleCount{}}

	err := svc.Delete(context.Background(), testActor, uuid.NewString())
	require.Error(t, err)
	assert.False(t, errors.Is(err, models.ErrConflict))
}
