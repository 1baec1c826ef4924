package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentPrice(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	closed := now.Add(-24 * time.Hour)

	prices := []FuelPrice{
		{ID: "old", Price: 100, ValidFrom: now.Add(-72 * time.Hour), EffectiveTo: &closed},
		{ID: "current", Price: 102, ValidFrom: now.Add(-24 * time.Hour)},
		{ID: "future", Price: 105, ValidFrom: now.Add(24 * time.Hour)},
	}

	got := CurrentPrice(prices, now)
	require.NotNil(t, got)
	assert.Equal(t, "current", got.ID)

	// before the current entry started the closed one was in force
	got = CurrentPrice(prices, now.Add(-48*time.Hour))
	require.NotNil(t, got)
	assert.Equal(t, "old", got.ID)

	assert.Nil(t, CurrentPrice(prices, now.Add(-96*time.Hour)))
	assert.Nil(t, CurrentPrice(nil, now))
}

func TestCreditorUtilization(t *testing.T) {
	c := Creditor{CreditLimit: 1000, Balance: 900}
	assert.InDelta(t, 0.9, c.Utilization(), 1e-9)

	unlimited := Creditor{Balance: 50}
	assert.Zero(t, unlimited.Utilization())
}
