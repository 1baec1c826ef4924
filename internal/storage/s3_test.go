package storage

import (
	"context"
	"testing"
	"time"

	"fuelsync-backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	at := time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "reports/t1/2025/03/sales.csv", ObjectKey("reports", "t1", "sales.csv", at))
	assert.Equal(t, "t1/2025/03/sales.pdf", ObjectKey("", "t1", "sales.pdf", at))
}

func TestNewWithoutBucketDisablesArchiving(t *testing.T) {
	cfg := &config.Config{}
	store, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, store)
}
