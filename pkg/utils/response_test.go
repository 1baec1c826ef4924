package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"fuelsync-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, StatusFor(fmt.Errorf("nozzle: %w", models.ErrNotFound)))
	assert.Equal(t, http.StatusConflict, StatusFor(models.ErrConfirmationRequired))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusFor(fmt.Errorf("%w: Fuel price not found", models.ErrValidation)))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusFor(models.ErrFinalized))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(fmt.Errorf("db down")))
}

func TestErrorFromConfirmation(t *testing.T) {
	rec := httptest.NewRecorder()
	ErrorFrom(rec, fmt.Errorf("%w: reading increases by 11000", models.ErrConfirmationRequired))

	assert.Equal(t, http.StatusConflict, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, true, body["requiresConfirmation"])
}

func TestErrorFromHidesInternalErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	ErrorFrom(rec, fmt.Errorf("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestSuccessEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Success(rec, http.StatusCreated, map[string]string{"id": "s1"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{"id":"s1"}}`, rec.Body.String())
}
