package utils

import (
	"encoding/json"
	"errors"
	"net/http"

	"fuelsync-backend/internal/models"

	log "github.com/sirupsen/logrus"
)

type envelope struct {
	Success              bool        `json:"success"`
	Data                 interface{} `json:"data,omitempty"`
	Message              string      `json:"message,omitempty"`
	RequiresConfirmation bool        `json:"requiresConfirmation,omitempty"`
}

// JSON writes data with the given status, without the envelope.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("[HTTP] encode response: %v", err)
		}
	}
}

// Success wraps data as {"success":true,"data":...}.
func Success(w http.ResponseWriter, status int, data interface{}) {
	JSON(w, status, envelope{Success: true, Data: data})
}

// Error writes {"success":false,"message":...}.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, envelope{Success: false, Message: message})
}

// StatusFor maps service errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrConfirmationRequired), errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrFinalized), errors.Is(err, models.ErrPlanLimit):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// ErrorFrom writes the envelope for err. Unknown errors are logged and
// reported as a generic 500.
func ErrorFrom(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		log.Errorf("[HTTP] internal error: %v", err)
		Error(w, status, "Internal server error")
		return
	}
	JSON(w, status, envelope{
		Success:              false,
		Message:              err.Error(),
		RequiresConfirmation: errors.Is(err, models.ErrConfirmationRequired),
	})
}
