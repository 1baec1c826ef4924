package models

import "errors"

// Sentinel errors returned by repositories and services. Handlers map them
// to HTTP status codes.
var (
	ErrNotFound             = errors.New("not found")
	ErrConflict             = errors.New("conflict")
	ErrValidation           = errors.New("validation failed")
	ErrForbidden            = errors.New("forbidden")
	ErrFinalized            = errors.New("day already finalized")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrPlanLimit            = errors.New("plan limit reached")
	ErrUnauthorized         = errors.New("invalid credentials")
)
