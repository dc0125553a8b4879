package service

import "errors"

// Callers match these with errors.Is; messages carry the detail.
var (
	ErrNotFound        = errors.New("not found")
	ErrPartialNotFound = errors.New("some listings were not found")
	ErrConflict        = errors.New("conflict")
	ErrValidation      = errors.New("validation failed")
	ErrForbidden       = errors.New("forbidden")
	ErrGateway         = errors.New("checkout failed")
)
