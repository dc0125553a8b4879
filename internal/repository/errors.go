package repository

import "errors"

var (
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	// ErrConflict is returned when a conditional write matched the record but
	// its current state forbids the change.
	ErrConflict  = errors.New("entity state conflict")
	ErrCacheMiss = errors.New("cache miss")
)
