package model

import "errors"

// Sentinel error kinds shared by the store, the service and the HTTP layer.
var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid input")
	ErrConflict = errors.New("conflict")
)
