// Package common defines sentinel errors shared by the store, service, session
// and HTTP layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Input errors.
	ErrValidation = errors.New("validation error")

	// Auth errors.
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrForbidden          = errors.New("forbidden")

	// Repository-level errors.
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")

	// Scheduler errors. Never surfaced to HTTP callers.
	ErrMailDelivery = errors.New("mail delivery failed")
)
