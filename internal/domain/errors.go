package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidIdentity is returned when a color identity is not an in-order
	// subset of WUBRG.
	ErrInvalidIdentity = errors.New("invalid color identity")

	// ErrInvalidVariantStatus is returned when a variant status is not valid.
	ErrInvalidVariantStatus = errors.New("invalid variant status")

	// ErrInvalidJobStatus is returned when a job status is not valid.
	ErrInvalidJobStatus = errors.New("invalid job status")

	// ErrDanglingReference is returned when a combo or feature references an
	// entity that is not part of the loaded graph.
	ErrDanglingReference = errors.New("dangling reference")
)
