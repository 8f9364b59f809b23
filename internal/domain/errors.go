package domain

import "errors"

var (
	// ErrValidation marks input that fails domain validation.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks a lookup that matched no row.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a state transition that is not allowed from the current status.
	ErrConflict = errors.New("conflict")
	// ErrDuplicateDelivery marks an attempt to create a second live ledger row
	// for the same (campaign, subscriber) pair. Callers treat it as "already
	// being handled", not as a failure.
	ErrDuplicateDelivery = errors.New("duplicate delivery")
)
