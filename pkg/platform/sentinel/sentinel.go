package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors with the right
// client-facing code.
//
// These represent factual states about resources, not validation failures:
//   - ErrNotFound: entity does not exist in store
//   - ErrConflict: a uniqueness constraint (e.g. phone per event) was hit
//   - ErrInvalidState: entity in wrong state for the requested operation,
//     e.g. a conditional check-in update matched zero rows
//   - ErrUnavailable: backing service temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors
// directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
