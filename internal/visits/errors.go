package visits

import "errors"

// Sentinel errors surfaced to the HTTP layer. Everything else coming out
// of the service is a storage failure and maps to a 500.
var (
	ErrNotFound   = errors.New("patient not found")
	ErrForbidden  = errors.New("patient not assigned to caller")
	ErrValidation = errors.New("invalid visit request")
)
