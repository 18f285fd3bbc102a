package assignments

import "errors"

var (
	// ErrForbidden covers both role denials and ownership denials.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidTransition is a writer-requested status change the
	// workflow does not permit.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrValidation is bad input rejected before any storage call.
	ErrValidation = errors.New("validation failed")
)
