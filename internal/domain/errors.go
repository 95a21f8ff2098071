package domain

import "errors"

// Domain errors.
var (
	// ErrInvalidProfile is returned when profile invariants do not hold.
	ErrInvalidProfile = errors.New("invalid config profile")

	// ErrUnknownProfile is returned for a profile name that is not defined.
	ErrUnknownProfile = errors.New("unknown profile name")
)
