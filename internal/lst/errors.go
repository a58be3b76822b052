package lst

import "errors"

var (
	// ErrUnknownSatellite is returned for satellites other than L4, L5, L7 and L8.
	ErrUnknownSatellite = errors.New("unknown satellite")

	// ErrInvalidRequest is returned when a retrieval request is malformed.
	ErrInvalidRequest = errors.New("invalid retrieval request")
)
