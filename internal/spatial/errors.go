package spatial

import "errors"

var (
	// ErrUnknownIndex is returned when the requested index is not a column of
	// the table.
	ErrUnknownIndex = errors.New("unknown spatial index")

	// ErrInvalidInterval is returned for intervals other than daily and monthly.
	ErrInvalidInterval = errors.New("interval must be daily or monthly")

	// ErrPixelLayout is returned when scenes of one month sample different
	// pixel counts.
	ErrPixelLayout = errors.New("scenes sample different pixels")
)
