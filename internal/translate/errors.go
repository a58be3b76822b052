package translate

import "errors"

var (
	// ErrCollectionNotFound is returned when a referenced collection does not exist.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrInvalidGeometry is returned when a scene footprint or search geometry is unusable.
	ErrInvalidGeometry = errors.New("invalid geometry")

	// ErrInvalidDateTime is returned when datetime parsing fails.
	ErrInvalidDateTime = errors.New("invalid datetime format")

	// ErrUnsupportedFilter is returned when a filter expression cannot be evaluated.
	ErrUnsupportedFilter = errors.New("unsupported filter expression")

	// ErrInvalidBandGrid is returned when a bands asset does not describe a
	// consistent grid.
	ErrInvalidBandGrid = errors.New("invalid band grid")
)
