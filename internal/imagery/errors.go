package imagery

import "errors"

var (
	// ErrBandMissing is returned when a scene lacks a requested band.
	ErrBandMissing = errors.New("band missing")

	// ErrShapeMismatch is returned when a raster does not match its scene grid.
	ErrShapeMismatch = errors.New("raster shape does not match grid")

	// ErrInvalidGeometry is returned when a region cannot be used to select pixels.
	ErrInvalidGeometry = errors.New("invalid geometry")
)
