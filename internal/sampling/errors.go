package sampling

import "errors"

var (
	// ErrCardinalityMismatch is returned when a sampled row does not carry
	// exactly one value per output variable.
	ErrCardinalityMismatch = errors.New("row value count does not match variable count")

	// ErrHeaderMismatch is returned when a table's header differs from the
	// expected column layout.
	ErrHeaderMismatch = errors.New("table header does not match variables")

	// ErrBandLayout is returned when scenes in one collection carry different bands.
	ErrBandLayout = errors.New("scenes carry different bands")
)
