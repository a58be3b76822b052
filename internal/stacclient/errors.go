package stacclient

import "errors"

var (
	// ErrUnexpectedStatus is returned when the catalog answers with a
	// non-200 status.
	ErrUnexpectedStatus = errors.New("unexpected catalog response status")

	// ErrMissingBands is returned for items without a bands asset.
	ErrMissingBands = errors.New("item has no bands asset")
)
