// Package catalog defines how pipeline stages query an imagery archive.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robert-malhotra/landsat-lst/internal/imagery"
	"github.com/robert-malhotra/landsat-lst/pkg/geojson"
)

var (
	// ErrCatalogNotFound is returned when a query names an unknown catalog.
	ErrCatalogNotFound = errors.New("catalog not found")

	// ErrInvalidQuery is returned for queries without a geometry or with an
	// empty time interval.
	ErrInvalidQuery = errors.New("invalid catalog query")
)

// Query selects the scenes of one catalog that intersect Geometry and were
// acquired in [Start, End).
type Query struct {
	Catalog  string
	Geometry *geojson.Geometry
	Start    time.Time
	End      time.Time

	// Platform optionally restricts results to one platform, e.g. "landsat-8".
	Platform string
}

// Validate checks the query fields.
func (q Query) Validate() error {
	if q.Catalog == "" {
		return fmt.Errorf("%w: catalog is required", ErrInvalidQuery)
	}
	if q.Geometry == nil {
		return fmt.Errorf("%w: geometry is required", ErrInvalidQuery)
	}
	if _, err := q.Geometry.BBox(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	if !q.Start.Before(q.End) {
		return fmt.Errorf("%w: start %s is not before end %s", ErrInvalidQuery,
			q.Start.Format(time.RFC3339), q.End.Format(time.RFC3339))
	}
	return nil
}

// Contains reports whether t lies in the half-open query interval.
func (q Query) Contains(t time.Time) bool {
	return !t.Before(q.Start) && t.Before(q.End)
}

// Source searches an imagery archive. The returned collection is sorted by
// ascending acquisition time; no matching scenes is an empty collection, not
// an error.
type Source interface {
	Search(ctx context.Context, q Query) (imagery.Collection, error)
}
