// Package backend provides the search backend of the catalog server.
package backend

import (
	"context"
	"errors"

	"github.com/robert-malhotra/landsat-lst/internal/catalog"
	"github.com/robert-malhotra/landsat-lst/internal/imagery"
	"github.com/robert-malhotra/landsat-lst/internal/stac"
)

// ErrItemNotFound is returned when an item ID does not name a scene of the
// collection.
var ErrItemNotFound = errors.New("item not found")

// SearchBackend defines the interface for search backends.
type SearchBackend interface {
	// Search executes a search query and returns one page of STAC items.
	Search(ctx context.Context, params *SearchParams) (*SearchResult, error)

	// GetItem retrieves a single item by ID.
	GetItem(ctx context.Context, collection, itemID string) (*stac.Item, error)

	// GetScene retrieves the pixel data of a single item.
	GetScene(ctx context.Context, collection, itemID string) (imagery.Scene, error)

	// Name returns the backend name (e.g., "datacube").
	Name() string
}

// SearchParams contains parameters for search queries.
type SearchParams struct {
	// Queries holds one catalog query per searched collection.
	Queries []catalog.Query

	// Item identification
	IDs []string

	// Filter is a CQL2-JSON expression evaluated against item properties.
	Filter any

	// Sorting; empty sorts by datetime then ID.
	Sortby []stac.SortbyItem

	// Pagination. A Limit of zero returns every match.
	Limit  int
	Offset int
}

// SearchResult contains the results of a search query.
type SearchResult struct {
	// Items are the STAC items of the requested page
	Items []*stac.Item

	// Matched is the total number of matching items across all pages
	Matched int
}
