// Package stac provides STAC API types for the scene catalog server and its
// client, wrapping planetlabs/go-stac for the core types.
package stac

import (
	"encoding/json"
	"math"
	"time"

	gostac "github.com/planetlabs/go-stac"
)

// Re-export core types from planetlabs/go-stac for convenience
type (
	Item       = gostac.Item
	Collection = gostac.Collection
	Catalog    = gostac.Catalog
	Asset      = gostac.Asset
	Link       = gostac.Link
	Provider   = gostac.Provider
	Extent     = gostac.Extent

	SpatialExtent  = gostac.SpatialExtent
	TemporalExtent = gostac.TemporalExtent
)

// Media types used in links and assets.
const (
	MediaTypeJSON    = "application/json"
	MediaTypeGeoJSON = "application/geo+json"
)

// Asset keys and roles of scene items.
const (
	AssetBands = "bands"
	RoleData   = "data"
)

// ItemCollection represents a STAC ItemCollection (GeoJSON FeatureCollection)
type ItemCollection struct {
	Type           string         `json:"type"` // "FeatureCollection"
	Features       []*gostac.Item `json:"features"`
	Links          []*gostac.Link `json:"links"`
	NumberMatched  *int           `json:"numberMatched,omitempty"`
	NumberReturned int            `json:"numberReturned"`
	Context        *Context       `json:"context,omitempty"`
}

// Context provides additional metadata about the response (STAC Context extension)
type Context struct {
	Returned int  `json:"returned"`
	Limit    int  `json:"limit,omitempty"`
	Matched  *int `json:"matched,omitempty"`
}

// NewItemCollection creates a new ItemCollection with the given items.
func NewItemCollection(items []*gostac.Item) *ItemCollection {
	if items == nil {
		items = make([]*gostac.Item, 0)
	}
	return &ItemCollection{
		Type:           "FeatureCollection",
		Features:       items,
		Links:          make([]*gostac.Link, 0),
		NumberReturned: len(items),
	}
}

// AddLink adds a link to the ItemCollection.
func (ic *ItemCollection) AddLink(rel, href, mediaType string) {
	ic.Links = append(ic.Links, &gostac.Link{Rel: rel, Href: href, Type: mediaType})
}

// NextLink returns the href of the "next" link, or "" on the last page.
func (ic *ItemCollection) NextLink() string {
	for _, l := range ic.Links {
		if l.Rel == "next" {
			return l.Href
		}
	}
	return ""
}

// SetContext sets the context metadata for the ItemCollection.
func (ic *ItemCollection) SetContext(returned, limit int, matched *int) {
	ic.Context = &Context{
		Returned: returned,
		Limit:    limit,
		Matched:  matched,
	}
	if matched != nil {
		ic.NumberMatched = matched
	}
}

// NewItem creates a new STAC Item with the given ID and collection.
func NewItem(id, collection, version string) *gostac.Item {
	return &gostac.Item{
		Version:    version,
		Id:         id,
		Collection: collection,
		Properties: make(map[string]any),
		Assets:     make(map[string]*gostac.Asset),
		Links:      make([]*gostac.Link, 0),
	}
}

// NewCollection creates a new STAC Collection with the given ID.
func NewCollection(id, title, description, version string) *gostac.Collection {
	return &gostac.Collection{
		Version:     version,
		Id:          id,
		Title:       title,
		Description: description,
		Links:       make([]*gostac.Link, 0),
		Assets:      make(map[string]*gostac.Asset),
		Summaries:   make(map[string]any),
	}
}

// CollectionsList represents a list of collections response.
type CollectionsList struct {
	Collections []*gostac.Collection `json:"collections"`
	Links       []*gostac.Link       `json:"links"`
}

// NewCollectionsList creates a new CollectionsList.
func NewCollectionsList(collections []*gostac.Collection) *CollectionsList {
	return &CollectionsList{
		Collections: collections,
		Links:       make([]*gostac.Link, 0),
	}
}

// Conformance represents the conformance classes response.
type Conformance struct {
	ConformsTo []string `json:"conformsTo"`
}

// LandingPage represents the STAC API landing page response.
type LandingPage struct {
	Type        string         `json:"type"` // "Catalog"
	Id          string         `json:"id"`
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description"`
	StacVersion string         `json:"stac_version"`
	ConformsTo  []string       `json:"conformsTo,omitempty"`
	Links       []*gostac.Link `json:"links"`
}

// NewLandingPage creates a new landing page response.
func NewLandingPage(id, title, description, version string, conformsTo []string) *LandingPage {
	return &LandingPage{
		Type:        "Catalog",
		Id:          id,
		Title:       title,
		Description: description,
		StacVersion: version,
		ConformsTo:  conformsTo,
		Links:       make([]*gostac.Link, 0),
	}
}

// AddLink adds a link to the landing page.
func (lp *LandingPage) AddLink(rel, href, mediaType string) {
	lp.Links = append(lp.Links, &gostac.Link{Rel: rel, Href: href, Type: mediaType})
}

// Standard STAC conformance URIs
const (
	ConformanceCore           = "https://api.stacspec.org/v1.0.0/core"
	ConformanceOGCFeatures    = "https://api.stacspec.org/v1.0.0/ogcapi-features"
	ConformanceItemSearch     = "https://api.stacspec.org/v1.0.0/item-search"
	ConformanceFilter         = "https://api.stacspec.org/v1.0.0/item-search#filter"
	ConformanceSort           = "https://api.stacspec.org/v1.0.0/item-search#sort"
	ConformanceOGCFeatCore    = "http://www.opengis.net/spec/ogcapi-features-1/1.0/conf/core"
	ConformanceOGCFeatGeoJSON = "http://www.opengis.net/spec/ogcapi-features-1/1.0/conf/geojson"
	ConformanceCQL2JSON       = "http://www.opengis.net/spec/cql2/1.0/conf/cql2-json"
)

// DefaultConformance returns the conformance classes of the catalog server.
func DefaultConformance() []string {
	return []string{
		ConformanceCore,
		ConformanceOGCFeatures,
		ConformanceItemSearch,
		ConformanceFilter,
		ConformanceSort,
		ConformanceOGCFeatCore,
		ConformanceOGCFeatGeoJSON,
		ConformanceCQL2JSON,
	}
}

// STAC extension URIs
const (
	ExtensionEO         = "https://stac-extensions.github.io/eo/v1.1.0/schema.json"
	ExtensionProjection = "https://stac-extensions.github.io/projection/v1.1.0/schema.json"
)

// BandGrid is the JSON body of a scene's bands asset: the pixel grid and
// one [row][col] array per band. Missing pixels are null.
type BandGrid struct {
	Scene      string                   `json:"scene"`
	Datetime   time.Time                `json:"datetime"`
	Longitudes []float64                `json:"longitudes"`
	Latitudes  []float64                `json:"latitudes"`
	Resolution float64                  `json:"resolution"`
	Order      []string                 `json:"order"`
	Bands      map[string][][]NullFloat `json:"bands"`
}

// NullFloat is a float64 that encodes NaN as JSON null.
type NullFloat float64

// MarshalJSON implements json.Marshaler.
func (f NullFloat) MarshalJSON() ([]byte, error) {
	if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
		return []byte("null"), nil
	}
	return json.Marshal(float64(f))
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *NullFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = NullFloat(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = NullFloat(v)
	return nil
}
