// Package translate converts between datacube scenes and STAC resources and
// maps STAC search requests to catalog queries.
package translate

import (
	"fmt"
	"log/slog"

	"github.com/robert-malhotra/landsat-lst/internal/catalog"
	"github.com/robert-malhotra/landsat-lst/internal/config"
	"github.com/robert-malhotra/landsat-lst/internal/imagery"
	"github.com/robert-malhotra/landsat-lst/internal/stac"
	"github.com/robert-malhotra/landsat-lst/pkg/geojson"
)

// worldBBox is searched when neither the request nor the collection has a
// spatial extent.
var worldBBox = []float64{-180, -90, 180, 90}

// Translator handles conversion between STAC requests and catalog queries.
type Translator struct {
	cfg         *config.Config
	collections *config.CollectionRegistry
	logger      *slog.Logger
}

// NewTranslator creates a new translator instance.
func NewTranslator(cfg *config.Config, collections *config.CollectionRegistry, logger *slog.Logger) *Translator {
	return &Translator{
		cfg:         cfg,
		collections: collections,
		logger:      logger,
	}
}

// Collection resolves a collection by ID or alias.
func (t *Translator) Collection(id string) (*config.CollectionConfig, error) {
	coll := t.collections.Get(id)
	if coll == nil {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, id)
	}
	return coll, nil
}

// Queries converts a STAC search request to one catalog query per searched
// collection. If collectionID is not empty only that collection is searched;
// otherwise the request's collections, or every collection when it names
// none. Catalog queries always use the canonical collection ID.
func (t *Translator) Queries(req *stac.SearchRequest, collectionID string) ([]catalog.Query, error) {
	var colls []*config.CollectionConfig
	switch {
	case collectionID != "":
		coll, err := t.Collection(collectionID)
		if err != nil {
			return nil, err
		}
		colls = append(colls, coll)
	case len(req.Collections) > 0:
		for _, id := range req.Collections {
			coll, err := t.Collection(id)
			if err != nil {
				return nil, err
			}
			colls = append(colls, coll)
		}
	default:
		colls = t.collections.All()
	}

	geom, err := req.Geometry()
	if err != nil {
		t.logger.Debug("failed to parse search geometry", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}

	startPtr, endPtr, err := req.Interval()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDateTime, err)
	}
	start, end, err := QueryBounds(startPtr, endPtr)
	if err != nil {
		return nil, err
	}

	queries := make([]catalog.Query, 0, len(colls))
	for _, coll := range colls {
		q := catalog.Query{
			Catalog:  coll.ID,
			Geometry: geom,
			Start:    start,
			End:      end,
		}
		if q.Geometry == nil {
			if q.Geometry, err = collectionFootprint(coll); err != nil {
				return nil, err
			}
		}
		queries = append(queries, q)
	}
	return queries, nil
}

// collectionFootprint is the union bbox of a collection's spatial extent.
func collectionFootprint(coll *config.CollectionConfig) (*geojson.Geometry, error) {
	bbox := worldBBox
	if ext := coll.Extent.Spatial.BBox; len(ext) > 0 && len(ext[0]) == 4 {
		bbox = ext[0]
	}
	geom, err := geojson.NewPolygonFromBBox(bbox)
	if err != nil {
		return nil, fmt.Errorf("%w: collection %s extent: %v", ErrInvalidGeometry, coll.ID, err)
	}
	return geom, nil
}

// Item converts a scene of the catalog it was read from to a STAC Item.
func (t *Translator) Item(scene imagery.Scene) (*stac.Item, error) {
	coll, err := t.Collection(scene.Catalog)
	if err != nil {
		return nil, err
	}
	return SceneToItem(scene, coll, t.cfg.STAC.BaseURL, t.cfg.STAC.Version)
}

// CollectionToSTAC converts a registered collection to a STAC Collection.
func (t *Translator) CollectionToSTAC(coll *config.CollectionConfig) *stac.Collection {
	return CollectionToSTAC(coll, t.cfg.STAC.BaseURL, t.cfg.STAC.Version)
}
