package backend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/robert-malhotra/landsat-lst/internal/catalog"
	"github.com/robert-malhotra/landsat-lst/internal/datacube"
	"github.com/robert-malhotra/landsat-lst/internal/imagery"
	"github.com/robert-malhotra/landsat-lst/internal/stac"
	"github.com/robert-malhotra/landsat-lst/internal/translate"
	"github.com/robert-malhotra/landsat-lst/pkg/geojson"
)

// DatacubeBackend implements SearchBackend over a scene catalog, normally a
// datacube.Source.
type DatacubeBackend struct {
	source     catalog.Source
	translator *translate.Translator
	logger     *slog.Logger
}

var _ SearchBackend = (*DatacubeBackend)(nil)

// NewDatacubeBackend creates a new datacube backend.
func NewDatacubeBackend(source catalog.Source, translator *translate.Translator, logger *slog.Logger) *DatacubeBackend {
	return &DatacubeBackend{
		source:     source,
		translator: translator,
		logger:     logger,
	}
}

// Name returns the backend name.
func (b *DatacubeBackend) Name() string {
	return "datacube"
}

// Search runs every catalog query concurrently, then filters, sorts and
// pages the combined items.
func (b *DatacubeBackend) Search(ctx context.Context, params *SearchParams) (*SearchResult, error) {
	results := make([][]*stac.Item, len(params.Queries))

	g, gctx := errgroup.WithContext(ctx)
	for i, q := range params.Queries {
		g.Go(func() error {
			items, err := b.searchCatalog(gctx, q, params)
			if err != nil {
				return fmt.Errorf("catalog %s: %w", q.Catalog, err)
			}
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var items []*stac.Item
	for _, r := range results {
		items = append(items, r...)
	}
	stac.SortItems(items, params.Sortby)

	limit := params.Limit
	if limit <= 0 {
		limit = len(items)
	}
	from, to := (&stac.Cursor{Offset: params.Offset}).Page(len(items), limit)

	b.logger.DebugContext(ctx, "datacube search complete",
		slog.Int("catalogs", len(params.Queries)),
		slog.Int("matched", len(items)),
		slog.Int("returned", to-from),
	)

	return &SearchResult{Items: items[from:to], Matched: len(items)}, nil
}

func (b *DatacubeBackend) searchCatalog(ctx context.Context, q catalog.Query, params *SearchParams) ([]*stac.Item, error) {
	var ids map[string]bool
	if len(params.IDs) > 0 {
		ids = make(map[string]bool, len(params.IDs))
		for _, id := range params.IDs {
			ids[id] = true
		}
	}

	coll, err := b.source.Search(ctx, q)
	if err != nil {
		return nil, err
	}

	var items []*stac.Item
	for scene, err := range coll.All() {
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if ids != nil && !ids[scene.ID] {
			continue
		}

		item, err := b.translator.Item(scene)
		if err != nil {
			b.logger.Warn("failed to translate scene",
				slog.String("scene", scene.ID),
				slog.String("error", err.Error()),
			)
			continue
		}

		match, err := translate.MatchFilter(params.Filter, item)
		if err != nil {
			return nil, err
		}
		if match {
			items = append(items, item)
		}
	}
	return items, nil
}

// GetItem retrieves a single item by ID.
func (b *DatacubeBackend) GetItem(ctx context.Context, collection, itemID string) (*stac.Item, error) {
	scene, err := b.GetScene(ctx, collection, itemID)
	if err != nil {
		return nil, err
	}
	return b.translator.Item(scene)
}

// GetScene finds a scene by the acquisition time encoded in its ID.
func (b *DatacubeBackend) GetScene(ctx context.Context, collection, itemID string) (imagery.Scene, error) {
	coll, err := b.translator.Collection(collection)
	if err != nil {
		return imagery.Scene{}, err
	}

	at, err := datacube.SceneTime(itemID)
	if err != nil {
		return imagery.Scene{}, fmt.Errorf("%w: %v", ErrItemNotFound, err)
	}

	world, err := geojson.NewPolygonFromBBox([]float64{-180, -90, 180, 90})
	if err != nil {
		return imagery.Scene{}, err
	}
	scenes, err := b.source.Search(ctx, catalog.Query{
		Catalog:  coll.ID,
		Geometry: world,
		Start:    at,
		End:      at.Add(time.Second),
	})
	if err != nil {
		return imagery.Scene{}, err
	}

	for scene, err := range scenes.All() {
		if err != nil {
			return imagery.Scene{}, err
		}
		if scene.ID == itemID {
			return scene, nil
		}
	}
	return imagery.Scene{}, fmt.Errorf("%w: %s/%s", ErrItemNotFound, coll.ID, itemID)
}
