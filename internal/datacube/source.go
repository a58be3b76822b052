// Package datacube serves Landsat scenes from NetCDF datacubes on local disk.
//
// Each catalog maps to one file whose band variables are laid out as
// (time, latitude, longitude). A time step is one scene.
package datacube

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/robert-malhotra/landsat-lst/internal/catalog"
	"github.com/robert-malhotra/landsat-lst/internal/config"
	"github.com/robert-malhotra/landsat-lst/internal/imagery"
	"github.com/robert-malhotra/landsat-lst/pkg/geojson"
)

// Catalog binds a catalog ID to its datacube file.
type Catalog struct {
	ID       string
	File     string
	Platform string

	// ScenePrefix starts every scene ID, e.g. "LC08". Defaults to the last
	// path element of ID.
	ScenePrefix string
}

// CatalogsFromCollections binds every collection that names a datacube file.
func CatalogsFromCollections(colls []*config.CollectionConfig) []Catalog {
	var cats []Catalog
	for _, c := range colls {
		if c.Datacube == "" {
			continue
		}
		cats = append(cats, Catalog{ID: c.ID, File: c.Datacube, Platform: c.Platform, ScenePrefix: c.ScenePrefix})
	}
	return cats
}

// Dims describes the axes of a datacube.
type Dims struct {
	Times      []time.Time
	Lons       []float64
	Lats       []float64
	Resolution float64
}

// cube is an open datacube.
type cube interface {
	Dims() Dims
	Bands() []string
	Read(band string, t int) (imagery.Raster, error)
	Close()
}

// Source implements catalog.Source over a directory of datacubes.
type Source struct {
	dir      string
	catalogs map[string]Catalog
	open     func(path string) (cube, error)
	logger   *slog.Logger
}

var _ catalog.Source = (*Source)(nil)

// NewSource creates a source reading files relative to dir.
func NewSource(dir string, catalogs []Catalog) *Source {
	m := make(map[string]Catalog, len(catalogs))
	for _, c := range catalogs {
		m[c.ID] = c
	}
	return &Source{
		dir:      dir,
		catalogs: m,
		open:     openNetCDF,
		logger:   slog.Default(),
	}
}

// WithLogger sets a custom logger for the source.
func (s *Source) WithLogger(logger *slog.Logger) *Source {
	s.logger = logger
	return s
}

// Catalogs returns the configured catalog IDs in sorted order.
func (s *Source) Catalogs() []string {
	ids := make([]string, 0, len(s.catalogs))
	for id := range s.catalogs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Search returns the scenes of q.Catalog acquired in the query interval whose
// footprint intersects the query geometry. The file is opened each time the
// collection is iterated and closed when iteration ends.
func (s *Source) Search(ctx context.Context, q catalog.Query) (imagery.Collection, error) {
	if err := q.Validate(); err != nil {
		return imagery.Collection{}, err
	}
	cat, ok := s.catalogs[q.Catalog]
	if !ok {
		return imagery.Collection{}, fmt.Errorf("%w: %s", catalog.ErrCatalogNotFound, q.Catalog)
	}
	if q.Platform != "" && cat.Platform != "" && !strings.EqualFold(q.Platform, cat.Platform) {
		return imagery.Empty(), nil
	}
	bbox, err := q.Geometry.BBox()
	if err != nil {
		return imagery.Collection{}, fmt.Errorf("%w: %v", catalog.ErrInvalidQuery, err)
	}

	path := cat.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.dir, path)
	}

	s.logger.DebugContext(ctx, "searching datacube",
		slog.String("catalog", cat.ID),
		slog.String("file", path),
		slog.Time("start", q.Start),
		slog.Time("end", q.End),
	)

	seq := func(yield func(imagery.Scene, error) bool) {
		c, err := s.open(path)
		if err != nil {
			yield(imagery.Scene{}, fmt.Errorf("catalog %s: %w", cat.ID, err))
			return
		}
		defer c.Close()

		dims := c.Dims()
		grid := &imagery.Grid{Lons: dims.Lons, Lats: dims.Lats, Resolution: dims.Resolution}
		if !geojson.BBoxIntersects(grid.BBox(), bbox) {
			return
		}

		for _, t := range timeOrder(dims.Times) {
			if !q.Contains(dims.Times[t]) {
				continue
			}
			scene, err := s.scene(c, cat, grid, t)
			if err != nil {
				yield(imagery.Scene{}, err)
				return
			}
			if !yield(scene, nil) {
				return
			}
		}
	}
	return imagery.FromSeq(seq), nil
}

func (s *Source) scene(c cube, cat Catalog, grid *imagery.Grid, t int) (imagery.Scene, error) {
	acquired := c.Dims().Times[t]
	scene := imagery.Scene{
		ID:      SceneID(cat, acquired),
		Catalog: cat.ID,
		Time:    acquired,
		Grid:    grid,
		Meta:    imagery.Meta{Platform: cat.Platform},
	}
	for _, band := range c.Bands() {
		r, err := c.Read(band, t)
		if err != nil {
			return imagery.Scene{}, fmt.Errorf("scene %s: %w", scene.ID, err)
		}
		scene.Bands = append(scene.Bands, imagery.Band{Name: band, Values: r})
	}
	return scene, nil
}

// SceneID names the scene of cat acquired at t.
func SceneID(cat Catalog, t time.Time) string {
	prefix := cat.ScenePrefix
	if prefix == "" {
		prefix = cat.ID[strings.LastIndex(cat.ID, "/")+1:]
	}
	return prefix + "_" + t.UTC().Format("20060102T150405")
}

// ErrInvalidSceneID is returned for IDs that do not end in an acquisition time.
var ErrInvalidSceneID = errors.New("invalid scene ID")

// SceneTime recovers the acquisition time encoded by SceneID.
func SceneTime(id string) (time.Time, error) {
	i := strings.LastIndex(id, "_")
	if i < 0 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidSceneID, id)
	}
	t, err := time.Parse("20060102T150405", id[i+1:])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidSceneID, id)
	}
	return t, nil
}

// timeOrder returns the indexes of times in ascending order. Files are
// normally sorted already.
func timeOrder(times []time.Time) []int {
	idx := make([]int, len(times))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return times[idx[a]].Before(times[idx[b]])
	})
	return idx
}
