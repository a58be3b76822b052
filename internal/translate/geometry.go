package translate

import (
	"fmt"

	"github.com/robert-malhotra/landsat-lst/internal/imagery"
	"github.com/robert-malhotra/landsat-lst/pkg/geojson"
)

// GridFootprint returns the polygon covering a scene grid, extended by half
// a pixel past the outermost pixel centres.
func GridFootprint(g *imagery.Grid) (*geojson.Geometry, []float64, error) {
	if g == nil {
		return nil, nil, fmt.Errorf("%w: scene has no grid", ErrInvalidGeometry)
	}
	bbox := g.BBox()
	if bbox == nil {
		return nil, nil, fmt.Errorf("%w: empty grid", ErrInvalidGeometry)
	}

	dx, dy := halfStep(g.Lons), halfStep(g.Lats)
	bbox = []float64{bbox[0] - dx, bbox[1] - dy, bbox[2] + dx, bbox[3] + dy}
	poly, err := geojson.NewPolygonFromBBox(bbox)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}
	return poly, bbox, nil
}

func halfStep(axis []float64) float64 {
	if len(axis) < 2 {
		return 0
	}
	d := axis[1] - axis[0]
	if d < 0 {
		d = -d
	}
	return d / 2
}
