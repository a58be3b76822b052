package sampling

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/robert-malhotra/landsat-lst/internal/imagery"
	"github.com/robert-malhotra/landsat-lst/pkg/geojson"
)

// SeriesPoint is one observation of a band at a location.
type SeriesPoint struct {
	SceneID string
	Time    time.Time
	Value   float64
}

// PointSeries returns the value of band at location for every scene, in
// collection order. The value is taken from the first pixel of the location
// that holds data; scenes without one are skipped.
func PointSeries(ctx context.Context, coll imagery.Collection, location *geojson.Geometry, band string, scale float64) ([]SeriesPoint, error) {
	var out []SeriesPoint
	for scene, err := range coll.All() {
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate collection: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raster, ok := scene.Band(band)
		if !ok {
			return nil, fmt.Errorf("%w: %q in scene %s", imagery.ErrBandMissing, band, scene.ID)
		}

		pixels, err := scene.Grid.Pixels(location, scale)
		if err != nil {
			return nil, fmt.Errorf("failed to select pixels of scene %s: %w", scene.ID, err)
		}

		for _, p := range pixels {
			v := raster[p.Row][p.Col]
			if math.IsNaN(v) {
				continue
			}
			out = append(out, SeriesPoint{SceneID: scene.ID, Time: scene.Time, Value: v})
			break
		}
	}
	return out, nil
}
