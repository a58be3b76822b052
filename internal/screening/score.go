// Package screening scores top-of-atmosphere scenes for cloud cover and keeps
// the acquisition days that are clear over the region of interest.
package screening

import (
	"fmt"
	"math"

	"github.com/robert-malhotra/landsat-lst/internal/imagery"
	"github.com/robert-malhotra/landsat-lst/internal/lst"
	"github.com/robert-malhotra/landsat-lst/pkg/geojson"
)

// Estimator produces a per-pixel cloud likelihood raster in [0, 100].
type Estimator interface {
	Estimate(s imagery.Scene) (imagery.Raster, error)
}

// SimpleCloudScore combines brightness, temperature and snow tests on TOA
// reflectance. Each test is rescaled to [0, 1] and the pixel score is the
// minimum over all tests.
type SimpleCloudScore struct {
	Bands lst.BandMap
}

// NewSimpleCloudScore returns the estimator for the bands of satellite.
func NewSimpleCloudScore(satellite string) (*SimpleCloudScore, error) {
	b, err := lst.Bands(satellite)
	if err != nil {
		return nil, err
	}
	return &SimpleCloudScore{Bands: b}, nil
}

// Estimate implements Estimator.
func (e *SimpleCloudScore) Estimate(s imagery.Scene) (imagery.Raster, error) {
	b := e.Bands
	in, err := s.MustBands(b.Blue, b.Green, b.Red, b.NIR, b.SWIR1, b.SWIR2, b.Thermal)
	if err != nil {
		return nil, err
	}
	out, err := imagery.Combine(func(v []float64) float64 {
		return PixelScore(v[0], v[1], v[2], v[3], v[4], v[5], v[6])
	}, in...)
	if err != nil {
		return nil, fmt.Errorf("failed to score scene %s: %w", s.ID, err)
	}
	return out, nil
}

// PixelScore returns the cloud likelihood of one pixel, or NaN when any input
// is missing. Reflectances are unitless and temp is in Kelvin.
func PixelScore(blue, green, red, nir, swir1, swir2, temp float64) float64 {
	score := 1.0
	score = math.Min(score, rescale(blue, 0.1, 0.3))
	score = math.Min(score, rescale(red+green+blue, 0.2, 0.8))
	score = math.Min(score, rescale(nir+swir1+swir2, 0.3, 0.8))
	score = math.Min(score, rescale(temp, 300, 290))
	score = math.Min(score, rescale(lst.NormalizedDifference(green, swir1), 0.8, 0.6))
	return score * 100
}

// rescale maps v linearly from [lo, hi] onto [0, 1] and clamps. hi may be
// below lo to invert the test. NaN propagates.
func rescale(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return math.NaN()
	}
	return math.Max(0, math.Min(1, (v-lo)/(hi-lo)))
}

// ReduceMean averages the non-NaN values of r at the pixels of grid inside
// region, sampled at scale metres. It returns NaN when no pixel qualifies.
func ReduceMean(r imagery.Raster, grid *imagery.Grid, region *geojson.Geometry, scale float64) (float64, error) {
	pixels, err := grid.Pixels(region, scale)
	if err != nil {
		return math.NaN(), err
	}

	var sum float64
	n := 0
	for _, p := range pixels {
		v := r[p.Row][p.Col]
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN(), nil
	}
	return sum / float64(n), nil
}
