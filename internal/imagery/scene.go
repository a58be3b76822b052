// Package imagery holds the scene model shared by every pipeline stage:
// pixel grids, named band rasters and lazily evaluated scene collections.
package imagery

import (
	"fmt"
	"math"
	"slices"
	"time"
)

// Raster is a dense [row][col] grid of values. NaN marks missing data.
type Raster [][]float64

// NewRaster allocates a rows x cols raster filled with v.
func NewRaster(rows, cols int, v float64) Raster {
	r := make(Raster, rows)
	for i := range r {
		row := make([]float64, cols)
		for j := range row {
			row[j] = v
		}
		r[i] = row
	}
	return r
}

// Combine builds a new raster by applying fn to the co-located values of
// every input raster. All inputs must share the shape of the first one.
func Combine(fn func(v []float64) float64, inputs ...Raster) (Raster, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	rows := len(inputs[0])
	cols := 0
	if rows > 0 {
		cols = len(inputs[0][0])
	}
	for i, in := range inputs[1:] {
		if !sameShape(in, rows, cols) {
			return nil, fmt.Errorf("%w: input %d", ErrShapeMismatch, i+1)
		}
	}

	out := make(Raster, rows)
	buf := make([]float64, len(inputs))
	for r := 0; r < rows; r++ {
		out[r] = make([]float64, cols)
		for c := 0; c < cols; c++ {
			for k, in := range inputs {
				buf[k] = in[r][c]
			}
			out[r][c] = fn(buf)
		}
	}
	return out, nil
}

func sameShape(r Raster, rows, cols int) bool {
	if len(r) != rows {
		return false
	}
	for _, row := range r {
		if len(row) != cols {
			return false
		}
	}
	return true
}

// Band is a named raster.
type Band struct {
	Name   string
	Values Raster
}

// Meta carries the per-scene properties attached by pipeline stages.
type Meta struct {
	Platform string

	// Cloudiness is the region-mean cloud score. It is meaningful only
	// when CloudinessValid is set.
	Cloudiness      float64
	CloudinessValid bool

	DateKey string
}

// Scene is one acquisition: a timestamp, a pixel grid and ordered bands.
// Scenes are treated as values; the With* methods return modified copies.
type Scene struct {
	ID      string
	Catalog string
	Time    time.Time
	Grid    *Grid
	Bands   []Band
	Meta    Meta
}

// Millis returns the acquisition time in epoch milliseconds.
func (s Scene) Millis() int64 {
	return s.Time.UnixMilli()
}

// Band returns the raster of the named band.
func (s Scene) Band(name string) (Raster, bool) {
	for _, b := range s.Bands {
		if b.Name == name {
			return b.Values, true
		}
	}
	return nil, false
}

// MustBands returns the rasters of the named bands in the given order,
// failing with ErrBandMissing on the first absent one.
func (s Scene) MustBands(names ...string) ([]Raster, error) {
	out := make([]Raster, len(names))
	for i, n := range names {
		r, ok := s.Band(n)
		if !ok {
			return nil, fmt.Errorf("%w: %q in scene %s", ErrBandMissing, n, s.ID)
		}
		out[i] = r
	}
	return out, nil
}

// BandNames lists the band names in scene order.
func (s Scene) BandNames() []string {
	names := make([]string, len(s.Bands))
	for i, b := range s.Bands {
		names[i] = b.Name
	}
	return names
}

// WithBand returns a copy of the scene with the band appended, or replaced
// in place when a band of the same name already exists.
func (s Scene) WithBand(name string, values Raster) (Scene, error) {
	if s.Grid != nil && !sameShape(values, s.Grid.Rows(), s.Grid.Cols()) {
		return s, fmt.Errorf("%w: band %q in scene %s", ErrShapeMismatch, name, s.ID)
	}
	bands := slices.Clone(s.Bands)
	idx := slices.IndexFunc(bands, func(b Band) bool { return b.Name == name })
	if idx >= 0 {
		bands[idx] = Band{Name: name, Values: values}
	} else {
		bands = append(bands, Band{Name: name, Values: values})
	}
	s.Bands = bands
	return s, nil
}

// Select returns a copy of the scene holding only the named bands, in the
// requested order.
func (s Scene) Select(names ...string) (Scene, error) {
	rasters, err := s.MustBands(names...)
	if err != nil {
		return s, err
	}
	bands := make([]Band, len(names))
	for i, n := range names {
		bands[i] = Band{Name: n, Values: rasters[i]}
	}
	s.Bands = bands
	return s, nil
}

// WithCloudiness returns a copy of the scene carrying the cloud score.
// NaN marks the score as undefined.
func (s Scene) WithCloudiness(score float64) Scene {
	s.Meta.Cloudiness = score
	s.Meta.CloudinessValid = !math.IsNaN(score)
	return s
}

// WithDateKey returns a copy of the scene tagged with the calendar-day key.
func (s Scene) WithDateKey(key string) Scene {
	s.Meta.DateKey = key
	return s
}
