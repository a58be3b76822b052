package imagery

import (
	"fmt"
	"math"

	"github.com/robert-malhotra/landsat-lst/pkg/geojson"
)

// DefaultResolution is the native ground sampling distance of Landsat
// reflective bands, in metres.
const DefaultResolution = 30.0

// Grid describes the pixel layout shared by every band of a scene.
// Lons holds column centres and Lats holds row centres.
type Grid struct {
	Lons       []float64
	Lats       []float64
	Resolution float64
}

// Pixel identifies one grid cell and its centre coordinate.
type Pixel struct {
	Row int
	Col int
	Lon float64
	Lat float64
}

func (g *Grid) Rows() int { return len(g.Lats) }
func (g *Grid) Cols() int { return len(g.Lons) }

// BBox returns the extent of the pixel centres as [west, south, east, north].
func (g *Grid) BBox() []float64 {
	if g.Rows() == 0 || g.Cols() == 0 {
		return nil
	}
	west, east := minMax(g.Lons)
	south, north := minMax(g.Lats)
	return []float64{west, south, east, north}
}

// Stride converts a requested sampling scale in metres to a pixel step.
// Scales at or below the native resolution sample every pixel.
func (g *Grid) Stride(scale float64) int {
	res := g.Resolution
	if res <= 0 {
		res = DefaultResolution
	}
	if scale <= res {
		return 1
	}
	return int(math.Round(scale / res))
}

// Pixels returns the cells of the grid that fall inside region at the given
// scale, in row-major order. A Point region selects the single nearest cell
// when the point lies within half a pixel of the grid.
func (g *Grid) Pixels(region *geojson.Geometry, scale float64) ([]Pixel, error) {
	if region == nil {
		return nil, fmt.Errorf("%w: region is nil", ErrInvalidGeometry)
	}
	if g.Rows() == 0 || g.Cols() == 0 {
		return nil, nil
	}

	if region.IsPoint() {
		pt, err := region.Point()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
		}
		px, ok := g.Nearest(pt[0], pt[1])
		if !ok {
			return nil, nil
		}
		return []Pixel{px}, nil
	}

	bbox, err := region.BBox()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}

	step := g.Stride(scale)
	var out []Pixel
	for r := 0; r < g.Rows(); r += step {
		lat := g.Lats[r]
		if lat < bbox[1] || lat > bbox[3] {
			continue
		}
		for c := 0; c < g.Cols(); c += step {
			lon := g.Lons[c]
			if lon < bbox[0] || lon > bbox[2] {
				continue
			}
			in, err := region.Contains(lon, lat)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
			}
			if in {
				out = append(out, Pixel{Row: r, Col: c, Lon: lon, Lat: lat})
			}
		}
	}
	return out, nil
}

// Nearest returns the cell whose centre is closest to lon, lat. It reports
// false when the location lies more than half a pixel outside the grid.
func (g *Grid) Nearest(lon, lat float64) (Pixel, bool) {
	if g.Rows() == 0 || g.Cols() == 0 {
		return Pixel{}, false
	}
	c, okC := nearestIndex(g.Lons, lon)
	r, okR := nearestIndex(g.Lats, lat)
	if !okC || !okR {
		return Pixel{}, false
	}
	return Pixel{Row: r, Col: c, Lon: g.Lons[c], Lat: g.Lats[r]}, true
}

// Equal reports whether two grids share the same layout.
func (g *Grid) Equal(o *Grid) bool {
	if g == o {
		return true
	}
	if g == nil || o == nil {
		return false
	}
	return floatsEqual(g.Lons, o.Lons) && floatsEqual(g.Lats, o.Lats)
}

func nearestIndex(axis []float64, v float64) (int, bool) {
	best, bestDist := 0, math.Inf(1)
	for i, a := range axis {
		if d := math.Abs(a - v); d < bestDist {
			best, bestDist = i, d
		}
	}
	half := halfStep(axis)
	lo, hi := minMax(axis)
	if v < lo-half || v > hi+half {
		return 0, false
	}
	return best, true
}

// halfStep is half the spacing between neighbouring centres. A single-cell
// axis has no spacing, so only exact hits are accepted.
func halfStep(axis []float64) float64 {
	if len(axis) < 2 {
		return 0
	}
	return math.Abs(axis[1]-axis[0]) / 2
}

func minMax(vs []float64) (float64, float64) {
	lo, hi := vs[0], vs[0]
	for _, v := range vs[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

func floatsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// RegularGrid builds a grid of cols x rows cells starting at the north-west
// cell centre and stepping step degrees east and south.
func RegularGrid(west, north float64, cols, rows int, step, resolution float64) *Grid {
	g := &Grid{
		Lons:       make([]float64, cols),
		Lats:       make([]float64, rows),
		Resolution: resolution,
	}
	for c := range g.Lons {
		g.Lons[c] = west + float64(c)*step
	}
	for r := range g.Lats {
		g.Lats[r] = north - float64(r)*step
	}
	return g
}
