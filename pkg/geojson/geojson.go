// Package geojson provides GeoJSON geometry types and the spatial predicates
// used to restrict scenes and pixels to a region of interest.
package geojson

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Geometry represents a GeoJSON geometry object.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Parse decodes a GeoJSON geometry and checks that its coordinates match its type.
func Parse(data []byte) (*Geometry, error) {
	var g Geometry
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("failed to parse geometry: %w", err)
	}
	if _, err := g.Orb(); err != nil {
		return nil, err
	}
	return &g, nil
}

// NewPoint creates a Point geometry at lon, lat.
func NewPoint(lon, lat float64) *Geometry {
	coords, _ := json.Marshal([]float64{lon, lat})
	return &Geometry{Type: "Point", Coordinates: coords}
}

// NewPolygonFromBBox creates a polygon geometry from a bounding box.
// bbox should be [west, south, east, north].
func NewPolygonFromBBox(bbox []float64) (*Geometry, error) {
	if len(bbox) != 4 {
		return nil, fmt.Errorf("bbox must have 4 values [west, south, east, north], got %d", len(bbox))
	}

	west, south, east, north := bbox[0], bbox[1], bbox[2], bbox[3]
	if west > east || south > north {
		return nil, fmt.Errorf("bbox %v is inverted", bbox)
	}

	coords := [][][]float64{
		{
			{west, south},
			{east, south},
			{east, north},
			{west, north},
			{west, south},
		},
	}

	coordsJSON, err := json.Marshal(coords)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal polygon coordinates: %w", err)
	}

	return &Geometry{
		Type:        "Polygon",
		Coordinates: coordsJSON,
	}, nil
}

// Point returns the coordinates as a Point [lon, lat].
// Returns error if geometry is not a Point.
func (g *Geometry) Point() ([]float64, error) {
	if g.Type != "Point" {
		return nil, fmt.Errorf("geometry is not a Point, got %s", g.Type)
	}
	var coords []float64
	if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
		return nil, fmt.Errorf("failed to unmarshal Point coordinates: %w", err)
	}
	if len(coords) < 2 {
		return nil, fmt.Errorf("invalid Point coordinates: expected at least 2 values, got %d", len(coords))
	}
	return coords, nil
}

// Polygon returns the coordinates as a Polygon [][][lon, lat].
// Returns error if geometry is not a Polygon.
func (g *Geometry) Polygon() ([][][]float64, error) {
	if g.Type != "Polygon" {
		return nil, fmt.Errorf("geometry is not a Polygon, got %s", g.Type)
	}
	var coords [][][]float64
	if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
		return nil, fmt.Errorf("failed to unmarshal Polygon coordinates: %w", err)
	}
	return coords, nil
}

// MultiPolygon returns the coordinates as a MultiPolygon [][][][lon, lat].
// Returns error if geometry is not a MultiPolygon.
func (g *Geometry) MultiPolygon() ([][][][]float64, error) {
	if g.Type != "MultiPolygon" {
		return nil, fmt.Errorf("geometry is not a MultiPolygon, got %s", g.Type)
	}
	var coords [][][][]float64
	if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
		return nil, fmt.Errorf("failed to unmarshal MultiPolygon coordinates: %w", err)
	}
	return coords, nil
}

// IsPoint reports whether the geometry is a single point.
func (g *Geometry) IsPoint() bool {
	return g != nil && g.Type == "Point"
}

// Orb converts the geometry to its orb representation.
// Supports Point, Polygon and MultiPolygon.
func (g *Geometry) Orb() (orb.Geometry, error) {
	if g == nil {
		return nil, fmt.Errorf("geometry is nil")
	}

	switch g.Type {
	case "Point":
		coords, err := g.Point()
		if err != nil {
			return nil, err
		}
		return orb.Point{coords[0], coords[1]}, nil

	case "Polygon":
		coords, err := g.Polygon()
		if err != nil {
			return nil, err
		}
		return toOrbPolygon(coords)

	case "MultiPolygon":
		coords, err := g.MultiPolygon()
		if err != nil {
			return nil, err
		}
		mp := make(orb.MultiPolygon, 0, len(coords))
		for _, polygon := range coords {
			p, err := toOrbPolygon(polygon)
			if err != nil {
				return nil, err
			}
			mp = append(mp, p)
		}
		return mp, nil

	default:
		return nil, fmt.Errorf("unsupported geometry type: %s", g.Type)
	}
}

func toOrbPolygon(rings [][][]float64) (orb.Polygon, error) {
	if len(rings) == 0 {
		return nil, fmt.Errorf("polygon has no rings")
	}
	polygon := make(orb.Polygon, 0, len(rings))
	for i, ring := range rings {
		if len(ring) < 4 {
			return nil, fmt.Errorf("ring %d must have at least 4 positions, got %d", i, len(ring))
		}
		r := make(orb.Ring, 0, len(ring))
		for _, pos := range ring {
			if len(pos) < 2 {
				return nil, fmt.Errorf("ring %d has a position with %d values", i, len(pos))
			}
			r = append(r, orb.Point{pos[0], pos[1]})
		}
		polygon = append(polygon, r)
	}
	return polygon, nil
}

// Contains reports whether the point lon, lat lies inside the geometry.
// A Point geometry contains nothing; callers sample points by nearest pixel.
func (g *Geometry) Contains(lon, lat float64) (bool, error) {
	og, err := g.Orb()
	if err != nil {
		return false, err
	}

	pt := orb.Point{lon, lat}
	switch v := og.(type) {
	case orb.Polygon:
		return planar.PolygonContains(v, pt), nil
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(v, pt), nil
	default:
		return false, nil
	}
}

// BBox computes the bounding box of the geometry.
// Returns [west, south, east, north].
func (g *Geometry) BBox() ([]float64, error) {
	return ComputeBBox(g)
}

// ComputeBBox computes the bounding box of a geometry.
// Returns [west, south, east, north].
func ComputeBBox(g *Geometry) ([]float64, error) {
	og, err := g.Orb()
	if err != nil {
		return nil, err
	}

	b := og.Bound()
	if b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] {
		return nil, fmt.Errorf("failed to compute bounding box: no valid coordinates found")
	}
	return []float64{b.Min[0], b.Min[1], b.Max[0], b.Max[1]}, nil
}

// BBoxIntersects reports whether two [west, south, east, north] boxes overlap.
// Touching edges count as an intersection.
func BBoxIntersects(a, b []float64) bool {
	if len(a) != 4 || len(b) != 4 {
		return false
	}
	return a[0] <= b[2] && b[0] <= a[2] && a[1] <= b[3] && b[1] <= a[3]
}
