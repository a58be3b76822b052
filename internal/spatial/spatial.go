// Package spatial extracts per-date maps of one index from an exported
// region table, with pixel positions in metres from a flux tower.
package spatial

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/robert-malhotra/landsat-lst/internal/sampling"
)

// Metres per degree at the tower latitude.
const (
	MetresPerDegreeLon = 85000
	MetresPerDegreeLat = 111000
)

// Interval selects how scenes are matched to the requested date.
type Interval string

const (
	// Daily keeps the rows acquired on the requested calendar day.
	Daily Interval = "daily"
	// Monthly averages every scene of the requested month per pixel position.
	Monthly Interval = "monthly"
)

// ParseInterval validates an interval name.
func ParseInterval(s string) (Interval, error) {
	switch i := Interval(strings.ToLower(strings.TrimSpace(s))); i {
	case Daily, Monthly:
		return i, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidInterval, s)
}

// Tower is the reference coordinate metres are measured from.
type Tower struct {
	Lon float64
	Lat float64
}

// LonToMetres converts a longitude to an east offset from the tower.
func (t Tower) LonToMetres(lon float64) float64 {
	return (lon - t.Lon) * MetresPerDegreeLon
}

// LatToMetres converts a latitude to a north offset from the tower.
func (t Tower) LatToMetres(lat float64) float64 {
	return (lat - t.Lat) * MetresPerDegreeLat
}

// Field is an extracted map: parallel slices of positions and values.
type Field struct {
	Index  string
	X      []float64
	Y      []float64
	Values []float64
}

// Len returns the number of pixels in the field.
func (f *Field) Len() int {
	return len(f.Values)
}

func (f *Field) add(t Tower, lon, lat, v float64) {
	f.X = append(f.X, t.LonToMetres(lon))
	f.Y = append(f.Y, t.LatToMetres(lat))
	f.Values = append(f.Values, v)
}

// Extractor pulls single-index maps out of reconstructed records.
type Extractor struct {
	vars    []string
	records []sampling.Record
	tower   Tower
}

// NewExtractor creates an extractor over records whose values follow vars.
func NewExtractor(vars []string, records []sampling.Record, tower Tower) *Extractor {
	return &Extractor{vars: vars, records: records, tower: tower}
}

// Vars returns the value columns available for extraction.
func (e *Extractor) Vars() []string {
	return slices.Clone(e.vars)
}

// Dates returns the distinct acquisition days present, sorted.
func (e *Extractor) Dates() []string {
	seen := make(map[string]struct{})
	for _, r := range e.records {
		seen[day(r)] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	slices.Sort(out)
	return out
}

// Extract returns the map of index for date. A date without scenes yields
// an empty field.
func (e *Extractor) Extract(index string, date time.Time, interval Interval) (*Field, error) {
	col := slices.Index(e.vars, index)
	if col < 0 {
		return nil, fmt.Errorf("%w: %q, available %v", ErrUnknownIndex, index, e.vars)
	}

	switch interval {
	case Daily:
		return e.daily(index, col, date), nil
	case Monthly:
		return e.monthly(index, col, date)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidInterval, interval)
	}
}

func (e *Extractor) daily(index string, col int, date time.Time) *Field {
	want := date.UTC().Format(time.DateOnly)
	f := &Field{Index: index}
	for _, r := range e.records {
		if day(r) == want {
			f.add(e.tower, r.Longitude, r.Latitude, r.Values[col])
		}
	}
	return f
}

// monthly groups the month's rows by scene and averages position j of every
// scene, ignoring NaN. Positions come from the first scene.
func (e *Extractor) monthly(index string, col int, date time.Time) (*Field, error) {
	want := date.UTC().Format("2006-01")

	var (
		order  []int
		scenes = make(map[int][]sampling.Record)
	)
	for _, r := range e.records {
		if day(r)[:7] != want {
			continue
		}
		if _, ok := scenes[r.ID]; !ok {
			order = append(order, r.ID)
		}
		scenes[r.ID] = append(scenes[r.ID], r)
	}

	f := &Field{Index: index}
	if len(order) == 0 {
		return f, nil
	}

	first := scenes[order[0]]
	for _, id := range order[1:] {
		if len(scenes[id]) != len(first) {
			return nil, fmt.Errorf("%w: scene %d has %d pixels, scene %d has %d",
				ErrPixelLayout, id, len(scenes[id]), order[0], len(first))
		}
	}

	for j, ref := range first {
		sum, n := 0.0, 0
		for _, id := range order {
			if v := scenes[id][j].Values[col]; !math.IsNaN(v) {
				sum += v
				n++
			}
		}
		mean := math.NaN()
		if n > 0 {
			mean = sum / float64(n)
		}
		f.add(e.tower, ref.Longitude, ref.Latitude, mean)
	}
	return f, nil
}

func day(r sampling.Record) string {
	return time.UnixMilli(r.Time).UTC().Format(time.DateOnly)
}
