// Package sampling flattens scene collections into per-pixel rows and maps
// those rows back into typed records.
package sampling

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/robert-malhotra/landsat-lst/internal/imagery"
	"github.com/robert-malhotra/landsat-lst/pkg/geojson"
)

// Fixed leading columns of every sampled row.
const (
	ColID        = "id"
	ColLongitude = "longitude"
	ColLatitude  = "latitude"
	ColTime      = "time"
)

// FixedColumns is the number of columns that precede the band values.
const FixedColumns = 4

// Header returns the column layout for the given band names.
func Header(bands []string) []string {
	h := make([]string, 0, FixedColumns+len(bands))
	h = append(h, ColID, ColLongitude, ColLatitude, ColTime)
	return append(h, bands...)
}

// Table is a flat region sample: one row per pixel per scene.
type Table struct {
	Header []string
	Rows   [][]float64
}

// Bands returns the band columns of the header.
func (t *Table) Bands() []string {
	if len(t.Header) <= FixedColumns {
		return nil
	}
	return t.Header[FixedColumns:]
}

// GetRegion samples every scene of coll at the pixels inside region. Each
// row holds the scene ordinal, the pixel centre, the acquisition time in
// epoch milliseconds and the band values in collection order. Pixels with
// missing values are kept with NaN.
func GetRegion(ctx context.Context, coll imagery.Collection, region *geojson.Geometry, scale float64) (*Table, error) {
	table := &Table{Header: Header(nil)}
	var bands []string

	ordinal := 0
	for scene, err := range coll.All() {
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate collection: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		names := scene.BandNames()
		if ordinal == 0 {
			bands = names
			table.Header = Header(bands)
		} else if !slices.Equal(names, bands) {
			return nil, fmt.Errorf("%w: scene %s has %v, expected %v", ErrBandLayout, scene.ID, names, bands)
		}

		pixels, err := scene.Grid.Pixels(region, scale)
		if err != nil {
			return nil, fmt.Errorf("failed to select pixels of scene %s: %w", scene.ID, err)
		}

		millis := float64(scene.Millis())
		for _, p := range pixels {
			row := make([]float64, 0, FixedColumns+len(scene.Bands))
			row = append(row, float64(ordinal), p.Lon, p.Lat, millis)
			for _, b := range scene.Bands {
				row = append(row, b.Values[p.Row][p.Col])
			}
			table.Rows = append(table.Rows, row)
		}

		slog.DebugContext(ctx, "sampled scene",
			slog.String("scene", scene.ID),
			slog.Int("ordinal", ordinal),
			slog.Int("pixels", len(pixels)),
		)
		ordinal++
	}

	return table, nil
}
