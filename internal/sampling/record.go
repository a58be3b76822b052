package sampling

import (
	"fmt"
	"slices"

	"github.com/robert-malhotra/landsat-lst/pkg/geojson"
)

// Record is one reconstructed sample row.
type Record struct {
	ID        int
	Longitude float64
	Latitude  float64
	// Time is the acquisition time in epoch milliseconds.
	Time     int64
	Values   []float64
	Geometry *geojson.Geometry
}

// Reconstruct maps each table row to a Record by position: id, longitude,
// latitude, time, then one value per entry of vars. Every record carries
// roi as its geometry.
func Reconstruct(table *Table, vars []string, roi *geojson.Geometry) ([]Record, error) {
	if table == nil {
		return nil, nil
	}

	if got := table.Bands(); len(got) > 0 || len(table.Rows) > 0 {
		if len(got) != len(vars) {
			return nil, fmt.Errorf("%w: header has %d value columns, expected %d", ErrCardinalityMismatch, len(got), len(vars))
		}
		if !slices.Equal(table.Header, Header(vars)) {
			return nil, fmt.Errorf("%w: got %v, expected %v", ErrHeaderMismatch, table.Header, Header(vars))
		}
	}

	records := make([]Record, 0, len(table.Rows))
	for i, row := range table.Rows {
		rec, err := RecordFromRow(row, vars)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		rec.Geometry = roi
		records = append(records, rec)
	}
	return records, nil
}

// RecordFromRow maps a single positional row to a Record.
func RecordFromRow(row []float64, vars []string) (Record, error) {
	if len(row) < FixedColumns || len(row)-FixedColumns != len(vars) {
		return Record{}, fmt.Errorf("%w: %d values for %d variables", ErrCardinalityMismatch, len(row)-FixedColumns, len(vars))
	}
	return Record{
		ID:        int(row[0]),
		Longitude: row[1],
		Latitude:  row[2],
		Time:      int64(row[3]),
		Values:    slices.Clone(row[FixedColumns:]),
	}, nil
}
