package sampling

import (
	"context"
	"errors"
	"math"
	"slices"
	"testing"
	"time"

	"github.com/robert-malhotra/landsat-lst/internal/imagery"
	"github.com/robert-malhotra/landsat-lst/pkg/geojson"
)

var vars = []string{"CELSIUS", "NDVI", "NDWI", "MNDWI_SW1", "MNDWI_SW2"}

func roi(t *testing.T) *geojson.Geometry {
	t.Helper()
	g, err := geojson.NewPolygonFromBBox([]float64{-0.5, -0.5, 1.5, 1.5})
	if err != nil {
		t.Fatalf("NewPolygonFromBBox() error: %v", err)
	}
	return g
}

// gridScene builds a 2x2 scene; band k holds value base+k at every pixel.
func gridScene(t *testing.T, id string, at time.Time, base float64, bands ...string) imagery.Scene {
	t.Helper()
	s := imagery.Scene{ID: id, Time: at, Grid: imagery.RegularGrid(0, 1, 2, 2, 1, 30)}
	for k, b := range bands {
		var err error
		if s, err = s.WithBand(b, imagery.NewRaster(2, 2, base+float64(k))); err != nil {
			t.Fatalf("WithBand() error: %v", err)
		}
	}
	return s
}

func TestGetRegion(t *testing.T) {
	t0 := time.UnixMilli(1583708400000).UTC()
	t1 := t0.AddDate(0, 0, 16)
	coll := imagery.FromScenes([]imagery.Scene{
		gridScene(t, "a", t0, 10, "CELSIUS", "NDVI"),
		gridScene(t, "b", t1, 20, "CELSIUS", "NDVI"),
	})

	table, err := GetRegion(context.Background(), coll, roi(t), 30)
	if err != nil {
		t.Fatalf("GetRegion() error: %v", err)
	}

	wantHeader := []string{"id", "longitude", "latitude", "time", "CELSIUS", "NDVI"}
	if !slices.Equal(table.Header, wantHeader) {
		t.Errorf("Header = %v, want %v", table.Header, wantHeader)
	}
	if len(table.Rows) != 8 {
		t.Fatalf("GetRegion() produced %d rows, want 8", len(table.Rows))
	}

	first := table.Rows[0]
	want := []float64{0, 0, 1, 1583708400000, 10, 11}
	if !slices.Equal(first, want) {
		t.Errorf("Rows[0] = %v, want %v", first, want)
	}

	last := table.Rows[7]
	if last[0] != 1 || last[3] != float64(t1.UnixMilli()) || last[4] != 20 {
		t.Errorf("Rows[7] = %v, want ordinal 1 from scene b", last)
	}
}

func TestGetRegion_KeepsMissingValues(t *testing.T) {
	s := gridScene(t, "a", time.Now(), 0, "CELSIUS")
	s, _ = s.WithBand("CELSIUS", imagery.NewRaster(2, 2, math.NaN()))

	table, err := GetRegion(context.Background(), imagery.FromScenes([]imagery.Scene{s}), roi(t), 30)
	if err != nil {
		t.Fatalf("GetRegion() error: %v", err)
	}
	if len(table.Rows) != 4 {
		t.Fatalf("GetRegion() produced %d rows, want 4", len(table.Rows))
	}
	if !math.IsNaN(table.Rows[0][4]) {
		t.Errorf("missing value = %v, want NaN", table.Rows[0][4])
	}
}

func TestGetRegion_Empty(t *testing.T) {
	table, err := GetRegion(context.Background(), imagery.Empty(), roi(t), 30)
	if err != nil {
		t.Fatalf("GetRegion() error: %v", err)
	}
	if len(table.Rows) != 0 || len(table.Header) != FixedColumns {
		t.Errorf("empty table = %+v", table)
	}
}

func TestGetRegion_BandLayoutMismatch(t *testing.T) {
	coll := imagery.FromScenes([]imagery.Scene{
		gridScene(t, "a", time.Now(), 0, "CELSIUS", "NDVI"),
		gridScene(t, "b", time.Now(), 0, "NDVI", "CELSIUS"),
	})
	if _, err := GetRegion(context.Background(), coll, roi(t), 30); !errors.Is(err, ErrBandLayout) {
		t.Errorf("GetRegion() error = %v, want ErrBandLayout", err)
	}
}

func TestReconstruct(t *testing.T) {
	row := []float64{3, -122.5, 49.1, 1583708400000, 21.4, 0.62, 0.15, -0.3, -0.1}
	table := &Table{Header: Header(vars), Rows: [][]float64{row}}
	region := roi(t)

	records, err := Reconstruct(table, vars, region)
	if err != nil {
		t.Fatalf("Reconstruct() error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Reconstruct() returned %d records, want 1", len(records))
	}

	rec := records[0]
	if rec.ID != 3 || rec.Longitude != -122.5 || rec.Latitude != 49.1 || rec.Time != 1583708400000 {
		t.Errorf("record fixed fields = %+v", rec)
	}
	if !slices.Equal(rec.Values, []float64{21.4, 0.62, 0.15, -0.3, -0.1}) {
		t.Errorf("record values = %v", rec.Values)
	}
	if rec.Geometry != region {
		t.Error("record geometry should be the region of interest")
	}
}

func TestReconstruct_Errors(t *testing.T) {
	tests := []struct {
		name  string
		table *Table
		want  error
	}{
		{
			name: "short row",
			table: &Table{
				Header: Header(vars),
				Rows:   [][]float64{{3, -122.5, 49.1, 1583708400000, 21.4, 0.62, 0.15, -0.3}},
			},
			want: ErrCardinalityMismatch,
		},
		{
			name: "long row",
			table: &Table{
				Header: Header(vars),
				Rows:   [][]float64{{3, -122.5, 49.1, 1583708400000, 21.4, 0.62, 0.15, -0.3, -0.1, 9}},
			},
			want: ErrCardinalityMismatch,
		},
		{
			name:  "header with fewer variables",
			table: &Table{Header: Header(vars[:4])},
			want:  ErrCardinalityMismatch,
		},
		{
			name:  "header with renamed variable",
			table: &Table{Header: Header([]string{"LST", "NDVI", "NDWI", "MNDWI_SW1", "MNDWI_SW2"})},
			want:  ErrHeaderMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Reconstruct(tt.table, vars, roi(t))
			if !errors.Is(err, tt.want) {
				t.Errorf("Reconstruct() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestReconstruct_EmptyTable(t *testing.T) {
	records, err := Reconstruct(&Table{Header: Header(nil)}, vars, roi(t))
	if err != nil {
		t.Fatalf("Reconstruct() error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Reconstruct() returned %d records, want 0", len(records))
	}
}

func TestPointSeries(t *testing.T) {
	t0 := time.Date(2020, 1, 1, 19, 0, 0, 0, time.UTC)
	withGap := gridScene(t, "gap", t0.AddDate(0, 0, 16), 0, "NDVI")
	withGap, _ = withGap.WithBand("NDVI", imagery.NewRaster(2, 2, math.NaN()))

	coll := imagery.FromScenes([]imagery.Scene{
		gridScene(t, "a", t0, 0.4, "NDVI"),
		withGap,
		gridScene(t, "b", t0.AddDate(0, 0, 32), 0.6, "NDVI"),
	})

	series, err := PointSeries(context.Background(), coll, geojson.NewPoint(1, 0), "NDVI", 30)
	if err != nil {
		t.Fatalf("PointSeries() error: %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("PointSeries() returned %d points, want 2", len(series))
	}
	if series[0].SceneID != "a" || series[0].Value != 0.4 {
		t.Errorf("series[0] = %+v", series[0])
	}
	if series[1].SceneID != "b" || !series[1].Time.Equal(t0.AddDate(0, 0, 32)) {
		t.Errorf("series[1] = %+v", series[1])
	}
}

func TestPointSeries_MissingBand(t *testing.T) {
	coll := imagery.FromScenes([]imagery.Scene{gridScene(t, "a", time.Now(), 0, "CELSIUS")})
	_, err := PointSeries(context.Background(), coll, geojson.NewPoint(0, 0), "NDVI", 30)
	if !errors.Is(err, imagery.ErrBandMissing) {
		t.Errorf("PointSeries() error = %v, want ErrBandMissing", err)
	}
}
