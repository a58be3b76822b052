package translate

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/robert-malhotra/landsat-lst/internal/stac"
)

func TestBandGridRoundTrip(t *testing.T) {
	scene := testScene()

	data, err := json.Marshal(SceneToBandGrid(scene))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var bg stac.BandGrid
	if err := json.Unmarshal(data, &bg); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	got, err := BandGridToScene(&bg, "landsat-c01-t1-toa", "landsat-8")
	if err != nil {
		t.Fatalf("BandGridToScene() error = %v", err)
	}

	if got.ID != scene.ID || !got.Time.Equal(scene.Time) {
		t.Errorf("scene = %s@%v, want %s@%v", got.ID, got.Time, scene.ID, scene.Time)
	}
	if !got.Grid.Equal(scene.Grid) {
		t.Errorf("grid = %+v, want %+v", got.Grid, scene.Grid)
	}
	names := got.BandNames()
	if len(names) != 2 || names[0] != "B4" || names[1] != "B10" {
		t.Errorf("bands = %v, want [B4 B10]", names)
	}

	b10, _ := got.Band("B10")
	if b10[0][0] != 300.5 {
		t.Errorf("B10[0][0] = %v", b10[0][0])
	}
	if !math.IsNaN(b10[0][1]) {
		t.Errorf("B10[0][1] = %v, want NaN", b10[0][1])
	}
}

func TestBandGridToSceneErrors(t *testing.T) {
	tests := []struct {
		name string
		bg   *stac.BandGrid
	}{
		{
			name: "listed band missing",
			bg: &stac.BandGrid{
				Scene: "s", Longitudes: []float64{0}, Latitudes: []float64{0},
				Order: []string{"B4"},
				Bands: map[string][][]stac.NullFloat{},
			},
		},
		{
			name: "shape mismatch",
			bg: &stac.BandGrid{
				Scene: "s", Longitudes: []float64{0, 1}, Latitudes: []float64{0},
				Order: []string{"B4"},
				Bands: map[string][][]stac.NullFloat{"B4": {{1}}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BandGridToScene(tt.bg, "c", "")
			if !errors.Is(err, ErrInvalidBandGrid) {
				t.Errorf("error = %v, want ErrInvalidBandGrid", err)
			}
		})
	}
}
