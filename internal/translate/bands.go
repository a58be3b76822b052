package translate

import (
	"fmt"

	"github.com/robert-malhotra/landsat-lst/internal/imagery"
	"github.com/robert-malhotra/landsat-lst/internal/stac"
)

// SceneToBandGrid encodes the grid and bands of a scene for the bands asset.
func SceneToBandGrid(scene imagery.Scene) *stac.BandGrid {
	bg := &stac.BandGrid{
		Scene:      scene.ID,
		Datetime:   scene.Time.UTC(),
		Longitudes: scene.Grid.Lons,
		Latitudes:  scene.Grid.Lats,
		Resolution: scene.Grid.Resolution,
		Order:      scene.BandNames(),
		Bands:      make(map[string][][]stac.NullFloat, len(scene.Bands)),
	}
	for _, b := range scene.Bands {
		rows := make([][]stac.NullFloat, len(b.Values))
		for i, row := range b.Values {
			rows[i] = make([]stac.NullFloat, len(row))
			for j, v := range row {
				rows[i][j] = stac.NullFloat(v)
			}
		}
		bg.Bands[b.Name] = rows
	}
	return bg
}

// BandGridToScene rebuilds a scene from a bands asset. Bands keep the order
// the asset lists.
func BandGridToScene(bg *stac.BandGrid, catalogID, platform string) (imagery.Scene, error) {
	grid := &imagery.Grid{Lons: bg.Longitudes, Lats: bg.Latitudes, Resolution: bg.Resolution}
	if grid.Resolution <= 0 {
		grid.Resolution = imagery.DefaultResolution
	}
	scene := imagery.Scene{
		ID:      bg.Scene,
		Catalog: catalogID,
		Time:    bg.Datetime.UTC(),
		Grid:    grid,
		Meta:    imagery.Meta{Platform: platform},
	}

	for _, name := range bg.Order {
		rows, ok := bg.Bands[name]
		if !ok {
			return imagery.Scene{}, fmt.Errorf("%w: band %q listed but missing", ErrInvalidBandGrid, name)
		}
		raster := make(imagery.Raster, len(rows))
		for i, row := range rows {
			raster[i] = make([]float64, len(row))
			for j, v := range row {
				raster[i][j] = float64(v)
			}
		}
		var err error
		if scene, err = scene.WithBand(name, raster); err != nil {
			return imagery.Scene{}, fmt.Errorf("%w: band %q: %v", ErrInvalidBandGrid, name, err)
		}
	}
	return scene, nil
}
