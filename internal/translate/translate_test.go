package translate

import (
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/robert-malhotra/landsat-lst/internal/config"
	"github.com/robert-malhotra/landsat-lst/internal/imagery"
)

var testTime = time.Date(2020, 3, 8, 19, 0, 0, 0, time.UTC)

func testCollection() *config.CollectionConfig {
	return &config.CollectionConfig{
		ID:          "landsat-c01-t1-toa",
		Title:       "Landsat 8 TOA",
		Description: "TOA reflectance",
		Aliases:     []string{"LANDSAT/LC08/C01/T1_TOA"},
		Platform:    "landsat-8",
		Satellite:   "L8",
		Product:     config.ProductTOA,
		Datacube:    "toa.nc",
		Bands:       []string{"B4", "B5", "B10"},
		License:     "proprietary",
		Extent: config.Extent{
			Spatial:  config.SpatialExtent{BBox: [][]float64{{-123.1, 49.0, -122.8, 49.3}}},
			Temporal: config.TemporalExtent{Interval: [][]any{{"2013-04-11T00:00:00Z", nil}}},
		},
	}
}

func testRegistry() *config.CollectionRegistry {
	reg := config.NewCollectionRegistry()
	if err := reg.Add(testCollection()); err != nil {
		panic(err)
	}
	sr := testCollection()
	sr.ID, sr.Aliases, sr.Product = "landsat-c01-t1-sr", nil, config.ProductSR
	if err := reg.Add(sr); err != nil {
		panic(err)
	}
	return reg
}

func testConfig() *config.Config {
	return &config.Config{STAC: config.STACConfig{BaseURL: "http://localhost:8080", Version: "1.0.0"}}
}

func testTranslator() *Translator {
	return NewTranslator(testConfig(), testRegistry(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// testScene is a 2x2 TOA scene with one missing thermal pixel.
func testScene() imagery.Scene {
	s := imagery.Scene{
		ID:      "LC08_20200308T190000",
		Catalog: "landsat-c01-t1-toa",
		Time:    testTime,
		Grid:    imagery.RegularGrid(-123.0, 49.2, 2, 2, 0.01, 30),
		Meta:    imagery.Meta{Platform: "LANDSAT-8"},
	}
	s, _ = s.WithBand("B4", imagery.Raster{{0.05, 0.06}, {0.07, 0.08}})
	s, _ = s.WithBand("B10", imagery.Raster{{300.5, math.NaN()}, {299, 298}})
	return s.WithCloudiness(12.5)
}
