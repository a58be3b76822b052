// Package lst derives land surface temperature and spectral indices from
// Landsat surface reflectance scenes.
package lst

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/robert-malhotra/landsat-lst/internal/imagery"
	"github.com/robert-malhotra/landsat-lst/pkg/geojson"
)

// Output band names.
const (
	BandNDVI     = "NDVI"
	BandNDWI     = "NDWI"
	BandMNDWI1   = "MNDWI_SW1"
	BandMNDWI2   = "MNDWI_SW2"
	BandFVC      = "FVC"
	BandTPW      = "TPW"
	BandEM       = "EM"
	BandLST      = "LST"
	BandCelsius  = "CELSIUS"
	sourceTPW    = "TPW"
	kelvinOffset = 273.15
)

const (
	// rho is h*c/sigma in µm·K.
	rho = 14388.0

	ndviBare = 0.2
	ndviVeg  = 0.86

	emBare    = 0.986
	emVegGain = 0.004
)

// Request describes one temperature retrieval.
type Request struct {
	Satellite string
	Start     time.Time
	End       time.Time
	Geometry  *geojson.Geometry
	UseNDVI   bool
	Source    imagery.Collection
}

func (r Request) validate() error {
	if _, err := Bands(r.Satellite); err != nil {
		return err
	}
	if !r.Start.IsZero() && !r.End.IsZero() && !r.Start.Before(r.End) {
		return fmt.Errorf("%w: start %s is not before end %s", ErrInvalidRequest,
			r.Start.Format(time.DateOnly), r.End.Format(time.DateOnly))
	}
	if r.Geometry == nil {
		return fmt.Errorf("%w: geometry is required", ErrInvalidRequest)
	}
	return nil
}

// Retriever produces a collection of scenes carrying NDVI, FVC, TPW, EM and
// LST bands, one output scene per input scene.
type Retriever interface {
	Retrieve(ctx context.Context, req Request) (imagery.Collection, error)
}

// MonoWindow retrieves LST with a single-channel emissivity correction of
// the thermal brightness temperature.
type MonoWindow struct {
	logger *slog.Logger
}

// NewMonoWindow creates a MonoWindow retriever.
func NewMonoWindow() *MonoWindow {
	return &MonoWindow{logger: slog.Default()}
}

// WithLogger sets a custom logger for the retriever
func (m *MonoWindow) WithLogger(logger *slog.Logger) *MonoWindow {
	m.logger = logger
	return m
}

// Retrieve validates req and returns the source collection with the derived
// bands added to every scene. The work runs when the result is evaluated.
func (m *MonoWindow) Retrieve(ctx context.Context, req Request) (imagery.Collection, error) {
	if err := req.validate(); err != nil {
		return imagery.Collection{}, err
	}
	bands, _ := Bands(req.Satellite)
	lambda, _ := Wavelength(req.Satellite)

	m.logger.DebugContext(ctx, "configured LST retrieval",
		slog.String("satellite", req.Satellite),
		slog.Bool("use_ndvi", req.UseNDVI),
		slog.Float64("wavelength_um", lambda),
	)

	return req.Source.Map(func(s imagery.Scene) (imagery.Scene, error) {
		out, err := derive(s, bands, lambda, req.UseNDVI)
		if err != nil {
			return s, fmt.Errorf("failed to derive LST for scene %s: %w", s.ID, err)
		}
		return out, nil
	}), nil
}

func derive(s imagery.Scene, b BandMap, lambda float64, useNDVI bool) (imagery.Scene, error) {
	in, err := s.MustBands(b.Red, b.NIR, b.Green, b.SWIR1, b.SWIR2, b.Thermal)
	if err != nil {
		return s, err
	}
	red, nir, green, swir1, swir2, bt := in[0], in[1], in[2], in[3], in[4], in[5]

	ndvi, err := imagery.Combine(normDiff, nir, red)
	if err != nil {
		return s, err
	}
	ndwi, err := imagery.Combine(normDiff, green, nir)
	if err != nil {
		return s, err
	}
	mndwi1, err := imagery.Combine(normDiff, green, swir1)
	if err != nil {
		return s, err
	}
	mndwi2, err := imagery.Combine(normDiff, green, swir2)
	if err != nil {
		return s, err
	}
	fvc, _ := imagery.Combine(func(v []float64) float64 { return FVC(v[0]) }, ndvi)
	em, _ := imagery.Combine(func(v []float64) float64 { return Emissivity(v[0], useNDVI) }, fvc)
	lst, err := imagery.Combine(func(v []float64) float64 { return Temperature(v[0], v[1], lambda) }, bt, em)
	if err != nil {
		return s, err
	}

	tpw, ok := s.Band(sourceTPW)
	if !ok {
		tpw = imagery.NewRaster(len(bt), rowLen(bt), math.NaN())
	}

	added := []imagery.Band{
		{Name: BandNDVI, Values: ndvi},
		{Name: BandFVC, Values: fvc},
		{Name: BandTPW, Values: tpw},
		{Name: BandEM, Values: em},
		{Name: BandLST, Values: lst},
		{Name: BandNDWI, Values: ndwi},
		{Name: BandMNDWI1, Values: mndwi1},
		{Name: BandMNDWI2, Values: mndwi2},
	}
	for _, band := range added {
		if s, err = s.WithBand(band.Name, band.Values); err != nil {
			return s, err
		}
	}
	return s, nil
}

func rowLen(r imagery.Raster) int {
	if len(r) == 0 {
		return 0
	}
	return len(r[0])
}

// normDiff is (a-b)/(a+b) over v = [a, b].
func normDiff(v []float64) float64 {
	return NormalizedDifference(v[0], v[1])
}

// NormalizedDifference returns (a-b)/(a+b), or NaN when the sum is zero.
func NormalizedDifference(a, b float64) float64 {
	sum := a + b
	if sum == 0 {
		return math.NaN()
	}
	return (a - b) / sum
}

// FVC is the fractional vegetation cover for an NDVI value, in [0, 1].
func FVC(ndvi float64) float64 {
	if math.IsNaN(ndvi) {
		return math.NaN()
	}
	f := (ndvi - ndviBare) / (ndviVeg - ndviBare)
	return clamp(f*f, 0, 1)
}

// Emissivity returns the surface emissivity. Without NDVI adjustment every
// pixel gets the bare-surface value.
func Emissivity(fvc float64, useNDVI bool) float64 {
	if !useNDVI {
		return emBare
	}
	return emVegGain*fvc + emBare
}

// Temperature converts a brightness temperature in Kelvin to LST in Kelvin
// for the given emissivity and thermal wavelength in µm.
func Temperature(bt, em, lambda float64) float64 {
	return bt / (1 + (lambda*bt/rho)*math.Log(em))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// ToCelsius adds a CELSIUS band holding LST - 273.15 to every scene. The LST
// band is kept.
func ToCelsius(coll imagery.Collection) imagery.Collection {
	return coll.Map(func(s imagery.Scene) (imagery.Scene, error) {
		k, ok := s.Band(BandLST)
		if !ok {
			return s, fmt.Errorf("%w: %q in scene %s", imagery.ErrBandMissing, BandLST, s.ID)
		}
		c, err := imagery.Combine(func(v []float64) float64 { return v[0] - kelvinOffset }, k)
		if err != nil {
			return s, err
		}
		return s.WithBand(BandCelsius, c)
	})
}
