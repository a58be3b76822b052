package datacube

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"

	"github.com/robert-malhotra/landsat-lst/internal/imagery"
)

// TZ=UTC date --date="1900-01-01 00:00:00" +%s
const unixSecs1900 = -2208988800

// Dimension variable names.
const (
	dimTime      = "time"
	dimLatitude  = "latitude"
	dimLongitude = "longitude"
)

// ncCube reads a datacube from a NetCDF file.
type ncCube struct {
	nc    api.Group
	dims  Dims
	bands []string
	vars  map[string]api.VarGetter
}

func openNetCDF(path string) (cube, error) {
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open datacube %s: %w", path, err)
	}
	c := &ncCube{nc: nc, vars: make(map[string]api.VarGetter)}
	if err := c.load(); err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to read datacube %s: %w", path, err)
	}
	return c, nil
}

func (c *ncCube) load() error {
	lats, err := floatValues(c.nc, dimLatitude)
	if err != nil {
		return err
	}
	lons, err := floatValues(c.nc, dimLongitude)
	if err != nil {
		return err
	}
	times, err := c.timeValues()
	if err != nil {
		return err
	}

	res := imagery.DefaultResolution
	if v, ok := c.nc.Attributes().Get("resolution"); ok {
		if f, ok := scalar(v); ok && f > 0 {
			res = f
		}
	}
	c.dims = Dims{Times: times, Lons: lons, Lats: lats, Resolution: res}

	for _, name := range c.nc.ListVariables() {
		vg, err := c.nc.GetVarGetter(name)
		if err != nil {
			return err
		}
		d := vg.Dimensions()
		if len(d) == 3 && d[0] == dimTime && d[1] == dimLatitude && d[2] == dimLongitude {
			c.bands = append(c.bands, name)
			c.vars[name] = vg
		}
	}
	if len(c.bands) == 0 {
		return fmt.Errorf("no (time, latitude, longitude) band variables")
	}
	return nil
}

// timeValues decodes the time axis. Values are epoch milliseconds unless the
// units attribute says hours since 1900, as in ERA5 files.
func (c *ncCube) timeValues() ([]time.Time, error) {
	vg, err := c.nc.GetVarGetter(dimTime)
	if err != nil {
		return nil, err
	}
	raw, err := vg.Values()
	if err != nil {
		return nil, err
	}
	vals, err := toFloats(raw)
	if err != nil {
		return nil, fmt.Errorf("time: %w", err)
	}

	hours := false
	if u, ok := vg.Attributes().Get("units"); ok {
		if s, ok := u.(string); ok && strings.HasPrefix(s, "hours since 1900") {
			hours = true
		}
	}

	out := make([]time.Time, len(vals))
	for i, v := range vals {
		if hours {
			out[i] = time.Unix(int64(v)*3600+unixSecs1900, 0).UTC()
		} else {
			out[i] = time.UnixMilli(int64(v)).UTC()
		}
	}
	return out, nil
}

func (c *ncCube) Dims() Dims      { return c.dims }
func (c *ncCube) Bands() []string { return c.bands }
func (c *ncCube) Close()          { c.nc.Close() }

// Read returns one time step of a band with fill values replaced by NaN and
// the packing attributes applied.
func (c *ncCube) Read(band string, t int) (imagery.Raster, error) {
	vg, ok := c.vars[band]
	if !ok {
		return nil, fmt.Errorf("%w: %q", imagery.ErrBandMissing, band)
	}
	raw, err := vg.GetSlice(int64(t), int64(t)+1)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s[%d]: %w", band, t, err)
	}
	r, err := toRaster(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", band, err)
	}

	attrs := vg.Attributes()
	scale, offset := 1.0, 0.0
	fill := math.NaN()
	if v, ok := attrs.Get("scale_factor"); ok {
		scale, _ = scalar(v)
	}
	if v, ok := attrs.Get("add_offset"); ok {
		offset, _ = scalar(v)
	}
	if v, ok := attrs.Get("_FillValue"); ok {
		fill, _ = scalar(v)
	}
	for _, row := range r {
		for j, v := range row {
			if v == fill {
				row[j] = math.NaN()
				continue
			}
			row[j] = v*scale + offset
		}
	}
	return r, nil
}

func floatValues(nc api.Group, name string) ([]float64, error) {
	vg, err := nc.GetVarGetter(name)
	if err != nil {
		return nil, err
	}
	raw, err := vg.Values()
	if err != nil {
		return nil, err
	}
	vals, err := toFloats(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return vals, nil
}

func toFloats(raw any) ([]float64, error) {
	switch v := raw.(type) {
	case []float64:
		return v, nil
	case []float32:
		return convert(v), nil
	case []int64:
		return convert(v), nil
	case []int32:
		return convert(v), nil
	case []int16:
		return convert(v), nil
	default:
		return nil, fmt.Errorf("unsupported 1-D type %T", raw)
	}
}

func convert[T float32 | int64 | int32 | int16](in []T) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}

// toRaster converts a single-step [1][lat][lon] slice.
func toRaster(raw any) (imagery.Raster, error) {
	switch v := raw.(type) {
	case [][][]float64:
		return grid2D(v)
	case [][][]float32:
		return grid2D(v)
	case [][][]int32:
		return grid2D(v)
	case [][][]int16:
		return grid2D(v)
	default:
		return nil, fmt.Errorf("unsupported 3-D type %T", raw)
	}
}

func grid2D[T float64 | float32 | int32 | int16](v [][][]T) (imagery.Raster, error) {
	if len(v) != 1 {
		return nil, fmt.Errorf("expected one time step, got %d", len(v))
	}
	out := make(imagery.Raster, len(v[0]))
	for i, row := range v[0] {
		out[i] = make([]float64, len(row))
		for j, x := range row {
			out[i][j] = float64(x)
		}
	}
	return out, nil
}

func scalar(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case int16:
		return float64(x), true
	case []float64:
		if len(x) > 0 {
			return x[0], true
		}
	case []float32:
		if len(x) > 0 {
			return float64(x[0]), true
		}
	case []int16:
		if len(x) > 0 {
			return float64(x[0]), true
		}
	}
	return 0, false
}
