package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/robert-malhotra/landsat-lst/pkg/geojson"
)

// JobEnvPrefix prefixes environment overrides of job settings. A double
// underscore separates nested keys: LST_JOB_EXPORT__FOLDER sets export.folder.
const JobEnvPrefix = "LST_JOB_"

// Job describes one export run.
type Job struct {
	Name      string `koanf:"name"`
	Start     string `koanf:"start"`
	End       string `koanf:"end"`
	Satellite string `koanf:"satellite"`
	UseNDVI   bool   `koanf:"use_ndvi"`

	Region RegionConfig  `koanf:"region"`
	Points []PointConfig `koanf:"points"`

	CloudThreshold float64  `koanf:"cloud_threshold"`
	Scale          float64  `koanf:"scale"`
	Vars           []string `koanf:"vars"`

	Catalogs JobCatalogs  `koanf:"catalogs"`
	Export   JobExport    `koanf:"export"`
	Series   SeriesConfig `koanf:"series"`
	Spatial  SpatialJob   `koanf:"spatial"`
}

// RegionConfig is either a bounding box or a GeoJSON polygon string.
type RegionConfig struct {
	BBox    []float64 `koanf:"bbox"`
	GeoJSON string    `koanf:"geojson"`
}

// PointConfig is a named sample location.
type PointConfig struct {
	Name string  `koanf:"name"`
	Lon  float64 `koanf:"lon"`
	Lat  float64 `koanf:"lat"`
}

// JobCatalogs names the surface reflectance and TOA catalogs.
type JobCatalogs struct {
	SR  string `koanf:"sr"`
	TOA string `koanf:"toa"`
}

// JobExport names the export destination.
type JobExport struct {
	Folder      string `koanf:"folder"`
	Description string `koanf:"description"`
}

// SeriesConfig controls the per-point time series exports.
type SeriesConfig struct {
	Enabled bool   `koanf:"enabled"`
	Band    string `koanf:"band"`
}

// SpatialJob holds defaults for the spatial extraction command.
type SpatialJob struct {
	Tower []float64 `koanf:"tower"`
}

var jobDefaults = map[string]any{
	"name":            "bb2",
	"start":           "2010-01-01",
	"end":             "2021-01-05",
	"satellite":       "L8",
	"use_ndvi":        true,
	"region.bbox":     []float64{-122.995, 49.120, -122.975, 49.135},
	"cloud_threshold": 10.0,
	"scale":           30.0,
	"vars":            []string{"CELSIUS", "NDVI", "NDWI", "MNDWI_SW1", "MNDWI_SW2"},
	"points": []map[string]any{
		{"name": "bb1", "lon": -122.9849, "lat": 49.1293},
		{"name": "bb2", "lon": -122.9860, "lat": 49.1265},
	},
	"catalogs.sr":        "LANDSAT/LC08/C01/T1_SR",
	"catalogs.toa":       "LANDSAT/LC08/C01/T1_TOA",
	"export.folder":      "Micromet_GEE",
	"export.description": "bb2_spatial_indices_2021",
	"series.enabled":     true,
	"series.band":        "NDVI",
	"spatial.tower":      []float64{-122.9849, 49.1293},
}

// LoadJob builds a Job by layering defaults, the optional YAML file at path
// and LST_JOB_* environment variables, in increasing precedence.
func LoadJob(path string) (*Job, error) {
	k := koanf.New(".")

	for key, v := range jobDefaults {
		if err := k.Set(key, v); err != nil {
			return nil, fmt.Errorf("failed to set job default %s: %w", key, err)
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load job file %q: %w", path, err)
		}
	}

	envProvider := env.Provider(JobEnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, JobEnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load job environment: %w", err)
	}

	var job Job
	if err := k.UnmarshalWithConf("", &job, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to decode job: %w", err)
	}

	if err := job.Validate(); err != nil {
		return nil, fmt.Errorf("invalid job: %w", err)
	}
	return &job, nil
}

// Interval parses Start and End. Dates are YYYY-MM-DD in UTC or RFC 3339.
// End is exclusive.
func (j *Job) Interval() (time.Time, time.Time, error) {
	start, err := parseJobTime(j.Start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start: %w", err)
	}
	end, err := parseJobTime(j.End)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end: %w", err)
	}
	return start, end, nil
}

func parseJobTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// RegionGeometry returns the sampling region.
func (j *Job) RegionGeometry() (*geojson.Geometry, error) {
	if j.Region.GeoJSON != "" {
		return geojson.Parse([]byte(j.Region.GeoJSON))
	}
	return geojson.NewPolygonFromBBox(j.Region.BBox)
}

// Geometry returns the point as a GeoJSON Point.
func (p PointConfig) Geometry() *geojson.Geometry {
	return geojson.NewPoint(p.Lon, p.Lat)
}

// Validate checks that the job is complete.
func (j *Job) Validate() error {
	start, end, err := j.Interval()
	if err != nil {
		return err
	}
	if !start.Before(end) {
		return fmt.Errorf("start %s must be before end %s", j.Start, j.End)
	}

	switch j.Satellite {
	case "L4", "L5", "L7", "L8":
	default:
		return fmt.Errorf("satellite must be one of L4, L5, L7, L8, got %q", j.Satellite)
	}

	if _, err := j.RegionGeometry(); err != nil {
		return fmt.Errorf("region: %w", err)
	}

	for i, p := range j.Points {
		if p.Name == "" {
			return fmt.Errorf("point %d needs a name", i)
		}
		if p.Lon < -180 || p.Lon > 180 || p.Lat < -90 || p.Lat > 90 {
			return fmt.Errorf("point %s is outside lon/lat bounds", p.Name)
		}
	}

	if j.CloudThreshold < 0 || j.CloudThreshold > 100 {
		return fmt.Errorf("cloud threshold must be between 0 and 100, got %v", j.CloudThreshold)
	}
	if j.Scale <= 0 {
		return fmt.Errorf("scale must be positive, got %v", j.Scale)
	}
	if len(j.Vars) == 0 {
		return fmt.Errorf("at least one output variable is required")
	}
	if j.Catalogs.SR == "" || j.Catalogs.TOA == "" {
		return fmt.Errorf("both sr and toa catalogs are required")
	}
	if j.Export.Folder == "" || j.Export.Description == "" {
		return fmt.Errorf("export folder and description are required")
	}
	if j.Series.Enabled && j.Series.Band == "" {
		return fmt.Errorf("series band is required when series export is enabled")
	}
	if len(j.Spatial.Tower) != 0 && len(j.Spatial.Tower) != 2 {
		return fmt.Errorf("spatial tower must be [lon, lat]")
	}
	return nil
}
