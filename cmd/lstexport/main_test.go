package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/robert-malhotra/landsat-lst/internal/config"
)

const table = `id,longitude,latitude,time,CELSIUS,NDVI
0,-122.9849,49.1293,1583692200000,21.4,0.6
0,-122.9839,49.1283,1583692200000,22.1,0.4
1,-122.9849,49.1293,1586457000000,25.2,0.5
1,-122.9839,49.1283,1586457000000,24.9,0.5
`

func TestParamsFromJob(t *testing.T) {
	collections, err := config.LoadCollections("../../catalogs")
	if err != nil {
		t.Fatalf("LoadCollections() error = %v", err)
	}
	job, err := config.LoadJob("")
	if err != nil {
		t.Fatalf("LoadJob() error = %v", err)
	}

	params, err := paramsFromJob(job, collections)
	if err != nil {
		t.Fatalf("paramsFromJob() error = %v", err)
	}
	if params.SRCatalog != "landsat-c01-t1-sr" || params.TOACatalog != "landsat-c01-t1-toa" {
		t.Errorf("Expected aliases resolved to catalog IDs, got %q and %q", params.SRCatalog, params.TOACatalog)
	}
	if params.Platform != "landsat-8" {
		t.Errorf("Platform = %q", params.Platform)
	}
	if len(params.Points) != 2 || params.Points[0].Name != "bb1" {
		t.Errorf("Points = %+v", params.Points)
	}
	if params.SeriesBand != "NDVI" {
		t.Errorf("SeriesBand = %q", params.SeriesBand)
	}
	if params.Folder != "Micromet_GEE" || params.Description != "bb2_spatial_indices_2021" {
		t.Errorf("Export = %s/%s", params.Folder, params.Description)
	}

	job.Catalogs.TOA = "LANDSAT/LC08/C01/T1_RT"
	if _, err := paramsFromJob(job, collections); err == nil {
		t.Error("Expected error for unknown TOA catalog")
	}
}

func writeTable(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "table.csv")
	if err := os.WriteFile(path, []byte(table), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunSpatial(t *testing.T) {
	in := writeTable(t)

	var out bytes.Buffer
	if err := runSpatial([]string{"-in", in, "-index", "CELSIUS", "-date", "2020-03-08"}, &out); err != nil {
		t.Fatalf("runSpatial() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	want := []string{"x_m,y_m,CELSIUS", "0.00,0.00,21.4", "85.00,-111.00,22.1"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Errorf("output = %q, want %q", lines, want)
	}

	out.Reset()
	if err := runSpatial([]string{"-in", in, "-list"}, &out); err != nil {
		t.Fatalf("runSpatial(-list) error = %v", err)
	}
	if out.String() != "2020-03-08\n2020-04-09\n" {
		t.Errorf("dates = %q", out.String())
	}

	out.Reset()
	err := runSpatial([]string{"-in", in, "-date", "2020-03-08", "-tower-lon", "-122.9839", "-tower-lat", "49.1283"}, &out)
	if err != nil {
		t.Fatalf("runSpatial(tower override) error = %v", err)
	}
	if !strings.Contains(out.String(), "-85.00,111.00,21.4") {
		t.Errorf("Expected offsets from the overridden tower, got %s", out.String())
	}
}

func TestRunSpatial_Errors(t *testing.T) {
	in := writeTable(t)
	tests := map[string][]string{
		"missing input": {"-date", "2020-03-08"},
		"bad interval":  {"-in", in, "-date", "2020-03-08", "-interval", "weekly"},
		"bad date":      {"-in", in, "-date", "08/03/2020"},
		"unknown index": {"-in", in, "-date", "2020-03-08", "-index", "EVI"},
		"missing file":  {"-in", in + ".missing", "-date", "2020-03-08"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			if err := runSpatial(args, &bytes.Buffer{}); err == nil {
				t.Error("Expected error")
			}
		})
	}
}
