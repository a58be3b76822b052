package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func testCollection(id string) *CollectionConfig {
	return &CollectionConfig{
		ID:          id,
		Title:       "Landsat 8 Surface Reflectance",
		Description: "USGS Landsat 8 Collection 1 Tier 1 surface reflectance",
		Aliases:     []string{"LANDSAT/LC08/C01/T1_SR"},
		Platform:    "landsat-8",
		Satellite:   "L8",
		Product:     ProductSR,
		Datacube:    "lc08_t1_sr.nc",
		License:     "proprietary",
		Extent: Extent{
			Spatial: SpatialExtent{
				BBox: [][]float64{{-123.1, 49.0, -122.8, 49.3}},
			},
			Temporal: TemporalExtent{
				Interval: [][]any{{"2013-04-11T00:00:00Z", nil}},
			},
		},
	}
}

func TestLoadCollections(t *testing.T) {
	tmpDir := t.TempDir()

	data, err := json.MarshalIndent(testCollection("landsat-c01-t1-sr"), "", "  ")
	if err != nil {
		t.Fatalf("failed to marshal test catalog: %v", err)
	}

	if err := os.WriteFile(filepath.Join(tmpDir, "sr.json"), data, 0644); err != nil {
		t.Fatalf("failed to write test catalog: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "README.md"), []byte("ignored"), 0644); err != nil {
		t.Fatal(err)
	}

	registry, err := LoadCollections(tmpDir)
	if err != nil {
		t.Fatalf("LoadCollections() failed: %v", err)
	}

	if registry.Count() != 1 {
		t.Errorf("expected 1 catalog, got %d", registry.Count())
	}

	col := registry.Get("landsat-c01-t1-sr")
	if col == nil {
		t.Fatal("catalog not found")
	}
	if col.Datacube != "lc08_t1_sr.nc" {
		t.Errorf("expected datacube lc08_t1_sr.nc, got %s", col.Datacube)
	}

	if alias := registry.Get("LANDSAT/LC08/C01/T1_SR"); alias != col {
		t.Error("alias should resolve to the same catalog")
	}
}

func TestLoadCollectionsInvalidDirectory(t *testing.T) {
	_, err := LoadCollections("/nonexistent/directory")
	if err == nil {
		t.Error("expected error for nonexistent directory")
	}
}

func TestLoadCollectionsEmptyDirectory(t *testing.T) {
	_, err := LoadCollections(t.TempDir())
	if err == nil {
		t.Error("expected error for empty directory")
	}
}

func TestValidateCollection(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*CollectionConfig)
		wantError bool
	}{
		{"valid", func(*CollectionConfig) {}, false},
		{"missing id", func(c *CollectionConfig) { c.ID = "" }, true},
		{"id with slash", func(c *CollectionConfig) { c.ID = "LANDSAT/LC08" }, true},
		{"missing datacube", func(c *CollectionConfig) { c.Datacube = "" }, true},
		{"unknown satellite", func(c *CollectionConfig) { c.Satellite = "S2" }, true},
		{"unknown product", func(c *CollectionConfig) { c.Product = "RAW" }, true},
		{"missing license", func(c *CollectionConfig) { c.License = "" }, true},
		{"bad bbox", func(c *CollectionConfig) { c.Extent.Spatial.BBox = [][]float64{{1, 2, 3}} }, true},
		{"bad interval", func(c *CollectionConfig) { c.Extent.Temporal.Interval = [][]any{{"2013-04-11T00:00:00Z"}} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testCollection("landsat-c01-t1-sr")
			tt.mutate(c)
			err := validateCollection(c)
			if (err != nil) != tt.wantError {
				t.Errorf("validateCollection() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestCollectionRegistry(t *testing.T) {
	registry := NewCollectionRegistry()

	sr := testCollection("landsat-c01-t1-sr")
	toa := testCollection("landsat-c01-t1-toa")
	toa.Product = ProductTOA
	toa.Aliases = []string{"LANDSAT/LC08/C01/T1_TOA"}

	if err := registry.Add(toa); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}
	if err := registry.Add(sr); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}

	if err := registry.Add(testCollection("landsat-c01-t1-sr")); err == nil {
		t.Error("expected error for duplicate ID")
	}
	dupAlias := testCollection("other")
	if err := registry.Add(dupAlias); err == nil {
		t.Error("expected error for duplicate alias")
	}
	if err := registry.Add(nil); err == nil {
		t.Error("expected error for nil catalog")
	}

	ids := registry.IDs()
	if len(ids) != 2 || ids[0] != "landsat-c01-t1-sr" || ids[1] != "landsat-c01-t1-toa" {
		t.Errorf("IDs() = %v", ids)
	}

	all := registry.All()
	if all[0].ID != "landsat-c01-t1-sr" {
		t.Errorf("All() not sorted: %s first", all[0].ID)
	}

	if !registry.Has("LANDSAT/LC08/C01/T1_TOA") {
		t.Error("Has() should accept aliases")
	}
	if registry.Get("missing") != nil {
		t.Error("Get() should return nil for unknown IDs")
	}

	if got := registry.FindByPlatform("LANDSAT-8"); len(got) != 2 {
		t.Errorf("FindByPlatform() returned %d catalogs, want 2", len(got))
	}
	if got := registry.FindByPlatform("landsat-7"); len(got) != 0 {
		t.Errorf("FindByPlatform() returned %d catalogs, want 0", len(got))
	}
}
