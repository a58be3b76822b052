package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// CollectionConfig describes one Landsat catalog: the STAC collection the
// catalog server publishes and the datacube file that backs it. This is
// typically loaded from JSON files in the catalogs directory.
type CollectionConfig struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`

	// Aliases are alternative IDs accepted in job files, e.g. the Earth
	// Engine path "LANDSAT/LC08/C01/T1_SR".
	Aliases []string `json:"aliases,omitempty"`

	Platform    string   `json:"platform"`
	Satellite   string   `json:"satellite"`
	Product     string   `json:"product"`
	Datacube    string   `json:"datacube"`
	ScenePrefix string   `json:"scene_prefix,omitempty"`
	Bands       []string `json:"bands,omitempty"`

	License    string         `json:"license"`
	Providers  []Provider     `json:"providers,omitempty"`
	Extent     Extent         `json:"extent"`
	Summaries  map[string]any `json:"summaries,omitempty"`
	Extensions []string       `json:"stac_extensions,omitempty"`
}

// Provider represents a data provider in a STAC collection.
type Provider struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Roles       []string `json:"roles,omitempty"`
	URL         string   `json:"url,omitempty"`
}

// Extent defines the spatial and temporal extent of a collection.
type Extent struct {
	Spatial  SpatialExtent  `json:"spatial"`
	Temporal TemporalExtent `json:"temporal"`
}

// SpatialExtent defines the bounding boxes for a collection.
type SpatialExtent struct {
	BBox [][]float64 `json:"bbox"`
}

// TemporalExtent defines the time intervals for a collection.
type TemporalExtent struct {
	Interval [][]any `json:"interval"`
}

// Product names.
const (
	ProductSR  = "SR"
	ProductTOA = "TOA"
)

// CollectionRegistry holds all loaded collection configurations indexed by ID.
type CollectionRegistry struct {
	collections map[string]*CollectionConfig
	aliases     map[string]string
}

// NewCollectionRegistry creates a new empty collection registry.
func NewCollectionRegistry() *CollectionRegistry {
	return &CollectionRegistry{
		collections: make(map[string]*CollectionConfig),
		aliases:     make(map[string]string),
	}
}

// LoadCollections loads collection definitions from JSON files in the specified directory.
// Only files with a .json extension are processed.
func LoadCollections(collectionsDir string) (*CollectionRegistry, error) {
	registry := NewCollectionRegistry()

	info, err := os.Stat(collectionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to access catalogs directory %q: %w", collectionsDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("catalogs path %q is not a directory", collectionsDir)
	}

	entries, err := os.ReadDir(collectionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalogs directory %q: %w", collectionsDir, err)
	}

	loadedCount := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		filename := entry.Name()
		if !strings.HasSuffix(strings.ToLower(filename), ".json") {
			continue
		}

		filePath := filepath.Join(collectionsDir, filename)
		collection, err := loadCollectionFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog from %q: %w", filePath, err)
		}

		if err := registry.Add(collection); err != nil {
			return nil, fmt.Errorf("failed to add catalog from %q: %w", filePath, err)
		}

		loadedCount++
	}

	if loadedCount == 0 {
		return nil, fmt.Errorf("no catalog files found in %q", collectionsDir)
	}

	return registry, nil
}

func loadCollectionFile(filePath string) (*CollectionConfig, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var collection CollectionConfig
	if err := json.Unmarshal(data, &collection); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	if err := validateCollection(&collection); err != nil {
		return nil, fmt.Errorf("invalid catalog configuration: %w", err)
	}

	return &collection, nil
}

func validateCollection(c *CollectionConfig) error {
	if c.ID == "" {
		return fmt.Errorf("catalog ID is required")
	}
	if strings.ContainsAny(c.ID, "/?#") {
		return fmt.Errorf("catalog ID %q must be URL path safe", c.ID)
	}

	if c.Title == "" {
		return fmt.Errorf("catalog title is required")
	}

	if c.Description == "" {
		return fmt.Errorf("catalog description is required")
	}

	if c.Datacube == "" {
		return fmt.Errorf("catalog must name its datacube file")
	}

	switch c.Satellite {
	case "L4", "L5", "L7", "L8":
	default:
		return fmt.Errorf("catalog satellite must be one of L4, L5, L7, L8, got %q", c.Satellite)
	}

	if c.Product != ProductSR && c.Product != ProductTOA {
		return fmt.Errorf("catalog product must be %q or %q, got %q", ProductSR, ProductTOA, c.Product)
	}

	if c.License == "" {
		return fmt.Errorf("catalog license is required")
	}

	if len(c.Extent.Spatial.BBox) == 0 {
		return fmt.Errorf("catalog must have at least one spatial bbox")
	}

	for i, bbox := range c.Extent.Spatial.BBox {
		if len(bbox) != 4 && len(bbox) != 6 {
			return fmt.Errorf("bbox[%d] must have 4 or 6 values, got %d", i, len(bbox))
		}
	}

	if len(c.Extent.Temporal.Interval) == 0 {
		return fmt.Errorf("catalog must have at least one temporal interval")
	}

	for i, interval := range c.Extent.Temporal.Interval {
		if len(interval) != 2 {
			return fmt.Errorf("temporal interval[%d] must have exactly 2 values, got %d", i, len(interval))
		}
	}

	return nil
}

// Add registers a collection in the registry.
// Returns an error if the ID or one of its aliases is already taken.
func (r *CollectionRegistry) Add(collection *CollectionConfig) error {
	if collection == nil {
		return fmt.Errorf("cannot add nil catalog")
	}

	if r.Has(collection.ID) {
		return fmt.Errorf("catalog with ID %q already exists", collection.ID)
	}
	for _, alias := range collection.Aliases {
		if r.Has(alias) || alias == collection.ID {
			return fmt.Errorf("catalog alias %q already exists", alias)
		}
	}

	r.collections[collection.ID] = collection
	for _, alias := range collection.Aliases {
		r.aliases[alias] = collection.ID
	}
	return nil
}

// Get retrieves a collection by ID or alias.
// Returns nil if the collection does not exist.
func (r *CollectionRegistry) Get(id string) *CollectionConfig {
	if c, ok := r.collections[id]; ok {
		return c
	}
	if canonical, ok := r.aliases[id]; ok {
		return r.collections[canonical]
	}
	return nil
}

// Has checks if a collection with the given ID or alias exists in the registry.
func (r *CollectionRegistry) Has(id string) bool {
	return r.Get(id) != nil
}

// All returns all collections in the registry sorted by ID.
func (r *CollectionRegistry) All() []*CollectionConfig {
	collections := make([]*CollectionConfig, 0, len(r.collections))
	for _, collection := range r.collections {
		collections = append(collections, collection)
	}
	sort.Slice(collections, func(i, j int) bool {
		return collections[i].ID < collections[j].ID
	})
	return collections
}

// IDs returns all collection IDs in the registry, sorted.
func (r *CollectionRegistry) IDs() []string {
	ids := make([]string, 0, len(r.collections))
	for id := range r.collections {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Count returns the number of collections in the registry.
func (r *CollectionRegistry) Count() int {
	return len(r.collections)
}

// FindByPlatform returns all collections of the given platform, e.g. "landsat-8".
func (r *CollectionRegistry) FindByPlatform(platform string) []*CollectionConfig {
	var matches []*CollectionConfig
	for _, collection := range r.All() {
		if strings.EqualFold(collection.Platform, platform) {
			matches = append(matches, collection)
		}
	}
	return matches
}
