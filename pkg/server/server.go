// Package server provides a public API for embedding the Landsat datacube
// catalog server.
package server

import (
	"fmt"
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/robert-malhotra/landsat-lst/internal/api"
	"github.com/robert-malhotra/landsat-lst/internal/backend"
	"github.com/robert-malhotra/landsat-lst/internal/catalog"
	"github.com/robert-malhotra/landsat-lst/internal/config"
	"github.com/robert-malhotra/landsat-lst/internal/datacube"
	"github.com/robert-malhotra/landsat-lst/internal/metrics"
	"github.com/robert-malhotra/landsat-lst/internal/translate"
)

// Options configures the catalog server.
type Options struct {
	// BaseURL is the public-facing URL for self-referential links (required).
	// Example: "https://api.example.com/landsat" or "http://localhost:8080"
	BaseURL string

	// DatacubeDir holds the NetCDF files named by the catalog definitions.
	// Default: "data"
	DatacubeDir string

	// CatalogsDir is the path to catalog definition JSON files (required
	// unless Collections is set).
	CatalogsDir string

	// Collections replaces loading CatalogsDir.
	Collections *config.CollectionRegistry

	// Source replaces the datacube source, e.g. with another catalog.Source.
	Source catalog.Source

	// Title is the STAC API title.
	// Default: "Landsat Datacube STAC API"
	Title string

	// Description is the STAC API description.
	Description string

	// DefaultLimit is the default number of items per page.
	// Default: 10
	DefaultLimit int

	// MaxLimit is the maximum number of items per page.
	// Default: 250
	MaxLimit int

	// EnableSearch enables the /search endpoint.
	EnableSearch bool

	// EnableQueryables enables the /queryables endpoints.
	EnableQueryables bool

	// Metrics, when set, serves /metrics and records request metrics.
	Metrics *metrics.Manager

	// Logger is the slog logger to use.
	// Default: slog.Default()
	Logger *slog.Logger
}

// Server is a catalog server that can be embedded in another application.
type Server struct {
	router      chi.Router
	collections *config.CollectionRegistry
}

// New creates a new catalog server with the given options.
func New(opts Options) (*Server, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if opts.DatacubeDir == "" {
		opts.DatacubeDir = "data"
	}
	if opts.Title == "" {
		opts.Title = "Landsat Datacube STAC API"
	}
	if opts.Description == "" {
		opts.Description = "STAC API over local Landsat surface reflectance and TOA datacubes"
	}
	if opts.DefaultLimit == 0 {
		opts.DefaultLimit = 10
	}
	if opts.MaxLimit == 0 {
		opts.MaxLimit = 250
	}
	if opts.MaxLimit < opts.DefaultLimit {
		return nil, fmt.Errorf("max limit (%d) must be >= default limit (%d)", opts.MaxLimit, opts.DefaultLimit)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	// Build internal config
	cfg := &config.Config{
		STAC: config.STACConfig{
			Version:     "1.0.0",
			BaseURL:     opts.BaseURL,
			Title:       opts.Title,
			Description: opts.Description,
		},
		Features: config.FeatureConfig{
			EnableSearch:     opts.EnableSearch,
			EnableQueryables: opts.EnableQueryables,
			EnableMetrics:    opts.Metrics != nil,
			DefaultLimit:     opts.DefaultLimit,
			MaxLimit:         opts.MaxLimit,
		},
	}

	collections := opts.Collections
	if collections == nil {
		if opts.CatalogsDir == "" {
			return nil, fmt.Errorf("catalogs directory or collections are required")
		}
		var err error
		if collections, err = config.LoadCollections(opts.CatalogsDir); err != nil {
			return nil, fmt.Errorf("failed to load catalogs: %w", err)
		}
	}

	source := opts.Source
	if source == nil {
		source = datacube.NewSource(opts.DatacubeDir, datacube.CatalogsFromCollections(collections.All())).
			WithLogger(opts.Logger)
	}

	translator := translate.NewTranslator(cfg, collections, opts.Logger)
	searchBackend := backend.NewDatacubeBackend(source, translator, opts.Logger)

	handlers := api.NewHandlers(cfg, searchBackend, translator, collections, opts.Logger).
		WithMetrics(opts.Metrics)

	return &Server{
		router:      api.NewRouter(handlers, opts.Logger),
		collections: collections,
	}, nil
}

// Router returns the chi.Router for mounting in another application.
func (s *Server) Router() chi.Router {
	return s.router
}

// Collections returns the IDs of the published collections.
func (s *Server) Collections() []string {
	return s.collections.IDs()
}
