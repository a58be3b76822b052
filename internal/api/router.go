package api

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/robert-malhotra/landsat-lst/internal/config"
)

// NewRouter creates and configures the HTTP router with all routes and middleware.
func NewRouter(h *Handlers, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()

	// Add middleware stack
	r.Use(middleware.RequestID)
	r.Use(RequestIDResponse) // Add X-Request-ID to response headers
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(Metrics(h.metrics))
	r.Use(Recovery(logger))
	r.Use(middleware.Compress(5)) // Gzip compression
	r.Use(ContentTypeJSON)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300, // 5 minutes
	}))

	r.Get("/health", h.Health)

	if h.cfg.Features.EnableMetrics && h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}

	// STAC API routes
	r.Get("/", h.LandingPage)
	r.Get("/conformance", h.Conformance)

	r.Get("/collections", h.Collections)
	r.Get("/collections/{collectionId}", h.Collection)

	r.Get("/collections/{collectionId}/items", h.Items)
	r.Get("/collections/{collectionId}/items/{itemId}", h.Item)
	r.Get("/collections/{collectionId}/items/{itemId}/bands", h.Bands)

	r.Route("/search", func(r chi.Router) {
		r.Get("/", h.Search)
		r.Post("/", h.Search)
	})

	if h.cfg.Features.EnableQueryables {
		r.Get("/queryables", h.Queryables)
		r.Get("/collections/{collectionId}/queryables", h.Queryables)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteNotFound(w, "endpoint not found")
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "MethodNotAllowed", "method not allowed")
	})

	return r
}

// Queryables returns the properties a CQL2 filter may reference.
// GET /queryables
// GET /collections/{collectionId}/queryables
func (h *Handlers) Queryables(w http.ResponseWriter, r *http.Request) {
	collectionID := chi.URLParam(r, "collectionId")

	title := "Queryables for the Landsat datacube STAC API"
	id := h.cfg.STAC.BaseURL + "/queryables"

	colls := h.collections.All()
	if collectionID != "" {
		coll := h.collections.Get(collectionID)
		if coll == nil {
			WriteNotFound(w, "collection not found")
			return
		}
		colls = []*config.CollectionConfig{coll}
		title = "Queryables for " + coll.ID
		id = h.cfg.STAC.BaseURL + "/collections/" + coll.ID + "/queryables"
	}

	properties := map[string]any{
		"id": map[string]any{
			"description": "Scene ID",
			"type":        "string",
		},
		"collection": map[string]any{
			"description": "Collection ID",
			"type":        "string",
		},
		"datetime": map[string]any{
			"description": "Acquisition time",
			"type":        "string",
			"format":      "date-time",
		},
		"platform": map[string]any{
			"description": "Platform identifier (e.g., landsat-8)",
			"type":        "string",
		},
		"constellation": map[string]any{
			"description": "Satellite constellation",
			"type":        "string",
			"enum":        []string{"landsat"},
		},
		"instruments": map[string]any{
			"description": "Instrument identifiers (e.g., oli, tirs)",
			"type":        "array",
			"items":       map[string]any{"type": "string"},
		},
		"eo:cloud_cover": map[string]any{
			"description": "Cloud score of the scene, when computed",
			"type":        "number",
			"minimum":     0,
			"maximum":     100,
		},
		"gsd": map[string]any{
			"description": "Ground sample distance in metres",
			"type":        "number",
		},
		"landsat:product": map[string]any{
			"description": "Processing level of the collection (SR or TOA)",
			"type":        "string",
		},
	}

	var platforms, products []string
	for _, coll := range colls {
		if coll.Platform != "" && !slices.Contains(platforms, coll.Platform) {
			platforms = append(platforms, coll.Platform)
		}
		if !slices.Contains(products, coll.Product) {
			products = append(products, coll.Product)
		}
	}
	if len(platforms) > 0 {
		properties["platform"].(map[string]any)["enum"] = platforms
	}
	if len(products) > 0 {
		properties["landsat:product"].(map[string]any)["enum"] = products
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"$schema":              "https://json-schema.org/draft/2019-09/schema",
		"$id":                  id,
		"type":                 "object",
		"title":                title,
		"description":          "Queryable properties for STAC API search",
		"properties":           properties,
		"additionalProperties": true,
	})
}
