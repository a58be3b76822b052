package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/planetlabs/go-stac"

	"github.com/robert-malhotra/landsat-lst/internal/backend"
	"github.com/robert-malhotra/landsat-lst/internal/catalog"
	"github.com/robert-malhotra/landsat-lst/internal/config"
	"github.com/robert-malhotra/landsat-lst/internal/metrics"
	intstac "github.com/robert-malhotra/landsat-lst/internal/stac"
	"github.com/robert-malhotra/landsat-lst/internal/translate"
)

// Handlers contains all HTTP handlers for the STAC API.
type Handlers struct {
	cfg         *config.Config
	backend     backend.SearchBackend
	translator  *translate.Translator
	collections *config.CollectionRegistry
	metrics     *metrics.Manager
	logger      *slog.Logger
}

// NewHandlers creates a new Handlers instance with the given dependencies.
func NewHandlers(
	cfg *config.Config,
	searchBackend backend.SearchBackend,
	translator *translate.Translator,
	collections *config.CollectionRegistry,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		cfg:         cfg,
		backend:     searchBackend,
		translator:  translator,
		collections: collections,
		logger:      logger,
	}
}

// WithMetrics sets the metrics manager served at /metrics and fed by the
// request middleware.
func (h *Handlers) WithMetrics(m *metrics.Manager) *Handlers {
	h.metrics = m
	return h
}

// LandingPage returns the STAC API landing page (root catalog).
// GET /
func (h *Handlers) LandingPage(w http.ResponseWriter, r *http.Request) {
	baseURL := h.cfg.STAC.BaseURL

	landing := intstac.NewLandingPage(
		"landsat-datacube",
		h.cfg.STAC.Title,
		h.cfg.STAC.Description,
		h.cfg.STAC.Version,
		intstac.DefaultConformance(),
	)

	landing.AddLink("self", baseURL+"/", intstac.MediaTypeJSON)
	landing.AddLink("root", baseURL+"/", intstac.MediaTypeJSON)
	landing.AddLink("conformance", baseURL+"/conformance", intstac.MediaTypeJSON)
	landing.AddLink("data", baseURL+"/collections", intstac.MediaTypeJSON)

	if h.cfg.Features.EnableSearch {
		for _, method := range []string{http.MethodGet, http.MethodPost} {
			landing.Links = append(landing.Links, &stac.Link{
				Rel:    "search",
				Href:   baseURL + "/search",
				Type:   intstac.MediaTypeGeoJSON,
				Method: method,
			})
		}
	}
	if h.cfg.Features.EnableQueryables {
		landing.AddLink("http://www.opengis.net/def/rel/ogc/1.0/queryables", baseURL+"/queryables", "application/schema+json")
	}

	for _, coll := range h.collections.All() {
		landing.Links = append(landing.Links, &stac.Link{
			Rel:   "child",
			Href:  fmt.Sprintf("%s/collections/%s", baseURL, coll.ID),
			Type:  intstac.MediaTypeJSON,
			Title: coll.Title,
		})
	}

	WriteJSON(w, http.StatusOK, landing)
}

// Conformance returns the conformance classes supported by this API.
// GET /conformance
func (h *Handlers) Conformance(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, &intstac.Conformance{ConformsTo: intstac.DefaultConformance()})
}

// Collections returns the list of all available collections.
// GET /collections
func (h *Handlers) Collections(w http.ResponseWriter, r *http.Request) {
	baseURL := h.cfg.STAC.BaseURL

	configs := h.collections.All()
	collections := make([]*stac.Collection, 0, len(configs))
	for _, cfg := range configs {
		collections = append(collections, h.translator.CollectionToSTAC(cfg))
	}

	response := intstac.NewCollectionsList(collections)
	response.Links = append(response.Links,
		&stac.Link{Rel: "self", Href: baseURL + "/collections", Type: intstac.MediaTypeJSON},
		&stac.Link{Rel: "root", Href: baseURL + "/", Type: intstac.MediaTypeJSON},
	)

	WriteJSON(w, http.StatusOK, response)
}

// Collection returns a single collection by ID or alias.
// GET /collections/{collectionId}
func (h *Handlers) Collection(w http.ResponseWriter, r *http.Request) {
	collectionID := chi.URLParam(r, "collectionId")
	if collectionID == "" {
		WriteBadRequest(w, "collection ID is required")
		return
	}

	coll := h.collections.Get(collectionID)
	if coll == nil {
		WriteNotFound(w, fmt.Sprintf("collection %q not found", collectionID))
		return
	}

	WriteJSON(w, http.StatusOK, h.translator.CollectionToSTAC(coll))
}

// Items returns items from a specific collection.
// GET /collections/{collectionId}/items
func (h *Handlers) Items(w http.ResponseWriter, r *http.Request) {
	collectionID := chi.URLParam(r, "collectionId")
	if collectionID == "" {
		WriteBadRequest(w, "collection ID is required")
		return
	}

	coll := h.collections.Get(collectionID)
	if coll == nil {
		WriteNotFound(w, fmt.Sprintf("collection %q not found", collectionID))
		return
	}

	searchReq, err := intstac.ParseSearchRequest(r)
	if err != nil {
		WriteInvalidParameter(w, fmt.Sprintf("invalid search parameters: %v", err))
		return
	}

	selfURL := fmt.Sprintf("%s/collections/%s/items", h.cfg.STAC.BaseURL, coll.ID)
	itemCollection, ok := h.search(w, r, searchReq, coll.ID, selfURL, r.URL.Query())
	if !ok {
		return
	}

	collURL := fmt.Sprintf("%s/collections/%s", h.cfg.STAC.BaseURL, coll.ID)
	itemCollection.AddLink("parent", collURL, intstac.MediaTypeJSON)
	itemCollection.AddLink("collection", collURL, intstac.MediaTypeJSON)

	WriteGeoJSON(w, http.StatusOK, itemCollection)
}

// Item returns a single item by ID from a collection.
// GET /collections/{collectionId}/items/{itemId}
func (h *Handlers) Item(w http.ResponseWriter, r *http.Request) {
	collectionID := chi.URLParam(r, "collectionId")
	itemID := chi.URLParam(r, "itemId")

	if collectionID == "" {
		WriteBadRequest(w, "collection ID is required")
		return
	}
	if itemID == "" {
		WriteBadRequest(w, "item ID is required")
		return
	}
	if !h.collections.Has(collectionID) {
		WriteNotFound(w, fmt.Sprintf("collection %q not found", collectionID))
		return
	}

	item, err := h.backend.GetItem(r.Context(), collectionID, itemID)
	if err != nil {
		h.writeLookupError(w, r, collectionID, itemID, err)
		return
	}

	WriteGeoJSON(w, http.StatusOK, item)
}

// Bands returns the pixel grid and band rasters of an item.
// GET /collections/{collectionId}/items/{itemId}/bands
func (h *Handlers) Bands(w http.ResponseWriter, r *http.Request) {
	collectionID := chi.URLParam(r, "collectionId")
	itemID := chi.URLParam(r, "itemId")

	if !h.collections.Has(collectionID) {
		WriteNotFound(w, fmt.Sprintf("collection %q not found", collectionID))
		return
	}

	scene, err := h.backend.GetScene(r.Context(), collectionID, itemID)
	if err != nil {
		h.writeLookupError(w, r, collectionID, itemID, err)
		return
	}

	WriteJSON(w, http.StatusOK, translate.SceneToBandGrid(scene))
}

func (h *Handlers) writeLookupError(w http.ResponseWriter, r *http.Request, collectionID, itemID string, err error) {
	if errors.Is(err, backend.ErrItemNotFound) {
		WriteNotFound(w, fmt.Sprintf("item %q not found", itemID))
		return
	}

	reqID := GetRequestID(r.Context())
	h.logger.Error("failed to fetch item",
		slog.String("request_id", reqID),
		slog.String("collection_id", collectionID),
		slog.String("item_id", itemID),
		slog.String("backend", h.backend.Name()),
		slog.String("error", err.Error()),
	)
	WriteInternalErrorWithRequestID(w, "failed to read scene", reqID)
}

// Search performs a cross-collection search.
// GET/POST /search
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.Features.EnableSearch {
		WriteError(w, http.StatusNotImplemented, "NotImplemented", "search endpoint is disabled")
		return
	}

	var searchReq *intstac.SearchRequest
	var err error
	var linkParams url.Values

	switch r.Method {
	case http.MethodGet:
		searchReq, err = intstac.ParseSearchRequest(r)
		linkParams = r.URL.Query()
	case http.MethodPost:
		defer r.Body.Close()
		searchReq, err = intstac.ParseSearchRequestBody(r.Body)
		if err == nil {
			// Pages of a POST search are linked as equivalent GET requests.
			linkParams = searchReq.ToQueryParams()
		}
	default:
		WriteError(w, http.StatusMethodNotAllowed, "MethodNotAllowed", "method not allowed")
		return
	}
	if err != nil {
		WriteInvalidParameter(w, fmt.Sprintf("invalid search request: %v", err))
		return
	}

	itemCollection, ok := h.search(w, r, searchReq, "", h.cfg.STAC.BaseURL+"/search", linkParams)
	if !ok {
		return
	}
	WriteGeoJSON(w, http.StatusOK, itemCollection)
}

// search runs a validated request against the backend and builds the page
// with its self, root and pagination links. On failure it writes the error
// response and returns false.
func (h *Handlers) search(
	w http.ResponseWriter,
	r *http.Request,
	searchReq *intstac.SearchRequest,
	collectionID string,
	selfURL string,
	linkParams url.Values,
) (*intstac.ItemCollection, bool) {
	if err := intstac.ValidateSearchRequest(searchReq); err != nil {
		WriteInvalidParameter(w, err.Error())
		return nil, false
	}

	if searchReq.Limit == 0 {
		searchReq.Limit = h.cfg.Features.DefaultLimit
	}
	if searchReq.Limit > h.cfg.Features.MaxLimit {
		searchReq.Limit = h.cfg.Features.MaxLimit
	}

	cursor, err := intstac.DecodeCursor(searchReq.Cursor)
	if err != nil {
		WriteInvalidParameter(w, err.Error())
		return nil, false
	}

	queries, err := h.translator.Queries(searchReq, collectionID)
	if err != nil {
		switch {
		case errors.Is(err, translate.ErrCollectionNotFound):
			WriteNotFound(w, err.Error())
		default:
			WriteInvalidParameter(w, err.Error())
		}
		return nil, false
	}

	result, err := h.backend.Search(r.Context(), &backend.SearchParams{
		Queries: queries,
		IDs:     searchReq.IDs,
		Filter:  searchReq.Filter,
		Sortby:  searchReq.Sortby,
		Limit:   searchReq.Limit,
		Offset:  cursor.Offset,
	})
	if err != nil {
		if errors.Is(err, translate.ErrUnsupportedFilter) || errors.Is(err, catalog.ErrInvalidQuery) {
			WriteInvalidParameter(w, err.Error())
			return nil, false
		}
		reqID := GetRequestID(r.Context())
		h.logger.Error("backend search failed",
			slog.String("request_id", reqID),
			slog.String("collection_id", collectionID),
			slog.String("backend", h.backend.Name()),
			slog.String("error", err.Error()),
		)
		WriteInternalErrorWithRequestID(w, "search failed", reqID)
		return nil, false
	}

	itemCollection := intstac.NewItemCollection(result.Items)
	matched := result.Matched
	itemCollection.SetContext(len(result.Items), searchReq.Limit, &matched)

	itemCollection.AddLink("self", selfURL, intstac.MediaTypeGeoJSON)
	itemCollection.AddLink("root", h.cfg.STAC.BaseURL+"/", intstac.MediaTypeJSON)
	itemCollection.Links = append(itemCollection.Links, intstac.BuildPaginationLinks(intstac.PaginationInfo{
		BaseURL:     selfURL,
		Limit:       searchReq.Limit,
		Offset:      cursor.Offset,
		Returned:    len(result.Items),
		Matched:     result.Matched,
		QueryParams: linkParams,
	})...)

	return itemCollection, true
}

// Health returns the health status of the service.
// GET /health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"backend":     h.backend.Name(),
		"collections": h.collections.Count(),
	})
}
