package stac

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/robert-malhotra/landsat-lst/pkg/geojson"
)

// SortbyItem represents a single sort criterion
type SortbyItem struct {
	Field     string        `json:"field"`
	Direction SortDirection `json:"direction"`
}

// SearchRequest represents a STAC item search. Scene properties other than
// the core ones are matched with a CQL2-JSON filter.
type SearchRequest struct {
	BBox        []float64       `json:"bbox,omitempty"`
	DateTime    string          `json:"datetime,omitempty"`
	Intersects  json.RawMessage `json:"intersects,omitempty"`
	IDs         []string        `json:"ids,omitempty"`
	Collections []string        `json:"collections,omitempty"`
	Limit       int             `json:"limit,omitempty"`

	// Cursor is the opaque page token from a previous "next" link.
	Cursor string `json:"cursor,omitempty"`

	Sortby []SortbyItem `json:"sortby,omitempty"`

	Filter     any    `json:"filter,omitempty"`
	FilterLang string `json:"filter-lang,omitempty"`
}

// ParseSearchRequest parses a STAC search request from GET query parameters
func ParseSearchRequest(r *http.Request) (*SearchRequest, error) {
	query := r.URL.Query()
	req := &SearchRequest{
		DateTime:    query.Get("datetime"),
		Cursor:      query.Get("cursor"),
		IDs:         splitList(query.Get("ids")),
		Collections: splitList(query.Get("collections")),
		FilterLang:  query.Get("filter-lang"),
	}

	if bboxStr := query.Get("bbox"); bboxStr != "" {
		parts := strings.Split(bboxStr, ",")
		if len(parts) != 4 && len(parts) != 6 {
			return nil, fmt.Errorf("bbox must have 4 or 6 coordinates, got %d", len(parts))
		}
		req.BBox = make([]float64, len(parts))
		for i, part := range parts {
			val, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid bbox coordinate at position %d: %w", i, err)
			}
			req.BBox[i] = val
		}
	}

	if intersects := query.Get("intersects"); intersects != "" {
		if !json.Valid([]byte(intersects)) {
			return nil, fmt.Errorf("intersects must be valid GeoJSON geometry")
		}
		req.Intersects = json.RawMessage(intersects)
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return nil, fmt.Errorf("invalid limit parameter: %w", err)
		}
		if limit < 0 {
			return nil, fmt.Errorf("limit must be non-negative, got %d", limit)
		}
		req.Limit = limit
	}

	if sortbyStr := query.Get("sortby"); sortbyStr != "" {
		items, err := parseSortbyParam(sortbyStr)
		if err != nil {
			return nil, fmt.Errorf("invalid sortby parameter: %w", err)
		}
		req.Sortby = items
	}

	// Only CQL2-JSON is evaluated; text filters are rejected later.
	if filter := query.Get("filter"); filter != "" {
		lang := req.FilterLang
		if lang == "cql2-json" || (lang == "" && strings.HasPrefix(strings.TrimSpace(filter), "{")) {
			var obj any
			if err := json.Unmarshal([]byte(filter), &obj); err != nil {
				return nil, fmt.Errorf("invalid filter parameter: %w", err)
			}
			req.Filter = obj
		} else {
			req.Filter = filter
		}
	}

	return req, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// parseSortbyParam parses sortby=+datetime,-id (+ or no prefix is ascending).
func parseSortbyParam(sortbyStr string) ([]SortbyItem, error) {
	fields := strings.Split(sortbyStr, ",")
	items := make([]SortbyItem, 0, len(fields))

	for _, field := range fields {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}

		direction := SortAsc
		switch field[0] {
		case '+':
			field = field[1:]
		case '-':
			direction = SortDesc
			field = field[1:]
		}
		if field == "" {
			return nil, fmt.Errorf("empty field name in sortby")
		}
		items = append(items, SortbyItem{Field: field, Direction: direction})
	}

	return items, nil
}

// ParseSearchRequestBody parses a STAC search request from POST JSON body
func ParseSearchRequestBody(body io.Reader) (*SearchRequest, error) {
	var req SearchRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return nil, fmt.Errorf("failed to parse search request body: %w", err)
	}
	for i := range req.Sortby {
		if req.Sortby[i].Direction == "" {
			req.Sortby[i].Direction = SortAsc
		}
	}
	return &req, nil
}

// Geometry returns the spatial filter of the request, or nil when it has none.
func (req *SearchRequest) Geometry() (*geojson.Geometry, error) {
	switch {
	case len(req.BBox) == 6:
		return geojson.NewPolygonFromBBox([]float64{req.BBox[0], req.BBox[1], req.BBox[3], req.BBox[4]})
	case len(req.BBox) == 4:
		return geojson.NewPolygonFromBBox(req.BBox)
	case len(req.Intersects) > 0:
		return geojson.Parse(req.Intersects)
	}
	return nil, nil
}

// Interval returns the datetime filter of the request. Either end may be nil.
func (req *SearchRequest) Interval() (start, end *time.Time, err error) {
	if req.DateTime == "" {
		return nil, nil, nil
	}
	if !strings.Contains(req.DateTime, "/") {
		t, err := parseInstant(req.DateTime)
		if err != nil {
			return nil, nil, err
		}
		return &t, &t, nil
	}
	return ParseDatetimeInterval(req.DateTime)
}

// ToQueryParams converts a SearchRequest to URL query parameters.
// This is used to preserve search parameters in pagination links for POST requests.
func (req *SearchRequest) ToQueryParams() url.Values {
	params := url.Values{}

	if len(req.BBox) >= 4 {
		strs := make([]string, len(req.BBox))
		for i, v := range req.BBox {
			strs[i] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		params.Set("bbox", strings.Join(strs, ","))
	}
	if req.DateTime != "" {
		params.Set("datetime", req.DateTime)
	}
	if len(req.Intersects) > 0 {
		params.Set("intersects", string(req.Intersects))
	}
	if len(req.IDs) > 0 {
		params.Set("ids", strings.Join(req.IDs, ","))
	}
	if len(req.Collections) > 0 {
		params.Set("collections", strings.Join(req.Collections, ","))
	}

	if len(req.Sortby) > 0 {
		strs := make([]string, 0, len(req.Sortby))
		for _, item := range req.Sortby {
			prefix := "+"
			if item.Direction == SortDesc {
				prefix = "-"
			}
			strs = append(strs, prefix+item.Field)
		}
		params.Set("sortby", strings.Join(strs, ","))
	}

	if req.Filter != nil {
		data, err := json.Marshal(req.Filter)
		if err == nil && string(data) != "null" {
			params.Set("filter", string(data))
			params.Set("filter-lang", "cql2-json")
		}
	}

	return params
}
