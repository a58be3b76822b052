package stac

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidRequest marks search requests rejected by validation.
var ErrInvalidRequest = errors.New("invalid search request")

// ValidateSearchRequest validates a STAC search request
func ValidateSearchRequest(req *SearchRequest) error {
	if req == nil {
		return fmt.Errorf("%w: search request cannot be nil", ErrInvalidRequest)
	}

	if len(req.BBox) > 0 {
		if err := ValidateBBox(req.BBox); err != nil {
			return fmt.Errorf("%w: invalid bbox: %v", ErrInvalidRequest, err)
		}
	}
	if req.DateTime != "" {
		if err := ValidateDatetime(req.DateTime); err != nil {
			return fmt.Errorf("%w: invalid datetime: %v", ErrInvalidRequest, err)
		}
	}
	if len(req.BBox) > 0 && len(req.Intersects) > 0 {
		return fmt.Errorf("%w: cannot specify both bbox and intersects", ErrInvalidRequest)
	}
	if req.Limit < 0 {
		return fmt.Errorf("%w: limit must be non-negative, got %d", ErrInvalidRequest, req.Limit)
	}

	for i, coll := range req.Collections {
		if strings.TrimSpace(coll) == "" {
			return fmt.Errorf("%w: collection at index %d cannot be empty", ErrInvalidRequest, i)
		}
	}
	for i, id := range req.IDs {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%w: id at index %d cannot be empty", ErrInvalidRequest, i)
		}
	}

	for _, s := range req.Sortby {
		if !IsSortField(s.Field) {
			return fmt.Errorf("%w: unsupported sort field %q", ErrInvalidRequest, s.Field)
		}
		if s.Direction != SortAsc && s.Direction != SortDesc {
			return fmt.Errorf("%w: sort direction must be asc or desc, got %q", ErrInvalidRequest, s.Direction)
		}
	}

	if req.Filter != nil {
		if req.FilterLang != "" && req.FilterLang != "cql2-json" {
			return fmt.Errorf("%w: filter-lang %q is not supported", ErrInvalidRequest, req.FilterLang)
		}
		if _, ok := req.Filter.(map[string]any); !ok {
			return fmt.Errorf("%w: filter must be a CQL2-JSON object", ErrInvalidRequest)
		}
	}

	return nil
}

// ValidateBBox validates a 2D [west, south, east, north] or 3D
// [west, south, min_elev, east, north, max_elev] bounding box.
func ValidateBBox(bbox []float64) error {
	var west, south, east, north float64
	switch len(bbox) {
	case 4:
		west, south, east, north = bbox[0], bbox[1], bbox[2], bbox[3]
	case 6:
		west, south, east, north = bbox[0], bbox[1], bbox[3], bbox[4]
		if bbox[2] > bbox[5] {
			return fmt.Errorf("minimum elevation (%f) must be less than or equal to maximum elevation (%f)", bbox[2], bbox[5])
		}
	default:
		return fmt.Errorf("bbox must have 4 or 6 coordinates, got %d", len(bbox))
	}

	for _, lon := range []float64{west, east} {
		if lon < -180 || lon > 180 {
			return fmt.Errorf("longitude must be between -180 and 180, got %f", lon)
		}
	}
	for _, lat := range []float64{south, north} {
		if lat < -90 || lat > 90 {
			return fmt.Errorf("latitude must be between -90 and 90, got %f", lat)
		}
	}

	if west > east {
		return fmt.Errorf("west longitude (%f) must be less than or equal to east longitude (%f)", west, east)
	}
	if south > north {
		return fmt.Errorf("south latitude (%f) must be less than or equal to north latitude (%f)", south, north)
	}
	return nil
}

// ValidateDatetime validates a single instant or an interval.
func ValidateDatetime(dt string) error {
	if dt == "" {
		return fmt.Errorf("datetime cannot be empty")
	}
	if strings.Contains(dt, "/") || dt == ".." {
		_, _, err := ParseDatetimeInterval(dt)
		return err
	}
	_, err := parseInstant(dt)
	return err
}

// ParseDatetimeInterval parses "start/end", where either end may be ".." or
// empty. Instants are RFC 3339 timestamps or plain dates.
func ParseDatetimeInterval(dt string) (start, end *time.Time, err error) {
	if dt == "" {
		return nil, nil, fmt.Errorf("datetime interval cannot be empty")
	}
	if dt == ".." || dt == "../.." {
		return nil, nil, nil
	}

	parts := strings.Split(dt, "/")
	if len(parts) != 2 {
		return nil, nil, fmt.Errorf("invalid datetime interval format, expected 'start/end', got: %s", dt)
	}

	bound := func(s string) (*time.Time, error) {
		s = strings.TrimSpace(s)
		if s == "" || s == ".." {
			return nil, nil
		}
		t, err := parseInstant(s)
		if err != nil {
			return nil, err
		}
		return &t, nil
	}

	if start, err = bound(parts[0]); err != nil {
		return nil, nil, fmt.Errorf("invalid start datetime: %w", err)
	}
	if end, err = bound(parts[1]); err != nil {
		return nil, nil, fmt.Errorf("invalid end datetime: %w", err)
	}

	if start != nil && end != nil && start.After(*end) {
		return nil, nil, fmt.Errorf("start datetime (%s) must be before or equal to end datetime (%s)", start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return start, end, nil
}

func parseInstant(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected RFC 3339 timestamp or date, got %q", s)
	}
	return t, nil
}
