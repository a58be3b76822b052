package stac

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
)

// ErrInvalidCursor is returned when a page token cannot be decoded.
var ErrInvalidCursor = errors.New("invalid pagination cursor")

// Cursor is the position of the next page in a sorted result set. Scenes of
// a datacube are immutable, so an offset is stable between requests.
type Cursor struct {
	Offset int `json:"o"`
}

// EncodeCursor encodes a cursor to a URL-safe string.
// Returns an empty string if the cursor is nil.
func EncodeCursor(cursor *Cursor) string {
	if cursor == nil {
		return ""
	}
	data, err := json.Marshal(cursor)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeCursor decodes a cursor from a URL-safe string. An empty string is
// the first page.
func DecodeCursor(encoded string) (*Cursor, error) {
	if encoded == "" {
		return &Cursor{}, nil
	}
	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	var cursor Cursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if cursor.Offset < 0 {
		return nil, fmt.Errorf("%w: negative offset", ErrInvalidCursor)
	}
	return &cursor, nil
}

// Page returns the window [offset, offset+limit) of n results, clamped.
func (c *Cursor) Page(n, limit int) (from, to int) {
	from = min(c.Offset, n)
	to = min(from+limit, n)
	return from, to
}

// PaginationInfo holds what is needed to build the links of one page.
type PaginationInfo struct {
	BaseURL     string
	Limit       int
	Offset      int
	Returned    int
	Matched     int
	QueryParams url.Values // Original query parameters (without cursor)
}

// BuildPaginationLinks generates next and prev links for an offset page.
func BuildPaginationLinks(info PaginationInfo) []*Link {
	links := make([]*Link, 0, 2)

	if next := info.Offset + info.Returned; info.Returned > 0 && next < info.Matched {
		links = append(links, &Link{
			Rel:  "next",
			Href: buildCursorURL(info.BaseURL, info.QueryParams, &Cursor{Offset: next}, info.Limit),
			Type: MediaTypeGeoJSON,
		})
	}

	if info.Offset > 0 {
		prev := &Cursor{Offset: max(info.Offset-info.Limit, 0)}
		if prev.Offset == 0 {
			prev = nil
		}
		links = append(links, &Link{
			Rel:  "prev",
			Href: buildCursorURL(info.BaseURL, info.QueryParams, prev, info.Limit),
			Type: MediaTypeGeoJSON,
		})
	}

	return links
}

// buildCursorURL constructs a URL with the cursor parameter.
func buildCursorURL(baseURL string, params url.Values, cursor *Cursor, limit int) string {
	newParams := url.Values{}
	for key, values := range params {
		if key == "cursor" {
			continue
		}
		for _, value := range values {
			newParams.Add(key, value)
		}
	}

	if encoded := EncodeCursor(cursor); encoded != "" {
		newParams.Set("cursor", encoded)
	}
	if limit > 0 {
		newParams.Set("limit", strconv.Itoa(limit))
	}

	if len(newParams) > 0 {
		return baseURL + "?" + newParams.Encode()
	}
	return baseURL
}
