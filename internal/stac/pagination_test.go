package stac

import (
	"encoding/base64"
	"errors"
	"net/url"
	"testing"
)

func TestCursorRoundTrip(t *testing.T) {
	encoded := EncodeCursor(&Cursor{Offset: 250})
	if encoded == "" {
		t.Fatal("EncodeCursor() returned empty string")
	}
	cursor, err := DecodeCursor(encoded)
	if err != nil {
		t.Fatalf("DecodeCursor() error: %v", err)
	}
	if cursor.Offset != 250 {
		t.Errorf("Offset = %d, want 250", cursor.Offset)
	}
}

func TestDecodeCursor(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{"empty is first page", "", 0, false},
		{"not base64", "!!!", 0, true},
		{"not json", base64.RawURLEncoding.EncodeToString([]byte("offset")), 0, true},
		{"negative offset", base64.RawURLEncoding.EncodeToString([]byte(`{"o":-3}`)), 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cursor, err := DecodeCursor(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidCursor) {
					t.Errorf("DecodeCursor() error = %v, want ErrInvalidCursor", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeCursor() error: %v", err)
			}
			if cursor.Offset != tt.want {
				t.Errorf("Offset = %d, want %d", cursor.Offset, tt.want)
			}
		})
	}
}

func TestCursorPage(t *testing.T) {
	tests := []struct {
		offset, n, limit int
		from, to         int
	}{
		{0, 25, 10, 0, 10},
		{20, 25, 10, 20, 25},
		{30, 25, 10, 25, 25},
		{0, 0, 10, 0, 0},
	}
	for _, tt := range tests {
		from, to := (&Cursor{Offset: tt.offset}).Page(tt.n, tt.limit)
		if from != tt.from || to != tt.to {
			t.Errorf("Page(offset=%d, n=%d, limit=%d) = [%d, %d), want [%d, %d)",
				tt.offset, tt.n, tt.limit, from, to, tt.from, tt.to)
		}
	}
}

func TestBuildPaginationLinks(t *testing.T) {
	params := url.Values{"collections": {"landsat-c01-t1-sr"}, "cursor": {"stale"}}

	t.Run("first page of several", func(t *testing.T) {
		links := BuildPaginationLinks(PaginationInfo{
			BaseURL: "http://example.com/search", Limit: 10, Offset: 0,
			Returned: 10, Matched: 25, QueryParams: params,
		})
		if len(links) != 1 || links[0].Rel != "next" {
			t.Fatalf("links = %+v, want a single next link", links)
		}
		cursor := cursorFromURL(t, links[0].Href)
		if cursor.Offset != 10 {
			t.Errorf("next offset = %d, want 10", cursor.Offset)
		}
		u, _ := url.Parse(links[0].Href)
		if got := u.Query().Get("collections"); got != "landsat-c01-t1-sr" {
			t.Errorf("collections param = %q, want it preserved", got)
		}
		if got := u.Query().Get("limit"); got != "10" {
			t.Errorf("limit param = %q, want 10", got)
		}
	})

	t.Run("middle page", func(t *testing.T) {
		links := BuildPaginationLinks(PaginationInfo{
			BaseURL: "http://example.com/search", Limit: 10, Offset: 10,
			Returned: 10, Matched: 25,
		})
		if len(links) != 2 {
			t.Fatalf("got %d links, want next and prev", len(links))
		}
		if links[1].Rel != "prev" {
			t.Fatalf("second link rel = %q, want prev", links[1].Rel)
		}
		// The previous page is the first one, which carries no cursor.
		u, _ := url.Parse(links[1].Href)
		if u.Query().Has("cursor") {
			t.Errorf("prev link %q should not carry a cursor", links[1].Href)
		}
	})

	t.Run("last page", func(t *testing.T) {
		links := BuildPaginationLinks(PaginationInfo{
			BaseURL: "http://example.com/search", Limit: 10, Offset: 20,
			Returned: 5, Matched: 25,
		})
		if len(links) != 1 || links[0].Rel != "prev" {
			t.Fatalf("links = %+v, want only prev", links)
		}
		if cursorFromURL(t, links[0].Href).Offset != 10 {
			t.Errorf("prev link %q, want offset 10", links[0].Href)
		}
	})

	t.Run("empty result", func(t *testing.T) {
		links := BuildPaginationLinks(PaginationInfo{BaseURL: "http://example.com/search", Limit: 10})
		if len(links) != 0 {
			t.Errorf("got %d links, want none", len(links))
		}
	})
}

func cursorFromURL(t *testing.T, href string) *Cursor {
	t.Helper()
	u, err := url.Parse(href)
	if err != nil {
		t.Fatalf("parse %q: %v", href, err)
	}
	cursor, err := DecodeCursor(u.Query().Get("cursor"))
	if err != nil {
		t.Fatalf("decode cursor of %q: %v", href, err)
	}
	return cursor
}
