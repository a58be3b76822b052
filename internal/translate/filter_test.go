package translate

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/robert-malhotra/landsat-lst/internal/stac"
)

func filterItem() *stac.Item {
	item := stac.NewItem("LC08_20200308T190000", "landsat-c01-t1-toa", "1.0.0")
	item.Properties["datetime"] = "2020-03-08T19:00:00.000Z"
	item.Properties["platform"] = "landsat-8"
	item.Properties["eo:cloud_cover"] = 12.5
	return item
}

func parseFilter(t *testing.T, s string) any {
	t.Helper()
	var f any
	if err := json.Unmarshal([]byte(s), &f); err != nil {
		t.Fatalf("bad filter %s: %v", s, err)
	}
	return f
}

func TestMatchFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter string
		want   bool
	}{
		{"platform equals", `{"op":"=","args":[{"property":"platform"},"LANDSAT-8"]}`, true},
		{"platform differs", `{"op":"=","args":[{"property":"platform"},"landsat-7"]}`, false},
		{"not equal", `{"op":"<>","args":[{"property":"platform"},"landsat-7"]}`, true},
		{"cloud below", `{"op":"<","args":[{"property":"eo:cloud_cover"},20]}`, true},
		{"cloud above", `{"op":">=","args":[{"property":"eo:cloud_cover"},20]}`, false},
		{"id", `{"op":"=","args":[{"property":"id"},"LC08_20200308T190000"]}`, true},
		{"collection in", `{"op":"in","args":[{"property":"collection"},["a","landsat-c01-t1-toa"]]}`, true},
		{"collection not in", `{"op":"in","args":[{"property":"collection"},["a","b"]]}`, false},
		{"timestamp after", `{"op":">","args":[{"property":"datetime"},{"timestamp":"2020-03-01T00:00:00Z"}]}`, true},
		{"date before", `{"op":"<","args":[{"property":"datetime"},{"date":"2020-03-08"}]}`, false},
		{"missing property", `{"op":"=","args":[{"property":"gsd"},30]}`, false},
		{"isNull", `{"op":"isNull","args":[{"property":"gsd"}]}`, true},
		{"and", `{"op":"and","args":[
			{"op":"=","args":[{"property":"platform"},"landsat-8"]},
			{"op":"<","args":[{"property":"eo:cloud_cover"},10]}]}`, false},
		{"or", `{"op":"or","args":[
			{"op":"=","args":[{"property":"platform"},"landsat-7"]},
			{"op":"<","args":[{"property":"eo:cloud_cover"},20]}]}`, true},
		{"not", `{"op":"not","args":[{"op":"=","args":[{"property":"platform"},"landsat-7"]}]}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MatchFilter(parseFilter(t, tt.filter), filterItem())
			if err != nil {
				t.Fatalf("MatchFilter() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("MatchFilter() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatchFilterNil(t *testing.T) {
	ok, err := MatchFilter(nil, filterItem())
	if err != nil || !ok {
		t.Errorf("MatchFilter(nil) = %v, %v; want true, nil", ok, err)
	}
}

func TestMatchFilterErrors(t *testing.T) {
	tests := []struct {
		name   string
		filter any
	}{
		{"not an object", "platform = 'landsat-8'"},
		{"missing op", map[string]any{"args": []any{}}},
		{"unknown op", map[string]any{"op": "like", "args": []any{map[string]any{"property": "platform"}, "l%"}}},
		{"bad property", map[string]any{"op": "=", "args": []any{"platform", "landsat-8"}}},
		{"empty and", map[string]any{"op": "and", "args": []any{}}},
		{"bad literal", map[string]any{"op": "=", "args": []any{map[string]any{"property": "platform"}, []any{1}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MatchFilter(tt.filter, filterItem())
			if !errors.Is(err, ErrUnsupportedFilter) {
				t.Errorf("error = %v, want ErrUnsupportedFilter", err)
			}
		})
	}
}
