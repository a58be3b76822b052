package stac

import (
	"cmp"
	"slices"
	"strings"
)

// SortDirection represents the sort direction.
type SortDirection string

const (
	// SortAsc represents ascending sort order.
	SortAsc SortDirection = "asc"
	// SortDesc represents descending sort order.
	SortDesc SortDirection = "desc"
)

// Sortable item fields. Property fields may carry a "properties." prefix.
var sortFields = map[string]bool{
	"id":             true,
	"collection":     true,
	"datetime":       true,
	"platform":       true,
	"eo:cloud_cover": true,
}

// IsSortField reports whether items can be sorted by field.
func IsSortField(field string) bool {
	return sortFields[strings.TrimPrefix(field, "properties.")]
}

// SortItems sorts items in place by the given criteria, falling back to
// ascending datetime then id. Items missing a field sort last.
func SortItems(items []*Item, sortby []SortbyItem) {
	keys := append(slices.Clone(sortby),
		SortbyItem{Field: "datetime", Direction: SortAsc},
		SortbyItem{Field: "id", Direction: SortAsc},
	)

	slices.SortStableFunc(items, func(a, b *Item) int {
		for _, k := range keys {
			va, vb := sortValue(a, k.Field), sortValue(b, k.Field)
			c := compareValues(va, vb)
			if c == 0 {
				continue
			}
			if k.Direction == SortDesc && va != nil && vb != nil {
				return -c
			}
			return c
		}
		return 0
	})
}

func sortValue(item *Item, field string) any {
	switch field = strings.TrimPrefix(field, "properties."); field {
	case "id":
		return item.Id
	case "collection":
		return item.Collection
	default:
		return item.Properties[field]
	}
}

// compareValues orders numbers numerically and everything else as strings.
// nil sorts after any value.
func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	af, aok := a.(float64)
	bf, bok := b.(float64)
	if aok && bok {
		return cmp.Compare(af, bf)
	}
	as, _ := a.(string)
	bs, _ := b.(string)
	return strings.Compare(as, bs)
}
