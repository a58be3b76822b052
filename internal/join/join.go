// Package join matches scenes from one catalog to acquisition days that
// survived screening in another.
package join

import (
	"slices"
	"time"

	"github.com/robert-malhotra/landsat-lst/internal/imagery"
)

// DateKeyLayout formats a calendar day.
const DateKeyLayout = "2006-01-02"

// DateKey returns the UTC calendar day of t.
func DateKey(t time.Time) string {
	return t.UTC().Format(DateKeyLayout)
}

// DateSet is a deduplicated set of calendar-day keys.
type DateSet struct {
	keys map[string]struct{}
}

// NewDateSet builds a set from the given keys.
func NewDateSet(keys ...string) *DateSet {
	s := &DateSet{keys: make(map[string]struct{}, len(keys))}
	for _, k := range keys {
		s.Add(k)
	}
	return s
}

// Add inserts a key.
func (s *DateSet) Add(key string) {
	if s.keys == nil {
		s.keys = make(map[string]struct{})
	}
	s.keys[key] = struct{}{}
}

// Has reports whether key is in the set.
func (s *DateSet) Has(key string) bool {
	if s == nil {
		return false
	}
	_, ok := s.keys[key]
	return ok
}

// Len returns the number of distinct keys.
func (s *DateSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Sorted lists the keys in ascending order.
func (s *DateSet) Sorted() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.keys))
	for k := range s.keys {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Tag sets the DateKey of every scene from its acquisition time.
func Tag(coll imagery.Collection) imagery.Collection {
	return coll.Map(func(s imagery.Scene) (imagery.Scene, error) {
		return s.WithDateKey(DateKey(s.Time)), nil
	})
}

// Join keeps the scenes whose calendar day is in dates. Several scenes on one
// day are all kept, in their original order.
func Join(coll imagery.Collection, dates *DateSet) imagery.Collection {
	return Tag(coll).Filter(func(s imagery.Scene) bool {
		return dates.Has(s.Meta.DateKey)
	})
}
