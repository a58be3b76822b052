package imagery

import (
	"context"
	"iter"
	"slices"
)

// Collection is an ordered, lazily evaluated sequence of scenes. Operations
// return new collections and do no work until a terminal call such as
// Collect or Count iterates the sequence.
type Collection struct {
	seq iter.Seq2[Scene, error]
}

// FromSeq wraps an iterator. The iterator may be replayed, so it must
// produce the same scenes each time it is ranged over.
func FromSeq(seq iter.Seq2[Scene, error]) Collection {
	return Collection{seq: seq}
}

// FromScenes builds a collection over a fixed slice of scenes.
func FromScenes(scenes []Scene) Collection {
	owned := slices.Clone(scenes)
	return Collection{seq: func(yield func(Scene, error) bool) {
		for _, s := range owned {
			if !yield(s, nil) {
				return
			}
		}
	}}
}

// Empty returns a collection with no scenes.
func Empty() Collection {
	return Collection{}
}

// All exposes the underlying sequence.
func (c Collection) All() iter.Seq2[Scene, error] {
	if c.seq == nil {
		return func(func(Scene, error) bool) {}
	}
	return c.seq
}

// Filter keeps the scenes for which keep returns true.
func (c Collection) Filter(keep func(Scene) bool) Collection {
	src := c.All()
	return Collection{seq: func(yield func(Scene, error) bool) {
		for s, err := range src {
			if err != nil {
				yield(Scene{}, err)
				return
			}
			if keep(s) && !yield(s, nil) {
				return
			}
		}
	}}
}

// Map transforms every scene. The first error stops iteration.
func (c Collection) Map(fn func(Scene) (Scene, error)) Collection {
	src := c.All()
	return Collection{seq: func(yield func(Scene, error) bool) {
		for s, err := range src {
			if err != nil {
				yield(Scene{}, err)
				return
			}
			out, err := fn(s)
			if err != nil {
				yield(Scene{}, err)
				return
			}
			if !yield(out, nil) {
				return
			}
		}
	}}
}

// SortByTime orders scenes by ascending acquisition time. Scenes with equal
// timestamps keep their relative order.
func (c Collection) SortByTime() Collection {
	src := c.All()
	return Collection{seq: func(yield func(Scene, error) bool) {
		var buf []Scene
		for s, err := range src {
			if err != nil {
				yield(Scene{}, err)
				return
			}
			buf = append(buf, s)
		}
		slices.SortStableFunc(buf, func(a, b Scene) int {
			return a.Time.Compare(b.Time)
		})
		for _, s := range buf {
			if !yield(s, nil) {
				return
			}
		}
	}}
}

// Select restricts every scene to the named bands in the given order.
func (c Collection) Select(names ...string) Collection {
	names = slices.Clone(names)
	return c.Map(func(s Scene) (Scene, error) {
		return s.Select(names...)
	})
}

// Collect evaluates the collection. Cancellation of ctx is checked between
// scenes.
func (c Collection) Collect(ctx context.Context) ([]Scene, error) {
	var out []Scene
	for s, err := range c.All() {
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Count evaluates the collection and returns its size.
func (c Collection) Count(ctx context.Context) (int, error) {
	n := 0
	for _, err := range c.All() {
		if err != nil {
			return 0, err
		}
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		n++
	}
	return n, nil
}
