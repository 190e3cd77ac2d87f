package intervalset

import (
	"cmp"
	"iter"
	"slices"

	"vgrid/internal/interval"
)

// Set is an ordered, immutable collection of intervals.
type Set struct {
	items []interval.Interval
}

// New copies items into a set, keeping their order.
func New(items ...interval.Interval) Set {
	return Set{items: slices.Clone(items)}
}

func wrap(items []interval.Interval) Set {
	return Set{items: items}
}

// Len returns the number of intervals.
func (s Set) Len() int { return len(s.items) }

// Empty reports whether the set has no intervals.
func (s Set) Empty() bool { return len(s.items) == 0 }

// At returns the i-th interval.
func (s Set) At(i int) interval.Interval { return s.items[i] }

// Intervals returns a copy of the intervals in order.
func (s Set) Intervals() []interval.Interval {
	return slices.Clone(s.items)
}

// All iterates the intervals in order.
func (s Set) All() iter.Seq2[int, interval.Interval] {
	return func(yield func(int, interval.Interval) bool) {
		for i, it := range s.items {
			if !yield(i, it) {
				return
			}
		}
	}
}

// Equal reports element-wise equality in order.
func (s Set) Equal(o Set) bool {
	return slices.EqualFunc(s.items, o.items, interval.Interval.Equal)
}

// Union concatenates a and b: a's order, then b's. No deduplication.
func Union(a, b Set) Set {
	out := make([]interval.Interval, 0, len(a.items)+len(b.items))
	out = append(out, a.items...)
	out = append(out, b.items...)
	return wrap(out)
}

// Filter keeps the intervals for which keep holds, preserving order.
func Filter(s Set, keep func(interval.Interval) bool) Set {
	out := make([]interval.Interval, 0, len(s.items))
	for _, it := range s.items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return wrap(out)
}

// MapFunc transforms one interval.
type MapFunc func(interval.Interval) (interval.Interval, error)

// Map applies f to every interval. A failure aborts with a PayloadError.
func Map(s Set, f MapFunc) (Set, error) {
	out := make([]interval.Interval, len(s.items))
	for i, it := range s.items {
		mapped, err := f(it)
		if err != nil {
			return Set{}, &interval.PayloadError{Op: "map", Left: it, Err: err}
		}
		out[i] = mapped
	}
	return wrap(out), nil
}

// Fold reduces the set in order.
func Fold[T any](s Set, init T, fn func(acc T, it interval.Interval) T) T {
	acc := init
	for _, it := range s.items {
		acc = fn(acc, it)
	}
	return acc
}

// Group is one bucket produced by GroupBy.
type Group struct {
	Key string
	Set Set
}

// GroupBy buckets intervals by key. Groups appear in first-seen order and
// keep the relative order of their members.
func GroupBy(s Set, key func(interval.Interval) string) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, it := range s.items {
		k := key(it)
		pos, ok := index[k]
		if !ok {
			pos = len(groups)
			index[k] = pos
			groups = append(groups, Group{Key: k})
		}
		groups[pos].Set.items = append(groups[pos].Set.items, it)
	}
	return groups
}

// Sorted returns the set stably ordered by temporal lower bound. Intervals
// without a temporal axis sort first.
func Sorted(s Set) Set {
	order := sortedOrder(s.items)
	out := make([]interval.Interval, len(order))
	for i, idx := range order {
		out[i] = s.items[idx]
	}
	return wrap(out)
}

// Dilate widens every interval's temporal axis by d on both sides.
func Dilate(s Set, d float64) Set {
	out := make([]interval.Interval, len(s.items))
	for i, it := range s.items {
		out[i] = it.WithBounds(it.Bounds.Dilate(d))
	}
	return wrap(out)
}

// Duration sums the temporal lengths of bounded intervals.
func Duration(s Set) float64 {
	return Fold(s, 0.0, func(acc float64, it interval.Interval) float64 {
		if t := it.Bounds.T(); t.Set {
			return acc + t.Length()
		}
		return acc
	})
}

// sortedOrder returns indices stably sorted by temporal lower bound with
// temporally unbounded intervals first.
func sortedOrder(items []interval.Interval) []int {
	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(i, j int) int {
		ti, tj := items[i].Bounds.T(), items[j].Bounds.T()
		switch {
		case !ti.Set && !tj.Set:
			return 0
		case !ti.Set:
			return -1
		case !tj.Set:
			return 1
		}
		return cmp.Compare(ti.Lo, tj.Lo)
	})
	return order
}
