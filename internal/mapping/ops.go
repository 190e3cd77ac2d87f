package mapping

import (
	"vgrid/internal/interval"
	"vgrid/internal/intervalset"
)

// Union concatenates the sets of shared keys and passes one-sided keys
// through.
func Union(a, b Mapping, opts ...Option) Mapping {
	out, _ := combine("union", PolicyPassThrough, a, b, func(_ Key, left, right intervalset.Set) (intervalset.Set, error) {
		return intervalset.Union(left, right), nil
	}, buildOptions(opts))
	return out
}

// Join joins the sets of shared keys. One-sided keys and empty results are
// omitted.
func Join(a, b Mapping, pred interval.Predicate, merge intervalset.MergeFunc, opts ...Option) (Mapping, error) {
	o := buildOptions(opts)
	return combine("join", PolicyDropUnmatched, a, b, func(_ Key, left, right intervalset.Set) (intervalset.Set, error) {
		return intervalset.Join(left, right, pred, merge, o.join...)
	}, o)
}

// JoinOverlapping joins overlapping pairs of shared keys using the overlap
// window.
func JoinOverlapping(a, b Mapping, merge intervalset.MergeFunc, opts ...Option) (Mapping, error) {
	o := buildOptions(opts)
	return combine("join", PolicyDropUnmatched, a, b, func(_ Key, left, right intervalset.Set) (intervalset.Set, error) {
		return intervalset.JoinOverlapping(left, right, merge)
	}, o)
}

// Intersect intersects the sets of shared keys. A key present in only one
// operand is omitted from the result.
func Intersect(a, b Mapping, opts ...Option) (Mapping, error) {
	return combine("intersect", PolicyDropUnmatched, a, b, func(_ Key, left, right intervalset.Set) (intervalset.Set, error) {
		return intervalset.Intersect(left, right)
	}, buildOptions(opts))
}

// FilterAgainst keeps, per shared key, the intervals of a matched by b.
func FilterAgainst(a, b Mapping, pred interval.Predicate, opts ...Option) Mapping {
	o := buildOptions(opts)
	out, _ := combine("filter_against", PolicyDropUnmatched, a, b, func(_ Key, left, right intervalset.Set) (intervalset.Set, error) {
		return intervalset.FilterAgainst(left, right, pred, o.join...), nil
	}, o)
	return out
}

// Minus subtracts b from a per key. Keys only in a are kept whole; keys only
// in b are ignored.
func Minus(a, b Mapping, opts ...Option) Mapping {
	out, _ := combine("minus", PolicyLeft, a, b, func(_ Key, left, right intervalset.Set) (intervalset.Set, error) {
		return intervalset.Minus(left, right), nil
	}, buildOptions(opts))
	return out
}

// Map transforms every interval of every key.
func Map(m Mapping, f intervalset.MapFunc, opts ...Option) (Mapping, error) {
	return combine("map", PolicyEach, m, Mapping{}, func(_ Key, s, _ intervalset.Set) (intervalset.Set, error) {
		return intervalset.Map(s, f)
	}, buildOptions(opts))
}

// MapKeyed is Map with the source key available to the transform.
func MapKeyed(m Mapping, f func(Key, interval.Interval) (interval.Interval, error), opts ...Option) (Mapping, error) {
	return combine("map", PolicyEach, m, Mapping{}, func(k Key, s, _ intervalset.Set) (intervalset.Set, error) {
		return intervalset.Map(s, func(it interval.Interval) (interval.Interval, error) {
			return f(k, it)
		})
	}, buildOptions(opts))
}

// Filter keeps matching intervals per key. Keys whose sets become empty stay
// in the mapping.
func Filter(m Mapping, keep func(interval.Interval) bool, opts ...Option) Mapping {
	out, _ := combine("filter", PolicyEach, m, Mapping{}, func(_ Key, s, _ intervalset.Set) (intervalset.Set, error) {
		return intervalset.Filter(s, keep), nil
	}, buildOptions(opts))
	return out
}

// Coalesce coalesces every key independently.
func Coalesce(m Mapping, opts ...Option) (Mapping, error) {
	o := buildOptions(opts)
	return combine("coalesce", PolicyEach, m, Mapping{}, func(_ Key, s, _ intervalset.Set) (intervalset.Set, error) {
		return intervalset.Coalesce(s, o.coalesce...)
	}, o)
}

// Dilate widens the temporal axis of every interval.
func Dilate(m Mapping, d float64, opts ...Option) Mapping {
	out, _ := combine("dilate", PolicyEach, m, Mapping{}, func(_ Key, s, _ intervalset.Set) (intervalset.Set, error) {
		return intervalset.Dilate(s, d), nil
	}, buildOptions(opts))
	return out
}

// Sorted stably sorts every key by temporal lower bound.
func Sorted(m Mapping, opts ...Option) Mapping {
	out, _ := combine("sort", PolicyEach, m, Mapping{}, func(_ Key, s, _ intervalset.Set) (intervalset.Set, error) {
		return intervalset.Sorted(s), nil
	}, buildOptions(opts))
	return out
}
