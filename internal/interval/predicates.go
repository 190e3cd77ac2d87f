package interval

// Predicate relates two bounds. Joins, semi-joins and minus take one.
type Predicate func(a, b Bounds) bool

// The temporal relations below return false when either side is unbounded in
// time; an unbounded extent has no position to compare.

func temporal(a, b Bounds) (Range, Range, bool) {
	ta, tb := a.axes[AxisT], b.axes[AxisT]
	return ta, tb, ta.Set && tb.Set
}

// Before reports a ending strictly before b starts.
func Before(a, b Bounds) bool {
	ta, tb, ok := temporal(a, b)
	return ok && ta.Hi < tb.Lo
}

// After reports a starting strictly after b ends.
func After(a, b Bounds) bool {
	return Before(b, a)
}

// Meets reports a ending exactly where b starts.
func Meets(a, b Bounds) bool {
	ta, tb, ok := temporal(a, b)
	return ok && ta.Hi == tb.Lo
}

// During reports a lying inside b in time.
func During(a, b Bounds) bool {
	ta, tb, ok := temporal(a, b)
	return ok && tb.Lo <= ta.Lo && ta.Hi <= tb.Hi
}

// Starts reports a and b sharing a start with a ending no later than b.
func Starts(a, b Bounds) bool {
	ta, tb, ok := temporal(a, b)
	return ok && ta.Lo == tb.Lo && ta.Hi <= tb.Hi
}

// Finishes reports a and b sharing an end with a starting no earlier than b.
func Finishes(a, b Bounds) bool {
	ta, tb, ok := temporal(a, b)
	return ok && ta.Hi == tb.Hi && ta.Lo >= tb.Lo
}

// Equals reports identical bounds on every axis.
func Equals(a, b Bounds) bool {
	return a.Equal(b)
}

// LeftOf reports a lying entirely left of b on the horizontal axis.
func LeftOf(a, b Bounds) bool {
	xa, xb := a.axes[AxisX], b.axes[AxisX]
	return xa.Set && xb.Set && xa.Hi < xb.Lo
}

// Above reports a lying entirely above b. Image rows grow downwards.
func Above(a, b Bounds) bool {
	ya, yb := a.axes[AxisY], b.axes[AxisY]
	return ya.Set && yb.Set && ya.Hi < yb.Lo
}

// And combines predicates, all of which must hold.
func And(preds ...Predicate) Predicate {
	return func(a, b Bounds) bool {
		for _, p := range preds {
			if !p(a, b) {
				return false
			}
		}
		return true
	}
}

// Or combines predicates, any of which may hold.
func Or(preds ...Predicate) Predicate {
	return func(a, b Bounds) bool {
		for _, p := range preds {
			if p(a, b) {
				return true
			}
		}
		return false
	}
}

// Not negates a predicate.
func Not(p Predicate) Predicate {
	return func(a, b Bounds) bool { return !p(a, b) }
}
