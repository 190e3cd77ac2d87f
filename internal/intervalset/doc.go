// Package intervalset implements the set algebra over ordered collections of
// intervals.
//
// A Set keeps insertion order and permits duplicates. Every operation is pure:
// it returns a fresh Set and never modifies its operands, so sets may be
// shared freely between goroutines.
//
// Join is the cost centre. Without options it evaluates every pair. With
// WithWindow both operands are stably sorted by temporal lower bound and a
// sliding window discards pairs whose temporal gap exceeds the window, which
// keeps joins over temporally local data close to linear. Intervals without a
// temporal axis are never pruned. JoinOverlapping, Intersect, FilterAgainst
// and Minus all use the overlap window.
//
// Merge callbacks that fail abort the whole operation with a
// *interval.PayloadError naming the offending pair; no partial set is
// returned.
package intervalset
