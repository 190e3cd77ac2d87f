package intervalset

import (
	"fmt"
	"math"

	"vgrid/internal/interval"
)

// MergeFunc combines a matched pair into one output interval.
type MergeFunc func(a, b interval.Interval) (interval.Interval, error)

// MergeSpan spans the bounds and merges payloads with interval.MergePayloads.
// It is symmetric.
func MergeSpan(a, b interval.Interval) (interval.Interval, error) {
	payload, err := interval.MergePayloads(a.Payload, b.Payload)
	if err != nil {
		return interval.Interval{}, err
	}
	return interval.New(interval.Merge(a.Bounds, b.Bounds), payload), nil
}

// KeepLeft spans the bounds and keeps the left payload.
func KeepLeft(a, b interval.Interval) (interval.Interval, error) {
	return interval.New(interval.Merge(a.Bounds, b.Bounds), a.Payload), nil
}

// IntersectLeft narrows the bounds to the pair's intersection and keeps the
// left payload.
func IntersectLeft(a, b interval.Interval) (interval.Interval, error) {
	bounds, ok := interval.Intersect(a.Bounds, b.Bounds)
	if !ok {
		return interval.Interval{}, fmt.Errorf("bounds %s and %s do not intersect", a.Bounds, b.Bounds)
	}
	return interval.New(bounds, a.Payload), nil
}

// JoinOption tunes Join.
type JoinOption func(*joinConfig)

type joinConfig struct {
	window   float64
	windowed bool
}

// WithWindow restricts a join to pairs whose temporal gap is at most w and
// enables the sorted sliding-window scan. Pairs involving a temporally
// unbounded interval are always considered. Output follows the sorted order
// of both operands rather than insertion order.
func WithWindow(w float64) JoinOption {
	return func(c *joinConfig) {
		if math.IsNaN(w) || w < 0 {
			w = 0
		}
		c.window = w
		c.windowed = true
	}
}

// Join emits merge(a, b) for every pair with pred(a.Bounds, b.Bounds).
// Without options pairs are visited in insertion order, a-major.
func Join(a, b Set, pred interval.Predicate, merge MergeFunc, opts ...JoinOption) (Set, error) {
	var cfg joinConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if a.Empty() || b.Empty() {
		return Set{}, nil
	}
	var out []interval.Interval
	err := scanPairs(a.items, b.items, pred, cfg, func(i, j int) error {
		merged, err := merge(a.items[i], b.items[j])
		if err != nil {
			return &interval.PayloadError{Op: "join", Left: a.items[i], Right: b.items[j], Err: err}
		}
		out = append(out, merged)
		return nil
	})
	if err != nil {
		return Set{}, err
	}
	return wrap(out), nil
}

// JoinOverlapping joins overlapping pairs using the overlap window.
func JoinOverlapping(a, b Set, merge MergeFunc) (Set, error) {
	return Join(a, b, interval.Overlaps, merge, WithWindow(0))
}

// Intersect returns, for every overlapping pair, the intersection of the two
// bounds carrying a's payload.
func Intersect(a, b Set) (Set, error) {
	return JoinOverlapping(a, b, IntersectLeft)
}

// FilterAgainst keeps the intervals of a matched by at least one interval of
// b. Order of a is preserved. Extra options select the scan the same way as
// for Join.
func FilterAgainst(a, b Set, pred interval.Predicate, opts ...JoinOption) Set {
	return keepMasked(a, matchLeft(a, b, pred, opts), true)
}

// Minus keeps the intervals of a overlapped by no interval of b.
func Minus(a, b Set) Set {
	if b.Empty() {
		return New(a.items...)
	}
	return keepMasked(a, matchLeft(a, b, interval.Overlaps, []JoinOption{WithWindow(0)}), false)
}

func matchLeft(a, b Set, pred interval.Predicate, opts []JoinOption) []bool {
	var cfg joinConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	matched := make([]bool, len(a.items))
	if a.Empty() || b.Empty() {
		return matched
	}
	// The visitor never fails.
	_ = scanPairs(a.items, b.items, pred, cfg, func(i, _ int) error {
		matched[i] = true
		return nil
	})
	return matched
}

func keepMasked(src Set, mask []bool, want bool) Set {
	out := make([]interval.Interval, 0, len(src.items))
	for i, it := range src.items {
		if mask[i] == want {
			out = append(out, it)
		}
	}
	return wrap(out)
}

func scanPairs(a, b []interval.Interval, pred interval.Predicate, cfg joinConfig, visit func(i, j int) error) error {
	if !cfg.windowed {
		for i := range a {
			for j := range b {
				if pred(a[i].Bounds, b[j].Bounds) {
					if err := visit(i, j); err != nil {
						return err
					}
				}
			}
		}
		return nil
	}
	return sweep(a, b, pred, cfg.window, visit)
}

// sweep walks a in temporal order while b feeds a window of candidates.
// Because a's lower bounds only grow, a b whose upper bound plus the window
// falls below the current lower bound can never match again and is evicted.
func sweep(a, b []interval.Interval, pred interval.Predicate, window float64, visit func(i, j int) error) error {
	orderA := sortedOrder(a)
	orderB := sortedOrder(b)

	active := make([]int, 0, len(orderB))
	next := 0
	for _, i := range orderA {
		ta := a[i].Bounds.T()
		if !ta.Set {
			for _, j := range orderB {
				if pred(a[i].Bounds, b[j].Bounds) {
					if err := visit(i, j); err != nil {
						return err
					}
				}
			}
			continue
		}

		for next < len(orderB) {
			tb := b[orderB[next]].Bounds.T()
			if tb.Set && tb.Lo > ta.Hi+window {
				break
			}
			active = append(active, orderB[next])
			next++
		}

		kept := active[:0]
		for _, j := range active {
			tb := b[j].Bounds.T()
			if tb.Set && tb.Hi+window < ta.Lo {
				continue
			}
			kept = append(kept, j)
			if tb.Set && tb.Lo > ta.Hi+window {
				continue
			}
			if pred(a[i].Bounds, b[j].Bounds) {
				if err := visit(i, j); err != nil {
					return err
				}
			}
		}
		active = kept
	}
	return nil
}
