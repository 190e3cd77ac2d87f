package intervalset

import (
	"math"

	"vgrid/internal/interval"
)

// CoalesceOption tunes Coalesce.
type CoalesceOption func(*coalesceConfig)

type coalesceConfig struct {
	key       func(interval.Payload) string
	merge     func(a, b interval.Payload) (interval.Payload, error)
	adjacency float64
}

// WithKey replaces the payload equality key. Only intervals with equal keys
// are merged.
func WithKey(key func(interval.Payload) string) CoalesceOption {
	return func(c *coalesceConfig) {
		if key != nil {
			c.key = key
		}
	}
}

// WithPayloadMerge resolves the payloads of two merged intervals. It is only
// needed with a custom key; under the default key payloads are identical.
func WithPayloadMerge(merge func(a, b interval.Payload) (interval.Payload, error)) CoalesceOption {
	return func(c *coalesceConfig) {
		if merge != nil {
			c.merge = merge
		}
	}
}

// WithAdjacency also merges intervals whose temporal gap is at most eps.
func WithAdjacency(eps float64) CoalesceOption {
	return func(c *coalesceConfig) {
		if eps > 0 && !math.IsInf(eps, 0) {
			c.adjacency = eps
		}
	}
}

func keepFirstPayload(a, _ interval.Payload) (interval.Payload, error) {
	return a, nil
}

// Coalesce merges overlapping intervals that share a payload key until no
// further merge applies. The default key is full structural payload
// equality. Groups are emitted in first-seen order and each group is sorted
// by temporal lower bound.
func Coalesce(s Set, opts ...CoalesceOption) (Set, error) {
	cfg := coalesceConfig{
		key:   interval.Payload.Key,
		merge: keepFirstPayload,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if s.Empty() {
		return Set{}, nil
	}

	groups := GroupBy(s, func(it interval.Interval) string { return cfg.key(it.Payload) })
	out := make([]interval.Interval, 0, s.Len())
	for _, group := range groups {
		merged, err := coalesceGroup(Sorted(group.Set).items, cfg)
		if err != nil {
			return Set{}, err
		}
		out = append(out, merged...)
	}
	return wrap(out), nil
}

// coalesceGroup runs merge passes until a pass changes nothing. Every merge
// removes one interval, so the number of passes is bounded by len(items).
func coalesceGroup(items []interval.Interval, cfg coalesceConfig) ([]interval.Interval, error) {
	for pass := 0; pass < len(items); pass++ {
		changed := false
		next := make([]interval.Interval, 0, len(items))
		for _, it := range items {
			target := -1
			for k := range next {
				if touches(next[k].Bounds, it.Bounds, cfg.adjacency) {
					target = k
					break
				}
			}
			if target < 0 {
				next = append(next, it)
				continue
			}
			payload, err := cfg.merge(next[target].Payload, it.Payload)
			if err != nil {
				return nil, &interval.PayloadError{Op: "coalesce", Left: next[target], Right: it, Err: err}
			}
			next[target] = interval.New(interval.Merge(next[target].Bounds, it.Bounds), payload)
			changed = true
		}
		items = next
		if !changed {
			break
		}
	}
	return items, nil
}

func touches(a, b interval.Bounds, eps float64) bool {
	if eps == 0 {
		return interval.Overlaps(a, b)
	}
	ta, tb := a.T(), b.T()
	if ta.Set && tb.Set && (ta.Lo > tb.Hi+eps || tb.Lo > ta.Hi+eps) {
		return false
	}
	for _, axis := range []interval.Axis{interval.AxisX, interval.AxisY} {
		ra, rb := a.Axis(axis), b.Axis(axis)
		if ra.Set && rb.Set && (ra.Lo > rb.Hi || rb.Lo > ra.Hi) {
			return false
		}
	}
	return true
}
