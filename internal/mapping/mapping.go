package mapping

import (
	"slices"

	"vgrid/internal/interval"
	"vgrid/internal/intervalset"
)

// Mapping is an immutable collection of interval sets keyed by source.
type Mapping struct {
	sets map[Key]intervalset.Set
}

// New copies sets into a mapping.
func New(sets map[Key]intervalset.Set) Mapping {
	out := make(map[Key]intervalset.Set, len(sets))
	for k, s := range sets {
		out[k] = s
	}
	return Mapping{sets: out}
}

// Single builds a mapping holding one key.
func Single(key Key, set intervalset.Set) Mapping {
	return Mapping{sets: map[Key]intervalset.Set{key: set}}
}

// FromSet splits a flat set into per-key sets. Intervals for which keyOf
// reports false are skipped. Each key keeps the relative order of its
// intervals.
func FromSet(s intervalset.Set, keyOf func(interval.Interval) (Key, bool)) Mapping {
	buckets := make(map[Key][]interval.Interval)
	for _, it := range s.All() {
		k, ok := keyOf(it)
		if !ok {
			continue
		}
		buckets[k] = append(buckets[k], it)
	}
	out := make(map[Key]intervalset.Set, len(buckets))
	for k, items := range buckets {
		out[k] = intervalset.New(items...)
	}
	return Mapping{sets: out}
}

// Get returns the set stored under key.
func (m Mapping) Get(key Key) (intervalset.Set, bool) {
	s, ok := m.sets[key]
	return s, ok
}

// Has reports whether key is present.
func (m Mapping) Has(key Key) bool {
	_, ok := m.sets[key]
	return ok
}

// Keys returns every key in Compare order.
func (m Mapping) Keys() []Key {
	keys := make([]Key, 0, len(m.sets))
	for k := range m.sets {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, Compare)
	return keys
}

// Len returns the number of keys.
func (m Mapping) Len() int { return len(m.sets) }

// TotalIntervals counts intervals across every key.
func (m Mapping) TotalIntervals() int {
	total := 0
	for _, s := range m.sets {
		total += s.Len()
	}
	return total
}

// With returns a copy with key set to s.
func (m Mapping) With(key Key, s intervalset.Set) Mapping {
	out := New(m.sets)
	out.sets[key] = s
	return out
}

// Flatten concatenates every set in key order.
func (m Mapping) Flatten() intervalset.Set {
	var out intervalset.Set
	for _, k := range m.Keys() {
		out = intervalset.Union(out, m.sets[k])
	}
	return out
}

// Equal reports identical keys with element-wise equal sets.
func (m Mapping) Equal(o Mapping) bool {
	if len(m.sets) != len(o.sets) {
		return false
	}
	for k, s := range m.sets {
		other, ok := o.sets[k]
		if !ok || !s.Equal(other) {
			return false
		}
	}
	return true
}
