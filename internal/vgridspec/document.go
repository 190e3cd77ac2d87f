package vgridspec

import (
	"fmt"
	"slices"

	"vgrid/internal/interval"
	"vgrid/internal/mapping"
)

// Track is a named annotation category backed by a mapping.
type Track struct {
	Name    string
	Mapping mapping.Mapping
}

// KeyConsistencyWarning records track intervals dropped because their key
// names no source.
type KeyConsistencyWarning struct {
	Track     string
	Key       mapping.Key
	Intervals int
}

func (w KeyConsistencyWarning) String() string {
	return fmt.Sprintf("track %q: key %s is not a source (%d intervals dropped)", w.Track, w.Key, w.Intervals)
}

// TrackData holds one track's intervals per source key.
type TrackData struct {
	name string
	data map[mapping.Key][]interval.Interval
}

// Name returns the canonical track name.
func (t TrackData) Name() string { return t.name }

// Intervals returns the intervals for key in compile order. Keys of sources
// that have no intervals return an empty slice.
func (t TrackData) Intervals(key mapping.Key) []interval.Interval {
	return slices.Clone(t.data[key])
}

// Count returns the number of intervals across every source.
func (t TrackData) Count() int {
	n := 0
	for _, items := range t.data {
		n += len(items)
	}
	return n
}

// TrackSummary reports how much a track contributes to a document.
type TrackSummary struct {
	Name string
	// Sources counts sources with at least one interval.
	Sources   int
	Intervals int
	// Spatial counts intervals per spatial type.
	Spatial map[interval.SpatialType]int
}

// Document is the immutable output of Compile.
type Document struct {
	id       string
	sources  []Source
	tracks   []TrackData
	warnings []KeyConsistencyWarning
}

// ID is the correlation ID assigned at compile time. It never reaches the
// encoded payload.
func (d *Document) ID() string { return d.id }

// Sources returns the sources in compile order.
func (d *Document) Sources() []Source { return slices.Clone(d.sources) }

// Tracks returns the tracks in compile order.
func (d *Document) Tracks() []TrackData { return slices.Clone(d.tracks) }

// Track looks up a track by canonical name.
func (d *Document) Track(name string) (TrackData, bool) {
	for _, t := range d.tracks {
		if t.name == name {
			return t, true
		}
	}
	return TrackData{}, false
}

// Warnings returns the key consistency warnings raised while compiling.
func (d *Document) Warnings() []KeyConsistencyWarning { return slices.Clone(d.warnings) }

// Summary reports per-track counts in track order.
func (d *Document) Summary() []TrackSummary {
	out := make([]TrackSummary, 0, len(d.tracks))
	for _, t := range d.tracks {
		s := TrackSummary{Name: t.name, Spatial: make(map[interval.SpatialType]int)}
		for _, src := range d.sources {
			items := t.data[src.Key]
			if len(items) > 0 {
				s.Sources++
			}
			s.Intervals += len(items)
			for _, it := range items {
				s.Spatial[it.Payload.SpatialType()]++
			}
		}
		out = append(out, s)
	}
	return out
}
