// Package vgridspec compiles named interval tracks and source metadata into
// an immutable Document ready for encoding.
//
// For every source, in the order supplied, and every track, in the order
// supplied, the compiler copies the intervals stored under the source key.
// A key absent from a track yields an empty list. Interval order is the
// order of the track's set; the compiler never sorts. Track keys that name
// no source are dropped and reported as KeyConsistencyWarning values unless
// strict key checking is requested, in which case they fail the compile.
//
// Source metadata beyond the key is carried through as given. Incomplete
// values such as an unknown frame count are logged, not rejected.
package vgridspec
