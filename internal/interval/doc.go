// Package interval defines the bounded-region data model shared by every
// other vgrid package.
//
// A Bounds is an immutable extent over three axes: time (T) and the two
// spatial axes (X, Y). Each axis is optional; an absent axis is unbounded and
// always overlaps. An Interval pairs a Bounds with a Payload, an open mapping
// of typed Values with two reserved keys: spatial_type (a closed SpatialType
// enum the renderer uses to pick a drawing primitive) and metadata (passed
// through opaquely).
//
// # Key Types
//
// Bounds, Range: the extent model and its per-axis pairs.
// Value: a tagged variant (null, number, string, bool, map, list).
// Payload: the annotation attached to an interval.
// Interval: Bounds + Payload, compared structurally.
//
// # Predicates
//
// Overlaps, Contains and Merge implement the closed-interval algebra used by
// joins and coalescing. Before, After, Meets, During, Starts, Finishes and
// Equals relate intervals on the temporal axis; LeftOf and Above on the
// spatial axes.
//
// # Errors
//
// Construction failures return *ValidationError and never yield a partially
// built value. Failed payload merges during algebraic operations surface as
// *PayloadError carrying the offending pair.
package interval
