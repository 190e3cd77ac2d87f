// Package manifest reads compile requests from JSON, YAML or TOML files and
// resolves them into vgridspec sources and tracks.
//
// A manifest lists sources and tracks. A track either carries literal
// intervals under data, names a track saved in the annotation store, or is
// derived from two earlier tracks with a mapping operation (union,
// intersect, minus, join, filter_against). Tracks may then be sorted,
// coalesced or dilated before they are compiled.
package manifest
