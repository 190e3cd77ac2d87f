// Package encoding serializes a compiled vgridspec.Document into the compact
// versioned envelope consumed by the rendering client.
//
// The envelope is JSON:
//
//	{"format_version":1,"precision":4,"dictionary":[...],"sources":[...],"tracks":[...]}
//
// Strings that repeat across intervals (spatial type tags, payload keys,
// nested mapping keys and track names) are stored once in the dictionary and
// referenced by index. Bounds are six integers, each round(v*10^precision),
// or null for an absent axis. A quantized bound must fit in ±2^53, so the
// largest encodable magnitude shrinks as precision grows (MaxMagnitude);
// Encode fails with ErrRange beyond it. Dictionary entries appear in
// first-use order: track names, then per interval its spatial type and its
// payload keys depth-first in pre-order (sorted keys, each key before the
// keys nested under it). The same document always encodes to the same
// bytes. Compress adds optional gzip or zstd framing on top.
package encoding
