package interval

import (
	"fmt"
	"strings"
)

// Reserved payload keys.
const (
	KeySpatialType = "spatial_type"
	KeyMetadata    = "metadata"
)

// SpatialType tells the renderer which primitive draws an interval.
type SpatialType uint8

const (
	SpatialNone SpatialType = iota
	SpatialPoint
	SpatialBbox
	SpatialKeypoints
	SpatialCaption
)

var spatialNames = [...]string{"none", "point", "bbox", "keypoints", "caption"}

func (s SpatialType) String() string {
	if int(s) >= len(spatialNames) {
		return "none"
	}
	return spatialNames[s]
}

// ParseSpatialType maps a tag onto the closed SpatialType set. "poly" and
// "polygon" are accepted for keypoints; an empty tag means none.
func ParseSpatialType(raw string) (SpatialType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "none":
		return SpatialNone, nil
	case "point":
		return SpatialPoint, nil
	case "bbox", "bounding_box", "boundingbox":
		return SpatialBbox, nil
	case "keypoints", "poly", "polygon":
		return SpatialKeypoints, nil
	case "caption":
		return SpatialCaption, nil
	}
	return SpatialNone, invalid(KeySpatialType, "unknown spatial type %q", raw)
}

// Payload is the annotation carried by an interval. It is immutable; the
// With* methods return modified copies.
type Payload struct {
	spatial  SpatialType
	metadata map[string]Value
	attrs    map[string]Value
}

// NewPayload builds a payload from an open mapping. spatial_type must hold a
// string naming a SpatialType and metadata must hold a map; every other key
// is kept as a caller-defined attribute.
func NewPayload(fields map[string]Value) (Payload, error) {
	var p Payload
	for key, value := range fields {
		switch key {
		case KeySpatialType:
			if value.IsNull() {
				continue
			}
			tag, ok := value.AsString()
			if !ok {
				return Payload{}, invalid(KeySpatialType, "expected string, got %s", value.Kind())
			}
			st, err := ParseSpatialType(tag)
			if err != nil {
				return Payload{}, err
			}
			p.spatial = st
		case KeyMetadata:
			if value.IsNull() {
				continue
			}
			meta, ok := value.AsMap()
			if !ok {
				return Payload{}, invalid(KeyMetadata, "expected map, got %s", value.Kind())
			}
			p.metadata = meta
		default:
			if p.attrs == nil {
				p.attrs = make(map[string]Value, len(fields))
			}
			p.attrs[key] = value
		}
	}
	return p, nil
}

// NewSpatialPayload builds a payload with only the reserved keys set.
func NewSpatialPayload(st SpatialType, metadata map[string]Value) Payload {
	p := Payload{spatial: st}
	if len(metadata) > 0 {
		p.metadata = Map(metadata).m
	}
	return p
}

func (p Payload) SpatialType() SpatialType { return p.spatial }

// Metadata returns a copy of the metadata mapping.
func (p Payload) Metadata() map[string]Value {
	out := make(map[string]Value, len(p.metadata))
	for k, v := range p.metadata {
		out[k] = v
	}
	return out
}

// Attr returns a caller-defined attribute.
func (p Payload) Attr(key string) (Value, bool) {
	v, ok := p.attrs[key]
	return v, ok
}

// AttrKeys returns the sorted caller-defined attribute keys.
func (p Payload) AttrKeys() []string {
	return sortedKeys(p.attrs)
}

// Fields returns the open-mapping view, reserved keys included.
func (p Payload) Fields() map[string]Value {
	out := make(map[string]Value, len(p.attrs)+2)
	for k, v := range p.attrs {
		out[k] = v
	}
	out[KeySpatialType] = String(p.spatial.String())
	out[KeyMetadata] = Map(p.metadata)
	return out
}

// WithAttr returns a copy with key set to value. Reserved keys are routed to
// their typed fields.
func (p Payload) WithAttr(key string, value Value) (Payload, error) {
	fields := p.Fields()
	fields[key] = value
	return NewPayload(fields)
}

// WithMetadata returns a copy with the metadata mapping replaced.
func (p Payload) WithMetadata(metadata map[string]Value) Payload {
	out := p
	out.metadata = nil
	if len(metadata) > 0 {
		out.metadata = Map(metadata).m
	}
	return out
}

// Equal is full structural equality of the reserved keys and every attribute.
func (p Payload) Equal(o Payload) bool {
	return p.spatial == o.spatial &&
		Map(p.metadata).Equal(Map(o.metadata)) &&
		Map(p.attrs).Equal(Map(o.attrs))
}

// Key is a canonical fingerprint; equal payloads share a key.
func (p Payload) Key() string {
	return Map(p.Fields()).Key()
}

// Interval is an extent paired with its annotation.
type Interval struct {
	Bounds  Bounds
	Payload Payload
}

// New pairs bounds with a payload.
func New(b Bounds, p Payload) Interval {
	return Interval{Bounds: b, Payload: p}
}

// Equal is structural equality of bounds and payload.
func (i Interval) Equal(o Interval) bool {
	return i.Bounds.Equal(o.Bounds) && i.Payload.Equal(o.Payload)
}

// IsZero reports the unset interval: unbounded with an empty payload.
func (i Interval) IsZero() bool {
	return i.Bounds.Equal(Bounds{}) && i.Payload.Equal(Payload{})
}

// WithBounds returns a copy with different bounds.
func (i Interval) WithBounds(b Bounds) Interval {
	return Interval{Bounds: b, Payload: i.Payload}
}

// WithPayload returns a copy with a different payload.
func (i Interval) WithPayload(p Payload) Interval {
	return Interval{Bounds: i.Bounds, Payload: p}
}

func (i Interval) String() string {
	return i.Bounds.String() + " " + i.Payload.spatial.String()
}

// MergePayloads combines two payloads symmetrically. Spatial types must match
// unless one side is none; metadata and attributes are unioned and a key set
// on both sides must hold equal values.
func MergePayloads(a, b Payload) (Payload, error) {
	out := Payload{spatial: a.spatial}
	switch {
	case a.spatial == b.spatial, b.spatial == SpatialNone:
	case a.spatial == SpatialNone:
		out.spatial = b.spatial
	default:
		return Payload{}, fmt.Errorf("incompatible spatial types %s and %s", a.spatial, b.spatial)
	}
	meta, err := unionValues(KeyMetadata, a.metadata, b.metadata)
	if err != nil {
		return Payload{}, err
	}
	attrs, err := unionValues("", a.attrs, b.attrs)
	if err != nil {
		return Payload{}, err
	}
	out.metadata, out.attrs = meta, attrs
	return out, nil
}

func unionValues(scope string, a, b map[string]Value) (map[string]Value, error) {
	if len(a) == 0 && len(b) == 0 {
		return nil, nil
	}
	out := make(map[string]Value, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		if existing, ok := out[k]; ok && !existing.Equal(v) {
			if scope != "" {
				k = scope + "." + k
			}
			return nil, fmt.Errorf("conflicting values for %q: %s vs %s", k, existing, v)
		}
		out[k] = v
	}
	return out, nil
}
