package encoding

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"vgrid/internal/interval"
	"vgrid/internal/logging"
	"vgrid/internal/mapping"
	"vgrid/internal/vgridspec"
)

// FormatVersion identifies the envelope layout written by Encode.
const FormatVersion = 1

// ErrKeyCollision reports two distinct source keys with the same text form,
// such as the integer 7 and the string "7".
var ErrKeyCollision = errors.New("source keys collide in encoded form")

// Envelope is the top-level encoded document.
type Envelope struct {
	FormatVersion int      `json:"format_version"`
	Precision     int      `json:"precision"`
	Dictionary    []string `json:"dictionary"`
	Sources       []Source `json:"sources"`
	Tracks        []Track  `json:"tracks"`
}

// Source is the encoded form of vgridspec.Source. ID is an integer for
// integer keys and a string otherwise.
type Source struct {
	ID        any     `json:"id"`
	URI       string  `json:"uri"`
	StartTime float64 `json:"start_time"`
	FPS       float64 `json:"fps"`
	NumFrames int     `json:"num_frames"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
}

// Track holds one track's intervals keyed by the text form of the source key.
// Sources without intervals are omitted.
type Track struct {
	Name int                   `json:"name"`
	Data map[string][]Interval `json:"data"`
}

// Interval is one encoded interval. Payload keys are dictionary indices.
type Interval struct {
	Bounds      [6]*int64      `json:"bounds"`
	SpatialType int            `json:"spatial_type"`
	Payload     map[string]any `json:"payload"`
}

// Option configures Encode.
type Option func(*options)

type options struct {
	precision int
	logger    *slog.Logger
}

// WithPrecision sets the number of decimal digits kept for bounds.
func WithPrecision(p int) Option {
	return func(o *options) { o.precision = p }
}

// WithLogger routes encoder diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// Encode serializes doc deterministically.
func Encode(doc *vgridspec.Document, opts ...Option) ([]byte, error) {
	env, err := Build(doc, opts...)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(env); err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Build assembles the envelope without serializing it.
func Build(doc *vgridspec.Document, opts ...Option) (Envelope, error) {
	o := options{precision: DefaultPrecision}
	for _, opt := range opts {
		opt(&o)
	}
	if o.precision < 0 || o.precision > MaxPrecision {
		return Envelope{}, fmt.Errorf("precision %d outside 0..%d: %w", o.precision, MaxPrecision, ErrRange)
	}
	if doc == nil {
		return Envelope{}, errors.New("encode: nil document")
	}
	logger := logging.NewComponentLogger(o.logger, "encoding")

	dict := newDictionary()
	env := Envelope{FormatVersion: FormatVersion, Precision: o.precision}

	sources := doc.Sources()
	seen := make(map[string]mapping.Key, len(sources))
	env.Sources = make([]Source, 0, len(sources))
	for _, src := range sources {
		text := src.Key.String()
		if prev, dup := seen[text]; dup {
			return Envelope{}, fmt.Errorf("%w: %q (%s and %s keys)", ErrKeyCollision, text, keyKind(prev), keyKind(src.Key))
		}
		seen[text] = src.Key
		env.Sources = append(env.Sources, encodeSource(src))
	}

	tracks := doc.Tracks()
	for _, td := range tracks {
		dict.ref(td.Name())
	}
	env.Tracks = make([]Track, 0, len(tracks))
	for _, td := range tracks {
		et := Track{Name: dict.ref(td.Name()), Data: make(map[string][]Interval)}
		for _, src := range sources {
			items := td.Intervals(src.Key)
			if len(items) == 0 {
				continue
			}
			encoded := make([]Interval, 0, len(items))
			for _, it := range items {
				ei, err := encodeInterval(it, o.precision, dict)
				if err != nil {
					return Envelope{}, fmt.Errorf("track %q source %s: %w", td.Name(), src.Key, err)
				}
				encoded = append(encoded, ei)
			}
			et.Data[src.Key.String()] = encoded
		}
		env.Tracks = append(env.Tracks, et)
	}
	env.Dictionary = dict.list()

	logger.Debug("document encoded",
		logging.String(logging.FieldCompileID, doc.ID()),
		logging.Int("dictionary", len(env.Dictionary)),
		logging.Int("tracks", len(env.Tracks)),
		logging.Int("precision", o.precision))
	return env, nil
}

func keyKind(k mapping.Key) string {
	if k.IsString() {
		return "string"
	}
	return "integer"
}

func encodeSource(src vgridspec.Source) Source {
	var id any = src.Key.String()
	if n, ok := src.Key.Int(); ok {
		id = n
	}
	return Source{
		ID:        id,
		URI:       src.URI,
		StartTime: src.StartTime,
		FPS:       src.FPS,
		NumFrames: src.FrameCount,
		Width:     src.Width,
		Height:    src.Height,
	}
}

func encodeInterval(it interval.Interval, precision int, dict *dictionary) (Interval, error) {
	var out Interval
	for i, v := range it.Bounds.Optional() {
		if v == nil {
			continue
		}
		q, err := Quantize(*v, precision)
		if err != nil {
			return Interval{}, fmt.Errorf("bounds %s: %w (limit at precision %d is ±%g; lower the precision or rebase the axis)",
				it.Bounds, err, precision, MaxMagnitude(precision))
		}
		out.Bounds[i] = &q
	}
	out.SpatialType = dict.ref(it.Payload.SpatialType().String())

	fields := it.Payload.Fields()
	delete(fields, interval.KeySpatialType)
	payload, err := encodeMap(fields, dict)
	if err != nil {
		return Interval{}, err
	}
	out.Payload = payload
	return out, nil
}

// encodeMap interns keys depth-first in pre-order: keys of one map in sorted
// order, each key before the keys nested under its value. Dictionary indices
// therefore depend only on the document.
func encodeMap(m map[string]interval.Value, dict *dictionary) (map[string]any, error) {
	v := interval.Map(m)
	out := make(map[string]any, v.Len())
	for _, key := range v.Keys() {
		ref := dict.ref(key)
		idx := strconv.Itoa(ref)
		if _, dup := out[idx]; dup {
			return nil, fmt.Errorf("payload keys normalize to the same entry %q", dict.entries[ref])
		}
		item, _ := v.Get(key)
		enc, err := encodeValue(item, dict)
		if err != nil {
			return nil, fmt.Errorf("payload key %q: %w", key, err)
		}
		out[idx] = enc
	}
	return out, nil
}

func encodeValue(v interval.Value, dict *dictionary) (any, error) {
	switch v.Kind() {
	case interval.KindMap:
		m, _ := v.AsMap()
		return encodeMap(m, dict)
	case interval.KindList:
		items, _ := v.AsList()
		out := make([]any, len(items))
		for i, item := range items {
			enc, err := encodeValue(item, dict)
			if err != nil {
				return nil, err
			}
			out[i] = enc
		}
		return out, nil
	case interval.KindNumber:
		n, _ := v.AsNumber()
		if _, err := v.MarshalJSON(); err != nil {
			return nil, err
		}
		return n, nil
	default:
		return v.Interface(), nil
	}
}
