package manifest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"vgrid/internal/interval"
	"vgrid/internal/intervalset"
	"vgrid/internal/mapping"
	"vgrid/internal/textutil"
	"vgrid/internal/vgridspec"
)

// TrackLoader supplies tracks referenced by name, such as the annotation
// store.
type TrackLoader interface {
	LoadTrack(ctx context.Context, name string) (mapping.Mapping, error)
}

// Option configures Resolve.
type Option func(*resolver)

// WithStore resolves store references through loader.
func WithStore(loader TrackLoader) Option {
	return func(r *resolver) { r.store = loader }
}

// WithMappingOptions forwards options to every mapping operation.
func WithMappingOptions(opts ...mapping.Option) Option {
	return func(r *resolver) { r.mapping = append(r.mapping, opts...) }
}

type resolver struct {
	store   TrackLoader
	mapping []mapping.Option
	byText  map[string]mapping.Key
	tracks  map[string]mapping.Mapping
}

var predicates = map[string]interval.Predicate{
	"overlaps": interval.Overlaps,
	"contains": interval.Contains,
	"before":   interval.Before,
	"after":    interval.After,
	"meets":    interval.Meets,
	"during":   interval.During,
	"starts":   interval.Starts,
	"finishes": interval.Finishes,
	"equals":   interval.Equals,
	"left_of":  interval.LeftOf,
	"above":    interval.Above,
}

// Resolve converts a manifest into compiler input. Tracks are resolved in
// order so a derived track may only reference tracks listed before it.
func Resolve(ctx context.Context, m *Manifest, opts ...Option) ([]vgridspec.Source, []vgridspec.Track, error) {
	r := &resolver{byText: make(map[string]mapping.Key), tracks: make(map[string]mapping.Mapping)}
	for _, opt := range opts {
		opt(r)
	}

	sources := make([]vgridspec.Source, 0, len(m.Sources))
	for idx, spec := range m.Sources {
		key, err := keyFromAny(spec.Key)
		if err != nil {
			return nil, nil, &interval.ValidationError{Field: fmt.Sprintf("sources[%d].key", idx), Reason: err.Error()}
		}
		r.byText[key.String()] = key
		sources = append(sources, vgridspec.Source{
			Key:        key,
			URI:        spec.URI,
			StartTime:  spec.StartTime,
			FPS:        spec.FPS,
			FrameCount: spec.NumFrames,
			Width:      spec.Width,
			Height:     spec.Height,
		})
	}

	tracks := make([]vgridspec.Track, 0, len(m.Tracks))
	for idx, spec := range m.Tracks {
		field := fmt.Sprintf("tracks[%d]", idx)
		mp, err := r.track(ctx, field, spec)
		if err != nil {
			return nil, nil, err
		}
		if mp, err = r.postprocess(field, spec, mp); err != nil {
			return nil, nil, err
		}
		r.tracks[textutil.Canonical(spec.Name)] = mp
		tracks = append(tracks, vgridspec.Track{Name: spec.Name, Mapping: mp})
	}
	return sources, tracks, nil
}

func (r *resolver) track(ctx context.Context, field string, spec TrackSpec) (mapping.Mapping, error) {
	provided := 0
	if spec.Data != nil {
		provided++
	}
	if strings.TrimSpace(spec.Store) != "" {
		provided++
	}
	if spec.Derive != nil {
		provided++
	}
	if provided > 1 {
		return mapping.Mapping{}, &interval.ValidationError{Field: field, Reason: "data, store and derive are mutually exclusive"}
	}

	switch {
	case strings.TrimSpace(spec.Store) != "":
		if r.store == nil {
			return mapping.Mapping{}, &interval.ValidationError{Field: field + ".store", Reason: "no annotation store configured"}
		}
		mp, err := r.store.LoadTrack(ctx, strings.TrimSpace(spec.Store))
		if err != nil {
			return mapping.Mapping{}, fmt.Errorf("%s.store: %w", field, err)
		}
		return mp, nil
	case spec.Derive != nil:
		return r.derive(field+".derive", *spec.Derive)
	default:
		return r.literal(field+".data", spec.Data)
	}
}

func (r *resolver) literal(field string, data map[string][]IntervalSpec) (mapping.Mapping, error) {
	sets := make(map[mapping.Key]intervalset.Set, len(data))
	for text, specs := range data {
		key, ok := r.byText[text]
		if !ok {
			key = mapping.ParseKey(text)
		}
		items := make([]interval.Interval, 0, len(specs))
		for i, spec := range specs {
			it, err := spec.interval()
			if err != nil {
				return mapping.Mapping{}, prefixed(fmt.Sprintf("%s[%q][%d]", field, text, i), err)
			}
			items = append(items, it)
		}
		sets[key] = intervalset.New(items...)
	}
	return mapping.New(sets), nil
}

func (r *resolver) derive(field string, spec DeriveSpec) (mapping.Mapping, error) {
	left, ok := r.tracks[textutil.Canonical(spec.Left)]
	if !ok {
		return mapping.Mapping{}, &interval.ValidationError{Field: field + ".left", Reason: fmt.Sprintf("unknown track %q", spec.Left)}
	}
	right, ok := r.tracks[textutil.Canonical(spec.Right)]
	if !ok {
		return mapping.Mapping{}, &interval.ValidationError{Field: field + ".right", Reason: fmt.Sprintf("unknown track %q", spec.Right)}
	}
	pred := interval.Overlaps
	if name := strings.ToLower(strings.TrimSpace(spec.Predicate)); name != "" {
		p, ok := predicates[name]
		if !ok {
			return mapping.Mapping{}, &interval.ValidationError{Field: field + ".predicate", Reason: fmt.Sprintf("unknown predicate %q", spec.Predicate)}
		}
		pred = p
	}

	switch strings.ToLower(strings.TrimSpace(spec.Op)) {
	case "union":
		return mapping.Union(left, right, r.mapping...), nil
	case "intersect":
		return mapping.Intersect(left, right, r.mapping...)
	case "minus":
		return mapping.Minus(left, right, r.mapping...), nil
	case "join":
		return mapping.Join(left, right, pred, intervalset.MergeSpan, r.mapping...)
	case "filter_against":
		return mapping.FilterAgainst(left, right, pred, r.mapping...), nil
	default:
		return mapping.Mapping{}, &interval.ValidationError{Field: field + ".op", Reason: fmt.Sprintf("unknown operation %q", spec.Op)}
	}
}

func (r *resolver) postprocess(field string, spec TrackSpec, mp mapping.Mapping) (mapping.Mapping, error) {
	var err error
	if spec.Dilate != 0 {
		if math.IsNaN(spec.Dilate) || math.IsInf(spec.Dilate, 0) {
			return mapping.Mapping{}, &interval.ValidationError{Field: field + ".dilate", Reason: "must be finite"}
		}
		mp = mapping.Dilate(mp, spec.Dilate, r.mapping...)
	}
	if spec.Coalesce {
		if mp, err = mapping.Coalesce(mp, r.mapping...); err != nil {
			return mapping.Mapping{}, fmt.Errorf("%s.coalesce: %w", field, err)
		}
	}
	if spec.Sort {
		mp = mapping.Sorted(mp, r.mapping...)
	}
	return mp, nil
}

func (s IntervalSpec) interval() (interval.Interval, error) {
	bounds, err := s.bounds()
	if err != nil {
		return interval.Interval{}, err
	}
	payload := interval.Payload{}
	if s.Payload != nil {
		raw, err := interval.ValueOf(s.Payload)
		if err != nil {
			return interval.Interval{}, prefixed("payload", err)
		}
		fields, _ := raw.AsMap()
		if payload, err = interval.NewPayload(fields); err != nil {
			return interval.Interval{}, prefixed("payload", err)
		}
	}
	return interval.New(bounds, payload), nil
}

func (s IntervalSpec) bounds() (interval.Bounds, error) {
	perAxis := s.T != nil || s.X != nil || s.Y != nil
	if s.Bounds != nil {
		if perAxis {
			return interval.Bounds{}, &interval.ValidationError{Field: "bounds", Reason: "use either bounds or t/x/y"}
		}
		if len(s.Bounds) != 6 {
			return interval.Bounds{}, &interval.ValidationError{Field: "bounds", Reason: fmt.Sprintf("expected 6 entries, got %d", len(s.Bounds))}
		}
		return interval.FromOptional([6]*float64(s.Bounds))
	}
	var ranges [3]interval.Range
	for i, pair := range [3][]float64{s.T, s.X, s.Y} {
		switch len(pair) {
		case 0:
		case 2:
			ranges[i] = interval.Span(pair[0], pair[1])
		default:
			return interval.Bounds{}, &interval.ValidationError{Field: interval.Axes[i].String(), Reason: fmt.Sprintf("expected 2 entries, got %d", len(pair))}
		}
	}
	return interval.NewBounds(ranges[0], ranges[1], ranges[2])
}

func keyFromAny(raw any) (mapping.Key, error) {
	switch v := raw.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return mapping.Key{}, errors.New("must not be empty")
		}
		return mapping.StringKey(v), nil
	case int:
		return mapping.IntKey(int64(v)), nil
	case int64:
		return mapping.IntKey(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return mapping.Key{}, fmt.Errorf("integer %d out of range", v)
		}
		return mapping.IntKey(int64(v)), nil
	case float64:
		if v != math.Trunc(v) || math.Abs(v) > 1<<53 {
			return mapping.Key{}, fmt.Errorf("numeric key %v must be an integer", v)
		}
		return mapping.IntKey(int64(v)), nil
	case nil:
		return mapping.Key{}, errors.New("is required")
	default:
		return mapping.Key{}, fmt.Errorf("unsupported key type %T", raw)
	}
}

// prefixed qualifies the field of a validation error with its location and
// wraps anything else.
func prefixed(field string, err error) error {
	var verr *interval.ValidationError
	if errors.As(err, &verr) {
		out := *verr
		if out.Field == "" {
			out.Field = field
		} else {
			out.Field = field + "." + out.Field
		}
		return &out
	}
	return fmt.Errorf("%s: %w", field, err)
}
