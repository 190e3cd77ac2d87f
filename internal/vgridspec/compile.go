package vgridspec

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"vgrid/internal/interval"
	"vgrid/internal/logging"
	"vgrid/internal/mapping"
	"vgrid/internal/textutil"
)

// Option configures Compile.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	strictKeys bool
	compileID  string
}

// WithLogger routes compile diagnostics, including key consistency warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithStrictKeys turns unknown track keys into a validation failure instead
// of a warning.
func WithStrictKeys(strict bool) Option {
	return func(o *options) { o.strictKeys = strict }
}

// WithCompileID fixes the correlation ID instead of generating one.
func WithCompileID(id string) Option {
	return func(o *options) { o.compileID = id }
}

// Compile assembles a Document from sources and tracks. Duplicate source
// keys, invalid sources, and empty or duplicate track names are reported as
// *interval.ValidationError.
func Compile(sources []Source, tracks []Track, opts ...Option) (*Document, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.compileID == "" {
		o.compileID = uuid.NewString()
	}
	ctx := logging.WithCompileID(context.Background(), o.compileID)
	base := logging.NewComponentLogger(o.logger, "compile")
	logger := logging.WithContext(ctx, base)

	known := make(map[mapping.Key]struct{}, len(sources))
	for _, src := range sources {
		if _, dup := known[src.Key]; dup {
			return nil, &interval.ValidationError{Field: "sources", Reason: fmt.Sprintf("duplicate source key %s", src.Key)}
		}
		if err := src.Validate(); err != nil {
			return nil, err
		}
		for _, problem := range src.Anomalies() {
			logging.WarnWithContext(logger, "source metadata incomplete", "source_metadata",
				logging.String(logging.FieldSourceKey, src.Key.String()),
				logging.String("problem", problem),
				logging.String(logging.FieldImpact, "metadata carried into the document unchanged"),
				logging.String(logging.FieldErrorHint, "check the source fps, frame count and size"))
		}
		known[src.Key] = struct{}{}
	}

	names := make(map[string]struct{}, len(tracks))
	doc := &Document{
		id:      o.compileID,
		sources: append([]Source(nil), sources...),
		tracks:  make([]TrackData, 0, len(tracks)),
	}
	for idx, tr := range tracks {
		name := textutil.Canonical(tr.Name)
		if name == "" {
			return nil, &interval.ValidationError{Field: fmt.Sprintf("tracks[%d].name", idx), Reason: "must not be empty"}
		}
		if _, dup := names[name]; dup {
			return nil, &interval.ValidationError{Field: fmt.Sprintf("tracks[%d].name", idx), Reason: fmt.Sprintf("duplicate track %q", name)}
		}
		names[name] = struct{}{}
		trackLogger := logging.WithContext(logging.WithTrack(ctx, name), base)

		td := TrackData{name: name, data: make(map[mapping.Key][]interval.Interval, len(sources))}
		for _, src := range sources {
			set, ok := tr.Mapping.Get(src.Key)
			if !ok {
				td.data[src.Key] = nil
				continue
			}
			td.data[src.Key] = set.Intervals()
		}

		for _, key := range tr.Mapping.Keys() {
			if _, ok := known[key]; ok {
				continue
			}
			set, _ := tr.Mapping.Get(key)
			w := KeyConsistencyWarning{Track: name, Key: key, Intervals: set.Len()}
			if o.strictKeys {
				return nil, &interval.ValidationError{Field: fmt.Sprintf("tracks[%d]", idx), Reason: w.String()}
			}
			doc.warnings = append(doc.warnings, w)
			logging.WarnWithContext(trackLogger, "track key names no source", "key_consistency",
				logging.String(logging.FieldSourceKey, key.String()),
				logging.Int("intervals", set.Len()),
				logging.String(logging.FieldImpact, "intervals dropped from the document"),
				logging.String(logging.FieldErrorHint, "add the source or fix the track key"))
		}
		doc.tracks = append(doc.tracks, td)
	}

	total := 0
	for _, td := range doc.tracks {
		total += td.Count()
	}
	logger.Info("document compiled",
		logging.Int("sources", len(doc.sources)),
		logging.Int("tracks", len(doc.tracks)),
		logging.Int("intervals", total),
		logging.Int("warnings", len(doc.warnings)))
	return doc, nil
}
