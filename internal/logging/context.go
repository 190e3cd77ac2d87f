package logging

import (
	"context"
	"log/slog"
)

type contextKey int

const (
	compileIDKey contextKey = iota
	trackKey
)

// WithCompileID stores the compile correlation ID on ctx.
func WithCompileID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, compileIDKey, id)
}

// CompileIDFromContext returns the compile ID stored by WithCompileID.
func CompileIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(compileIDKey).(string)
	return id, ok && id != ""
}

// WithTrack stores the track being processed on ctx.
func WithTrack(ctx context.Context, track string) context.Context {
	return context.WithValue(ctx, trackKey, track)
}

// TrackFromContext returns the track stored by WithTrack.
func TrackFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	track, ok := ctx.Value(trackKey).(string)
	return track, ok && track != ""
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	fields := make([]slog.Attr, 0, 2)
	if id, ok := CompileIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCompileID, id))
	}
	if track, ok := TrackFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldTrack, track))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
