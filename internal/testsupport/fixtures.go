package testsupport

import (
	"testing"

	"vgrid/internal/interval"
	"vgrid/internal/mapping"
	"vgrid/internal/vgridspec"
)

// Bounds builds fully bounded 3D bounds or fails the test.
func Bounds(t testing.TB, t1, t2, x1, x2, y1, y2 float64) interval.Bounds {
	t.Helper()
	b, err := interval.NewBounds3D(t1, t2, x1, x2, y1, y2)
	if err != nil {
		t.Fatalf("bounds: %v", err)
	}
	return b
}

// BBox builds a bounding-box interval with empty metadata.
func BBox(t testing.TB, t1, t2, x1, x2, y1, y2 float64) interval.Interval {
	t.Helper()
	return interval.New(Bounds(t, t1, t2, x1, x2, y1, y2), interval.NewSpatialPayload(interval.SpatialBbox, nil))
}

// Caption builds a temporal caption interval carrying text in its metadata.
func Caption(t testing.TB, t1, t2 float64, text string) interval.Interval {
	t.Helper()
	b, err := interval.TemporalBounds(t1, t2)
	if err != nil {
		t.Fatalf("bounds: %v", err)
	}
	return interval.New(b, interval.NewSpatialPayload(interval.SpatialCaption, map[string]interval.Value{
		"text": interval.String(text),
	}))
}

// Source builds a 1920x1080 source at 59.94 fps with 20696 frames.
func Source(key mapping.Key, uri string) vgridspec.Source {
	return vgridspec.Source{
		Key:        key,
		URI:        uri,
		FPS:        59.94,
		FrameCount: 20696,
		Width:      1920,
		Height:     1080,
	}
}

// Compile compiles sources and tracks or fails the test.
func Compile(t testing.TB, sources []vgridspec.Source, tracks []vgridspec.Track, opts ...vgridspec.Option) *vgridspec.Document {
	t.Helper()
	doc, err := vgridspec.Compile(sources, tracks, opts...)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return doc
}
