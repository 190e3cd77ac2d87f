package vgridspec_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"

	"vgrid/internal/interval"
	"vgrid/internal/intervalset"
	"vgrid/internal/logging"
	"vgrid/internal/mapping"
	"vgrid/internal/testsupport"
	"vgrid/internal/vgridspec"
)

func TestCompileBoundingBoxExample(t *testing.T) {
	box := testsupport.BBox(t, 0, 10, 0.7, 0.9, 0.1, 0.8)
	sources := []vgridspec.Source{testsupport.Source(mapping.IntKey(0), "http://localhost:8000/test.mp4")}
	tracks := []vgridspec.Track{{Name: "bboxes", Mapping: mapping.Single(mapping.IntKey(0), intervalset.New(box))}}

	doc := testsupport.Compile(t, sources, tracks, vgridspec.WithCompileID("fixed"))
	if doc.ID() != "fixed" {
		t.Fatalf("unexpected compile id %q", doc.ID())
	}
	got := doc.Tracks()[0].Intervals(mapping.IntKey(0))
	if len(got) != 1 || !got[0].Equal(box) {
		t.Fatalf("unexpected intervals %v", got)
	}
	if len(doc.Warnings()) != 0 {
		t.Fatalf("unexpected warnings %v", doc.Warnings())
	}
}

func TestCompilePreservesOrderAndFillsAbsentKeys(t *testing.T) {
	late := testsupport.Caption(t, 5, 6, "late")
	early := testsupport.Caption(t, 0, 1, "early")
	sources := []vgridspec.Source{
		testsupport.Source(mapping.StringKey("b"), "b.mp4"),
		testsupport.Source(mapping.StringKey("a"), "a.mp4"),
	}
	tracks := []vgridspec.Track{
		{Name: "captions", Mapping: mapping.Single(mapping.StringKey("a"), intervalset.New(late, early))},
		{Name: "empty", Mapping: mapping.Mapping{}},
	}

	doc := testsupport.Compile(t, sources, tracks)
	if keys := doc.Sources(); keys[0].Key != mapping.StringKey("b") {
		t.Fatal("sources must keep caller order")
	}
	captions, ok := doc.Track("captions")
	if !ok {
		t.Fatal("missing captions track")
	}
	got := captions.Intervals(mapping.StringKey("a"))
	if len(got) != 2 || !got[0].Equal(late) || !got[1].Equal(early) {
		t.Fatalf("compiler must not sort, got %v", got)
	}
	if n := len(captions.Intervals(mapping.StringKey("b"))); n != 0 {
		t.Fatalf("absent key should be empty, got %d", n)
	}
	if doc.Tracks()[1].Count() != 0 {
		t.Fatal("empty track should have no intervals")
	}
}

func TestCompileDropsUnknownKeysWithWarning(t *testing.T) {
	sources := []vgridspec.Source{testsupport.Source(mapping.IntKey(1), "one.mp4")}
	m := mapping.New(map[mapping.Key]intervalset.Set{
		mapping.IntKey(1): intervalset.New(testsupport.BBox(t, 0, 1, 0, 1, 0, 1)),
		mapping.IntKey(7): intervalset.New(testsupport.BBox(t, 0, 1, 0, 1, 0, 1), testsupport.BBox(t, 2, 3, 0, 1, 0, 1)),
	})
	doc := testsupport.Compile(t, sources, []vgridspec.Track{{Name: "boxes", Mapping: m}})

	warnings := doc.Warnings()
	if len(warnings) != 1 {
		t.Fatalf("expected one warning, got %v", warnings)
	}
	w := warnings[0]
	if w.Track != "boxes" || w.Key != mapping.IntKey(7) || w.Intervals != 2 {
		t.Fatalf("unexpected warning %+v", w)
	}
	if !strings.Contains(w.String(), "key 7") {
		t.Fatalf("unexpected warning text %q", w.String())
	}
	if doc.Tracks()[0].Count() != 1 {
		t.Fatal("unknown key intervals must be dropped")
	}

	_, err := vgridspec.Compile(sources, []vgridspec.Track{{Name: "boxes", Mapping: m}}, vgridspec.WithStrictKeys(true))
	var verr *interval.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("strict keys should fail validation, got %v", err)
	}
}

func TestKeyWarningLogCarriesTrackAndCompileID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	sources := []vgridspec.Source{testsupport.Source(mapping.IntKey(1), "one.mp4")}
	stray := mapping.Single(mapping.IntKey(7), intervalset.New(testsupport.BBox(t, 0, 1, 0, 1, 0, 1)))
	tracks := []vgridspec.Track{
		{Name: "clean", Mapping: mapping.Single(mapping.IntKey(1), intervalset.New())},
		{Name: "stray", Mapping: stray},
	}
	if _, err := vgridspec.Compile(sources, tracks, vgridspec.WithLogger(logger), vgridspec.WithCompileID("c-1")); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one warning line, got %q", buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatal(err)
	}
	if entry[logging.FieldTrack] != "stray" || entry[logging.FieldCompileID] != "c-1" || entry[logging.FieldSourceKey] != "7" {
		t.Fatalf("unexpected warning fields: %v", entry)
	}
}

func TestCompileValidation(t *testing.T) {
	good := testsupport.Source(mapping.IntKey(0), "a.mp4")
	badFPS := good
	badFPS.FPS = math.NaN()
	badStart := good
	badStart.StartTime = math.Inf(1)

	tests := []struct {
		name    string
		sources []vgridspec.Source
		tracks  []vgridspec.Track
		field   string
	}{
		{"duplicate source", []vgridspec.Source{good, good}, nil, "sources"},
		{"nan fps", []vgridspec.Source{badFPS}, nil, "fps"},
		{"infinite start", []vgridspec.Source{badStart}, nil, "start_time"},
		{"empty track name", []vgridspec.Source{good}, []vgridspec.Track{{Name: "  "}}, "tracks[0].name"},
		{"duplicate track", []vgridspec.Source{good}, []vgridspec.Track{{Name: "a"}, {Name: " a"}}, "tracks[1].name"},
		{"duplicate after normalization", []vgridspec.Source{good}, []vgridspec.Track{{Name: "caf\u00e9"}, {Name: "cafe\u0301"}}, "tracks[1].name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := vgridspec.Compile(tt.sources, tt.tracks)
			var verr *interval.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if !strings.Contains(verr.Field, tt.field) {
				t.Fatalf("expected field %q, got %q", tt.field, verr.Field)
			}
			if verr.ErrorKind() != interval.KindValidation {
				t.Fatal("unexpected classification")
			}
		})
	}
}

func TestCompileCarriesIncompleteSourceMetadata(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	live := vgridspec.Source{Key: mapping.StringKey("live"), URI: "rtsp://cam", FPS: 30}

	doc, err := vgridspec.Compile([]vgridspec.Source{live}, nil, vgridspec.WithLogger(logger))
	if err != nil {
		t.Fatalf("incomplete metadata must not fail the compile: %v", err)
	}
	if got := doc.Sources()[0]; got != live {
		t.Fatalf("source changed: %+v", got)
	}
	if problems := live.Anomalies(); len(problems) != 2 {
		t.Fatalf("expected frame count and size anomalies, got %v", problems)
	}
	if strings.Count(buf.String(), `"event_type":"source_metadata"`) != 2 {
		t.Fatalf("expected two source warnings, got %s", buf.String())
	}
}

func TestSummary(t *testing.T) {
	sources := []vgridspec.Source{
		testsupport.Source(mapping.IntKey(0), "a.mp4"),
		testsupport.Source(mapping.IntKey(1), "b.mp4"),
	}
	m := mapping.Single(mapping.IntKey(1), intervalset.New(
		testsupport.BBox(t, 0, 1, 0, 1, 0, 1),
		testsupport.Caption(t, 0, 2, "hi"),
	))
	doc := testsupport.Compile(t, sources, []vgridspec.Track{{Name: "mixed", Mapping: m}})

	summary := doc.Summary()
	if len(summary) != 1 {
		t.Fatalf("expected one summary row, got %d", len(summary))
	}
	s := summary[0]
	if s.Name != "mixed" || s.Sources != 1 || s.Intervals != 2 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if s.Spatial[interval.SpatialBbox] != 1 || s.Spatial[interval.SpatialCaption] != 1 {
		t.Fatalf("unexpected spatial counts %v", s.Spatial)
	}
	if d := sources[0].Duration(); d < 345 || d > 346 {
		t.Fatalf("unexpected duration %v", d)
	}
}

func TestDocumentAccessorsCopy(t *testing.T) {
	box := testsupport.BBox(t, 0, 1, 0, 1, 0, 1)
	sources := []vgridspec.Source{testsupport.Source(mapping.IntKey(0), "a.mp4")}
	doc := testsupport.Compile(t, sources, []vgridspec.Track{{Name: "b", Mapping: mapping.Single(mapping.IntKey(0), intervalset.New(box))}})

	doc.Sources()[0].URI = "mutated"
	if doc.Sources()[0].URI != "a.mp4" {
		t.Fatal("Sources must return a copy")
	}
	items := doc.Tracks()[0].Intervals(mapping.IntKey(0))
	items[0] = interval.Interval{}
	if !doc.Tracks()[0].Intervals(mapping.IntKey(0))[0].Equal(box) {
		t.Fatal("Intervals must return a copy")
	}
}
