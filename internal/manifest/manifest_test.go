package manifest_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"vgrid/internal/interval"
	"vgrid/internal/intervalset"
	"vgrid/internal/manifest"
	"vgrid/internal/mapping"
	"vgrid/internal/testsupport"
)

const jsonManifest = `{
  "sources": [
    {"key": 0, "uri": "http://localhost:8000/test.mp4", "fps": 59.94, "num_frames": 20696, "width": 1920, "height": 1080}
  ],
  "tracks": [
    {"name": "bboxes", "data": {"0": [
      {"bounds": [0, 10, 0.7, 0.9, 0.1, 0.8], "payload": {"spatial_type": "bbox", "metadata": {}}}
    ]}}
  ]
}`

const yamlManifest = `
sources:
  - key: 0
    uri: http://localhost:8000/test.mp4
    fps: 59.94
    num_frames: 20696
    width: 1920
    height: 1080
tracks:
  - name: bboxes
    data:
      0:
        - bounds: [0, 10, 0.7, 0.9, 0.1, 0.8]
          payload:
            spatial_type: bbox
            metadata: {}
`

const tomlManifest = `
[[sources]]
key = 0
uri = "http://localhost:8000/test.mp4"
fps = 59.94
num_frames = 20696
width = 1920
height = 1080

[[tracks]]
name = "bboxes"

[[tracks.data."0"]]
t = [0.0, 10.0]
x = [0.7, 0.9]
y = [0.1, 0.8]
payload = { spatial_type = "bbox", metadata = {} }
`

func TestLoadAllFormatsAgree(t *testing.T) {
	dir := t.TempDir()
	want := testsupport.BBox(t, 0, 10, 0.7, 0.9, 0.1, 0.8)
	files := map[string]string{
		"example.json": jsonManifest,
		"example.yaml": yamlManifest,
		"example.toml": tomlManifest,
	}
	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			m, err := manifest.Load(testsupport.WriteFile(t, dir, name, content))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			sources, tracks, err := manifest.Resolve(context.Background(), m)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if len(sources) != 1 || sources[0].Key != mapping.IntKey(0) || sources[0].FrameCount != 20696 {
				t.Fatalf("unexpected sources %+v", sources)
			}
			if len(tracks) != 1 || tracks[0].Name != "bboxes" {
				t.Fatalf("unexpected tracks %+v", tracks)
			}
			set, ok := tracks[0].Mapping.Get(mapping.IntKey(0))
			if !ok || set.Len() != 1 || !set.At(0).Equal(want) {
				t.Fatalf("unexpected intervals %v", set.Intervals())
			}
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	if f, _ := manifest.FormatFromPath("a/b.YML"); f != manifest.FormatYAML {
		t.Fatalf("unexpected format %q", f)
	}
	if _, err := manifest.FormatFromPath("a.xml"); !errors.Is(err, manifest.ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	for _, format := range []manifest.Format{manifest.FormatJSON, manifest.FormatYAML} {
		doc := `{"sources": [], "trakcs": []}`
		_, err := manifest.Parse([]byte(doc), format)
		var perr *manifest.ParseError
		if !errors.As(err, &perr) || perr.Format != format || perr.ErrorKind() != "validation" {
			t.Fatalf("%s: expected ParseError, got %v", format, err)
		}
	}
}

func TestStringKeysMatchSources(t *testing.T) {
	doc := `{
  "sources": [{"key": "7", "uri": "s.mp4", "fps": 25, "num_frames": 10, "width": 2, "height": 2}],
  "tracks": [{"name": "c", "data": {"7": [{"t": [0, 1], "payload": {"spatial_type": "caption", "metadata": {"text": "hi"}}}]}}]
}`
	m, err := manifest.Parse([]byte(doc), manifest.FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	sources, tracks, err := manifest.Resolve(context.Background(), m)
	if err != nil {
		t.Fatal(err)
	}
	if sources[0].Key != mapping.StringKey("7") {
		t.Fatalf("string key must stay a string, got %v", sources[0].Key)
	}
	if !tracks[0].Mapping.Has(mapping.StringKey("7")) {
		t.Fatalf("data key should resolve to the source key, got %v", tracks[0].Mapping.Keys())
	}
}

func TestDerivedTracks(t *testing.T) {
	doc := `
sources:
  - {key: 1, uri: a.mp4, fps: 30, num_frames: 300, width: 640, height: 480}
tracks:
  - name: faces
    data:
      1:
        - {t: [0, 5]}
        - {t: [20, 25]}
  - name: speech
    data:
      1:
        - {t: [3, 8]}
  - name: talking faces
    derive: {op: join, left: faces, right: speech}
  - name: silent faces
    derive: {op: minus, left: faces, right: speech}
  - name: all
    derive: {op: union, left: faces, right: speech}
    sort: true
    coalesce: true
  - name: before speech
    derive: {op: filter_against, left: faces, right: speech, predicate: before}
`
	m, err := manifest.Parse([]byte(doc), manifest.FormatYAML)
	if err != nil {
		t.Fatal(err)
	}
	_, tracks, err := manifest.Resolve(context.Background(), m, manifest.WithMappingOptions(mapping.WithWorkers(2)))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	get := func(i int) intervalset.Set {
		s, _ := tracks[i].Mapping.Get(mapping.IntKey(1))
		return s
	}
	if s := get(2); s.Len() != 1 || s.At(0).Bounds.T() != interval.Span(0, 8) {
		t.Fatalf("unexpected join %v", s.Intervals())
	}
	if s := get(3); s.Len() != 1 || s.At(0).Bounds.T().Lo != 20 {
		t.Fatalf("unexpected minus %v", s.Intervals())
	}
	if s := get(4); s.Len() != 2 || s.At(0).Bounds.T() != interval.Span(0, 8) {
		t.Fatalf("unexpected coalesced union %v", s.Intervals())
	}
	if s := get(5); s.Len() != 0 {
		t.Fatalf("faces [0,5] overlaps speech so nothing is strictly before it, got %v", s.Intervals())
	}
}

type fakeStore map[string]mapping.Mapping

func (f fakeStore) LoadTrack(_ context.Context, name string) (mapping.Mapping, error) {
	m, ok := f[name]
	if !ok {
		return mapping.Mapping{}, errors.New("not found")
	}
	return m, nil
}

func TestStoreTracks(t *testing.T) {
	doc := `{"sources": [{"key": 0, "uri": "a", "fps": 1, "num_frames": 1, "width": 1, "height": 1}],
	"tracks": [{"name": "saved", "store": "objects"}]}`
	m, err := manifest.Parse([]byte(doc), manifest.FormatJSON)
	if err != nil {
		t.Fatal(err)
	}

	var verr *interval.ValidationError
	if _, _, err := manifest.Resolve(context.Background(), m); !errors.As(err, &verr) {
		t.Fatalf("expected validation error without a store, got %v", err)
	}

	saved := mapping.Single(mapping.IntKey(0), intervalset.New(testsupport.BBox(t, 0, 1, 0, 1, 0, 1)))
	_, tracks, err := manifest.Resolve(context.Background(), m, manifest.WithStore(fakeStore{"objects": saved}))
	if err != nil {
		t.Fatal(err)
	}
	if !tracks[0].Mapping.Equal(saved) {
		t.Fatal("expected stored mapping")
	}

	missing := fakeStore{}
	if _, _, err := manifest.Resolve(context.Background(), m, manifest.WithStore(missing)); err == nil || !strings.Contains(err.Error(), "tracks[0].store") {
		t.Fatalf("expected store failure with location, got %v", err)
	}
}

func TestResolveValidation(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		field string
	}{
		{"fractional key", `{"sources": [{"key": 1.5}]}`, "sources[0].key"},
		{"missing key", `{"sources": [{"uri": "x"}]}`, "sources[0].key"},
		{"short bounds", `{"tracks": [{"name": "a", "data": {"0": [{"bounds": [0, 1]}]}}]}`, "bounds"},
		{"mixed bounds", `{"tracks": [{"name": "a", "data": {"0": [{"bounds": [0, 1, null, null, null, null], "t": [0, 1]}]}}]}`, "bounds"},
		{"inverted axis", `{"tracks": [{"name": "a", "data": {"0": [{"t": [5, 1]}]}}]}`, `tracks[0].data["0"][0]`},
		{"bad spatial type", `{"tracks": [{"name": "a", "data": {"0": [{"t": [0, 1], "payload": {"spatial_type": "blob"}}]}}]}`, "payload"},
		{"unknown derive input", `{"tracks": [{"name": "a", "derive": {"op": "union", "left": "x", "right": "y"}}]}`, "derive.left"},
		{"unknown op", `{"tracks": [{"name": "a", "data": {}}, {"name": "b", "derive": {"op": "xor", "left": "a", "right": "a"}}]}`, "derive.op"},
		{"unknown predicate", `{"tracks": [{"name": "a", "data": {}}, {"name": "b", "derive": {"op": "join", "left": "a", "right": "a", "predicate": "near"}}]}`, "derive.predicate"},
		{"exclusive sources", `{"tracks": [{"name": "a", "data": {}, "store": "x"}]}`, "tracks[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := manifest.Parse([]byte(tt.doc), manifest.FormatJSON)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			_, _, err = manifest.Resolve(context.Background(), m)
			var verr *interval.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if !strings.Contains(verr.Field, tt.field) {
				t.Fatalf("expected field containing %q, got %q", tt.field, verr.Field)
			}
		})
	}
}
