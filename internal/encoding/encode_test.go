package encoding_test

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"vgrid/internal/encoding"
	"vgrid/internal/interval"
	"vgrid/internal/intervalset"
	"vgrid/internal/mapping"
	"vgrid/internal/testsupport"
	"vgrid/internal/vgridspec"
)

func boundingBoxDocument(t *testing.T) *vgridspec.Document {
	t.Helper()
	box := testsupport.BBox(t, 0, 10, 0.7, 0.9, 0.1, 0.8)
	return testsupport.Compile(t,
		[]vgridspec.Source{testsupport.Source(mapping.IntKey(0), "http://localhost:8000/test.mp4")},
		[]vgridspec.Track{{Name: "bboxes", Mapping: mapping.Single(mapping.IntKey(0), intervalset.New(box))}},
	)
}

func TestBoundingBoxRoundTrip(t *testing.T) {
	data, err := encoding.Encode(boundingBoxDocument(t))
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	env, err := encoding.Decode(data)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if env.FormatVersion != encoding.FormatVersion || env.Precision != encoding.DefaultPrecision {
		t.Fatalf("unexpected header %d/%d", env.FormatVersion, env.Precision)
	}
	items := env.Tracks[0].Data["0"]
	if len(items) != 1 {
		t.Fatalf("expected one encoded interval, got %d", len(items))
	}
	want := [6]float64{0, 10, 0.7, 0.9, 0.1, 0.8}
	tolerance := 0.5 * math.Pow10(-env.Precision)
	for i, got := range env.DecodedBounds(items[0]) {
		if got == nil || math.Abs(*got-want[i]) > tolerance {
			t.Fatalf("bound %d: got %v want %v", i, got, want[i])
		}
	}
	if st, _ := env.Lookup(items[0].SpatialType); st != "bbox" {
		t.Fatalf("unexpected spatial type %q", st)
	}
	if name, _ := env.Lookup(env.Tracks[0].Name); name != "bboxes" {
		t.Fatalf("unexpected track name %q", name)
	}
	if len(items[0].Payload) != 1 {
		t.Fatalf("expected only metadata in payload, got %v", items[0].Payload)
	}
	if id, ok := env.Sources[0].ID.(float64); !ok || id != 0 {
		t.Fatalf("integer key should encode as a number, got %#v", env.Sources[0].ID)
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	doc := richDocument(t)
	first, err := encoding.Encode(doc)
	if err != nil {
		t.Fatal(err)
	}
	for range 5 {
		again, err := encoding.Encode(richDocument(t))
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("encoding differs:\n%s\n%s", first, again)
		}
	}
}

func richDocument(t *testing.T) *vgridspec.Document {
	t.Helper()
	b, _ := interval.TemporalBounds(1, 2)
	payload, err := interval.NewPayload(map[string]interval.Value{
		"spatial_type": interval.String("keypoints"),
		"metadata": interval.Map(map[string]interval.Value{
			"score": interval.Number(0.93),
			"pose":  interval.Map(map[string]interval.Value{"nose": interval.List(interval.Number(0.1), interval.Number(0.2))}),
		}),
		"label": interval.String("person <1>"),
		"valid": interval.Bool(true),
	})
	if err != nil {
		t.Fatal(err)
	}
	face := interval.New(b, payload)
	m := mapping.New(map[mapping.Key]intervalset.Set{
		mapping.StringKey("a"): intervalset.New(face, testsupport.BBox(t, 0, 1, 0, 0.5, 0, 0.5)),
		mapping.StringKey("b"): intervalset.New(testsupport.Caption(t, 3, 4, "hello")),
	})
	return testsupport.Compile(t,
		[]vgridspec.Source{
			testsupport.Source(mapping.StringKey("a"), "a.mp4"),
			testsupport.Source(mapping.StringKey("b"), "b.mp4"),
			testsupport.Source(mapping.StringKey("c"), "c.mp4"),
		},
		[]vgridspec.Track{{Name: "faces", Mapping: m}, {Name: "captions", Mapping: m}},
	)
}

func TestDictionarySharesRepeatedStrings(t *testing.T) {
	env, err := encoding.Build(richDocument(t))
	if err != nil {
		t.Fatal(err)
	}
	seen := make(map[string]bool)
	for _, entry := range env.Dictionary {
		if seen[entry] {
			t.Fatalf("dictionary entry %q repeated: %v", entry, env.Dictionary)
		}
		seen[entry] = true
	}
	if env.Dictionary[0] != "faces" || env.Dictionary[1] != "captions" {
		t.Fatalf("track names should be interned first, got %v", env.Dictionary)
	}
	for _, want := range []string{"keypoints", "metadata", "pose", "nose", "score", "label", "valid", "bbox", "caption", "text"} {
		if !seen[want] {
			t.Fatalf("dictionary missing %q: %v", want, env.Dictionary)
		}
	}
	if seen["person <1>"] || seen["hello"] {
		t.Fatal("payload values must not be interned")
	}
	if _, ok := env.Tracks[0].Data["c"]; ok {
		t.Fatal("sources without intervals must be omitted")
	}
	if len(env.Tracks[0].Data["a"]) != 2 {
		t.Fatal("expected both intervals for source a")
	}
}

func TestAbsentAxesEncodeAsNull(t *testing.T) {
	data, err := encoding.Encode(richDocument(t))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"bounds":[10000,20000,null,null,null,null]`) {
		t.Fatalf("expected temporal-only bounds with nulls, got %s", data)
	}
	if !strings.Contains(string(data), "person <1>") {
		t.Fatal("HTML characters should not be escaped")
	}
}

func TestPrecisionOption(t *testing.T) {
	env, err := encoding.Build(boundingBoxDocument(t), encoding.WithPrecision(1))
	if err != nil {
		t.Fatal(err)
	}
	b := env.Tracks[0].Data["0"][0].Bounds
	if *b[2] != 7 || *b[5] != 8 {
		t.Fatalf("unexpected quantized bounds %d %d", *b[2], *b[5])
	}
	if _, err := encoding.Encode(boundingBoxDocument(t), encoding.WithPrecision(12)); !errors.Is(err, encoding.ErrRange) {
		t.Fatalf("expected ErrRange for precision 12, got %v", err)
	}
}

func TestEncodeRejectsCollidingKeys(t *testing.T) {
	doc := testsupport.Compile(t, []vgridspec.Source{
		testsupport.Source(mapping.IntKey(7), "int.mp4"),
		testsupport.Source(mapping.StringKey("7"), "str.mp4"),
	}, nil)
	if _, err := encoding.Encode(doc); !errors.Is(err, encoding.ErrKeyCollision) {
		t.Fatalf("expected ErrKeyCollision, got %v", err)
	}
}

func TestQuantize(t *testing.T) {
	tests := []struct {
		v         float64
		precision int
		want      int64
	}{
		{0.7, 4, 7000},
		{0.12346, 4, 1235},
		{-1.5, 0, -2},
		{59.94, 2, 5994},
	}
	for _, tt := range tests {
		got, err := encoding.Quantize(tt.v, tt.precision)
		if err != nil || got != tt.want {
			t.Fatalf("Quantize(%v, %d) = %d, %v; want %d", tt.v, tt.precision, got, err, tt.want)
		}
	}
	if _, err := encoding.Quantize(1e300, 4); !errors.Is(err, encoding.ErrRange) {
		t.Fatal("expected overflow to fail")
	}
	if encoding.Dequantize(7000, 4) != 0.7 {
		t.Fatal("dequantize mismatch")
	}
}

func TestDictionaryOrderIsPreOrder(t *testing.T) {
	env, err := encoding.Build(richDocument(t))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"faces", "captions", "keypoints", "label", "metadata", "pose", "nose", "score", "valid"}
	if len(env.Dictionary) < len(want) {
		t.Fatalf("dictionary too short: %v", env.Dictionary)
	}
	for i, w := range want {
		if env.Dictionary[i] != w {
			t.Fatalf("dictionary[%d] = %q, want %q (full %v)", i, env.Dictionary[i], w, env.Dictionary)
		}
	}
}

func TestEncodeReportsMagnitudeLimit(t *testing.T) {
	const epochMillis = 1.7e12
	b, err := interval.TemporalBounds(epochMillis, epochMillis+1000)
	if err != nil {
		t.Fatal(err)
	}
	doc := testsupport.Compile(t,
		[]vgridspec.Source{testsupport.Source(mapping.IntKey(0), "cam.mp4")},
		[]vgridspec.Track{{Name: "events", Mapping: mapping.Single(mapping.IntKey(0), intervalset.New(interval.New(b, interval.Payload{})))}},
	)

	_, err = encoding.Encode(doc)
	if !errors.Is(err, encoding.ErrRange) || !strings.Contains(err.Error(), "lower the precision") {
		t.Fatalf("expected ErrRange with a hint, got %v", err)
	}
	if encoding.MaxMagnitude(encoding.DefaultPrecision) >= epochMillis {
		t.Fatal("default precision limit should sit below epoch milliseconds")
	}
	if _, err := encoding.Encode(doc, encoding.WithPrecision(0)); err != nil {
		t.Fatalf("precision 0 should fit epoch milliseconds: %v", err)
	}
}

func TestReadHeaderRejectsUnknownVersion(t *testing.T) {
	if _, err := encoding.ReadHeader([]byte(`{"format_version":2,"precision":4}`)); !errors.Is(err, encoding.ErrVersion) {
		t.Fatalf("expected ErrVersion, got %v", err)
	}
	h, err := encoding.ReadHeader([]byte(`{"format_version":1,"precision":3,"tracks":[]}`))
	if err != nil || h.Precision != 3 {
		t.Fatalf("unexpected header %+v, %v", h, err)
	}
}
