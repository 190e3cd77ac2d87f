package api_test

import (
	"context"
	"errors"
	"testing"

	"vgrid/internal/api"
	"vgrid/internal/encoding"
	"vgrid/internal/interval"
	"vgrid/internal/testsupport"
)

const demoManifest = `{
  "sources": [
    {"key": 0, "uri": "clip0.mp4", "fps": 25, "num_frames": 250, "width": 640, "height": 360},
    {"key": 1, "uri": "clip1.mp4", "fps": 25, "num_frames": 250, "width": 640, "height": 360}
  ],
  "tracks": [
    {"name": "face_boxes", "data": {
      "0": [{"bounds": [0, 1, 0.1, 0.2, 0.3, 0.4], "payload": {"spatial_type": "bbox"}}],
      "1": [{"bounds": [2, 3, 0.5, 0.6, 0.1, 0.2], "payload": {"spatial_type": "bbox"}}]
    }},
    {"name": "captions", "data": {
      "0": [{"t": [0, 2], "payload": {"spatial_type": "caption", "metadata": {"text": "hi"}}}]
    }}
  ]
}`

const strayKeyManifest = `{
  "sources": [{"key": 0, "uri": "clip0.mp4", "fps": 25, "num_frames": 250, "width": 640, "height": 360}],
  "tracks": [{"name": "t", "data": {"9": [{"t": [0, 1]}]}}]
}`

func TestCompileManifestEncodesAndCaches(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithEncoding(3, "gzip"))
	path := testsupport.WriteFile(t, testsupport.BaseDir(cfg), "demo.json", demoManifest)
	ctx := context.Background()
	req := api.CompileRequest{Config: cfg, ManifestPath: path, UseCache: true}

	first, err := api.CompileManifest(ctx, req)
	if err != nil {
		t.Fatalf("CompileManifest: %v", err)
	}
	if first.CacheHit || first.Document == nil || first.Codec != encoding.CodecGzip {
		t.Fatalf("unexpected first result: hit=%v codec=%s", first.CacheHit, first.Codec)
	}
	if encoding.DetectCodec(first.Payload) != encoding.CodecGzip {
		t.Fatal("payload should be gzip framed")
	}
	raw, err := encoding.Decompress(first.Payload, first.Codec)
	if err != nil {
		t.Fatal(err)
	}
	env, err := encoding.Decode(raw)
	if err != nil {
		t.Fatal(err)
	}
	if env.Precision != 3 || len(env.Sources) != 2 || len(env.Tracks) != 2 {
		t.Fatalf("unexpected envelope: %+v", env)
	}

	second, err := api.CompileManifest(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheHit || string(second.Payload) != string(first.Payload) {
		t.Fatal("second compile should be served from the cache")
	}

	precision := 5
	req.Precision = &precision
	third, err := api.CompileManifest(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheHit || third.Precision != 5 {
		t.Fatal("changed precision must miss the cache")
	}
}

const derivedManifest = `{
  "sources": [{"key": 0, "uri": "clip0.mp4", "fps": 25, "num_frames": 1000, "width": 640, "height": 360}],
  "tracks": [
    {"name": "a", "data": {"0": [{"t": [0, 1]}]}},
    {"name": "b", "data": {"0": [{"t": [30, 31]}]}},
    {"name": "ab", "derive": {"op": "join", "left": "a", "right": "b", "predicate": "before"}}
  ]
}`

func TestCompileManifestCacheKeyCoversAlgebraSettings(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	path := testsupport.WriteFile(t, testsupport.BaseDir(cfg), "derived.json", derivedManifest)
	ctx := context.Background()
	req := api.CompileRequest{Config: cfg, ManifestPath: path, UseCache: true}

	unbounded, err := api.CompileManifest(ctx, req)
	if err != nil {
		t.Fatalf("CompileManifest: %v", err)
	}
	if unbounded.CacheHit {
		t.Fatal("first compile cannot be a cache hit")
	}

	cfg.Algebra.JoinWindow = 5
	windowed, err := api.CompileManifest(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if windowed.CacheHit {
		t.Fatal("changed join_window must miss the cache")
	}
	if string(windowed.Payload) == string(unbounded.Payload) {
		t.Fatal("join window should prune the distant pair")
	}

	cfg.Algebra.CoalesceAdjacency = 0.5
	adjacent, err := api.CompileManifest(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if adjacent.CacheHit || adjacent.CacheKey == windowed.CacheKey {
		t.Fatal("changed coalesce_adjacency must miss the cache")
	}
}

func TestCompileManifestRejectsUnknownCodec(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	path := testsupport.WriteFile(t, testsupport.BaseDir(cfg), "demo.json", demoManifest)
	_, err := api.CompileManifest(context.Background(), api.CompileRequest{Config: cfg, ManifestPath: path, Compression: "brotli"})
	if err == nil {
		t.Fatal("expected codec error")
	}
}

func TestStrictKeysFailCompile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	path := testsupport.WriteFile(t, testsupport.BaseDir(cfg), "stray.json", strayKeyManifest)
	ctx := context.Background()

	summary, err := api.InspectManifest(ctx, api.InspectRequest{Config: cfg, ManifestPath: path})
	if err != nil {
		t.Fatalf("lenient inspect: %v", err)
	}
	if len(summary.Warnings) != 1 || summary.Warnings[0].Key != "9" {
		t.Fatalf("expected one key warning, got %+v", summary.Warnings)
	}

	_, err = api.InspectManifest(ctx, api.InspectRequest{Config: cfg, ManifestPath: path, Strict: true})
	var verr *interval.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestInspectManifestSummaries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	path := testsupport.WriteFile(t, testsupport.BaseDir(cfg), "demo.json", demoManifest)
	summary, err := api.InspectManifest(context.Background(), api.InspectRequest{Config: cfg, ManifestPath: path})
	if err != nil {
		t.Fatal(err)
	}
	if summary.CompileID == "" || len(summary.Sources) != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	faces := summary.Tracks[0]
	if faces.Name != "face_boxes" || faces.Title != "Face Boxes" || faces.Sources != 2 || faces.Spatial["bbox"] != 2 {
		t.Fatalf("unexpected track summary: %+v", faces)
	}
	if summary.Sources[0].Duration != 10 {
		t.Fatalf("duration = %v", summary.Sources[0].Duration)
	}
}

func TestImportTracksFeedsStoreReferences(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	base := testsupport.BaseDir(cfg)
	ctx := context.Background()

	src := testsupport.WriteFile(t, base, "demo.json", demoManifest)
	result, err := api.ImportTracks(ctx, api.ImportTracksRequest{Config: cfg, ManifestPath: src, Tracks: []string{"face_boxes"}})
	if err != nil {
		t.Fatalf("ImportTracks: %v", err)
	}
	if len(result.Imported) != 1 || result.Imported[0].Intervals != 2 || result.Imported[0].Sources != 2 {
		t.Fatalf("unexpected import: %+v", result.Imported)
	}

	ref := testsupport.WriteFile(t, base, "ref.yaml", `sources:
  - {key: 0, uri: clip0.mp4, fps: 25, num_frames: 250, width: 640, height: 360}
  - {key: 1, uri: clip1.mp4, fps: 25, num_frames: 250, width: 640, height: 360}
tracks:
  - name: faces
    store: face_boxes
`)
	out, err := api.CompileManifest(ctx, api.CompileRequest{Config: cfg, ManifestPath: ref, UseCache: true})
	if err != nil {
		t.Fatalf("compile with store reference: %v", err)
	}
	if out.CacheHit || out.Document.Summary()[0].Intervals != 2 {
		t.Fatal("stored track should resolve into the document")
	}

	if _, err := api.ImportTracks(ctx, api.ImportTracksRequest{Config: cfg, ManifestPath: src, Tracks: []string{"missing"}}); err == nil {
		t.Fatal("expected unknown track name to fail")
	}
}

func TestOpenPayloadCacheDisabled(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCache(false, 0))
	if _, err := api.OpenPayloadCache(cfg, nil); !errors.Is(err, api.ErrPayloadCacheDisabled) {
		t.Fatalf("expected ErrPayloadCacheDisabled, got %v", err)
	}
}
