package intervalstore_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"vgrid/internal/interval"
	"vgrid/internal/intervalset"
	"vgrid/internal/intervalstore"
	"vgrid/internal/logging"
	"vgrid/internal/mapping"
	"vgrid/internal/testsupport"
)

func sampleTrack(t *testing.T) mapping.Mapping {
	t.Helper()
	temporal, err := interval.TemporalBounds(3, 4)
	if err != nil {
		t.Fatal(err)
	}
	partial, err := interval.FromOptional([6]*float64{ptr(1), ptr(2), nil, nil, ptr(0.25), ptr(0.5)})
	if err != nil {
		t.Fatal(err)
	}
	return mapping.New(map[mapping.Key]intervalset.Set{
		mapping.IntKey(0): intervalset.New(
			testsupport.BBox(t, 5, 6, 0.1, 0.2, 0.3, 0.4),
			testsupport.Caption(t, 0, 1, "hello"),
		),
		mapping.StringKey("clip-a"): intervalset.New(
			interval.New(temporal, interval.NewSpatialPayload(interval.SpatialBbox, map[string]interval.Value{
				"score":  interval.Number(0.75),
				"labels": interval.List(interval.String("a"), interval.String("b")),
			})),
			interval.New(partial, interval.NewSpatialPayload(interval.SpatialNone, nil)),
		),
		mapping.IntKey(12): {},
	})
}

func ptr(v float64) *float64 { return &v }

func TestPutAndLoadTrackRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	want := sampleTrack(t)
	if err := store.PutTrack(ctx, "faces", want); err != nil {
		t.Fatalf("PutTrack: %v", err)
	}
	got, err := store.LoadTrack(ctx, "faces")
	if err != nil {
		t.Fatalf("LoadTrack: %v", err)
	}
	if got.Has(mapping.IntKey(12)) {
		t.Fatal("keys without intervals are not persisted")
	}
	for _, key := range []mapping.Key{mapping.IntKey(0), mapping.StringKey("clip-a")} {
		w, _ := want.Get(key)
		g, ok := got.Get(key)
		if !ok || !g.Equal(w) {
			t.Fatalf("key %s: got %v, want %v", key, g.Intervals(), w.Intervals())
		}
	}
}

func TestPutTrackReplacesPreviousContent(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if err := store.PutTrack(ctx, "captions", sampleTrack(t)); err != nil {
		t.Fatal(err)
	}
	replacement := mapping.Single(mapping.IntKey(7), intervalset.New(testsupport.Caption(t, 9, 10, "bye")))
	if err := store.PutTrack(ctx, "captions", replacement); err != nil {
		t.Fatal(err)
	}
	got, err := store.LoadTrack(ctx, "captions")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(replacement) {
		t.Fatalf("expected replacement only, got keys %v", got.Keys())
	}
}

func TestLoadTrackMissing(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	_, err := store.LoadTrack(context.Background(), "nope")
	if !errors.Is(err, intervalstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var nf *intervalstore.NotFoundError
	if !errors.As(err, &nf) || nf.ErrorKind() != "not_found" {
		t.Fatalf("expected NotFoundError, got %T", err)
	}
}

func TestTracksAndDelete(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if err := store.PutTrack(ctx, "b_track", sampleTrack(t)); err != nil {
		t.Fatal(err)
	}
	if err := store.PutTrack(ctx, " a_track ", mapping.Single(mapping.IntKey(1), intervalset.New(testsupport.Caption(t, 0, 1, "x")))); err != nil {
		t.Fatal(err)
	}

	infos, err := store.Tracks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 2 || infos[0].Name != "a_track" || infos[1].Name != "b_track" {
		t.Fatalf("unexpected listing: %+v", infos)
	}
	if infos[1].Sources != 2 || infos[1].Intervals != 4 {
		t.Fatalf("unexpected counts: %+v", infos[1])
	}
	if infos[0].UpdatedAt.IsZero() {
		t.Fatal("expected updated timestamp")
	}

	removed, err := store.DeleteTrack(ctx, "b_track")
	if err != nil || !removed {
		t.Fatalf("DeleteTrack = %v, %v", removed, err)
	}
	removed, err = store.DeleteTrack(ctx, "b_track")
	if err != nil || removed {
		t.Fatalf("second DeleteTrack = %v, %v", removed, err)
	}
	if _, err := store.LoadTrack(ctx, "b_track"); !errors.Is(err, intervalstore.ErrNotFound) {
		t.Fatalf("expected deleted track to be missing, got %v", err)
	}
}

func TestPutTrackRejectsEmptyName(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	err := store.PutTrack(context.Background(), "  ", mapping.Mapping{})
	var verr *interval.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestReopenKeepsSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intervals.db")
	store, err := intervalstore.OpenPath(path, logging.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	first, err := store.SchemaVersion(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.PutTrack(ctx, "faces", sampleTrack(t)); err != nil {
		t.Fatal(err)
	}
	_ = store.Close()

	store, err = intervalstore.OpenPath(path, logging.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	second, err := store.SchemaVersion(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if first != second || first != "002_interval_time_index" {
		t.Fatalf("schema versions %q and %q", first, second)
	}
	if _, err := store.LoadTrack(ctx, "faces"); err != nil {
		t.Fatalf("track lost across reopen: %v", err)
	}
}
