package api

import (
	"time"

	"vgrid/internal/intervalstore"
	"vgrid/internal/payloadcache"
	"vgrid/internal/textutil"
	"vgrid/internal/vgridspec"
)

// FromDocument converts a compiled document into its transport view.
func FromDocument(doc *vgridspec.Document) DocumentSummary {
	if doc == nil {
		return DocumentSummary{}
	}
	out := DocumentSummary{
		CompileID: doc.ID(),
		Sources:   []SourceSummary{},
		Tracks:    []TrackSummary{},
		Warnings:  []KeyWarning{},
	}
	for _, src := range doc.Sources() {
		out.Sources = append(out.Sources, SourceSummary{
			Key:       src.Key.String(),
			URI:       src.URI,
			FPS:       src.FPS,
			Frames:    src.FrameCount,
			Width:     src.Width,
			Height:    src.Height,
			Duration:  src.Duration(),
			StartTime: src.StartTime,
		})
	}
	for _, s := range doc.Summary() {
		spatial := make(map[string]int, len(s.Spatial))
		for st, n := range s.Spatial {
			spatial[st.String()] = n
		}
		out.Tracks = append(out.Tracks, TrackSummary{
			Name:      s.Name,
			Title:     textutil.Title(s.Name),
			Sources:   s.Sources,
			Intervals: s.Intervals,
			Spatial:   spatial,
		})
	}
	for _, w := range doc.Warnings() {
		out.Warnings = append(out.Warnings, KeyWarning{Track: w.Track, Key: w.Key.String(), Intervals: w.Intervals})
	}
	return out
}

// FromTrackInfos converts store listings.
func FromTrackInfos(infos []intervalstore.TrackInfo) []StoredTrack {
	out := make([]StoredTrack, 0, len(infos))
	for _, info := range infos {
		out = append(out, StoredTrack{
			Name:      info.Name,
			Sources:   info.Sources,
			Intervals: info.Intervals,
			UpdatedAt: FormatTime(info.UpdatedAt),
		})
	}
	return out
}

// FromCacheEntries converts payload cache listings.
func FromCacheEntries(entries []payloadcache.Entry) []CacheEntry {
	out := make([]CacheEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, CacheEntry{
			Key:      e.Key,
			Manifest: e.Manifest,
			Codec:    e.Codec,
			Size:     e.Size,
			CachedAt: FormatTime(e.CachedAt),
		})
	}
	return out
}

// FormatTime converts a time to RFC3339 or returns empty string.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
