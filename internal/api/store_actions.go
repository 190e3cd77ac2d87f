package api

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"vgrid/internal/config"
	"vgrid/internal/interval"
	"vgrid/internal/manifest"
	"vgrid/internal/mapping"
	"vgrid/internal/textutil"
	"vgrid/internal/vgridspec"
)

type ImportTracksRequest struct {
	Config       *config.Config
	ManifestPath string
	// Tracks limits the import to the named tracks. Empty imports all.
	Tracks []string
	Logger *slog.Logger
}

type ImportTracksResult struct {
	Imported []StoredTrack
}

// ImportTracks resolves the manifest and writes its tracks into the
// annotation store, replacing tracks of the same name.
func ImportTracks(ctx context.Context, req ImportTracksRequest) (ImportTracksResult, error) {
	cfg := req.Config
	if cfg == nil {
		return ImportTracksResult{}, errConfigRequired
	}
	logger := loggerOrNop(req.Logger)

	_, m, err := readManifest(req.ManifestPath)
	if err != nil {
		return ImportTracksResult{}, err
	}
	store, err := OpenStore(cfg, logger)
	if err != nil {
		return ImportTracksResult{}, err
	}
	defer store.Close()

	_, tracks, err := manifest.Resolve(ctx, m,
		manifest.WithStore(store),
		manifest.WithMappingOptions(MappingOptions(cfg, logger)...))
	if err != nil {
		return ImportTracksResult{}, err
	}

	wanted := make([]string, 0, len(req.Tracks))
	for _, name := range req.Tracks {
		wanted = append(wanted, textutil.Canonical(name))
	}
	for _, name := range wanted {
		if !slices.ContainsFunc(tracks, func(t vgridspec.Track) bool { return textutil.Canonical(t.Name) == name }) {
			return ImportTracksResult{}, &interval.ValidationError{Field: "tracks", Reason: fmt.Sprintf("manifest has no track %q", name)}
		}
	}

	var result ImportTracksResult
	for _, tr := range tracks {
		name := textutil.Canonical(tr.Name)
		if len(wanted) > 0 && !slices.Contains(wanted, name) {
			continue
		}
		if err := store.PutTrack(ctx, name, tr.Mapping); err != nil {
			return ImportTracksResult{}, fmt.Errorf("import track %q: %w", name, err)
		}
		result.Imported = append(result.Imported, StoredTrack{
			Name:      name,
			Sources:   populatedKeys(tr.Mapping),
			Intervals: tr.Mapping.TotalIntervals(),
		})
	}
	return result, nil
}

func populatedKeys(m mapping.Mapping) int {
	n := 0
	for _, k := range m.Keys() {
		if s, _ := m.Get(k); !s.Empty() {
			n++
		}
	}
	return n
}
