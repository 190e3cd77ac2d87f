package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// TrackSummary describes one compiled track.
type TrackSummary struct {
	Name      string         `json:"name"`
	Title     string         `json:"title"`
	Sources   int            `json:"sources"`
	Intervals int            `json:"intervals"`
	Spatial   map[string]int `json:"spatial"`
}

// SourceSummary describes one compiled source.
type SourceSummary struct {
	Key       string  `json:"key"`
	URI       string  `json:"uri"`
	FPS       float64 `json:"fps"`
	Frames    int     `json:"frames"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Duration  float64 `json:"duration"`
	StartTime float64 `json:"startTime"`
}

// KeyWarning reports intervals keyed to a source the document does not
// declare.
type KeyWarning struct {
	Track     string `json:"track"`
	Key       string `json:"key"`
	Intervals int    `json:"intervals"`
}

// DocumentSummary is the transport view of a compiled document.
type DocumentSummary struct {
	CompileID string          `json:"compileId"`
	Sources   []SourceSummary `json:"sources"`
	Tracks    []TrackSummary  `json:"tracks"`
	Warnings  []KeyWarning    `json:"warnings"`
}

// StoredTrack describes a track held in the annotation store.
type StoredTrack struct {
	Name      string `json:"name"`
	Sources   int    `json:"sources"`
	Intervals int    `json:"intervals"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// CacheEntry describes a cached payload.
type CacheEntry struct {
	Key      string `json:"key"`
	Manifest string `json:"manifest"`
	Codec    string `json:"codec"`
	Size     int64  `json:"size"`
	CachedAt string `json:"cachedAt,omitempty"`
}
