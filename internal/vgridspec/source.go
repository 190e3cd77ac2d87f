package vgridspec

import (
	"fmt"
	"math"

	"vgrid/internal/interval"
	"vgrid/internal/mapping"
)

// Source describes one video. Beyond Key the compiler treats it as opaque
// metadata that is carried into the encoded document.
type Source struct {
	Key        mapping.Key
	URI        string
	StartTime  float64
	FPS        float64
	FrameCount int
	Width      int
	Height     int
}

// Validate rejects numbers that cannot be carried into the encoded
// document. Everything else is passed through as given.
func (s Source) Validate() error {
	field := func(name string) string { return fmt.Sprintf("source %s: %s", s.Key, name) }
	switch {
	case math.IsNaN(s.StartTime) || math.IsInf(s.StartTime, 0):
		return &interval.ValidationError{Field: field("start_time"), Reason: "must be finite"}
	case math.IsNaN(s.FPS) || math.IsInf(s.FPS, 0):
		return &interval.ValidationError{Field: field("fps"), Reason: "must be finite"}
	}
	return nil
}

// Anomalies lists metadata a player is unlikely to handle, such as a live
// source with an unknown frame count. They are reported, not rejected.
func (s Source) Anomalies() []string {
	var out []string
	if s.StartTime < 0 {
		out = append(out, "negative start_time")
	}
	if s.FPS <= 0 {
		out = append(out, "non-positive fps")
	}
	if s.FrameCount <= 0 {
		out = append(out, "unknown num_frames")
	}
	if s.Width <= 0 || s.Height <= 0 {
		out = append(out, fmt.Sprintf("dimensions %dx%d", s.Width, s.Height))
	}
	return out
}

// Duration is the playable length in seconds.
func (s Source) Duration() float64 {
	if s.FPS <= 0 {
		return 0
	}
	return float64(s.FrameCount) / s.FPS
}
