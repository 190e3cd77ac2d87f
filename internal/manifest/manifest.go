package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format is a manifest serialization.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// ErrUnknownFormat reports a file extension with no matching decoder.
var ErrUnknownFormat = errors.New("unknown manifest format")

// ParseError reports a manifest that could not be decoded.
type ParseError struct {
	Format Format
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s manifest: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ErrorKind reports malformed input as a validation failure.
func (e *ParseError) ErrorKind() string { return "validation" }

// Manifest is a decoded compile request.
type Manifest struct {
	Sources []SourceSpec `json:"sources" yaml:"sources" toml:"sources"`
	Tracks  []TrackSpec  `json:"tracks" yaml:"tracks" toml:"tracks"`
}

// SourceSpec describes one video. Key is an integer or a string.
type SourceSpec struct {
	Key       any     `json:"key" yaml:"key" toml:"key"`
	URI       string  `json:"uri" yaml:"uri" toml:"uri"`
	StartTime float64 `json:"start_time" yaml:"start_time" toml:"start_time"`
	FPS       float64 `json:"fps" yaml:"fps" toml:"fps"`
	NumFrames int     `json:"num_frames" yaml:"num_frames" toml:"num_frames"`
	Width     int     `json:"width" yaml:"width" toml:"width"`
	Height    int     `json:"height" yaml:"height" toml:"height"`
}

// TrackSpec describes one track. Exactly one of Data, Store and Derive
// provides its intervals.
type TrackSpec struct {
	Name     string                    `json:"name" yaml:"name" toml:"name"`
	Data     map[string][]IntervalSpec `json:"data,omitempty" yaml:"data,omitempty" toml:"data,omitempty"`
	Store    string                    `json:"store,omitempty" yaml:"store,omitempty" toml:"store,omitempty"`
	Derive   *DeriveSpec               `json:"derive,omitempty" yaml:"derive,omitempty" toml:"derive,omitempty"`
	Sort     bool                      `json:"sort,omitempty" yaml:"sort,omitempty" toml:"sort,omitempty"`
	Coalesce bool                      `json:"coalesce,omitempty" yaml:"coalesce,omitempty" toml:"coalesce,omitempty"`
	Dilate   float64                   `json:"dilate,omitempty" yaml:"dilate,omitempty" toml:"dilate,omitempty"`
}

// DeriveSpec builds a track from two earlier tracks.
type DeriveSpec struct {
	Op        string `json:"op" yaml:"op" toml:"op"`
	Left      string `json:"left" yaml:"left" toml:"left"`
	Right     string `json:"right" yaml:"right" toml:"right"`
	Predicate string `json:"predicate,omitempty" yaml:"predicate,omitempty" toml:"predicate,omitempty"`
}

// IntervalSpec is one literal interval. Bounds lists t1,t2,x1,x2,y1,y2 with
// null for absent axes; T, X and Y are the per-axis alternative for formats
// without null.
type IntervalSpec struct {
	Bounds  []*float64     `json:"bounds,omitempty" yaml:"bounds,omitempty" toml:"bounds,omitempty"`
	T       []float64      `json:"t,omitempty" yaml:"t,omitempty" toml:"t,omitempty"`
	X       []float64      `json:"x,omitempty" yaml:"x,omitempty" toml:"x,omitempty"`
	Y       []float64      `json:"y,omitempty" yaml:"y,omitempty" toml:"y,omitempty"`
	Payload map[string]any `json:"payload,omitempty" yaml:"payload,omitempty" toml:"payload,omitempty"`
}

// FormatFromPath picks a format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse decodes data in the given format. Unknown fields are rejected.
func Parse(data []byte, format Format) (*Manifest, error) {
	var m Manifest
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&m); err != nil {
			return nil, &ParseError{Format: FormatJSON, Err: err}
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&m); err != nil {
			return nil, &ParseError{Format: FormatYAML, Err: err}
		}
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&m); err != nil {
			return nil, &ParseError{Format: FormatTOML, Err: err}
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return &m, nil
}

// UsesStore reports whether any track loads its intervals from the
// annotation store.
func (m *Manifest) UsesStore() bool {
	for _, t := range m.Tracks {
		if strings.TrimSpace(t.Store) != "" {
			return true
		}
	}
	return false
}
