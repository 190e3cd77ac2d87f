package encoding

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrVersion reports an envelope written with an unknown format version.
var ErrVersion = errors.New("unsupported format version")

// Header is the part of the envelope a reader checks before decoding the rest.
type Header struct {
	FormatVersion int `json:"format_version"`
	Precision     int `json:"precision"`
}

// ReadHeader decodes only the version and precision of an uncompressed
// envelope. Unknown versions fail with ErrVersion so readers stop before
// misparsing the body.
func ReadHeader(data []byte) (Header, error) {
	var h Header
	if err := json.Unmarshal(data, &h); err != nil {
		return Header{}, fmt.Errorf("read header: %w", err)
	}
	if h.FormatVersion != FormatVersion {
		return Header{}, fmt.Errorf("format_version %d (supported %d): %w", h.FormatVersion, FormatVersion, ErrVersion)
	}
	return h, nil
}

// Decode parses an uncompressed envelope after checking its header.
func Decode(data []byte) (Envelope, error) {
	if _, err := ReadHeader(data); err != nil {
		return Envelope{}, err
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	return env, nil
}

// Lookup resolves a dictionary index.
func (e Envelope) Lookup(idx int) (string, bool) {
	if idx < 0 || idx >= len(e.Dictionary) {
		return "", false
	}
	return e.Dictionary[idx], true
}

// DecodedBounds dequantizes the bounds of iv using the envelope precision.
// Absent axes stay nil.
func (e Envelope) DecodedBounds(iv Interval) [6]*float64 {
	var out [6]*float64
	for i, q := range iv.Bounds {
		if q == nil {
			continue
		}
		v := Dequantize(*q, e.Precision)
		out[i] = &v
	}
	return out
}
