package encoding

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Codec names a transport compression applied to an encoded payload.
type Codec string

const (
	CodecNone Codec = "none"
	CodecGzip Codec = "gzip"
	CodecZstd Codec = "zstd"
)

// ParseCodec accepts a codec name case-insensitively. The empty string is
// CodecNone.
func ParseCodec(raw string) (Codec, error) {
	switch c := Codec(strings.ToLower(strings.TrimSpace(raw))); c {
	case "", CodecNone:
		return CodecNone, nil
	case CodecGzip, CodecZstd:
		return c, nil
	default:
		return "", fmt.Errorf("unsupported compression codec %q", raw)
	}
}

// Extension returns the file suffix conventionally used for the codec.
func (c Codec) Extension() string {
	switch c {
	case CodecGzip:
		return ".json.gz"
	case CodecZstd:
		return ".json.zst"
	default:
		return ".json"
	}
}

// Compress frames payload with codec. The output is deterministic: gzip
// headers carry no name or timestamp and zstd runs single-threaded.
func Compress(payload []byte, codec Codec) ([]byte, error) {
	switch codec {
	case "", CodecNone:
		return bytes.Clone(payload), nil
	case CodecGzip:
		var buf bytes.Buffer
		zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
		if err != nil {
			return nil, fmt.Errorf("gzip writer: %w", err)
		}
		if _, err := zw.Write(payload); err != nil {
			return nil, fmt.Errorf("gzip write: %w", err)
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("gzip close: %w", err)
		}
		return buf.Bytes(), nil
	case CodecZstd:
		enc, err := zstd.NewWriter(nil,
			zstd.WithEncoderConcurrency(1),
			zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if err != nil {
			return nil, fmt.Errorf("zstd writer: %w", err)
		}
		defer enc.Close()
		return enc.EncodeAll(payload, nil), nil
	default:
		return nil, fmt.Errorf("unsupported compression codec %q", codec)
	}
}

// Decompress reverses Compress.
func Decompress(data []byte, codec Codec) ([]byte, error) {
	switch codec {
	case "", CodecNone:
		return bytes.Clone(data), nil
	case CodecGzip:
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		defer zr.Close()
		out, err := io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("gzip read: %w", err)
		}
		return out, nil
	case CodecZstd:
		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		defer dec.Close()
		out, err := dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decode: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported compression codec %q", codec)
	}
}

// DetectCodec guesses the codec from the leading magic bytes.
func DetectCodec(data []byte) Codec {
	switch {
	case len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b:
		return CodecGzip
	case len(data) >= 4 && data[0] == 0x28 && data[1] == 0xb5 && data[2] == 0x2f && data[3] == 0xfd:
		return CodecZstd
	default:
		return CodecNone
	}
}
