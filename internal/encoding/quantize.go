package encoding

import (
	"errors"
	"fmt"
	"math"
)

// DefaultPrecision is the number of decimal digits kept for bounds. At this
// precision a bound must stay within ±2^53/10^4 (about 9.0e11), so absolute
// epoch-millisecond timestamps do not fit; see MaxMagnitude.
const DefaultPrecision = 4

// MaxPrecision keeps every quantized coordinate exactly representable.
const MaxPrecision = 9

// ErrRange reports a coordinate that cannot be quantized.
var ErrRange = errors.New("value out of quantization range")

const maxExact = 1 << 53

// MaxMagnitude is the largest absolute bound Quantize accepts at precision.
func MaxMagnitude(precision int) float64 {
	return maxExact / math.Pow10(precision)
}

// Quantize converts v to round(v * 10^precision).
func Quantize(v float64, precision int) (int64, error) {
	if precision < 0 || precision > MaxPrecision {
		return 0, fmt.Errorf("precision %d: %w", precision, ErrRange)
	}
	scaled := math.Round(v * math.Pow10(precision))
	if math.IsNaN(scaled) || math.Abs(scaled) > maxExact {
		return 0, fmt.Errorf("quantize %v at precision %d: %w", v, precision, ErrRange)
	}
	return int64(scaled), nil
}

// Dequantize reverses Quantize. The result is within 0.5 * 10^-precision of
// the original value.
func Dequantize(q int64, precision int) float64 {
	return float64(q) / math.Pow10(precision)
}
