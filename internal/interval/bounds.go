package interval

import (
	"math"
	"strconv"
	"strings"
)

// Axis identifies one of the three bounded dimensions.
type Axis int

const (
	AxisT Axis = iota
	AxisX
	AxisY
)

var axisNames = [...]string{"t", "x", "y"}

func (a Axis) String() string {
	if a < AxisT || a > AxisY {
		return "axis(" + strconv.Itoa(int(a)) + ")"
	}
	return axisNames[a]
}

// Axes lists every axis in canonical order.
var Axes = [...]Axis{AxisT, AxisX, AxisY}

// Range is one axis pair. The zero Range is unbounded.
type Range struct {
	Lo  float64
	Hi  float64
	Set bool
}

// Span returns a bounded range. It is not validated until used in NewBounds.
func Span(lo, hi float64) Range {
	return Range{Lo: lo, Hi: hi, Set: true}
}

// Unbounded is the absent axis pair.
var Unbounded = Range{}

func (r Range) overlaps(o Range) bool {
	if !r.Set || !o.Set {
		return true
	}
	return r.Lo <= o.Hi && o.Lo <= r.Hi
}

func (r Range) contains(o Range) bool {
	if !r.Set {
		return true
	}
	if !o.Set {
		return false
	}
	return r.Lo <= o.Lo && o.Hi <= r.Hi
}

func (r Range) span(o Range) Range {
	if !r.Set || !o.Set {
		return Unbounded
	}
	return Span(math.Min(r.Lo, o.Lo), math.Max(r.Hi, o.Hi))
}

func (r Range) intersect(o Range) (Range, bool) {
	switch {
	case !r.Set:
		return o, true
	case !o.Set:
		return r, true
	}
	lo, hi := math.Max(r.Lo, o.Lo), math.Min(r.Hi, o.Hi)
	if lo > hi {
		return Range{}, false
	}
	return Span(lo, hi), true
}

// Length returns hi-lo, or +Inf for an unbounded range.
func (r Range) Length() float64 {
	if !r.Set {
		return math.Inf(1)
	}
	return r.Hi - r.Lo
}

func (r Range) validate(axis Axis) error {
	if !r.Set {
		return nil
	}
	if math.IsNaN(r.Lo) || math.IsNaN(r.Hi) {
		return invalid(axis.String(), "bound is NaN")
	}
	if r.Lo > r.Hi {
		return invalid(axis.String(), "lower bound %s exceeds upper bound %s",
			formatFloat(r.Lo), formatFloat(r.Hi))
	}
	return nil
}

// Bounds is an immutable extent over the temporal and two spatial axes.
// The zero Bounds is unbounded on every axis.
type Bounds struct {
	axes [3]Range
}

// NewBounds validates the three axis pairs and returns the resulting Bounds.
func NewBounds(t, x, y Range) (Bounds, error) {
	b := Bounds{axes: [3]Range{t, x, y}}
	for _, axis := range Axes {
		if err := b.axes[axis].validate(axis); err != nil {
			return Bounds{}, err
		}
	}
	return b, nil
}

// NewBounds3D builds a Bounds with every axis present.
func NewBounds3D(t1, t2, x1, x2, y1, y2 float64) (Bounds, error) {
	return NewBounds(Span(t1, t2), Span(x1, x2), Span(y1, y2))
}

// TemporalBounds builds a Bounds bounded only in time.
func TemporalBounds(t1, t2 float64) (Bounds, error) {
	return NewBounds(Span(t1, t2), Unbounded, Unbounded)
}

// FromOptional builds a Bounds from six optional fields in t1, t2, x1, x2,
// y1, y2 order. A pair must be fully present or fully absent.
func FromOptional(fields [6]*float64) (Bounds, error) {
	var axes [3]Range
	for _, axis := range Axes {
		lo, hi := fields[2*int(axis)], fields[2*int(axis)+1]
		switch {
		case lo == nil && hi == nil:
		case lo == nil || hi == nil:
			return Bounds{}, invalid(axis.String(), "axis pair must set both bounds or neither")
		default:
			axes[axis] = Span(*lo, *hi)
		}
	}
	return NewBounds(axes[AxisT], axes[AxisX], axes[AxisY])
}

// Axis returns the pair for the requested axis.
func (b Bounds) Axis(a Axis) Range {
	if a < AxisT || a > AxisY {
		return Unbounded
	}
	return b.axes[a]
}

func (b Bounds) T() Range { return b.axes[AxisT] }
func (b Bounds) X() Range { return b.axes[AxisX] }
func (b Bounds) Y() Range { return b.axes[AxisY] }

// Optional returns the six fields in t1, t2, x1, x2, y1, y2 order with nil for
// absent pairs.
func (b Bounds) Optional() [6]*float64 {
	var out [6]*float64
	for _, axis := range Axes {
		r := b.axes[axis]
		if !r.Set {
			continue
		}
		lo, hi := r.Lo, r.Hi
		out[2*int(axis)] = &lo
		out[2*int(axis)+1] = &hi
	}
	return out
}

// Duration is the temporal length, +Inf when time is unbounded.
func (b Bounds) Duration() float64 {
	return b.axes[AxisT].Length()
}

// Dilate widens the temporal axis by d on both sides. Unbounded time and
// shrinking past zero length leave the bounds unchanged.
func (b Bounds) Dilate(d float64) Bounds {
	t := b.axes[AxisT]
	if !t.Set || t.Lo-d > t.Hi+d {
		return b
	}
	out := b
	out.axes[AxisT] = Span(t.Lo-d, t.Hi+d)
	return out
}

// Equal reports exact equality of every axis.
func (b Bounds) Equal(o Bounds) bool {
	return b.axes == o.axes
}

func (b Bounds) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	first := true
	for _, axis := range Axes {
		r := b.axes[axis]
		if !r.Set {
			continue
		}
		if !first {
			sb.WriteByte(' ')
		}
		first = false
		sb.WriteString(axis.String())
		sb.WriteString(":[")
		sb.WriteString(formatFloat(r.Lo))
		sb.WriteByte(',')
		sb.WriteString(formatFloat(r.Hi))
		sb.WriteByte(']')
	}
	sb.WriteByte('}')
	return sb.String()
}

// Overlaps reports whether every axis present on both sides overlaps under
// the closed convention lo1 <= hi2 && lo2 <= hi1.
func Overlaps(a, b Bounds) bool {
	for _, axis := range Axes {
		if !a.axes[axis].overlaps(b.axes[axis]) {
			return false
		}
	}
	return true
}

// Contains reports whether a covers b on every axis a bounds.
func Contains(a, b Bounds) bool {
	for _, axis := range Axes {
		if !a.axes[axis].contains(b.axes[axis]) {
			return false
		}
	}
	return true
}

// Merge returns the per-axis span of a and b. An axis unbounded on either
// side stays unbounded.
func Merge(a, b Bounds) Bounds {
	var out Bounds
	for _, axis := range Axes {
		out.axes[axis] = a.axes[axis].span(b.axes[axis])
	}
	return out
}

// Intersect returns the per-axis intersection. ok is false when a present
// axis does not overlap.
func Intersect(a, b Bounds) (Bounds, bool) {
	var out Bounds
	for _, axis := range Axes {
		r, ok := a.axes[axis].intersect(b.axes[axis])
		if !ok {
			return Bounds{}, false
		}
		out.axes[axis] = r
	}
	return out, true
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
