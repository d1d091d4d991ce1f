// Package mathmap - Linear range mapping used to turn per-pixel differences into probabilities.
package mathmap

import "github.com/pkg/errors"

// MinRangeWidth is the smallest input range width used as a divisor.
const MinRangeWidth = 1e-4

// Bound is one end of an input range. It is either a single value shared by every
// element (Scalar) or a value per element (Values).
type Bound interface {
	At(i int) float64
}

// Scalar is a Bound that broadcasts one value to every element.
type Scalar float64

// At returns the scalar regardless of the index.
func (s Scalar) At(int) float64 { return float64(s) }

// Values is a Bound holding one value per element.
type Values []float64

// At returns the value for element i.
func (v Values) At(i int) float64 { return v[i] }

// Linear maps x from the input range [lx, rx] onto the output range [ly, ry].
//
// The input range width is floored at MinRangeWidth, so a degenerate range does not
// divide by zero. No clamping is applied; values outside [lx, rx] extrapolate.
//
// Arguments:
//   - x: The value to map.
//   - lx, rx: The input range.
//   - ly, ry: The output range.
//
// Returns:
//   - float64: The mapped value.
//
// @example
// y := Linear(0.5, 0, 1, 1, 3) // 2
func Linear(x, lx, rx, ly, ry float64) float64 {
	width := rx - lx
	if width < MinRangeWidth {
		width = MinRangeWidth
	}
	return ly + (x-lx)/width*(ry-ly)
}

// LinearSlice applies Linear element-wise. Each element may use its own input range.
//
// Arguments:
//   - dst: Destination slice; allocated when nil, must match len(xs) otherwise.
//   - xs: The values to map.
//   - lx, rx: Input range bounds, Scalar or Values of len(xs).
//   - ly, ry: The output range.
//
// Returns:
//   - []float64: dst holding the mapped values.
//   - error: If a slice length does not match len(xs).
func LinearSlice(dst, xs []float64, lx, rx Bound, ly, ry float64) ([]float64, error) {
	if dst == nil {
		dst = make([]float64, len(xs))
	}
	if len(dst) != len(xs) {
		return nil, errors.Errorf("destination length %d does not match input length %d", len(dst), len(xs))
	}
	for _, b := range []Bound{lx, rx} {
		if v, ok := b.(Values); ok && len(v) != len(xs) {
			return nil, errors.Errorf("bound length %d does not match input length %d", len(v), len(xs))
		}
	}

	for i, x := range xs {
		dst[i] = Linear(x, lx.At(i), rx.At(i), ly, ry)
	}
	return dst, nil
}

// Clamp restricts a value to the range [min, max].
//
// @example
// clamped := Clamp(1.2, 0, 1) // Returns 1
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
