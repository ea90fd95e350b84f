// Package fixed implements the Q1.15 signed fixed-point arithmetic used by
// the shape detector: one sign bit, fifteen fractional bits, value = raw/2^15.
//
// Products of two Q1.15 values are summed into a 32-bit Accumulator. The
// accumulator is narrowed back to Q1.15 by keeping its upper half, that is
// an arithmetic shift right by 16.
package fixed

import (
	"fmt"
	"iter"
	"maps"
	"math"
)

const (
	FRAC_BITS  = 15                   // Fractional bits in a Value.
	ONE        = 1 << FRAC_BITS       // Scale factor; 1.0 itself is not representable.
	MAX        = Value(math.MaxInt16) // +0.99997
	MIN        = Value(math.MinInt16) // -1.0
	HALF       = Value(1 << 14)       // 0.5
	ZERO       = Value(0)
	TRUNC_BITS = 16 // Bits discarded when narrowing an Accumulator.

	PIXEL_SCALE = 128 // Raw pixel to Q1.15 multiplier.
)

var _fixed_defines = map[string]string{
	"Q15_ONE":     fmt.Sprintf("%v", ONE),
	"Q15_HALF":    fmt.Sprintf("%v", int(HALF)),
	"Q15_MAX":     fmt.Sprintf("%v", int(MAX)),
	"Q15_MIN":     fmt.Sprintf("%v", int(MIN)),
	"PIXEL_SCALE": fmt.Sprintf("%v", PIXEL_SCALE),
}

// Defines returns the fixed-point constants as name/value pairs.
func Defines() iter.Seq2[string, string] {
	return maps.All(_fixed_defines)
}

// Value is a Q1.15 fixed-point number.
type Value int16

// Accumulator holds a bias-seeded running sum of Q1.15 products.
// Additions wrap modulo 2^32, as a 32-bit hardware register does.
type Accumulator int32

// FromFloat quantizes a real number to Q1.15.
// The input is clamped to [-1, MAX] and scaled by 2^15, truncating toward zero.
func FromFloat(val float64) Value {
	hi := MAX.Float()
	switch {
	case math.IsNaN(val):
		return ZERO
	case val > hi:
		val = hi
	case val < -1.0:
		val = -1.0
	}

	return Value(int32(val * ONE))
}

// FromPixel maps an 8-bit sample onto [0, 0.99609].
func FromPixel(pixel uint8) Value {
	return Value(int16(pixel) * PIXEL_SCALE)
}

// Saturate clamps a wide integer into the Value range.
func Saturate(raw int32) Value {
	switch {
	case raw > int32(MAX):
		return MAX
	case raw < int32(MIN):
		return MIN
	}
	return Value(raw)
}

// Float returns the real number represented by the Value.
func (v Value) Float() float64 {
	return float64(v) / ONE
}

// String renders the Value as a decimal fraction.
func (v Value) String() string {
	return fmt.Sprintf("%.5f", v.Float())
}

// Tanh is the piecewise-linear hyperbolic tangent approximation: values
// beyond +/-0.5 saturate to +/-MAX, the rest pass through.
func Tanh(v Value) Value {
	switch {
	case v > HALF:
		return MAX
	case v < -HALF:
		return -MAX
	}
	return v
}

// ReLU clamps negative values to zero.
func ReLU(v Value) Value {
	if v < 0 {
		return ZERO
	}
	return v
}

// Seed sign-extends a bias into a fresh Accumulator.
func Seed(bias Value) Accumulator {
	return Accumulator(bias)
}

// Mac adds the full-width product of weight and input to the accumulator.
func (acc Accumulator) Mac(weight Value, input Value) Accumulator {
	return acc + Accumulator(int32(weight)*int32(input))
}

// Truncate narrows the accumulator to Q1.15 by keeping bits 31..16.
func (acc Accumulator) Truncate() Value {
	return Value(int32(acc) >> TRUNC_BITS)
}
