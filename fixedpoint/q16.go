// Package fixedpoint implements the Q16.16 fixed-point and BFP-16
// block-floating-point numeric substrate. Every value that flows into
// consensus travels through here instead of native float; all
// arithmetic is deterministic two's-complement wrapping so that
// aggregation results are bit-identical across architectures.
package fixedpoint

import "math/bits"

// Q16 is a Q16.16 fixed-point number: a signed 32-bit integer
// interpreted as value*2^16. Overflow wraps, matching Go's native
// int32 semantics, which are already two's-complement wrapping.
type Q16 int32

const (
	fracBits = 16
	One      = Q16(1 << fracBits)
)

// FromInt converts a whole number into Q16.16.
func FromInt(v int32) Q16 {
	return Q16(v << fracBits)
}

// FromFloat64 converts a float into Q16.16. Only admissible off the
// consensus path (telemetry, config parsing, DP noise generation
// before quantisation) per the determinism contract.
func FromFloat64(v float64) Q16 {
	return Q16(int32(v * float64(One)))
}

// Float64 converts back to float64, for telemetry/debug only.
func (q Q16) Float64() float64 {
	return float64(q) / float64(One)
}

// Add returns a+b with wrapping overflow.
func (a Q16) Add(b Q16) Q16 {
	return Q16(int32(a) + int32(b))
}

// Sub returns a-b with wrapping overflow.
func (a Q16) Sub(b Q16) Q16 {
	return Q16(int32(a) - int32(b))
}

// Neg returns -a with wrapping overflow (for a == MinInt32 this wraps
// to itself, matching two's-complement semantics).
func (a Q16) Neg() Q16 {
	return Q16(-int32(a))
}

// Abs returns |a|; MinInt32 wraps to itself, documented rather than
// special-cased, since that edge value never arises from legitimate
// model weights in this system's value range.
func (a Q16) Abs() Q16 {
	if a < 0 {
		return a.Neg()
	}
	return a
}

// Mul returns a*b using a 64-bit intermediate, shifted back down.
func (a Q16) Mul(b Q16) Q16 {
	return Q16((int64(a) * int64(b)) >> fracBits)
}

// Div returns a/b using a 64-bit intermediate shifted up before
// dividing. Division by zero panics, matching Go's native int
// division behaviour; callers on the consensus path must guard.
func (a Q16) Div(b Q16) Q16 {
	return Q16((int64(a) << fracBits) / int64(b))
}

// Less, for sort stability helpers in aggregator.
func (a Q16) Less(b Q16) bool { return a < b }

// Sqrt computes an integer-deterministic square root via four
// iterations of Newton's method in Q16.16, as mandated by the
// determinism contract: identical inputs produce bit-identical
// outputs on any 32-bit-or-wider two's-complement target.
func Sqrt(x Q16) Q16 {
	if x <= 0 {
		return 0
	}
	// Seed the iteration from the bit-length of x so convergence is
	// fast and itself deterministic (no float shortcuts).
	guess := Q16(1 << uint((bits.Len32(uint32(x))+fracBits)/2))
	if guess == 0 {
		guess = One
	}
	for i := 0; i < 4; i++ {
		if guess == 0 {
			break
		}
		guess = (guess.Add(x.Div(guess))).Div(FromInt(2))
	}
	return guess
}
