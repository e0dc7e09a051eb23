package fixedpoint

import "math"

// BFPVector is a block-floating-point vector: one signed exponent
// shared across all mantissas, denoting mantissa_i * 2^exponent.
type BFPVector struct {
	Exponent  int8
	Mantissas []int16
}

// Dim returns the vector's agreed dimension.
func (v BFPVector) Dim() int { return len(v.Mantissas) }

// EncodeBFP16 converts a float64 slice into a BFP-16 vector, choosing
// the exponent that maximises mantissa precision without overflowing
// int16. Off the consensus path only (model weights arrive already in
// Q16.16/BFP-16 on the wire; this is for local model state built from
// a training library using native floats).
func EncodeBFP16(values []float64) BFPVector {
	maxAbs := 0.0
	for _, v := range values {
		a := math.Abs(v)
		if a > maxAbs {
			maxAbs = a
		}
	}
	exponent := int8(0)
	if maxAbs > 0 {
		// Largest value must fit in int16 after scaling: find e such
		// that maxAbs / 2^e <= 32767.
		for maxAbs/math.Pow(2, float64(exponent)) > 32767 {
			exponent++
		}
		for exponent > -127 && maxAbs/math.Pow(2, float64(exponent-1)) <= 32767 {
			exponent--
		}
	}
	scale := math.Pow(2, float64(exponent))
	mantissas := make([]int16, len(values))
	for i, v := range values {
		m := v / scale
		if m > 32767 {
			m = 32767
		} else if m < -32768 {
			m = -32768
		}
		mantissas[i] = int16(m)
	}
	return BFPVector{Exponent: exponent, Mantissas: mantissas}
}

// Decode reconstructs an approximate float64 slice. Non-consensus
// (debug/telemetry) use only.
func (v BFPVector) Decode() []float64 {
	scale := math.Pow(2, float64(v.Exponent))
	out := make([]float64, len(v.Mantissas))
	for i, m := range v.Mantissas {
		out[i] = float64(m) * scale
	}
	return out
}

// MaxMantissaMagnitude returns the largest absolute mantissa value,
// used by the variance monitor to decide whether to renormalise.
func (v BFPVector) MaxMantissaMagnitude() int16 {
	var max int16
	for _, m := range v.Mantissas {
		a := m
		if a < 0 {
			a = -a
		}
		if a > max {
			max = a
		}
	}
	return max
}

// Renormalize re-encodes the vector from its decoded values when the
// peak mantissa magnitude has fallen below threshold, which picks the
// smallest exponent that still fits the peak and so keeps small
// gradients from vanishing. The exponent never grows; if it is
// already the best fit, the re-encoded vector keeps it. It re-encodes
// the whole vector, so callers call it once per block, not per
// coordinate.
func (v BFPVector) Renormalize(threshold int16) BFPVector {
	if v.MaxMantissaMagnitude() >= threshold {
		return v
	}
	return EncodeBFP16(v.Decode())
}
