package fixedpoint

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBFP16RoundTripBoundedError(t *testing.T) {
	values := []float64{1.5, -2.25, 0.0, 100.75, -99.9}
	v := EncodeBFP16(values)
	require.Equal(t, len(values), v.Dim())

	decoded := v.Decode()
	bound := math.Pow(2, float64(v.Exponent))
	for i, want := range values {
		require.InDelta(t, want, decoded[i], bound+1e-9)
	}
}

func TestBFP16EmptyVector(t *testing.T) {
	v := EncodeBFP16(nil)
	require.Equal(t, 0, v.Dim())
}

func TestBFP16RenormalizeNeverLowersPrecision(t *testing.T) {
	v := EncodeBFP16([]float64{0.0001, 0.0002, -0.00015})
	renorm := v.Renormalize(30000)
	require.LessOrEqual(t, renorm.Exponent, v.Exponent)
}
