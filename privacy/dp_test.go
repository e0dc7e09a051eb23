package privacy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClipL2ScalesDownOversizedVector(t *testing.T) {
	w := []float64{3, 4} // norm = 5
	ClipL2(w, 2.5)
	var norm float64
	for _, v := range w {
		norm += v * v
	}
	require.InDelta(t, 2.5, math.Sqrt(norm), 1e-9)
}

func TestClipL2NoOpWithinBound(t *testing.T) {
	w := []float64{1, 1}
	ClipL2(w, 10)
	require.Equal(t, []float64{1, 1}, w)
}

func TestSigmaIncreasesAsEpsilonShrinks(t *testing.T) {
	high := Sigma(1.0, 0.1, 1e-5)
	low := Sigma(1.0, 1.0, 1e-5)
	require.Greater(t, high, low)
}

func TestAccountantRefusesOverBudget(t *testing.T) {
	a := NewAccountant(1.0, 0.9)
	require.NoError(t, a.Spend(0.6))
	require.NoError(t, a.Spend(0.3))
	require.ErrorIs(t, a.Spend(0.2), ErrBudgetExceeded)
}

func TestAccountantDecayShrinksConsumed(t *testing.T) {
	a := NewAccountant(1.0, 0.5)
	require.NoError(t, a.Spend(0.8))
	a.Decay()
	require.InDelta(t, 0.4, a.Consumed(), 1e-9)
}

func TestGaussianNoiseDeterministicFromSeed(t *testing.T) {
	var key [32]byte
	var nonce [12]byte
	key[0] = 1

	g1, err := NewGaussianNoiseFromSeed(key, nonce)
	require.NoError(t, err)
	g2, err := NewGaussianNoiseFromSeed(key, nonce)
	require.NoError(t, err)

	require.Equal(t, g1.Sample(1.0), g2.Sample(1.0))
}
