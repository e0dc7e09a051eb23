package aggregator

import (
	"testing"

	"github.com/edgeswarm/core/fixedpoint"
	"github.com/stretchr/testify/require"
)

func vec1(v float64) Update {
	return Update{Values: []fixedpoint.Q16{fixedpoint.FromFloat64(v)}}
}

func TestKrumRejectsOutlier(t *testing.T) {
	updates := []Update{vec1(1), vec1(1.1), vec1(0.9), vec1(1.05), vec1(100)}
	res, err := Aggregate(Krum, updates, nil, Params{Q: 1})
	require.NoError(t, err)
	require.NotContains(t, res.SelectedIndices, 4)
	require.Less(t, res.Vector[0].Float64(), 10.0)
}

func TestTrimmedMeanByz(t *testing.T) {
	updates := []Update{vec1(0), vec1(1.0), vec1(1.1), vec1(0.9), vec1(100)}
	res, err := Aggregate(TrimmedMeanByz, updates, nil, Params{F: 1})
	require.NoError(t, err)
	require.InDelta(t, 1.0, res.Vector[0].Float64(), 0.02)
}

func TestMedianEvenAveragesMiddlePair(t *testing.T) {
	updates := []Update{vec1(1), vec1(2), vec1(3), vec1(4)}
	res, err := Aggregate(Median, updates, nil, Params{})
	require.NoError(t, err)
	require.InDelta(t, 2.5, res.Vector[0].Float64(), 1e-6)
}

func TestKrumFallsBackWhenConstraintUnmet(t *testing.T) {
	updates := []Update{vec1(1), vec1(2), vec1(3)}
	res, err := Aggregate(Krum, updates, nil, Params{Q: 1})
	require.NoError(t, err)
	require.True(t, res.FellBack)
	require.Empty(t, res.SelectedIndices)
}

func TestTrimmedMeanFallsBackWhenTrimTooLarge(t *testing.T) {
	updates := []Update{vec1(1), vec1(2), vec1(3)}
	res, err := Aggregate(TrimmedMean, updates, nil, Params{TrimFraction: 1.5})
	require.NoError(t, err)
	require.True(t, res.FellBack)
}

func TestDimensionMismatchRejected(t *testing.T) {
	updates := []Update{
		{Values: []fixedpoint.Q16{1, 2}},
		{Values: []fixedpoint.Q16{1}},
	}
	_, err := Aggregate(SimpleMean, updates, nil, Params{})
	require.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestINV1BoundedInfluenceSingleAdversary(t *testing.T) {
	updates := make([]Update, 0, 10)
	for i := 0; i < 9; i++ {
		updates = append(updates, vec1(1.0))
	}
	updates = append(updates, vec1(100)) // adversary, bias=100, R=0.01
	res, err := Aggregate(TrimmedMeanByz, updates, nil, Params{F: 1})
	require.NoError(t, err)
	require.Less(t, res.Vector[0].Float64()-1.0, 0.15)
}

func TestINV2SybilDilutionDoesNotDoubleDrift(t *testing.T) {
	honest := []Update{vec1(1), vec1(1), vec1(1), vec1(1), vec1(1), vec1(1), vec1(1), vec1(1)}

	oneSybil := append(append([]Update{}, honest...), vec1(1.5))
	resOne, err := Aggregate(TrimmedMean, oneSybil, nil, Params{TrimFraction: 0.2})
	require.NoError(t, err)
	driftOne := resOne.Vector[0].Float64() - 1.0

	twoSybil := append(append([]Update{}, honest...), vec1(1.5), vec1(1.5))
	resTwo, err := Aggregate(TrimmedMean, twoSybil, nil, Params{TrimFraction: 0.2})
	require.NoError(t, err)
	driftTwo := resTwo.Vector[0].Float64() - 1.0

	if driftOne > 0 {
		require.Less(t, driftTwo, 2*driftOne+1e-9)
	}
}

func TestWeightedTrimmedMeanSybilDilution(t *testing.T) {
	updates := []Update{
		vec1(1.0), vec1(1.0), vec1(1.0), vec1(1.0),
		vec1(1.0), vec1(1.0), vec1(1.0), vec1(1.0),
		vec1(1.5), vec1(1.5), vec1(1.5), vec1(1.5),
		vec1(0.0), vec1(2.0), // bookends to absorb trim
	}
	weights := []float64{
		0.729, 0.729, 0.729, 0.729, 0.729, 0.729, 0.729, 0.729,
		0.125, 0.125, 0.125, 0.125,
		0.125, 0.125,
	}
	res, err := Aggregate(WeightedTrimmedMean, updates, weights, Params{F: 1})
	require.NoError(t, err)
	drift := res.Vector[0].Float64() - 1.0
	require.Less(t, drift, 0.25)
	require.Less(t, res.Vector[0].Float64(), 1.25)
}

func TestDeterministicAcrossRuns(t *testing.T) {
	updates := []Update{vec1(5), vec1(1), vec1(9), vec1(3), vec1(100)}
	r1, err := Aggregate(TrimmedMeanByz, updates, nil, Params{F: 1})
	require.NoError(t, err)
	r2, err := Aggregate(TrimmedMeanByz, updates, nil, Params{F: 1})
	require.NoError(t, err)
	require.Equal(t, r1.Vector, r2.Vector)
}

func TestApplyLearningRate(t *testing.T) {
	model := []fixedpoint.Q16{fixedpoint.FromFloat64(1.0)}
	result := []fixedpoint.Q16{fixedpoint.FromFloat64(2.0)}
	updated := ApplyLearningRate(model, result, 0.5)
	require.InDelta(t, 1.5, updated[0].Float64(), 1e-4)
}

func TestBufferRingEviction(t *testing.T) {
	b := NewBuffer(2)
	b.Push(vec1(1))
	b.Push(vec1(2))
	b.Push(vec1(3))
	require.True(t, b.Full())
	drained := b.Drain()
	require.Len(t, drained, 2)
	require.InDelta(t, 2.0, drained[0].Values[0].Float64(), 1e-6)
	require.InDelta(t, 3.0, drained[1].Values[0].Float64(), 1e-6)
}
