package reputation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func peerN(n byte) PeerID {
	var p PeerID
	p[0] = n
	return p
}

func TestDefaultScore(t *testing.T) {
	tr := New()
	require.Equal(t, 0.5, tr.Score(peerN(1)))
}

func TestRewardMonotoneCapped(t *testing.T) {
	tr := New()
	p := peerN(1)
	var last float64
	for i := 0; i < 100; i++ {
		s := tr.Reward(p)
		require.GreaterOrEqual(t, s, last)
		last = s
	}
	require.LessOrEqual(t, last, 1.0)
}

func TestPenalizeMonotoneFloored(t *testing.T) {
	tr := New()
	p := peerN(1)
	last := 1.0
	for i := 0; i < 100; i++ {
		s := tr.PenalizeDrift(p)
		require.LessOrEqual(t, s, last)
		last = s
	}
	require.GreaterOrEqual(t, last, 0.0)
}

func TestBanThreshold(t *testing.T) {
	tr := New()
	p := peerN(1)
	require.False(t, tr.IsBanned(p))
	for i := 0; i < 4; i++ {
		tr.PenalizeZKPFailure(p)
	}
	// 0.5 - 4*0.15 = -0.1 -> floored at 0
	require.True(t, tr.IsBanned(p))
}

func TestInfluenceWeightCubeAndCap(t *testing.T) {
	require.InDelta(t, 0.729, InfluenceWeight(0.9), 1e-9)
	require.InDelta(t, 0.8, InfluenceWeight(1.0), 1e-9)
}

func TestInfluenceWeightResistsSlander(t *testing.T) {
	high := InfluenceWeight(0.9)
	lower := InfluenceWeight(0.74)
	drop := (high - lower) / high
	require.Less(t, drop, 0.60)
}

func TestBanRate(t *testing.T) {
	tr := New()
	for i := byte(0); i < 10; i++ {
		tr.Score(peerN(i))
	}
	require.Equal(t, 0.0, tr.BanRate())
	for i := byte(0); i < 2; i++ {
		for j := 0; j < 3; j++ {
			tr.PenalizeZKPFailure(peerN(i))
		}
	}
	require.InDelta(t, 0.2, tr.BanRate(), 1e-9)
}
