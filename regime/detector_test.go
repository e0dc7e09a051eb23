package regime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPreStormBeforeStorm(t *testing.T) {
	d := NewDetector(DefaultThresholds())
	now := time.Now()
	entropies := []float64{0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.2, 0.4, 0.65, 0.7, 0.75}

	sawPreStorm := false
	sawStormBeforePreStorm := false
	for i, e := range entropies {
		s := d.Observe(Observation{Entropy: e, Now: now.Add(time.Duration(i) * time.Millisecond), Residual: e})
		if s == PreStorm {
			sawPreStorm = true
		}
		if s == Storm && !sawPreStorm {
			sawStormBeforePreStorm = true
		}
	}
	require.True(t, sawPreStorm)
	require.False(t, sawStormBeforePreStorm)
}

func TestStormHysteresisRequiresFiveConsecutive(t *testing.T) {
	d := NewDetector(DefaultThresholds())
	now := time.Now()
	for i := 0; i < 4; i++ {
		d.Observe(Observation{Entropy: 0.95, Now: now.Add(time.Duration(i) * time.Second), Residual: 0.9})
		require.NotEqual(t, Storm, d.ConsensusState())
	}
	d.Observe(Observation{Entropy: 0.95, Now: now.Add(4 * time.Second), Residual: 0.9})
	require.Equal(t, Storm, d.ConsensusState())
}

func TestCalmDemotionRequiresFiveConsecutive(t *testing.T) {
	d := NewDetector(DefaultThresholds())
	now := time.Now()
	for i := 0; i < 5; i++ {
		d.Observe(Observation{Entropy: 0.95, Now: now.Add(time.Duration(i) * time.Second), Residual: 0.9})
	}
	require.Equal(t, Storm, d.ConsensusState())

	for i := 0; i < 4; i++ {
		d.Observe(Observation{Entropy: 0.01, Now: now.Add(time.Duration(5+i) * time.Second), Residual: 0})
		require.Equal(t, Storm, d.ConsensusState())
	}
	d.Observe(Observation{Entropy: 0.01, Now: now.Add(9 * time.Second), Residual: 0})
	require.Equal(t, Calm, d.ConsensusState())
}

func TestWindowStartsEmpty(t *testing.T) {
	d := NewDetector(DefaultThresholds())
	require.Equal(t, 0, d.WindowFilled())
}

func TestQuorumEscalation(t *testing.T) {
	require.False(t, QuorumEscalatesStorm([]float64{0.9, 0.85}))
	require.True(t, QuorumEscalatesStorm([]float64{0.9, 0.85, 0.81}))
	low := make([]float64, 100)
	for i := range low {
		low[i] = 0.3
	}
	combined := append([]float64{0.9, 0.85}, low...)
	require.False(t, QuorumEscalatesStorm(combined))
}
