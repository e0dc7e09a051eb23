package silence

import (
	"testing"

	"github.com/edgeswarm/core/regime"
	"github.com/stretchr/testify/require"
)

func TestStormForcesActive(t *testing.T) {
	c := NewController(DefaultParams())
	mode := c.Update(regime.Storm, false, 0)
	require.Equal(t, Active, mode)
}

func TestDeepSilenceRequiresStability(t *testing.T) {
	c := NewController(DefaultParams())
	mode := c.Update(regime.Calm, true, 100)
	require.Equal(t, DeepSilence, mode)
}

func TestDeepSilenceNeverBroadcastsBeforeHeartbeat(t *testing.T) {
	c := NewController(DefaultParams())
	c.Update(regime.Calm, true, 100)
	for i := int64(0); i < c.params.HeartbeatInterval-1; i++ {
		require.False(t, c.ShouldBroadcast(1.0, 1.0, 1.0, 0))
		c.Tick()
	}
}

func TestDeepSilenceBroadcastsAtHeartbeat(t *testing.T) {
	c := NewController(DefaultParams())
	c.Update(regime.Calm, true, 100)
	for i := int64(0); i < c.params.HeartbeatInterval; i++ {
		c.Tick()
	}
	require.True(t, c.ShouldBroadcast(0, 0, 1.0, 0))
}

func TestEnergyGuardOverridesEverything(t *testing.T) {
	c := NewController(DefaultParams())
	c.Update(regime.Storm, false, 0)
	require.False(t, c.ShouldBroadcast(1.0, 1.0, 0.05, 0))
}

func TestAlertRequiresEnergy(t *testing.T) {
	c := NewController(DefaultParams())
	c.Update(regime.PreStorm, false, 0)
	require.False(t, c.ShouldBroadcast(1, 1, 0.2, 0))
	require.True(t, c.ShouldBroadcast(1, 1, 0.5, 0))
}
