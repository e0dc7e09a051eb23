package twt

import (
	"testing"
	"time"

	"github.com/edgeswarm/core/regime"
	"github.com/stretchr/testify/require"
)

func TestSentinelAlwaysAwake(t *testing.T) {
	now := time.Now()
	s := NewScheduler(Sentinel, ScheduleConfig{}, now)
	require.True(t, s.Tick(now, regime.Calm))
	s.Sleep(now, regime.Calm) // no-op for sentinel
	require.True(t, s.Tick(now, regime.Calm))
}

func TestOnDemandSleepsUntilEmergencyWake(t *testing.T) {
	now := time.Now()
	s := NewScheduler(OnDemand, ScheduleConfig{}, now)
	s.Sleep(now, regime.Calm)
	require.False(t, s.IsAwake())
	s.EmergencyWake(now.Add(time.Minute))
	require.True(t, s.IsAwake())
}

func TestScheduledBatchDropsOldestOnOverflow(t *testing.T) {
	now := time.Now()
	s := NewScheduler(Scheduled, ScheduleConfig{MaxBatchSize: 2}, now)
	s.Sleep(now, regime.Calm)
	s.Enqueue(Queued{Payload: []byte("a")})
	s.Enqueue(Queued{Payload: []byte("b")})
	s.Enqueue(Queued{Payload: []byte("c")})
	flushed := s.FlushOnWake()
	require.Len(t, flushed, 2)
	require.Equal(t, "b", string(flushed[0].Payload))
	require.Equal(t, "c", string(flushed[1].Payload))
}

func TestScheduledWakesAfterInterval(t *testing.T) {
	now := time.Now()
	s := NewScheduler(Scheduled, ScheduleConfig{}, now)
	s.Sleep(now, regime.Storm)
	require.False(t, s.Tick(now, regime.Storm))
	require.True(t, s.Tick(now.Add(31*time.Second), regime.Storm))
}

func TestRadioSleepRatioAccumulates(t *testing.T) {
	now := time.Now()
	s := NewScheduler(Scheduled, ScheduleConfig{}, now)
	s.Sleep(now, regime.Storm)
	later := now.Add(60 * time.Second)
	ratio := s.RadioSleepRatio(later)
	require.Greater(t, ratio, 0.9)
}
