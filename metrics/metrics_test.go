package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestNewNodeMetricsRegistersAllCollectors(t *testing.T) {
	reg := NewRegistry()
	m, err := NewNodeMetrics("edgeswarm", reg)
	require.NoError(t, err)

	m.PacketsDropped.WithLabelValues("crc_mismatch").Inc()
	m.PeersBanned.Inc()
	m.EnergyRatio.Set(0.42)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)
}

func TestNewNodeMetricsDuplicateNamespaceFails(t *testing.T) {
	reg := NewRegistry()
	_, err := NewNodeMetrics("edgeswarm", reg)
	require.NoError(t, err)
	_, err = NewNodeMetrics("edgeswarm", reg)
	require.Error(t, err)
}

func TestMultiGathererCombinesSources(t *testing.T) {
	mg := NewMultiGatherer()
	reg1 := prometheus.NewRegistry()
	reg2 := prometheus.NewRegistry()

	c1 := prometheus.NewCounter(prometheus.CounterOpts{Name: "a_total", Help: "a"})
	c2 := prometheus.NewCounter(prometheus.CounterOpts{Name: "b_total", Help: "b"})
	require.NoError(t, reg1.Register(c1))
	require.NoError(t, reg2.Register(c2))

	require.NoError(t, mg.Register("node1", reg1))
	require.NoError(t, mg.Register("node2", reg2))
	require.Error(t, mg.Register("node1", reg1))

	families, err := mg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 2)
}
