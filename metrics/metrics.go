// Package metrics wires node-internal counters and gauges into
// Prometheus: dropped packets, bans, silence-state ticks, energy
// ratio, and aggregation duration.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Registry is a prometheus registry usable both to register new
// collectors and to gather them for export.
type Registry interface {
	prometheus.Registerer
	prometheus.Gatherer
}

// NewRegistry creates a fresh, empty registry.
func NewRegistry() Registry {
	return prometheus.NewRegistry()
}

// MultiGatherer combines metrics from several independently-owned
// registries (e.g. one per node in a multi-node test harness) under
// one export endpoint.
type MultiGatherer interface {
	prometheus.Gatherer
	Register(name string, gatherer prometheus.Gatherer) error
}

type multiGatherer struct {
	gatherers map[string]prometheus.Gatherer
}

// NewMultiGatherer creates an empty MultiGatherer.
func NewMultiGatherer() MultiGatherer {
	return &multiGatherer{gatherers: make(map[string]prometheus.Gatherer)}
}

func (mg *multiGatherer) Register(name string, gatherer prometheus.Gatherer) error {
	if _, exists := mg.gatherers[name]; exists {
		return errAlreadyRegistered(name)
	}
	mg.gatherers[name] = gatherer
	return nil
}

func (mg *multiGatherer) Gather() ([]*dto.MetricFamily, error) {
	var result []*dto.MetricFamily
	for _, g := range mg.gatherers {
		families, err := g.Gather()
		if err != nil {
			return nil, err
		}
		result = append(result, families...)
	}
	return result, nil
}

type alreadyRegisteredError string

func (e alreadyRegisteredError) Error() string {
	return "metrics: gatherer already registered: " + string(e)
}
func errAlreadyRegistered(name string) error { return alreadyRegisteredError(name) }

// NodeMetrics is the set of counters/gauges one node instance
// publishes. A struct field on the caller, never a package global, so
// multiple nodes in one process don't collide.
type NodeMetrics struct {
	PacketsDropped   *prometheus.CounterVec // label: reason
	PeersBanned      prometheus.Counter
	SilenceTicks     *prometheus.CounterVec // label: state
	EnergyRatio      prometheus.Gauge
	AggregationSecs  prometheus.Histogram
	AuditChallenges  prometheus.Counter
	AuditFailures    prometheus.Counter
	FragmentsEmitted prometheus.Counter
}

// NewNodeMetrics builds and registers one node's metric set under
// namespace, typically "edgeswarm".
func NewNodeMetrics(namespace string, reg prometheus.Registerer) (*NodeMetrics, error) {
	m := &NodeMetrics{
		PacketsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "packets_dropped_total", Help: "Packets dropped, by reason.",
		}, []string{"reason"}),
		PeersBanned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "peers_banned_total", Help: "Peers whose reputation fell below the ban threshold.",
		}),
		SilenceTicks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "silence_state_ticks_total", Help: "Ticks spent in each silence-controller state.",
		}, []string{"state"}),
		EnergyRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "energy_ratio", Help: "Current energy reserve as a fraction of capacity.",
		}),
		AggregationSecs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "aggregation_duration_seconds", Help: "Wall time spent in Aggregate().",
		}),
		AuditChallenges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "audit_challenges_total", Help: "Collusion-audit challenges issued.",
		}),
		AuditFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "audit_failures_total", Help: "Collusion-audit responses that failed verification.",
		}),
		FragmentsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "fragments_emitted_total", Help: "Wire fragments emitted by this node.",
		}),
	}

	collectors := []prometheus.Collector{
		m.PacketsDropped, m.PeersBanned, m.SilenceTicks, m.EnergyRatio,
		m.AggregationSecs, m.AuditChallenges, m.AuditFailures, m.FragmentsEmitted,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}
