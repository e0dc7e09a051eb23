package aggregator

import "github.com/edgeswarm/core/reputation"

// AdaptiveAggregator chooses between a conservative cold-start policy
// and a mature policy based on the network's global ban rate. Both
// the ban-rate threshold and the minimum mature sample count are
// configurable.
type AdaptiveAggregator struct {
	tracker          *reputation.Tracker
	BanRateThreshold float64
	MinMatureSamples int
	ColdStartParams  Params
	MatureParams     Params
}

// DefaultBanRateThreshold and DefaultMinMatureSamples are the
// adaptive gate's defaults: 1% ban rate, 20 samples.
const (
	DefaultBanRateThreshold = 0.01
	DefaultMinMatureSamples = 20
)

// NewAdaptiveAggregator wires a reputation tracker into the gate.
func NewAdaptiveAggregator(tracker *reputation.Tracker, cold, mature Params) *AdaptiveAggregator {
	return &AdaptiveAggregator{
		tracker:          tracker,
		BanRateThreshold: DefaultBanRateThreshold,
		MinMatureSamples: DefaultMinMatureSamples,
		ColdStartParams:  cold,
		MatureParams:     mature,
	}
}

// IsColdStart reports whether this round should use the conservative
// policy: ban rate above threshold, or too few known samples. The
// transition is one-way per round but may flip back in a later round
// if attacks resume (re-evaluated fresh every call).
func (a *AdaptiveAggregator) IsColdStart() bool {
	if a.tracker.KnownPeers() < a.MinMatureSamples {
		return true
	}
	return a.tracker.BanRate() > a.BanRateThreshold
}

// Aggregate picks cold-start (Krum-style, high trim) or mature
// (weighted trimmed mean) and runs it.
func (a *AdaptiveAggregator) Aggregate(updates []Update, weights []float64) (Result, error) {
	if a.IsColdStart() {
		return Aggregate(Krum, updates, weights, a.ColdStartParams)
	}
	return Aggregate(WeightedTrimmedMean, updates, weights, a.MatureParams)
}
