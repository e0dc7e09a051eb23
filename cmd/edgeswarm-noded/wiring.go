package main

import (
	"time"

	"github.com/edgeswarm/core/aggregator"
	"github.com/edgeswarm/core/audit"
	"github.com/edgeswarm/core/config"
	"github.com/edgeswarm/core/fixedpoint"
	"github.com/edgeswarm/core/node"
	"github.com/edgeswarm/core/regime"
	"github.com/edgeswarm/core/silence"
	"github.com/edgeswarm/core/store"
)

// buildNode wires a config.Parameters and a persisted identity into a
// ready node.Node, the glue between the config/store packages and the
// domain orchestrator.
func buildNode(params config.Parameters, identity store.IdentityPair, modelDim int, now time.Time) *node.Node {
	cfg := node.Config{
		Identity:      identity.Identity,
		X25519Private: identity.X25519Private,
		EnergyCapacity: params.Energy.Capacity,
		RegimeThresholds: regime.Thresholds{
			Entropy:           params.Regime.EntropyThreshold,
			ThroughputBytesPS: params.Regime.ThroughputThreshold,
			Derivative:        params.Regime.DerivativeThreshold,
		},
		SilenceParams: silence.DefaultParams(),
		Role:          params.TWT.Role,
		Schedule:      params.TWT.Schedule(),
		ClipThreshold: params.Privacy.ClippingThreshold,
		DPEpsilon:     params.Privacy.Epsilon,
		DPDelta:       params.Privacy.Delta,
		PrivacyBudget: params.Privacy.Epsilon * 100,
		PrivacyDecay:  0.99,
		BufferSize:    params.Aggregation.BufferSize,
		AggregatorMode: params.Aggregation.Mode,
		AggregatorParams: aggregator.Params{
			TrimFraction: params.Aggregation.TrimFraction,
			F:            int(params.Aggregation.ExpectedByzantineFraction * float64(params.Aggregation.BufferSize)),
			LearningRate: 0.5,
		},
		AuditConfig: audit.Config{
			AuditInterval:    params.Audit.Interval,
			NodesPerAudit:    params.Audit.NodesPerAudit,
			EntropyThreshold: params.Audit.EntropyThreshold,
			ResponseTimeout:  params.ResponseTimeout(),
		},
	}

	initialModel := make([]fixedpoint.Q16, modelDim)
	return node.New(cfg, now, initialModel)
}
