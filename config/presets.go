package config

import (
	"github.com/edgeswarm/core/aggregator"
	"github.com/edgeswarm/core/twt"
)

// Testnet returns parameters suited to a small, low-stakes swarm:
// permissive thresholds, short audit interval, no signature
// enforcement.
func Testnet() Parameters {
	return Parameters{
		Aggregation: AggregationParams{
			Mode:                      aggregator.TrimmedMean,
			ExpectedByzantineFraction: 0.2,
			BufferSize:                10,
			TrimFraction:              0.2,
			BanRateThreshold:          DefaultBanRateThreshold,
			MinMatureSamples:          DefaultMinMatureSamples,
		},
		Security: SecurityParams{RequireSignatures: false},
		Privacy: PrivacyParams{
			Epsilon:                  4.0,
			Delta:                    1e-4,
			ClippingThreshold:        2.0,
			SecureAggregationEnabled: true,
		},
		Regime: RegimeParams{
			EntropyThreshold:    0.6,
			ThroughputThreshold: 0.4,
			DerivativeThreshold: 0.3,
		},
		Audit: AuditParams{
			Interval:            25,
			NodesPerAudit:       3,
			EntropyThreshold:    0.3,
			ResponseTimeoutSecs: 10,
		},
		Energy: EnergyParams{
			Capacity: 100_000,
			Costs: EnergyCosts{
				GossipSend:   10,
				Heartbeat:    1,
				Predict:      5,
				RechargeRate: 2,
			},
		},
		TWT: TWTParams{Role: twt.Scheduled, BaseIntervalMs: 2000, JitterMs: 200, MaxBatchSize: 16},
	}
}

// MainnetLike returns conservative parameters for a production-sized
// swarm: tighter trim fraction, signature enforcement, longer audit
// interval, larger energy budget.
func MainnetLike() Parameters {
	p := Testnet()
	p.Aggregation.Mode = aggregator.Adaptive
	p.Aggregation.ExpectedByzantineFraction = 0.33
	p.Aggregation.TrimFraction = 0.1
	p.Security.RequireSignatures = true
	p.Privacy.Epsilon = 1.0
	p.Privacy.Delta = 1e-6
	p.Audit.Interval = 100
	p.Audit.NodesPerAudit = 5
	p.Energy.Capacity = 1_000_000
	p.TWT.Role = twt.Sentinel
	return p
}

// LocalSingleNode returns parameters for a single-node development
// loop: a deterministic mode, generous energy, signatures still
// enforced so the crypto path is exercised end to end.
func LocalSingleNode() Parameters {
	p := Testnet()
	p.Aggregation.Mode = aggregator.SimpleMean
	p.Aggregation.BufferSize = 1
	p.Security.RequireSignatures = true
	p.Audit.Interval = 5
	p.TWT.Role = twt.OnDemand
	return p
}
