// Package config defines the tunable runtime parameters of an
// edgeswarm node: aggregation mode, security policy, privacy budget,
// regime thresholds, audit cadence, energy costs, and TWT scheduling.
// Parameters is a plain struct, never package-level state: a process
// may run more than one node, each with its own configuration.
package config

import (
	"time"

	"github.com/edgeswarm/core/aggregator"
	"github.com/edgeswarm/core/internal/errutil"
	"github.com/edgeswarm/core/twt"
)

// AggregationParams groups the options under "aggregation.*".
type AggregationParams struct {
	Mode                      aggregator.Mode `yaml:"mode"`
	ExpectedByzantineFraction float64         `yaml:"expected_byzantines_fraction"`
	BufferSize                int             `yaml:"buffer_size"`
	TrimFraction              float64         `yaml:"trim_fraction"`
	BanRateThreshold          float64         `yaml:"ban_rate_threshold"`
	MinMatureSamples          int             `yaml:"min_mature_samples"`
}

// SecurityParams groups "security.*".
type SecurityParams struct {
	RequireSignatures bool     `yaml:"require_signatures"`
	TrustedPeers      []string `yaml:"trusted_peers"`
	TrustedPubkeys    []string `yaml:"trusted_pubkeys"`
}

// PrivacyParams groups "privacy.*".
type PrivacyParams struct {
	Epsilon                  float64 `yaml:"epsilon"`
	Delta                    float64 `yaml:"delta"`
	ClippingThreshold        float64 `yaml:"clipping_threshold"`
	SecureAggregationEnabled bool    `yaml:"secure_aggregation_enabled"`
}

// RegimeParams groups "regime.*".
type RegimeParams struct {
	EntropyThreshold    float64 `yaml:"entropy_threshold"`
	ThroughputThreshold float64 `yaml:"throughput_threshold"`
	DerivativeThreshold float64 `yaml:"derivative_threshold"`
}

// AuditParams groups "audit.*".
type AuditParams struct {
	Interval              uint64  `yaml:"interval"`
	NodesPerAudit         int     `yaml:"nodes_per_audit"`
	EntropyThreshold      float64 `yaml:"entropy_threshold"`
	ResponseTimeoutSecs   int     `yaml:"response_timeout_seconds"`
}

// EnergyCosts groups "energy.costs.*".
type EnergyCosts struct {
	GossipSend   int64 `yaml:"gossip_send"`
	Heartbeat    int64 `yaml:"heartbeat"`
	Predict      int64 `yaml:"predict"`
	RechargeRate int64 `yaml:"recharge_rate"`
}

// EnergyParams groups "energy.*".
type EnergyParams struct {
	Capacity int64       `yaml:"capacity"`
	Costs    EnergyCosts `yaml:"costs"`
}

// TWTParams groups "twt.*". Role selects the scheduling discipline;
// BaseIntervalMs/Jitter/MaxBatchSize are passed to twt.ScheduleConfig
// and checked only for the Scheduled role. The scheduler takes its
// wake interval from the regime alone and does not read BaseIntervalMs.
type TWTParams struct {
	Role           twt.Role `yaml:"role"`
	BaseIntervalMs int64    `yaml:"base_interval_ms"`
	JitterMs       int64    `yaml:"jitter_ms"`
	MaxBatchSize   int      `yaml:"max_batch_size"`
}

// Schedule builds the twt.ScheduleConfig these parameters describe.
func (t TWTParams) Schedule() twt.ScheduleConfig {
	return twt.ScheduleConfig{
		BaseIntervalMS: t.BaseIntervalMs,
		JitterMS:       t.JitterMs,
		MaxBatchSize:   t.MaxBatchSize,
	}
}

// Parameters is the full recognised-option set for a node.
type Parameters struct {
	Aggregation AggregationParams `yaml:"aggregation"`
	Security    SecurityParams    `yaml:"security"`
	Privacy     PrivacyParams     `yaml:"privacy"`
	Regime      RegimeParams      `yaml:"regime"`
	Audit       AuditParams       `yaml:"audit"`
	Energy      EnergyParams      `yaml:"energy"`
	TWT         TWTParams         `yaml:"twt"`
}

// DefaultBanRateThreshold and DefaultMinMatureSamples are the adaptive
// aggregator's cold-start/mature gate defaults.
const (
	DefaultBanRateThreshold = 0.01
	DefaultMinMatureSamples = 20
)

// ResponseTimeout returns Audit.ResponseTimeoutSecs as a Duration.
func (p Parameters) ResponseTimeout() time.Duration {
	return time.Duration(p.Audit.ResponseTimeoutSecs) * time.Second
}

// Validate accumulates every out-of-range option rather than
// returning on the first failure, so a misconfigured file reports all
// problems at once.
func (p Parameters) Validate() error {
	var errs errutil.Errs

	if p.Aggregation.ExpectedByzantineFraction < 0 || p.Aggregation.ExpectedByzantineFraction >= 0.5 {
		errs.Add(errInvalidRange("aggregation.expected_byzantines_fraction", "[0, 0.5)"))
	}
	if p.Aggregation.BufferSize <= 0 {
		errs.Add(errInvalidRange("aggregation.buffer_size", "positive int"))
	}
	if p.Aggregation.TrimFraction < 0 || p.Aggregation.TrimFraction >= 0.5 {
		errs.Add(errInvalidRange("aggregation.trim_fraction", "[0, 0.5)"))
	}
	if p.Privacy.Epsilon <= 0 {
		errs.Add(errInvalidRange("privacy.epsilon", "> 0"))
	}
	if p.Privacy.Delta <= 0 || p.Privacy.Delta >= 1 {
		errs.Add(errInvalidRange("privacy.delta", "(0, 1)"))
	}
	if p.Privacy.ClippingThreshold <= 0 {
		errs.Add(errInvalidRange("privacy.clipping_threshold", "> 0"))
	}
	if p.Audit.Interval == 0 {
		errs.Add(errInvalidRange("audit.interval", "> 0"))
	}
	if p.Audit.NodesPerAudit <= 0 {
		errs.Add(errInvalidRange("audit.nodes_per_audit", "positive int"))
	}
	if p.Energy.Capacity <= 0 {
		errs.Add(errInvalidRange("energy.capacity", "> 0"))
	}
	if p.TWT.Role == twt.Scheduled && p.TWT.BaseIntervalMs <= 0 {
		errs.Add(errInvalidRange("twt.base_interval_ms", "> 0 when role is scheduled"))
	}

	return errs.Err()
}

func errInvalidRange(name, want string) error {
	return &invalidOptionError{name: name, want: want}
}

type invalidOptionError struct {
	name string
	want string
}

func (e *invalidOptionError) Error() string {
	return e.name + ": expected " + e.want
}
