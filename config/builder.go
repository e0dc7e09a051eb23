package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Builder provides a fluent override path on top of a preset,
// deferring all errors to Build() rather than panicking mid-chain.
type Builder struct {
	params Parameters
	err    error
}

// NewBuilder starts from base (typically one of the preset
// constructors) so callers only specify the fields they want to
// change.
func NewBuilder(base Parameters) *Builder {
	return &Builder{params: base}
}

// WithAggregation overrides the aggregation.* block.
func (b *Builder) WithAggregation(a AggregationParams) *Builder {
	if b.err != nil {
		return b
	}
	b.params.Aggregation = a
	return b
}

// WithPrivacyBudget overrides epsilon/delta/clipping threshold.
func (b *Builder) WithPrivacyBudget(epsilon, delta, clip float64) *Builder {
	if b.err != nil {
		return b
	}
	if epsilon <= 0 || delta <= 0 || delta >= 1 || clip <= 0 {
		b.err = fmt.Errorf("config: invalid privacy budget epsilon=%v delta=%v clip=%v", epsilon, delta, clip)
		return b
	}
	b.params.Privacy.Epsilon = epsilon
	b.params.Privacy.Delta = delta
	b.params.Privacy.ClippingThreshold = clip
	return b
}

// WithAuditCadence overrides audit.interval and audit.nodes_per_audit.
func (b *Builder) WithAuditCadence(interval uint64, nodesPerAudit int) *Builder {
	if b.err != nil {
		return b
	}
	if interval == 0 || nodesPerAudit <= 0 {
		b.err = fmt.Errorf("config: invalid audit cadence interval=%d nodes_per_audit=%d", interval, nodesPerAudit)
		return b
	}
	b.params.Audit.Interval = interval
	b.params.Audit.NodesPerAudit = nodesPerAudit
	return b
}

// WithEnergy overrides the energy.* block.
func (b *Builder) WithEnergy(e EnergyParams) *Builder {
	if b.err != nil {
		return b
	}
	b.params.Energy = e
	return b
}

// RequireSignatures toggles security.require_signatures.
func (b *Builder) RequireSignatures(require bool) *Builder {
	if b.err != nil {
		return b
	}
	b.params.Security.RequireSignatures = require
	return b
}

// Build validates and returns the final Parameters.
func (b *Builder) Build() (Parameters, error) {
	if b.err != nil {
		return Parameters{}, b.err
	}
	if err := b.params.Validate(); err != nil {
		return Parameters{}, err
	}
	return b.params, nil
}

// LoadFile reads and validates a YAML parameters file.
func LoadFile(path string) (Parameters, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Parameters{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	var p Parameters
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Parameters{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return Parameters{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return p, nil
}

// SaveFile writes params to path as YAML.
func SaveFile(path string, params Parameters) error {
	data, err := yaml.Marshal(params)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
