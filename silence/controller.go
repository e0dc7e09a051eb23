// Package silence implements the Active/Alert/DeepSilence broadcast
// suppression state machine gated by regime, stability, and energy.
package silence

import "github.com/edgeswarm/core/regime"

// Mode is the silence controller's state.
type Mode int

const (
	Active Mode = iota
	Alert
	DeepSilence
)

func (m Mode) String() string {
	switch m {
	case Active:
		return "active"
	case Alert:
		return "alert"
	case DeepSilence:
		return "deep_silence"
	default:
		return "unknown"
	}
}

// Params tunes the broadcast-decision cost model.
type Params struct {
	EfficiencyBias      float64
	HeartbeatInterval    int64
}

// DefaultParams are the tuned defaults (bias tuned so the Active
// broadcast test gate is neither trivially open nor closed).
func DefaultParams() Params {
	return Params{EfficiencyBias: 1.0, HeartbeatInterval: 50}
}

// Controller owns one node's silence state. A field of the node
// struct.
type Controller struct {
	params Params
	mode   Mode
	tick   int64
}

// NewController creates a controller starting in Active mode.
func NewController(p Params) *Controller {
	return &Controller{params: p, mode: Active}
}

// Update derives the new silence state from the current regime and
// stability signal, per the state transition table, resetting the
// heartbeat tick whenever the mode changes.
func (c *Controller) Update(r regime.State, varianceStable bool, calmStreak int) Mode {
	var next Mode
	switch {
	case r == regime.Storm:
		next = Active
	case r == regime.PreStorm:
		next = Alert
	case r == regime.Calm && varianceStable && calmStreak >= 100:
		next = DeepSilence
	default:
		next = Active
	}
	if next == Active && c.mode != Active {
		c.tick = 0
	}
	if next != c.mode {
		c.tick = 0
	}
	c.mode = next
	return next
}

// Tick advances the heartbeat counter by one; callers invoke this
// once per orchestrator tick regardless of broadcast decision.
func (c *Controller) Tick() {
	c.tick++
}

// Mode returns the current state.
func (c *Controller) Mode() Mode { return c.mode }

// ShouldBroadcast implements the should_broadcast gate. cost
// and entropy/reputation are all non-negative; efficiency_bias comes
// from Params.
func (c *Controller) ShouldBroadcast(entropy, reputation, energyRatio, cost float64) bool {
	if energyRatio < 0.10 {
		return false
	}
	switch c.mode {
	case Active:
		return entropy*reputation > cost*c.params.EfficiencyBias || energyRatio > 0.70
	case Alert:
		return energyRatio > 0.30
	case DeepSilence:
		return c.tick > 0 && c.tick%c.params.HeartbeatInterval == 0
	default:
		return false
	}
}
