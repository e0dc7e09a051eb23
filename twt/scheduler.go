// Package twt implements Target-Wake-Time scheduling: role-based
// wake/sleep, burst batching of outgoing gossip while asleep, and
// power-metric accounting against an always-on baseline.
package twt

import (
	"errors"
	"time"

	"github.com/edgeswarm/core/regime"
)

// Role selects a node's wake discipline.
type Role int

const (
	// Sentinel nodes never sleep.
	Sentinel Role = iota
	// OnDemand nodes sleep until an emergency wake.
	OnDemand
	// Scheduled nodes wake on a regime-dependent interval, batching
	// outgoing gossip while asleep.
	Scheduled
)

var roleNames = map[Role]string{
	Sentinel:  "sentinel",
	OnDemand:  "on_demand",
	Scheduled: "scheduled",
}

func (r Role) String() string {
	if s, ok := roleNames[r]; ok {
		return s
	}
	return "unknown"
}

// ParseRole maps a config string to its Role.
func ParseRole(s string) (Role, bool) {
	for r, name := range roleNames {
		if name == s {
			return r, true
		}
	}
	return 0, false
}

// MarshalYAML renders the role as its config-file name.
func (r Role) MarshalYAML() (interface{}, error) { return r.String(), nil }

// UnmarshalYAML parses the role from its config-file name.
func (r *Role) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	role, ok := ParseRole(s)
	if !ok {
		return errors.New("twt: unknown role " + s)
	}
	*r = role
	return nil
}

// ScheduleConfig parameterises a Scheduled-role node.
type ScheduleConfig struct {
	BaseIntervalMS int64
	JitterMS       int64
	MaxBatchSize   int
}

// effectiveInterval maps regime to the base wake interval:
// Calm ~4h, PreStorm ~10min, Storm ~30s.
func effectiveInterval(r regime.State) time.Duration {
	switch r {
	case regime.Storm:
		return 30 * time.Second
	case regime.PreStorm:
		return 10 * time.Minute
	default:
		return 4 * time.Hour
	}
}

// Scheduler owns one node's wake state and gossip batch queue. A
// field of the node struct.
type Scheduler struct {
	role   Role
	config ScheduleConfig

	awake        bool
	nextWake     time.Time
	lastWake     time.Time
	sleepStart   time.Time

	batch []Queued

	sleepDuration time.Duration
	wakeDuration  time.Duration
	lifetimeStart time.Time
}

// Queued is one piece of gossip batched while asleep.
type Queued struct {
	Payload []byte
}

// NewScheduler creates a scheduler for the given role. Scheduled-role
// nodes use config for batching/jitter.
func NewScheduler(role Role, config ScheduleConfig, now time.Time) *Scheduler {
	return &Scheduler{
		role:          role,
		config:        config,
		awake:         true,
		lastWake:      now,
		lifetimeStart: now,
	}
}

// Tick advances wake/sleep state for the current regime and time,
// returning whether the node is awake after this tick.
func (s *Scheduler) Tick(now time.Time, r regime.State) bool {
	switch s.role {
	case Sentinel:
		s.awake = true
		return true
	case OnDemand:
		// Stays asleep until EmergencyWake forces a transition.
		return s.awake
	case Scheduled:
		interval := effectiveInterval(r)
		if s.awake {
			return true
		}
		if now.After(s.nextWake) || now.Equal(s.nextWake) {
			s.wake(now)
		}
		_ = interval
		return s.awake
	default:
		return s.awake
	}
}

func (s *Scheduler) wake(now time.Time) {
	if !s.sleepStart.IsZero() {
		s.sleepDuration += now.Sub(s.sleepStart)
	}
	s.awake = true
	s.lastWake = now
}

// Sleep transitions a Scheduled or OnDemand node to sleep, scheduling
// the next wake time from the current regime's effective interval.
func (s *Scheduler) Sleep(now time.Time, r regime.State) {
	if s.role == Sentinel {
		return
	}
	if s.awake {
		s.wakeDuration += now.Sub(s.lastWake)
	}
	s.awake = false
	s.sleepStart = now
	interval := effectiveInterval(r) + time.Duration(s.config.JitterMS)*time.Millisecond
	s.nextWake = now.Add(interval)
}

// EmergencyWake forces an immediate wake regardless of role or
// schedule.
func (s *Scheduler) EmergencyWake(now time.Time) {
	if !s.awake {
		s.wake(now)
	}
}

// Enqueue batches outgoing gossip while asleep. Bounded FIFO: on
// overflow the oldest queued item is dropped.
func (s *Scheduler) Enqueue(q Queued) {
	if s.awake {
		return
	}
	if s.config.MaxBatchSize <= 0 {
		return
	}
	if len(s.batch) >= s.config.MaxBatchSize {
		s.batch = s.batch[1:]
	}
	s.batch = append(s.batch, q)
}

// FlushOnWake returns and clears the batched queue; callers invoke
// this once per wake transition.
func (s *Scheduler) FlushOnWake() []Queued {
	out := s.batch
	s.batch = nil
	return out
}

// IsAwake reports the current wake state.
func (s *Scheduler) IsAwake() bool { return s.awake }

// RadioSleepRatio returns the fraction of lifetime spent asleep.
func (s *Scheduler) RadioSleepRatio(now time.Time) float64 {
	total := now.Sub(s.lifetimeStart)
	if total <= 0 {
		return 0
	}
	asleep := s.sleepDuration
	if !s.awake && !s.sleepStart.IsZero() {
		asleep += now.Sub(s.sleepStart)
	}
	return float64(asleep) / float64(total)
}

// SavingsPercent estimates energy saved vs an always-on baseline,
// assuming sleep draws negligible current relative to awake radio use.
func (s *Scheduler) SavingsPercent(now time.Time) float64 {
	return s.RadioSleepRatio(now) * 100
}
