// Package telemetry writes the node's operator-facing CSV timelines:
// regime transitions, energy level, sleep intervals, and singularity
// (swarm-convergence) metrics. Strictly observational — nothing here
// is read back onto the consensus path.
package telemetry

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"
)

// Writer appends rows to one CSV file, writing the header once on
// first use.
type Writer struct {
	f      *os.File
	w      *csv.Writer
	header []string
}

func newWriter(path string, header []string) (*Writer, error) {
	_, statErr := os.Stat(path)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open %s: %w", path, err)
	}
	w := &Writer{f: f, w: csv.NewWriter(f), header: header}
	if os.IsNotExist(statErr) {
		if err := w.w.Write(header); err != nil {
			f.Close()
			return nil, err
		}
		w.w.Flush()
	}
	return w, nil
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	w.w.Flush()
	if err := w.w.Error(); err != nil {
		return err
	}
	return w.f.Close()
}

func (w *Writer) writeRow(fields []string) error {
	if err := w.w.Write(fields); err != nil {
		return err
	}
	w.w.Flush()
	return w.w.Error()
}

// RegimeWriter logs regime-detector state transitions.
type RegimeWriter struct{ *Writer }

// NewRegimeWriter opens (or creates) a regime timeline at path.
func NewRegimeWriter(path string) (*RegimeWriter, error) {
	w, err := newWriter(path, []string{"timestamp", "state", "entropy", "throughput"})
	if err != nil {
		return nil, err
	}
	return &RegimeWriter{w}, nil
}

// Record appends one transition.
func (w *RegimeWriter) Record(ts time.Time, state string, entropy, throughput float64) error {
	return w.writeRow([]string{
		ts.UTC().Format(time.RFC3339Nano), state,
		fmt.Sprintf("%.6f", entropy), fmt.Sprintf("%.6f", throughput),
	})
}

// EnergyWriter logs energy-pool level over time.
type EnergyWriter struct{ *Writer }

// NewEnergyWriter opens (or creates) an energy timeline at path.
func NewEnergyWriter(path string) (*EnergyWriter, error) {
	w, err := newWriter(path, []string{"timestamp", "reserve", "capacity", "ratio"})
	if err != nil {
		return nil, err
	}
	return &EnergyWriter{w}, nil
}

// Record appends one energy sample.
func (w *EnergyWriter) Record(ts time.Time, reserve, capacity int64) error {
	ratio := 0.0
	if capacity > 0 {
		ratio = float64(reserve) / float64(capacity)
	}
	return w.writeRow([]string{
		ts.UTC().Format(time.RFC3339Nano),
		fmt.Sprintf("%d", reserve), fmt.Sprintf("%d", capacity), fmt.Sprintf("%.6f", ratio),
	})
}

// SleepWriter logs TWT sleep/wake intervals.
type SleepWriter struct{ *Writer }

// NewSleepWriter opens (or creates) a sleep-interval log at path.
func NewSleepWriter(path string) (*SleepWriter, error) {
	w, err := newWriter(path, []string{"sleep_start", "wake_time", "duration_seconds"})
	if err != nil {
		return nil, err
	}
	return &SleepWriter{w}, nil
}

// Record appends one completed sleep interval.
func (w *SleepWriter) Record(sleepStart, wake time.Time) error {
	return w.writeRow([]string{
		sleepStart.UTC().Format(time.RFC3339Nano),
		wake.UTC().Format(time.RFC3339Nano),
		fmt.Sprintf("%.3f", wake.Sub(sleepStart).Seconds()),
	})
}

// SingularityWriter logs swarm-convergence metrics: how close the
// distributed model is to agreement.
type SingularityWriter struct{ *Writer }

// NewSingularityWriter opens (or creates) a singularity-metrics log at
// path, matching the persisted-state schema exactly:
// timestamp, local_loss, swarm_variance, active_peers, total_energy, efficiency_ratio.
func NewSingularityWriter(path string) (*SingularityWriter, error) {
	w, err := newWriter(path, []string{
		"timestamp", "local_loss", "swarm_variance", "active_peers", "total_energy", "efficiency_ratio",
	})
	if err != nil {
		return nil, err
	}
	return &SingularityWriter{w}, nil
}

// SingularitySample is one row of the singularity-metrics schema.
type SingularitySample struct {
	Timestamp       time.Time
	LocalLoss       float64
	SwarmVariance   float64
	ActivePeers     int
	TotalEnergy     int64
	EfficiencyRatio float64
}

// Record appends one sample.
func (w *SingularityWriter) Record(s SingularitySample) error {
	return w.writeRow([]string{
		s.Timestamp.UTC().Format(time.RFC3339Nano),
		fmt.Sprintf("%.6f", s.LocalLoss),
		fmt.Sprintf("%.6f", s.SwarmVariance),
		fmt.Sprintf("%d", s.ActivePeers),
		fmt.Sprintf("%d", s.TotalEnergy),
		fmt.Sprintf("%.6f", s.EfficiencyRatio),
	})
}

var _ io.Closer = (*Writer)(nil)
