package aggregator

import "github.com/edgeswarm/core/fixedpoint"

// Buffer is the known-peers aggregation workflow's bounded incoming
// queue: ring semantics on overflow (oldest evicted), drained by the
// orchestrator on a full-buffer or timer trigger.
type Buffer struct {
	items []Update
	size  int
}

// NewBuffer creates a bounded buffer of the given capacity.
func NewBuffer(size int) *Buffer {
	return &Buffer{size: size}
}

// Push enqueues one update, evicting the oldest on overflow
// backpressure).
func (b *Buffer) Push(u Update) {
	if len(b.items) >= b.size {
		b.items = b.items[1:]
	}
	b.items = append(b.items, u)
}

// Len returns the number of buffered updates.
func (b *Buffer) Len() int { return len(b.items) }

// Full reports whether the buffer has reached its configured size.
func (b *Buffer) Full() bool { return len(b.items) >= b.size }

// Drain empties the buffer and returns everything that was buffered,
// in FIFO order.
func (b *Buffer) Drain() []Update {
	out := b.items
	b.items = nil
	return out
}

// ApplyLearningRate blends an aggregation result into the current
// local model: model += alpha * (result - model), alpha in (0,1].
func ApplyLearningRate(model []fixedpoint.Q16, result []fixedpoint.Q16, alpha float64) []fixedpoint.Q16 {
	out := make([]fixedpoint.Q16, len(model))
	aq := fixedpoint.FromFloat64(alpha)
	for i := range model {
		delta := result[i].Sub(model[i])
		out[i] = model[i].Add(aq.Mul(delta))
	}
	return out
}
