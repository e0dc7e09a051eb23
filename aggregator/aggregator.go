// Package aggregator implements Byzantine-robust combination of
// per-peer model updates: coordinate-wise mean/median/trimmed-mean,
// Krum and Multi-Krum, weighted trimmed mean, and the adaptive
// cold-start/mature gate.
package aggregator

import (
	"errors"
	"sort"

	"github.com/edgeswarm/core/fixedpoint"
)

// Mode selects an aggregation algorithm, matching config's
// aggregation.mode values one-to-one.
type Mode int

const (
	SimpleMean Mode = iota
	Median
	TrimmedMean
	TrimmedMeanByz
	WeightedTrimmedMean
	Krum
	KrumFixed
	MultiKrum
	Adaptive
)

var modeNames = map[Mode]string{
	SimpleMean:          "simple_mean",
	Median:              "median",
	TrimmedMean:         "trimmed_mean",
	TrimmedMeanByz:      "trimmed_mean_byz",
	WeightedTrimmedMean: "weighted_trimmed_mean",
	Krum:                "krum",
	KrumFixed:           "krum_fixed",
	MultiKrum:           "multi_krum",
	Adaptive:            "adaptive",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return "unknown"
}

// ParseMode maps a config string to its Mode.
func ParseMode(s string) (Mode, bool) {
	for m, name := range modeNames {
		if name == s {
			return m, true
		}
	}
	return 0, false
}

// MarshalYAML renders the mode as its config-file name.
func (m Mode) MarshalYAML() (interface{}, error) { return m.String(), nil }

// UnmarshalYAML parses the mode from its config-file name.
func (m *Mode) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	mode, ok := ParseMode(s)
	if !ok {
		return errors.New("aggregator: unknown mode " + s)
	}
	*m = mode
	return nil
}

// Update is one peer's contribution: a fixed-dimension ordered
// sequence of Q16.16 values.
type Update struct {
	Values []fixedpoint.Q16
}

// Params configures the trim fraction, Byzantine-tolerance count, and
// Multi-Krum's k, all driven by
// aggregation.expected_byzantines_fraction / trim_fraction config knobs.
type Params struct {
	TrimFraction float64
	F            int // TrimmedMeanByz / WeightedTrimmedMean trim count per side
	Q            int // Krum's q
	K            int // MultiKrum's k
	LearningRate float64
}

// Result is one round's aggregation outcome.
type Result struct {
	Vector          []fixedpoint.Q16
	SelectedIndices []int // Krum/MultiKrum: which updates were chosen
	FellBack        bool  // true when a boundary condition triggered a fallback
}

var (
	ErrNoUpdates        = errors.New("aggregator: no updates supplied")
	ErrDimensionMismatch = errors.New("aggregator: dimension mismatch across updates")
)

func checkDimensions(updates []Update) (int, error) {
	if len(updates) == 0 {
		return 0, ErrNoUpdates
	}
	d := len(updates[0].Values)
	for _, u := range updates {
		if len(u.Values) != d {
			return 0, ErrDimensionMismatch
		}
	}
	return d, nil
}

// indexedQ16 pairs a value with its original index, for stable
// (index-tiebreak) sorting, so identical inputs always reproduce
type indexedQ16 struct {
	v   fixedpoint.Q16
	idx int
}

func sortIndexed(vals []indexedQ16) {
	sort.SliceStable(vals, func(i, j int) bool {
		if vals[i].v != vals[j].v {
			return vals[i].v < vals[j].v
		}
		return vals[i].idx < vals[j].idx
	})
}

// Aggregate dispatches to the selected mode via a single switch, the
// language-neutral strategy used in place of dynamic
// dispatch. Adaptive is not dispatched here, because it needs a
// reputation tracker: it runs through AdaptiveAggregator, and passing
// Adaptive to Aggregate returns an "unknown mode" error.
func Aggregate(mode Mode, updates []Update, weights []float64, params Params) (Result, error) {
	d, err := checkDimensions(updates)
	if err != nil {
		return Result{}, err
	}
	n := len(updates)

	switch mode {
	case SimpleMean:
		return Result{Vector: simpleMean(updates, d)}, nil
	case Median:
		return Result{Vector: median(updates, d)}, nil
	case TrimmedMean:
		trimCount := int(float64(n) * params.TrimFraction / 2)
		if 2*trimCount >= n {
			return Result{Vector: simpleMean(updates, d), FellBack: true}, nil
		}
		return Result{Vector: trimmedMean(updates, d, trimCount)}, nil
	case TrimmedMeanByz:
		if 2*params.F >= n {
			return Result{Vector: median(updates, d), FellBack: true}, nil
		}
		return Result{Vector: trimmedMean(updates, d, params.F)}, nil
	case WeightedTrimmedMean:
		if weights == nil || len(weights) != n {
			return Result{}, errors.New("aggregator: weights required, one per update")
		}
		if 2*params.F >= n {
			return Result{Vector: weightedMean(updates, d, weights), FellBack: true}, nil
		}
		return Result{Vector: weightedTrimmedMean(updates, d, params.F, weights)}, nil
	case Krum, KrumFixed:
		if n <= 2*params.Q+2 {
			return Result{Vector: simpleMean(updates, d), FellBack: true}, nil
		}
		idx := krumSelect(updates, d, params.Q, mode == KrumFixed)
		return Result{Vector: append([]fixedpoint.Q16(nil), updates[idx].Values...), SelectedIndices: []int{idx}}, nil
	case MultiKrum:
		if n <= 2*params.Q+2 {
			return Result{Vector: simpleMean(updates, d), FellBack: true}, nil
		}
		idxs := multiKrumSelect(updates, d, params.Q, params.K)
		return Result{Vector: meanOfIndices(updates, d, idxs), SelectedIndices: idxs}, nil
	default:
		return Result{}, errors.New("aggregator: unknown mode")
	}
}

func simpleMean(updates []Update, d int) []fixedpoint.Q16 {
	out := make([]fixedpoint.Q16, d)
	n := fixedpoint.FromInt(int32(len(updates)))
	for c := 0; c < d; c++ {
		var sum fixedpoint.Q16
		for _, u := range updates {
			sum = sum.Add(u.Values[c])
		}
		out[c] = sum.Div(n)
	}
	return out
}

func weightedMean(updates []Update, d int, weights []float64) []fixedpoint.Q16 {
	var totalW float64
	for _, w := range weights {
		totalW += w
	}
	out := make([]fixedpoint.Q16, d)
	if totalW == 0 {
		return simpleMean(updates, d)
	}
	for c := 0; c < d; c++ {
		var sum float64
		for i, u := range updates {
			sum += u.Values[c].Float64() * weights[i]
		}
		out[c] = fixedpoint.FromFloat64(sum / totalW)
	}
	return out
}

func median(updates []Update, d int) []fixedpoint.Q16 {
	out := make([]fixedpoint.Q16, d)
	n := len(updates)
	vals := make([]indexedQ16, n)
	for c := 0; c < d; c++ {
		for i, u := range updates {
			vals[i] = indexedQ16{v: u.Values[c], idx: i}
		}
		sortIndexed(vals)
		if n%2 == 1 {
			out[c] = vals[n/2].v
		} else {
			out[c] = vals[n/2-1].v.Add(vals[n/2].v).Div(fixedpoint.FromInt(2))
		}
	}
	return out
}

func trimmedMean(updates []Update, d, trimCount int) []fixedpoint.Q16 {
	out := make([]fixedpoint.Q16, d)
	n := len(updates)
	vals := make([]indexedQ16, n)
	for c := 0; c < d; c++ {
		for i, u := range updates {
			vals[i] = indexedQ16{v: u.Values[c], idx: i}
		}
		sortIndexed(vals)
		interior := vals[trimCount : n-trimCount]
		var sum fixedpoint.Q16
		for _, v := range interior {
			sum = sum.Add(v.v)
		}
		out[c] = sum.Div(fixedpoint.FromInt(int32(len(interior))))
	}
	return out
}

func weightedTrimmedMean(updates []Update, d, trimCount int, weights []float64) []fixedpoint.Q16 {
	out := make([]fixedpoint.Q16, d)
	n := len(updates)
	type entry struct {
		v   fixedpoint.Q16
		idx int
	}
	vals := make([]entry, n)
	for c := 0; c < d; c++ {
		for i, u := range updates {
			vals[i] = entry{v: u.Values[c], idx: i}
		}
		sort.SliceStable(vals, func(i, j int) bool {
			if vals[i].v != vals[j].v {
				return vals[i].v < vals[j].v
			}
			return vals[i].idx < vals[j].idx
		})
		interior := vals[trimCount : n-trimCount]
		var sum, totalW float64
		for _, e := range interior {
			w := weights[e.idx]
			sum += e.v.Float64() * w
			totalW += w
		}
		if totalW == 0 {
			out[c] = 0
			continue
		}
		out[c] = fixedpoint.FromFloat64(sum / totalW)
	}
	return out
}

func squaredDistance(a, b []fixedpoint.Q16) fixedpoint.Q16 {
	var sum fixedpoint.Q16
	for i := range a {
		diff := a[i].Sub(b[i])
		sum = sum.Add(diff.Mul(diff))
	}
	return sum
}

// krumScores computes, for each update, the sum of the n-q-2 smallest
// squared distances to other updates.
func krumScores(updates []Update, q int) []fixedpoint.Q16 {
	n := len(updates)
	keep := n - q - 2
	scores := make([]fixedpoint.Q16, n)
	for i := range updates {
		dists := make([]fixedpoint.Q16, 0, n-1)
		for j := range updates {
			if i == j {
				continue
			}
			dists = append(dists, squaredDistance(updates[i].Values, updates[j].Values))
		}
		sort.Slice(dists, func(a, b int) bool { return dists[a] < dists[b] })
		if keep > len(dists) {
			keep = len(dists)
		}
		var sum fixedpoint.Q16
		for k := 0; k < keep; k++ {
			sum = sum.Add(dists[k])
		}
		scores[i] = sum
	}
	return scores
}

func krumSelect(updates []Update, d, q int, fixedDeterministic bool) int {
	_ = d
	_ = fixedDeterministic // both variants use identical fixed-point arithmetic already
	scores := krumScores(updates, q)
	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] < scores[best] {
			best = i
		}
		// tie-break: lowest index wins, which the strict "<" above
		// already guarantees since we only replace on strict improvement.
	}
	return best
}

func multiKrumSelect(updates []Update, d, q, k int) []int {
	_ = d
	scores := krumScores(updates, q)
	type scored struct {
		score fixedpoint.Q16
		idx   int
	}
	all := make([]scored, len(scores))
	for i, s := range scores {
		all[i] = scored{score: s, idx: i}
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score < all[j].score
		}
		return all[i].idx < all[j].idx
	})
	if k > len(all) {
		k = len(all)
	}
	idxs := make([]int, k)
	for i := 0; i < k; i++ {
		idxs[i] = all[i].idx
	}
	sort.Ints(idxs)
	return idxs
}

func meanOfIndices(updates []Update, d int, idxs []int) []fixedpoint.Q16 {
	subset := make([]Update, len(idxs))
	for i, idx := range idxs {
		subset[i] = updates[idx]
	}
	return simpleMean(subset, d)
}
