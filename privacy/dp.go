// Package privacy implements the (epsilon, delta)-differential-privacy
// layer: L2 clipping, the Gaussian mechanism, and a decaying budget
// accountant.
package privacy

import (
	"errors"
	"math"

	"golang.org/x/crypto/chacha20"
)

// ClipL2 rescales w in place so that ||w||_2 <= threshold; a no-op if
// already within bound.
func ClipL2(w []float64, threshold float64) {
	var sumSq float64
	for _, v := range w {
		sumSq += v * v
	}
	norm := math.Sqrt(sumSq)
	if norm <= threshold || norm == 0 {
		return
	}
	scale := threshold / norm
	for i := range w {
		w[i] *= scale
	}
}

// Sigma computes the Gaussian mechanism's noise scale for sensitivity
// = clipping threshold C: sigma = C * sqrt(2*ln(1.25/delta)) / epsilon.
func Sigma(clippingThreshold, epsilon, delta float64) float64 {
	return clippingThreshold * math.Sqrt(2*math.Log(1.25/delta)) / epsilon
}

// GaussianNoise is a seeded noise source. When a CSPRNG (crypto/rand)
// is unavailable, callers may seed it from a ChaCha20 stream instead;
// this weakens the privacy guarantee to "computationally indistinguishable
// from fresh entropy" rather than true entropy, and must be documented
// wherever it is used.
type GaussianNoise struct {
	stream *chacha20.Cipher
	have   bool
	spare  float64
}

// NewGaussianNoiseFromSeed derives a deterministic ChaCha20-seeded
// noise source from a 32-byte key and 12-byte nonce. The output is
// fully determined by key and nonce; this package has no constructor
// that draws from OS entropy itself.
func NewGaussianNoiseFromSeed(key [32]byte, nonce [12]byte) (*GaussianNoise, error) {
	c, err := chacha20.NewUnauthenticatedCipher(key[:], nonce[:])
	if err != nil {
		return nil, err
	}
	return &GaussianNoise{stream: c}, nil
}

func (g *GaussianNoise) uniform() float64 {
	var buf [8]byte
	zero := make([]byte, 8)
	g.stream.XORKeyStream(buf[:], zero)
	var bits uint64
	for i, b := range buf {
		bits |= uint64(b) << (8 * i)
	}
	// Map to (0,1] avoiding exactly 0 (Box-Muller needs a nonzero log).
	return (float64(bits>>11) + 1) / (1 << 53)
}

// Sample draws one Gaussian(0, sigma^2) value via Box-Muller, usable
// in a no_std-equivalent environment (no dependency on math/rand).
func (g *GaussianNoise) Sample(sigma float64) float64 {
	if g.have {
		g.have = false
		return g.spare * sigma
	}
	u1 := g.uniform()
	u2 := g.uniform()
	r := math.Sqrt(-2 * math.Log(u1))
	theta := 2 * math.Pi * u2
	z0 := r * math.Cos(theta)
	z1 := r * math.Sin(theta)
	g.spare = z1
	g.have = true
	return z0 * sigma
}

// AddNoise perturbs w in place with iid Gaussian(0, sigma^2) noise.
func (g *GaussianNoise) AddNoise(w []float64, sigma float64) {
	for i := range w {
		w[i] += g.Sample(sigma)
	}
}

// Accountant tracks cumulative (epsilon) privacy spend under basic
// composition, with a decay() that models a rolling window by
// shrinking the consumed total.
type Accountant struct {
	Total     float64
	consumed  float64
	decayRate float64
}

// NewAccountant creates an accountant with the given total budget and
// per-round decay rate (e.g. 0.99 to slowly forget old spend).
func NewAccountant(total, decayRate float64) *Accountant {
	return &Accountant{Total: total, decayRate: decayRate}
}

var ErrBudgetExceeded = errors.New("privacy: budget exceeded")

// CheckBudget refuses an operation that would exceed Total.
func (a *Accountant) CheckBudget(cost float64) error {
	if a.consumed+cost > a.Total {
		return ErrBudgetExceeded
	}
	return nil
}

// Spend records cost against the budget, failing the same way
// CheckBudget would if it's refused.
func (a *Accountant) Spend(cost float64) error {
	if err := a.CheckBudget(cost); err != nil {
		return err
	}
	a.consumed += cost
	return nil
}

// Consumed returns cumulative spend.
func (a *Accountant) Consumed() float64 { return a.consumed }

// Remaining returns the unspent budget.
func (a *Accountant) Remaining() float64 { return a.Total - a.consumed }

// Decay multiplies consumed spend by decayRate, modelling a rolling
// privacy-loss window.
func (a *Accountant) Decay() {
	a.consumed *= a.decayRate
}
