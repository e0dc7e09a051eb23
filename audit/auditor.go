// Package audit implements the stochastic collusion auditor:
// periodic, deterministically-selected challenges designed to
// catch Class-C cartels whose gradients individually pass trimming
// but are biased in a coordinated direction.
package audit

import (
	"encoding/binary"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/edgeswarm/core/packet"
	"github.com/edgeswarm/core/reputation"
	"github.com/edgeswarm/core/xcrypto"
	"github.com/zeebo/blake3"
)

// Config tunes the audit schedule and trigger.
type Config struct {
	AuditInterval    uint64
	NodesPerAudit    int
	EntropyThreshold float64
	ResponseTimeout  time.Duration
}

// DefaultConfig matches the cited defaults: audit every 50 rounds,
// 3 peers per audit, entropy must be at or above 0.3.
func DefaultConfig() Config {
	return Config{
		AuditInterval:    50,
		NodesPerAudit:    3,
		EntropyThreshold: 0.3,
		ResponseTimeout:  10 * time.Second,
	}
}

const (
	auditSeedLabel = "QRES-CollusionAudit-v21"
	auditorIDLabel = "QRES-AuditorID-v21"
)

// Auditor selects peers to challenge each audit round and verifies
// their responses. Selection is a pure function of public round data
// (round number, epoch hash) so every honest node agrees on who gets
// audited without coordination.
type Auditor struct {
	config    Config
	epochHash [32]byte
}

// New constructs an Auditor with the given config.
func New(config Config) *Auditor {
	return &Auditor{config: config}
}

// UpdateEpochHash records the latest consensus epoch hash, reseeding
// future selections.
func (a *Auditor) UpdateEpochHash(hash [32]byte) {
	a.epochHash = hash
}

// ShouldAudit reports whether this round triggers an audit: round is
// a nonzero multiple of the configured interval and current entropy
// meets the activity threshold.
func (a *Auditor) ShouldAudit(round uint64, currentEntropy float64) bool {
	if round == 0 {
		return false
	}
	return round%a.config.AuditInterval == 0 && currentEntropy >= a.config.EntropyThreshold
}

// GenerateChallenges deterministically selects up to NodesPerAudit
// peers from activePeers and builds one AuditChallenge per selection.
// Returns nil if the round doesn't trigger an audit or there are no
// active peers.
func (a *Auditor) GenerateChallenges(round uint64, currentEntropy float64, activePeers []xcrypto.PeerID, now time.Time) []packet.AuditChallenge {
	if !a.ShouldAudit(round, currentEntropy) || len(activePeers) == 0 {
		return nil
	}

	baseSeed := a.roundSeed(round)
	auditorID := a.deriveAuditorID(round)

	count := a.config.NodesPerAudit
	if count > len(activePeers) {
		count = len(activePeers)
	}

	challenges := make([]packet.AuditChallenge, 0, count)
	for slot := 0; slot < count; slot++ {
		nonce := slotNonce(baseSeed, slot)
		idx := selectionIndex(nonce, len(activePeers))
		challenges = append(challenges, packet.AuditChallenge{
			AuditorID:    auditorID,
			ChallengedID: activePeers[idx],
			Round:        round,
			Nonce:        nonce,
			Timestamp:    now,
		})
	}
	return challenges
}

func (a *Auditor) roundSeed(round uint64) [32]byte {
	h := blake3.New()
	h.Write([]byte(auditSeedLabel))
	var roundBuf [8]byte
	binary.LittleEndian.PutUint64(roundBuf[:], round)
	h.Write(roundBuf[:])
	h.Write(a.epochHash[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func (a *Auditor) deriveAuditorID(round uint64) xcrypto.PeerID {
	h := blake3.New()
	h.Write([]byte(auditorIDLabel))
	var roundBuf [8]byte
	binary.LittleEndian.PutUint64(roundBuf[:], round)
	h.Write(roundBuf[:])
	h.Write(a.epochHash[:])
	var out xcrypto.PeerID
	copy(out[:], h.Sum(nil))
	return out
}

func slotNonce(baseSeed [32]byte, slot int) [32]byte {
	h := blake3.New()
	h.Write(baseSeed[:])
	var slotBuf [8]byte
	binary.LittleEndian.PutUint64(slotBuf[:], uint64(slot))
	h.Write(slotBuf[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func selectionIndex(nonce [32]byte, n int) int {
	selection := binary.LittleEndian.Uint64(nonce[:8])
	return int(selection % uint64(n))
}

// AuditRate reports what fraction of active nodes get audited per
// interval, e.g. 3 audits / 150 nodes = 0.02.
func (a *Auditor) AuditRate(nActive int) float64 {
	if nActive == 0 {
		return 0
	}
	return float64(a.config.NodesPerAudit) / float64(nActive)
}

// ExpectedDetectionRounds estimates the expected number of rounds
// before at least one member of a cartel of the given size is caught,
// given the configured audit width and interval.
func (a *Auditor) ExpectedDetectionRounds(nActive, cartelSize int) float64 {
	if cartelSize == 0 || nActive == 0 || cartelSize > nActive {
		return math.Inf(1)
	}

	k := a.config.NodesPerAudit
	if k > nActive {
		k = nActive
	}
	n := float64(nActive)
	m := float64(cartelSize)

	pMiss := 1.0
	for i := 0; i < k; i++ {
		honestRemaining := n - m - float64(i)
		totalRemaining := n - float64(i)
		pMiss *= honestRemaining / totalRemaining
	}
	pDetect := 1.0 - pMiss
	if pDetect <= 0 {
		return math.Inf(1)
	}
	return (1.0 / pDetect) * float64(a.config.AuditInterval)
}

// GradientOracle recomputes the gradient a peer should have submitted
// given its claimed raw prediction and local data hash, so the
// auditor can compare it against what was actually broadcast.
type GradientOracle interface {
	Recompute(rawPrediction []int32, localDataHash [32]byte) []int32
}

// ErrChallengeMismatch means the response doesn't correspond to the
// challenge it claims to answer.
var ErrChallengeMismatch = errors.New("audit: response does not match challenge")

// ErrGradientMismatch means the recomputed gradient disagrees with
// what the peer submitted, beyond tolerance.
var ErrGradientMismatch = errors.New("audit: recomputed gradient diverges from submission")

// Tolerance is the maximum per-component absolute difference (in
// Q16.16 units) allowed between a recomputed and a submitted gradient
// before the response is rejected: 0.01 in real units.
const Tolerance int32 = 655 // 0.01 * 65536, rounded

// VerifyResponse recomputes the challenged peer's gradient from its
// claimed raw prediction via oracle and compares it, component-wise,
// against the submitted gradient. On mismatch or challenge/response
// mismatch it penalizes the peer in tracker and returns the error;
// on success it rewards the peer and returns nil.
func VerifyResponse(challenge packet.AuditChallenge, resp packet.AuditResponse, oracle GradientOracle, tracker *reputation.Tracker) error {
	peer := reputation.PeerID(resp.PeerID)

	if resp.PeerID != challenge.ChallengedID || resp.Nonce != challenge.Nonce {
		tracker.PenalizeZKPFailure(peer)
		return ErrChallengeMismatch
	}

	expected := oracle.Recompute(resp.RawPrediction, resp.LocalDataHash)
	if len(expected) != len(resp.SubmittedGradient) {
		tracker.PenalizeZKPFailure(peer)
		return ErrGradientMismatch
	}
	for i, want := range expected {
		got := resp.SubmittedGradient[i]
		if absDiff32(want, got) > Tolerance {
			tracker.PenalizeZKPFailure(peer)
			return ErrGradientMismatch
		}
	}

	tracker.Reward(peer)
	return nil
}

func absDiff32(a, b int32) int32 {
	d := a - b
	if d < 0 {
		return -d
	}
	return d
}

// SortChallengesByPeer is a small convenience for deterministic
// iteration order in tests and logs.
func SortChallengesByPeer(challenges []packet.AuditChallenge) {
	sort.Slice(challenges, func(i, j int) bool {
		return string(challenges[i].ChallengedID[:]) < string(challenges[j].ChallengedID[:])
	})
}
