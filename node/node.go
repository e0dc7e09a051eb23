// Package node wires every component into one per-peer orchestrator:
// the Tick that runs a full gossip round in the ordered sequence the
// runtime requires.
package node

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/edgeswarm/core/aggregator"
	"github.com/edgeswarm/core/audit"
	"github.com/edgeswarm/core/energy"
	"github.com/edgeswarm/core/fixedpoint"
	"github.com/edgeswarm/core/packet"
	"github.com/edgeswarm/core/privacy"
	"github.com/edgeswarm/core/regime"
	"github.com/edgeswarm/core/reputation"
	"github.com/edgeswarm/core/secureagg"
	"github.com/edgeswarm/core/silence"
	"github.com/edgeswarm/core/twt"
	"github.com/edgeswarm/core/xcrypto"
	"github.com/edgeswarm/core/zkproof"
	"golang.org/x/crypto/curve25519"
)

// Costs are the fixed energy prices of the operations the node gates
// on its Pool, grounded on the runtime's integer energy model.
const (
	CostBroadcast  int64 = 10
	CostAggregate  int64 = 5
	CostAuditReply int64 = 3
)

// NormThreshold bounds the masked-weight squared L2 norm the ZK proof
// attests to without revealing the weights.
const NormThreshold uint64 = 1 << 40

// Peer is what the node needs to know about a clique member for
// secure-aggregation masking.
type Peer struct {
	ID        xcrypto.PeerID
	PublicKey [32]byte // X25519 public key for pairwise masking
}

// Config bundles every sub-component's tunables the orchestrator
// needs at construction.
type Config struct {
	Identity        xcrypto.Identity
	X25519Private   [32]byte
	EnergyCapacity  int64
	RegimeThresholds regime.Thresholds
	SilenceParams   silence.Params
	Role            twt.Role
	Schedule        twt.ScheduleConfig
	ClipThreshold   float64
	DPEpsilon       float64
	DPDelta         float64
	PrivacyBudget   float64
	PrivacyDecay    float64
	BufferSize      int
	AggregatorMode  aggregator.Mode
	AggregatorParams aggregator.Params
	AuditConfig     audit.Config
}

// Node owns every piece of per-peer state as plain struct fields,
// never package globals, with single-writer discipline enforced by
// running its Tick loop from one goroutine.
type Node struct {
	id xcrypto.Identity

	Reputation *reputation.Tracker
	Energy     *energy.Pool
	Regime     *regime.Detector
	Silence    *silence.Controller
	Schedule   *twt.Scheduler
	Privacy    *privacy.Accountant
	Buffer     *aggregator.Buffer
	Auditor    *audit.Auditor

	reassemblers map[uint32]*packet.Reassembler

	x25519Priv [32]byte
	clipThresh float64
	dpEpsilon  float64
	dpDelta    float64

	aggMode   aggregator.Mode
	aggParams aggregator.Params

	model     []fixedpoint.Q16
	sequence  uint32
	round     uint64

	nonces *xcrypto.NonceSet
}

// New constructs a Node with every sub-component initialised from cfg.
func New(cfg Config, now time.Time, initialModel []fixedpoint.Q16) *Node {
	return &Node{
		id:           cfg.Identity,
		Reputation:   reputation.New(),
		Energy:       energy.NewPool(cfg.EnergyCapacity),
		Regime:       regime.NewDetector(cfg.RegimeThresholds),
		Silence:      silence.NewController(cfg.SilenceParams),
		Schedule:     twt.NewScheduler(cfg.Role, cfg.Schedule, now),
		Privacy:      privacy.NewAccountant(cfg.PrivacyBudget, cfg.PrivacyDecay),
		Buffer:       aggregator.NewBuffer(cfg.BufferSize),
		Auditor:      audit.New(cfg.AuditConfig),
		reassemblers: make(map[uint32]*packet.Reassembler),
		x25519Priv:   cfg.X25519Private,
		clipThresh:   cfg.ClipThreshold,
		dpEpsilon:    cfg.DPEpsilon,
		dpDelta:      cfg.DPDelta,
		aggMode:      cfg.AggregatorMode,
		aggParams:    cfg.AggregatorParams,
		model:        append([]fixedpoint.Q16(nil), initialModel...),
		nonces:       xcrypto.NewNonceSet(),
	}
}

// PeerID returns this node's identity-derived peer id.
func (n *Node) PeerID() xcrypto.PeerID { return n.id.PeerID() }

// Model returns the current local model snapshot.
func (n *Node) Model() []fixedpoint.Q16 { return append([]fixedpoint.Q16(nil), n.model...) }

// StatusSnapshot is the read-only view a status endpoint exposes:
// identity, connectivity, model summary, and energy/regime state.
type StatusSnapshot struct {
	PeerID          string
	KnownPeers      int
	ModelDimension  int
	Round           uint64
	EnergyCurrent   int64
	EnergyCapacity  int64
	EnergyRatio     float64
	RegimeState     string
	SilenceState    string
}

// Status returns a snapshot of this node's current state, suitable
// for a read-only HTTP status endpoint.
func (n *Node) Status() StatusSnapshot {
	peerID := n.id.PeerID()
	return StatusSnapshot{
		PeerID:         hex.EncodeToString(peerID[:]),
		KnownPeers:     n.Reputation.KnownPeers(),
		ModelDimension: len(n.model),
		Round:          n.round,
		EnergyCurrent:  n.Energy.Current(),
		EnergyCapacity: n.Energy.Capacity(),
		EnergyRatio:    n.Energy.Ratio(),
		RegimeState:    n.Regime.Current().String(),
		SilenceState:   n.Silence.Mode().String(),
	}
}

// OutboundResult is what PrepareOutbound produces: the fragments ready
// for transmission, or nil if the silence controller and/or energy
// gate suppressed this round's broadcast.
type OutboundResult struct {
	Fragments []packet.Fragment
	Suppressed bool
}

// TickObservation is one round's environmental input.
type TickObservation struct {
	Now           time.Time
	Entropy       float64
	BytesSent     int64
	Residual      float64
	Peers         []Peer
	RawWeights    []float64 // plaintext local model delta, before clip/noise/mask
	ResidualError float32
	AccuracyDelta float32
}

// Tick runs one full gossip round: regime/silence update, the
// broadcast gate, and (if not suppressed) the full privacy -> secure
// aggregation -> ZK proof -> sign -> fragment pipeline.
func (n *Node) Tick(ctx context.Context, obs TickObservation) (OutboundResult, error) {
	select {
	case <-ctx.Done():
		return OutboundResult{}, ctx.Err()
	default:
	}

	n.Privacy.Decay()

	regimeState := n.Regime.Observe(regime.Observation{
		Entropy:       obs.Entropy,
		BytesThisTick: obs.BytesSent,
		Now:           obs.Now,
		Residual:      obs.Residual,
	})
	silenceMode := n.Silence.Update(regimeState, n.Regime.IsStableEnoughForSilence(), n.Regime.CalmStreak())
	n.Silence.Tick()

	n.round++

	if regimeState == regime.Storm {
		n.Schedule.EmergencyWake(obs.Now)
	}
	awake := n.Schedule.Tick(obs.Now, regimeState)

	broadcast := regimeState == regime.Storm
	if !broadcast {
		avgRep := n.averageReputation()
		broadcast = n.Silence.ShouldBroadcast(obs.Entropy, avgRep, n.Energy.Ratio(), 1.0)
	}
	_ = silenceMode
	if !broadcast {
		if !awake {
			n.Schedule.Sleep(obs.Now, regimeState)
		}
		return OutboundResult{Suppressed: true}, nil
	}

	if !n.Energy.Spend(CostBroadcast) {
		return OutboundResult{Suppressed: true}, nil
	}

	frags, err := n.buildOutbound(obs, regimeState == regime.Storm)
	if err != nil {
		return OutboundResult{}, err
	}

	if !awake {
		for _, f := range frags {
			n.Schedule.Enqueue(twt.Queued{Payload: f.Encode()})
		}
		return OutboundResult{Suppressed: true}, nil
	}
	return OutboundResult{Fragments: frags}, nil
}

// FlushScheduledBatch returns and decodes any gossip fragments queued
// while the node was asleep, to be called right after a wake
// transition.
func (n *Node) FlushScheduledBatch() []packet.Fragment {
	queued := n.Schedule.FlushOnWake()
	out := make([]packet.Fragment, 0, len(queued))
	for _, q := range queued {
		if f, ok := packet.DecodeFragment(q.Payload); ok {
			out = append(out, f)
		}
	}
	return out
}

func (n *Node) averageReputation() float64 {
	scores := n.Reputation.Scores()
	if len(scores) == 0 {
		return 0.5
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}

func (n *Node) buildOutbound(obs TickObservation, stormMode bool) ([]packet.Fragment, error) {
	weights := append([]float64(nil), obs.RawWeights...)
	privacy.ClipL2(weights, n.clipThresh)

	sigma := privacy.Sigma(n.clipThresh, n.dpEpsilon, n.dpDelta)
	if err := n.Privacy.Spend(n.dpEpsilon); err != nil {
		return nil, err
	}
	var seed [32]byte
	var nonceBuf [12]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return nil, err
	}
	if _, err := rand.Read(nonceBuf[:]); err != nil {
		return nil, err
	}
	noise, err := privacy.NewGaussianNoiseFromSeed(seed, nonceBuf)
	if err != nil {
		return nil, err
	}
	noise.AddNoise(weights, sigma)

	masked := quantizeToWrapping(weights)

	if len(obs.Peers) > 0 {
		others := make([][32]byte, 0, len(obs.Peers))
		for _, p := range obs.Peers {
			others = append(others, p.PublicKey)
		}
		selfPub, err := curve25519.X25519(n.x25519Priv[:], curve25519.Basepoint)
		if err != nil {
			return nil, err
		}
		var selfPK [32]byte
		copy(selfPK[:], selfPub)
		masked, err = secureagg.MaskForClique(selfPK, n.x25519Priv, others, n.round, masked)
		if err != nil {
			return nil, err
		}
	}

	var squaredNorm uint64
	for _, v := range masked {
		squaredNorm += uint64(int64(v) * int64(v))
	}
	var blinding, k1, k2 [64]byte
	if _, err := rand.Read(blinding[:]); err != nil {
		return nil, err
	}
	if _, err := rand.Read(k1[:]); err != nil {
		return nil, err
	}
	if _, err := rand.Read(k2[:]); err != nil {
		return nil, err
	}
	proof, err := zkproof.Prove(NormThreshold, squaredNorm, blinding, k1, k2)
	if err != nil {
		return nil, err
	}

	update := packet.UpdatePacket{
		Sender:        n.PeerID(),
		MaskedWeights: masked,
		NormProof:     proof,
		DPEpsilon:     float32(n.dpEpsilon),
		ResidualError: obs.ResidualError,
		AccuracyDelta: obs.AccuracyDelta,
		StormMode:     stormMode,
	}
	var nonceVal [8]byte
	if _, err := rand.Read(nonceVal[:]); err != nil {
		return nil, err
	}
	update.Sign(n.id, obs.Now, leUint64(nonceVal))

	n.sequence++
	wire := update.SignedBytes()
	wire = append(wire, update.Signature[:]...)
	return packet.Split(wire, n.sequence), nil
}

func leUint64(b [8]byte) uint64 {
	var v uint64
	for i, c := range b {
		v |= uint64(c) << (8 * i)
	}
	return v
}

func quantizeToWrapping(weights []float64) []int32 {
	out := make([]int32, len(weights))
	for i, w := range weights {
		out[i] = int32(fixedpoint.FromFloat64(w))
	}
	return out
}

// IngestFragment buffers one inbound fragment, returning the
// reassembled wire bytes (not yet decoded or verified) once every
// fragment for its sequence has arrived; the whole message is dropped
// on any CRC or count mismatch.
func (n *Node) IngestFragment(f packet.Fragment) (wire []byte, complete bool) {
	r, ok := n.reassemblers[f.SequenceID]
	if !ok {
		r = packet.NewReassembler()
		n.reassemblers[f.SequenceID] = r
	}
	if !r.Add(f) {
		delete(n.reassemblers, f.SequenceID)
		return nil, false
	}
	if !r.Complete() {
		return nil, false
	}
	delete(n.reassemblers, f.SequenceID)
	return r.Reassemble()
}

// ProcessInbound verifies a reassembled update and, on success,
// enqueues it into the aggregation buffer and rewards the sender; on
// failure it penalizes the sender and returns the error.
func (n *Node) ProcessInbound(update packet.UpdatePacket, senderPub []byte, now time.Time) error {
	if err := update.Verify(senderPub, now, n.nonces); err != nil {
		n.Reputation.PenalizeDrift(reputation.PeerID(update.Sender))
		return err
	}
	if err := zkproof.Verify(NormThreshold, update.NormProof); err != nil {
		n.Reputation.PenalizeZKPFailure(reputation.PeerID(update.Sender))
		return err
	}

	values := make([]fixedpoint.Q16, len(update.MaskedWeights))
	for i, w := range update.MaskedWeights {
		values[i] = fixedpoint.Q16(w)
	}
	n.Buffer.Push(aggregator.Update{Values: values})
	n.Reputation.Reward(reputation.PeerID(update.Sender))
	return nil
}

// MaybeAggregate drains the buffer and blends the result into the
// local model at the configured learning rate, when the buffer is
// full or the caller forces it (e.g. a round-timeout trigger).
func (n *Node) MaybeAggregate(force bool) (aggregator.Result, bool, error) {
	if !force && !n.Buffer.Full() {
		return aggregator.Result{}, false, nil
	}
	if !n.Energy.Spend(CostAggregate) {
		return aggregator.Result{}, false, nil
	}
	updates := n.Buffer.Drain()
	if len(updates) == 0 {
		return aggregator.Result{}, false, nil
	}
	res, err := aggregator.Aggregate(n.aggMode, updates, nil, n.aggParams)
	if err != nil {
		return aggregator.Result{}, false, err
	}
	n.model = aggregator.ApplyLearningRate(n.model, res.Vector, n.aggParams.LearningRate)
	return res, true, nil
}

// UpdateAuditEpoch reseeds the auditor's challenge selection with the
// latest consensus epoch hash; callers invoke this once per round
// after that round's aggregation has settled.
func (n *Node) UpdateAuditEpoch(hash [32]byte) {
	n.Auditor.UpdateEpochHash(hash)
}

// AuditTick runs the stochastic collusion audit for the current
// round: if this round triggers an audit, it returns the generated
// challenges for dispatch to the selected peers.
func (n *Node) AuditTick(now time.Time, currentEntropy float64, activePeers []xcrypto.PeerID) []packet.AuditChallenge {
	return n.Auditor.GenerateChallenges(n.round, currentEntropy, activePeers, now)
}

// VerifyAuditResponse checks a challenged peer's response, rewarding
// or penalizing its reputation accordingly, at the configured energy
// cost for processing a response.
func (n *Node) VerifyAuditResponse(challenge packet.AuditChallenge, resp packet.AuditResponse, oracle audit.GradientOracle) error {
	if !n.Energy.Spend(CostAuditReply) {
		return nil
	}
	return audit.VerifyResponse(challenge, resp, oracle, n.Reputation)
}
