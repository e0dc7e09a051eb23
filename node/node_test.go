package node

import (
	"context"
	"testing"
	"time"

	"github.com/edgeswarm/core/aggregator"
	"github.com/edgeswarm/core/audit"
	"github.com/edgeswarm/core/fixedpoint"
	"github.com/edgeswarm/core/packet"
	"github.com/edgeswarm/core/regime"
	"github.com/edgeswarm/core/reputation"
	"github.com/edgeswarm/core/silence"
	"github.com/edgeswarm/core/twt"
	"github.com/edgeswarm/core/xcrypto"
	"github.com/edgeswarm/core/zkproof"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	var seed, x25519 [32]byte
	seed[0] = 1
	x25519[0] = 2
	return Config{
		Identity:         xcrypto.NewIdentity(seed),
		X25519Private:    x25519,
		EnergyCapacity:   1000,
		RegimeThresholds: regime.DefaultThresholds(),
		SilenceParams:    silence.DefaultParams(),
		Role:             twt.Sentinel,
		Schedule:         twt.ScheduleConfig{MaxBatchSize: 8},
		ClipThreshold:    1.0,
		DPEpsilon:        1.0,
		DPDelta:          1e-5,
		PrivacyBudget:    1000,
		PrivacyDecay:     0.99,
		BufferSize:       4,
		AggregatorMode:   aggregator.TrimmedMean,
		AggregatorParams: aggregator.Params{TrimFraction: 0.2, LearningRate: 0.5},
		AuditConfig:      audit.DefaultConfig(),
	}
}

func TestNodeStormAlwaysBroadcasts(t *testing.T) {
	now := time.Now()
	n := New(testConfig(), now, []fixedpoint.Q16{0, 0, 0})

	obs := TickObservation{
		Now:        now,
		Entropy:    0.95, // pushes regime to Storm
		BytesSent:  0,
		Residual:   0.1,
		RawWeights: []float64{0.1, -0.2, 0.3},
	}
	res, err := n.Tick(context.Background(), obs)
	require.NoError(t, err)
	require.False(t, res.Suppressed)
	require.NotEmpty(t, res.Fragments)
}

func TestNodeEnergyGateSuppressesBroadcast(t *testing.T) {
	now := time.Now()
	cfg := testConfig()
	cfg.EnergyCapacity = 0
	n := New(cfg, now, []fixedpoint.Q16{0})

	obs := TickObservation{Now: now, Entropy: 0.95, RawWeights: []float64{0.1}}
	res, err := n.Tick(context.Background(), obs)
	require.NoError(t, err)
	require.True(t, res.Suppressed)
}

func TestNodeFragmentRoundTripAndIngest(t *testing.T) {
	now := time.Now()
	n := New(testConfig(), now, []fixedpoint.Q16{0, 0})

	obs := TickObservation{Now: now, Entropy: 0.95, RawWeights: []float64{0.5, -0.5}}
	res, err := n.Tick(context.Background(), obs)
	require.NoError(t, err)
	require.NotEmpty(t, res.Fragments)

	var wire []byte
	var complete bool
	for _, f := range res.Fragments {
		wire, complete = n.IngestFragment(f)
	}
	require.True(t, complete)
	require.NotEmpty(t, wire)
}

func TestNodeProcessInboundRejectsBadSignature(t *testing.T) {
	now := time.Now()
	receiver := New(testConfig(), now, []fixedpoint.Q16{0})

	var seed [32]byte
	seed[0] = 9
	sender := xcrypto.NewIdentity(seed)

	proof, err := zkproof.Prove(NormThreshold, 10, [64]byte{1}, [64]byte{2}, [64]byte{3})
	require.NoError(t, err)

	update := packet.UpdatePacket{
		Sender:        sender.PeerID(),
		MaskedWeights: []int32{1, 2, 3},
		NormProof:     proof,
	}
	update.Sign(sender, now, 42)
	update.Signature[0] ^= 0xFF // corrupt

	err = receiver.ProcessInbound(update, sender.Public, now)
	require.Error(t, err)
	require.Less(t, receiver.Reputation.Score(reputation.PeerID(sender.PeerID())), 0.5)
}

func TestNodeMaybeAggregateBlendsModel(t *testing.T) {
	now := time.Now()
	n := New(testConfig(), now, []fixedpoint.Q16{fixedpoint.FromFloat64(0)})

	for i := 0; i < 4; i++ {
		n.Buffer.Push(aggregator.Update{Values: []fixedpoint.Q16{fixedpoint.FromFloat64(2.0)}})
	}

	res, ran, err := n.MaybeAggregate(false)
	require.NoError(t, err)
	require.True(t, ran)
	require.InDelta(t, 2.0, res.Vector[0].Float64(), 0.01)
	require.InDelta(t, 1.0, n.Model()[0].Float64(), 0.01)
}

func TestAuditTickRespectsSchedule(t *testing.T) {
	now := time.Now()
	n := New(testConfig(), now, nil)

	peers := []xcrypto.PeerID{{1}, {2}, {3}, {4}, {5}}
	challenges := n.AuditTick(now, 0.5, peers)
	require.Empty(t, challenges) // round 0 never audits

	for i := 0; i < 50; i++ {
		n.Tick(context.Background(), TickObservation{Now: now, Entropy: 0.0, RawWeights: nil})
	}
	challenges = n.AuditTick(now, 0.5, peers)
	require.Len(t, challenges, 3)
}
