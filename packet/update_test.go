package packet

import (
	"testing"
	"time"

	"github.com/edgeswarm/core/xcrypto"
	"github.com/edgeswarm/core/zkproof"
	"github.com/stretchr/testify/require"
)

func TestUpdatePacketSignVerifyRoundTrip(t *testing.T) {
	var seed [32]byte
	seed[0] = 7
	id := xcrypto.NewIdentity(seed)

	u := UpdatePacket{
		Sender:        id.PeerID(),
		MaskedWeights: []int32{1, 2, 3},
		NormProof:     zkproof.Proof{},
		DPEpsilon:     0.1,
		ResidualError: 0.01,
		AccuracyDelta: 0.06,
	}
	now := time.Now()
	u.Sign(id, now, 1)

	err := u.Verify(id.Public, now, xcrypto.NewNonceSet())
	require.NoError(t, err)
}

func TestUpdatePacketStormFlagIsSigned(t *testing.T) {
	var seed [32]byte
	seed[0] = 9
	id := xcrypto.NewIdentity(seed)

	u := UpdatePacket{Sender: id.PeerID(), MaskedWeights: []int32{1}}
	now := time.Now()
	u.Sign(id, now, 1)

	u.StormMode = true
	err := u.Verify(id.Public, now, xcrypto.NewNonceSet())
	require.ErrorIs(t, err, xcrypto.InvalidSignature)
}

func TestCureThreshold(t *testing.T) {
	u := UpdatePacket{ResidualError: 0.01, AccuracyDelta: 0.06}
	require.True(t, u.IsCureWorthy())

	u2 := UpdatePacket{ResidualError: 0.05, AccuracyDelta: 0.06}
	require.False(t, u2.IsCureWorthy())
}
