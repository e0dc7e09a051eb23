// Package packet implements the gossip wire format: the signed update
// envelope, audit challenge/response, and MTU-aware fragmentation with
// CRC32 integrity checking.
package packet

import (
	"crypto/ed25519"
	"encoding/binary"
	"math"
	"time"

	"github.com/edgeswarm/core/xcrypto"
	"github.com/edgeswarm/core/zkproof"
)

// UpdatePacket is the gossip "ghost update": masked weights plus the
// privacy/security wrappers applied before transmission.
type UpdatePacket struct {
	Sender        xcrypto.PeerID
	MaskedWeights []int32 // i32 wrapping arithmetic
	NormProof     zkproof.Proof
	DPEpsilon     float32
	ResidualError float32
	AccuracyDelta float32
	StormMode     bool

	Timestamp uint64
	Nonce     uint64
	Signature [64]byte
}

// CureThresholdResidual and CureThresholdAccuracy define when an
// update qualifies for priority ("cure-worthy") gossip.
const (
	CureThresholdResidual = 0.02
	CureThresholdAccuracy = 0.05
)

// IsCureWorthy reports whether this update qualifies for high-priority
// epidemic gossip (glossary: "Cure threshold"). Independent of
// reputation.
func (u UpdatePacket) IsCureWorthy() bool {
	return u.ResidualError < CureThresholdResidual && u.AccuracyDelta > CureThresholdAccuracy
}

// modelPayload serialises sender, weights, proof, and DP/quality
// metrics into the canonical byte string used both for signing and on
// the wire body.
func (u UpdatePacket) modelPayload() []byte {
	buf := make([]byte, 0, 32+4+len(u.MaskedWeights)*4+64+4+4+4)
	buf = append(buf, u.Sender[:]...)

	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(u.MaskedWeights)))
	buf = append(buf, lenBuf[:]...)
	for _, w := range u.MaskedWeights {
		var wb [4]byte
		binary.LittleEndian.PutUint32(wb[:], uint32(w))
		buf = append(buf, wb[:]...)
	}

	buf = append(buf, u.NormProof.Commitment[:]...)
	buf = append(buf, u.NormProof.Announcement[:]...)
	buf = append(buf, u.NormProof.Z1[:]...)
	buf = append(buf, u.NormProof.Z2[:]...)

	buf = appendFloat32(buf, u.DPEpsilon)
	buf = appendFloat32(buf, u.ResidualError)
	buf = appendFloat32(buf, u.AccuracyDelta)
	return buf
}

func appendFloat32(buf []byte, f float32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(f))
	return append(buf, b[:]...)
}

// SignedBytes builds payload || timestamp(8B LE) || nonce(8B LE) ||
// storm_mode(1B), the canonical byte order for signing.
func (u UpdatePacket) SignedBytes() []byte {
	payload := u.modelPayload()
	buf := make([]byte, len(payload)+8+8+1)
	n := copy(buf, payload)
	binary.LittleEndian.PutUint64(buf[n:], u.Timestamp)
	binary.LittleEndian.PutUint64(buf[n+8:], u.Nonce)
	if u.StormMode {
		buf[n+16] = 1
	}
	return buf
}

// Sign computes and stores the detached signature over SignedBytes,
// which includes the storm-mode flag so a flipped flag invalidates it.
func (u *UpdatePacket) Sign(id xcrypto.Identity, now time.Time, nonce uint64) {
	u.Timestamp = uint64(now.UnixMilli())
	u.Nonce = nonce
	sig := ed25519.Sign(id.Private, u.SignedBytes())
	copy(u.Signature[:], sig)
}

// Verify checks the envelope signature, then timestamp bounds and
// replay, matching xcrypto.VerifyEnvelope's failure-kind ordering but
// over the storm-mode-inclusive SignedBytes.
func (u UpdatePacket) Verify(pub ed25519.PublicKey, now time.Time, nonces *xcrypto.NonceSet) error {
	if len(pub) != ed25519.PublicKeySize {
		return xcrypto.InvalidPublicKey
	}
	if !ed25519.Verify(pub, u.SignedBytes(), u.Signature[:]) {
		return xcrypto.InvalidSignature
	}
	msgTime := time.UnixMilli(int64(u.Timestamp))
	if now.Sub(msgTime) > xcrypto.MaxMessageAge {
		return xcrypto.ExpiredMessage
	}
	if msgTime.Sub(now) > xcrypto.ClockSkewTolerance {
		return xcrypto.FutureTimestamp
	}
	if nonces != nil && !nonces.CheckAndRecord(u.Nonce) {
		return xcrypto.ReplayDetected
	}
	return nil
}
