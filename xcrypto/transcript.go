package xcrypto

import (
	"encoding/binary"

	"filippo.io/edwards25519"
	"github.com/zeebo/blake3"
)

// Transcript is a BLAKE3-based Fiat-Shamir transcript: labelled
// appends of domain-separated data, with challenge scalars derived
// from a 64-byte XOF output reduced mod the scalar group order
// (the analogue of from_bytes_mod_order_wide).
type Transcript struct {
	h *blake3.Hasher
}

// NewTranscript starts a transcript with a domain-separation label.
func NewTranscript(label string) *Transcript {
	h := blake3.New()
	h.Write([]byte("edgeswarm-transcript-v1"))
	appendLengthPrefixed(h, []byte(label))
	return &Transcript{h: h}
}

func appendLengthPrefixed(h *blake3.Hasher, data []byte) {
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(data)))
	h.Write(lenBuf[:])
	h.Write(data)
}

// AppendLabel appends a sub-label, for multi-step protocols that
// reuse one transcript across several commitments.
func (t *Transcript) AppendLabel(label string) {
	appendLengthPrefixed(t.h, []byte(label))
}

// AppendPoint appends a compressed curve point (e.g. a commitment or
// a Schnorr nonce commitment).
func (t *Transcript) AppendPoint(p *edwards25519.Point) {
	appendLengthPrefixed(t.h, p.Bytes())
}

// AppendCommitment appends a compressed Pedersen commitment.
func (t *Transcript) AppendCommitment(c Commitment) {
	appendLengthPrefixed(t.h, c[:])
}

// AppendUint64 appends a little-endian u64, used for round numbers
// and thresholds that must be bound into the challenge.
func (t *Transcript) AppendUint64(v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	t.h.Write(buf[:])
}

// ChallengeScalar derives the Fiat-Shamir challenge from everything
// appended so far, without consuming the transcript (so additional
// data, e.g. a second round's nonce, may still be appended after).
func (t *Transcript) ChallengeScalar() *edwards25519.Scalar {
	digest := t.h.Clone().Digest()
	var wide [64]byte
	_, _ = digest.Read(wide[:])
	s, err := new(edwards25519.Scalar).SetUniformBytes(wide[:])
	if err != nil {
		panic(err)
	}
	return s
}

// Blake3Sum256 is a convenience BLAKE3-256 digest over the
// concatenation of parts, outside the transcript machinery.
func Blake3Sum256(parts ...[]byte) [32]byte {
	h := blake3.New()
	for _, p := range parts {
		h.Write(p)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
