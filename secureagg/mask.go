// Package secureagg implements pairwise-masking secure aggregation:
// X25519 ECDH-derived masks applied with wrapping i32 arithmetic so
// that, when every peer in a clique submits, the masks cancel exactly
// at the aggregator.
package secureagg

import (
	"crypto/sha256"
	"encoding/binary"

	"golang.org/x/crypto/chacha20"
	"golang.org/x/crypto/curve25519"
)

// SharedSecret derives the X25519 ECDH shared secret between this
// node's private key and a peer's public key.
func SharedSecret(privateKey, peerPublicKey [32]byte) ([32]byte, error) {
	var out [32]byte
	shared, err := curve25519.X25519(privateKey[:], peerPublicKey[:])
	if err != nil {
		return out, err
	}
	copy(out[:], shared)
	return out, nil
}

// maskPRG derives a ChaCha20-seeded pseudorandom i32 mask stream from
// a pairwise shared secret and a round number (so masks differ each
// round even for a fixed peer pair).
func maskPRG(shared [32]byte, round uint64) (*chacha20.Cipher, error) {
	// HKDF-style single-step derivation keeps the dependency surface
	// to chacha20 + sha256, already pulled in by the crypto stack.
	h := sha256.New()
	h.Write(shared[:])
	var roundBuf [8]byte
	binary.LittleEndian.PutUint64(roundBuf[:], round)
	h.Write(roundBuf[:])
	key := h.Sum(nil)

	var nonce [12]byte
	return chacha20.NewUnauthenticatedCipher(key, nonce[:])
}

// Masks generates dim i32 mask values for one ordered peer pair and
// round, from the PRG keyed by their shared secret.
func Masks(shared [32]byte, round uint64, dim int) ([]int32, error) {
	stream, err := maskPRG(shared, round)
	if err != nil {
		return nil, err
	}
	raw := make([]byte, dim*4)
	zero := make([]byte, dim*4)
	stream.XORKeyStream(raw, zero)

	out := make([]int32, dim)
	for i := 0; i < dim; i++ {
		out[i] = int32(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return out, nil
}

// ApplyPairwiseMask adds or subtracts one peer pair's mask into w,
// using wrapping i32 arithmetic. If selfPK < otherPK
// (lexicographic over raw bytes) the mask is added, otherwise
// subtracted, so that across the pair the contributions cancel.
func ApplyPairwiseMask(w []int32, mask []int32, selfPK, otherPK [32]byte) {
	sign := int32(1)
	if bytesLess(otherPK, selfPK) {
		sign = -1
	}
	for i := range w {
		if i >= len(mask) {
			break
		}
		w[i] = int32(uint32(w[i]) + uint32(sign*mask[i]))
	}
}

func bytesLess(a, b [32]byte) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// MaskForClique computes, for self against every peer in others,
// the combined wrapping-arithmetic mask contribution for one round,
// and returns w with all pairwise masks applied.
//
// Dropout recovery (a peer leaving mid-round so its contribution is
// never cancelled, leaving a residual) is out of scope: Shamir-share
// resurrection is a known limitation, not implemented here.
func MaskForClique(selfPK, selfPriv [32]byte, others [][32]byte, round uint64, w []int32) ([]int32, error) {
	out := append([]int32(nil), w...)
	for _, otherPK := range others {
		shared, err := SharedSecret(selfPriv, otherPK)
		if err != nil {
			return nil, err
		}
		mask, err := Masks(shared, round, len(w))
		if err != nil {
			return nil, err
		}
		ApplyPairwiseMask(out, mask, selfPK, otherPK)
	}
	return out, nil
}
