package xcrypto

import (
	"errors"

	"filippo.io/edwards25519"
)

// generatorG is the Edwards25519 basepoint; generatorH = 2*G, matching
// a fixed-generator Pedersen setup.
var (
	generatorG = edwards25519.NewGeneratorPoint()
	generatorH = new(edwards25519.Point).Add(generatorG, generatorG)
)

// Commitment is a compressed Edwards point: Pedersen commitment to a
// (value, blinding) pair: C = value*G + blinding*H.
type Commitment [32]byte

// PedersenCommit computes C = value*G + blinding*H.
func PedersenCommit(value, blinding *edwards25519.Scalar) Commitment {
	vG := new(edwards25519.Point).ScalarMult(value, generatorG)
	rH := new(edwards25519.Point).ScalarMult(blinding, generatorH)
	c := new(edwards25519.Point).Add(vG, rH)
	var out Commitment
	copy(out[:], c.Bytes())
	return out
}

// Point decodes the commitment back into a curve point, for verifier
// side algebraic checks.
func (c Commitment) Point() (*edwards25519.Point, error) {
	p, err := new(edwards25519.Point).SetBytes(c[:])
	if err != nil {
		return nil, errors.New("xcrypto: invalid commitment encoding")
	}
	return p, nil
}

// ScalarFromUint64 builds a canonical scalar from a small non-negative
// integer, used for committing to Q16.16 quantities after projecting
// them into the scalar field.
func ScalarFromUint64(v uint64) *edwards25519.Scalar {
	var wide [64]byte
	for i := 0; i < 8; i++ {
		wide[i] = byte(v >> (8 * i))
	}
	s, err := new(edwards25519.Scalar).SetUniformBytes(wide[:])
	if err != nil {
		// SetUniformBytes only fails on wrong-length input; wide is
		// always 64 bytes, so this is unreachable.
		panic(err)
	}
	return s
}

// RandomScalar reduces 64 bytes of uniform randomness into a scalar,
// used to generate blinding factors.
func RandomScalar(uniform [64]byte) *edwards25519.Scalar {
	s, err := new(edwards25519.Scalar).SetUniformBytes(uniform[:])
	if err != nil {
		panic(err)
	}
	return s
}
