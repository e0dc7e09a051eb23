package secureagg

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/curve25519"
)

func genKeypair(seedByte byte) (pub, priv [32]byte) {
	priv[0] = seedByte
	for i := 1; i < 32; i++ {
		priv[i] = byte(i) ^ seedByte
	}
	// Deterministic private keys; the public key is derived with the
	// X25519 base-point multiplication so both sides of a pair derive
	// the *same* shared secret, which the cancellation check depends on.
	p, err := curve25519.X25519(priv[:], curve25519.Basepoint)
	if err != nil {
		panic(err)
	}
	copy(pub[:], p)
	return
}

func TestPairwiseMaskCancelsExactly(t *testing.T) {
	pkA, privA := genKeypair(1)
	pkB, privB := genKeypair(2)

	wA := []int32{10, 20, 30}
	wB := []int32{5, -15, 100}

	sharedAB, err := SharedSecret(privA, pkB)
	require.NoError(t, err)
	sharedBA, err := SharedSecret(privB, pkA)
	require.NoError(t, err)
	require.Equal(t, sharedAB, sharedBA, "ECDH must be symmetric")

	maskA, err := Masks(sharedAB, 1, len(wA))
	require.NoError(t, err)

	maskedA := append([]int32(nil), wA...)
	ApplyPairwiseMask(maskedA, maskA, pkA, pkB)

	maskedB := append([]int32(nil), wB...)
	ApplyPairwiseMask(maskedB, maskA, pkB, pkA)

	for i := range wA {
		sum := int32(uint32(maskedA[i]) + uint32(maskedB[i]))
		require.Equal(t, wA[i]+wB[i], sum)
	}
}

func TestMasksDeterministicPerRound(t *testing.T) {
	var shared [32]byte
	shared[0] = 9
	m1, err := Masks(shared, 5, 4)
	require.NoError(t, err)
	m2, err := Masks(shared, 5, 4)
	require.NoError(t, err)
	require.Equal(t, m1, m2)

	m3, err := Masks(shared, 6, 4)
	require.NoError(t, err)
	require.NotEqual(t, m1, m3)
}
