// Package xcrypto implements the cryptographic primitives of the
// gossip protocol: Ed25519 identity/signing, Pedersen commitments over
// Edwards25519, and BLAKE3-based Fiat-Shamir transcripts.
package xcrypto

import (
	"crypto/ed25519"
	"encoding/binary"
	"errors"
	"sync"
	"time"
)

// PeerID is a 32-byte Ed25519 public key, also the map key for
// reputation, peer-key store, and audit targets.
type PeerID [32]byte

// Identity is a node's signing keypair.
type Identity struct {
	Public  ed25519.PublicKey
	Private ed25519.PrivateKey
}

// PeerID returns this identity's public-key-derived peer id.
func (id Identity) PeerID() PeerID {
	var p PeerID
	copy(p[:], id.Public)
	return p
}

// NewIdentity derives a keypair from a 32-byte seed.
func NewIdentity(seed [32]byte) Identity {
	priv := ed25519.NewKeyFromSeed(seed[:])
	return Identity{Public: priv.Public().(ed25519.PublicKey), Private: priv}
}

// VerifyFailure enumerates the distinct verification outcome kinds.
type VerifyFailure int

const (
	VerifyOK VerifyFailure = iota
	InvalidSignature
	InvalidPublicKey
	ExpiredMessage
	FutureTimestamp
	ReplayDetected
)

func (f VerifyFailure) Error() string {
	switch f {
	case VerifyOK:
		return "ok"
	case InvalidSignature:
		return "invalid signature"
	case InvalidPublicKey:
		return "invalid public key"
	case ExpiredMessage:
		return "expired message"
	case FutureTimestamp:
		return "future timestamp"
	case ReplayDetected:
		return "replay detected"
	default:
		return "unknown verify failure"
	}
}

const (
	// MaxMessageAge is the 300s replay window.
	MaxMessageAge = 300 * time.Second
	// ClockSkewTolerance bounds how far into the future a timestamp
	// may legitimately be, absorbing clock drift between peers.
	ClockSkewTolerance = 5 * time.Second
)

// CanonicalPayload builds the signed byte string:
// data || timestamp(u64 LE) || nonce(u64 LE).
func CanonicalPayload(data []byte, timestamp, nonce uint64) []byte {
	buf := make([]byte, len(data)+16)
	n := copy(buf, data)
	binary.LittleEndian.PutUint64(buf[n:], timestamp)
	binary.LittleEndian.PutUint64(buf[n+8:], nonce)
	return buf
}

// SignEnvelope signs data || timestamp || nonce, returning a detached
// 64-byte signature.
func SignEnvelope(priv ed25519.PrivateKey, data []byte, timestamp, nonce uint64) [64]byte {
	sig := ed25519.Sign(priv, CanonicalPayload(data, timestamp, nonce))
	var out [64]byte
	copy(out[:], sig)
	return out
}

// NonceSet is a bounded replay-prevention set, cleared wholesale on
// overflow rather than partially evicted: the simplest deterministic
// policy, since partial LRU eviction order would itself need to be
// specified for determinism across nodes.
type NonceSet struct {
	mu      sync.Mutex
	seen    map[uint64]struct{}
	maxSize int
}

// NewNonceSet creates a bounded nonce set with a default capacity of
// 10,000 entries.
func NewNonceSet() *NonceSet {
	return &NonceSet{seen: make(map[uint64]struct{}, 10_000), maxSize: 10_000}
}

// CheckAndRecord returns true if nonce has not been seen before,
// recording it; false (replay) if it has.
func (s *NonceSet) CheckAndRecord(nonce uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[nonce]; ok {
		return false
	}
	if len(s.seen) >= s.maxSize {
		s.seen = make(map[uint64]struct{}, s.maxSize)
	}
	s.seen[nonce] = struct{}{}
	return true
}

// VerifyEnvelope checks signature validity, timestamp bounds, and
// replay, in that order, returning the first applicable failure kind.
func VerifyEnvelope(pub ed25519.PublicKey, data []byte, timestamp, nonce uint64, sig [64]byte, now time.Time, nonces *NonceSet) error {
	if len(pub) != ed25519.PublicKeySize {
		return InvalidPublicKey
	}
	payload := CanonicalPayload(data, timestamp, nonce)
	if !ed25519.Verify(pub, payload, sig[:]) {
		return InvalidSignature
	}
	msgTime := time.Unix(0, int64(timestamp)*int64(time.Millisecond))
	if now.Sub(msgTime) > MaxMessageAge {
		return ExpiredMessage
	}
	if msgTime.Sub(now) > ClockSkewTolerance {
		return FutureTimestamp
	}
	if nonces != nil && !nonces.CheckAndRecord(nonce) {
		return ReplayDetected
	}
	return nil
}

var errSeedLength = errors.New("xcrypto: seed must be 32 bytes")

// SeedFromBytes validates and wraps a raw 32-byte seed.
func SeedFromBytes(b []byte) ([32]byte, error) {
	var seed [32]byte
	if len(b) != 32 {
		return seed, errSeedLength
	}
	copy(seed[:], b)
	return seed, nil
}
