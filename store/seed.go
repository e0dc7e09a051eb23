// Package store implements a node's persisted state: the Ed25519
// identity seed file, a bbolt-backed reputation database, and
// per-peer "gene" blobs from the learning layer.
package store

import (
	"crypto/rand"
	"fmt"
	"os"

	"github.com/edgeswarm/core/xcrypto"
)

// LoadOrCreateSeed reads the 32-byte raw Ed25519 seed at path, or
// generates and persists a fresh one if the file does not exist.
func LoadOrCreateSeed(path string) ([32]byte, error) {
	var seed [32]byte

	data, err := os.ReadFile(path)
	if err == nil {
		if len(data) != 32 {
			return seed, fmt.Errorf("store: seed file %s has %d bytes, want 32", path, len(data))
		}
		copy(seed[:], data)
		return seed, nil
	}
	if !os.IsNotExist(err) {
		return seed, fmt.Errorf("store: read seed %s: %w", path, err)
	}

	if _, err := rand.Read(seed[:]); err != nil {
		return seed, fmt.Errorf("store: generate seed: %w", err)
	}
	if err := os.WriteFile(path, seed[:], 0o600); err != nil {
		return seed, fmt.Errorf("store: write seed %s: %w", path, err)
	}
	return seed, nil
}

// LoadOrCreateIdentity wraps LoadOrCreateSeed and derives the Ed25519
// identity from it.
func LoadOrCreateIdentity(path string) (xcrypto.Identity, error) {
	seed, err := LoadOrCreateSeed(path)
	if err != nil {
		return xcrypto.Identity{}, err
	}
	return xcrypto.NewIdentity(seed), nil
}

// IdentityPair bundles a node's Ed25519 signing identity with its
// separate X25519 secure-aggregation key. The two live in different
// files: rotating the masking key must not change the node's peer id.
type IdentityPair struct {
	Identity      xcrypto.Identity
	X25519Private [32]byte
}

// LoadOrCreateIdentityPair loads (or generates) both keys, storing
// them at identityPath and x25519Path respectively.
func LoadOrCreateIdentityPair(identityPath, x25519Path string) (IdentityPair, error) {
	id, err := LoadOrCreateIdentity(identityPath)
	if err != nil {
		return IdentityPair{}, err
	}
	x25519, err := LoadOrCreateSeed(x25519Path)
	if err != nil {
		return IdentityPair{}, err
	}
	return IdentityPair{Identity: id, X25519Private: x25519}, nil
}
