package store

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/edgeswarm/core/reputation"
	"go.etcd.io/bbolt"
)

var (
	reputationBucket = []byte("reputation")
	geneBucket       = []byte("genes")
)

// DB is the embedded key-value store backing a node's reputation
// table and per-peer gene blobs. A struct field on the node/CLI
// wiring, never package-global state, so tests can open independent
// temp databases.
type DB struct {
	bolt *bbolt.DB
}

// Open creates or opens the bbolt file at path, creating the
// reputation and genes buckets if absent.
func Open(path string) (*DB, error) {
	b, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	err = b.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(reputationBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(geneBucket)
		return err
	})
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("store: init buckets: %w", err)
	}
	return &DB{bolt: b}, nil
}

// Close closes the underlying bbolt file.
func (d *DB) Close() error { return d.bolt.Close() }

// SaveReputation persists every known peer's score in bbolt, one key
// per peer (its peer-id hex) holding the JSON-encoded score;
// ExportReputationJSON renders the flat `{peer_hex: score}` map.
func (d *DB) SaveReputation(tracker *reputation.Tracker) error {
	scores := tracker.Scores()
	return d.bolt.Update(func(tx *bbolt.Tx) error {
		bkt := tx.Bucket(reputationBucket)
		for peer, score := range scores {
			key := []byte(hex.EncodeToString(peer[:]))
			val, err := json.Marshal(score)
			if err != nil {
				return err
			}
			if err := bkt.Put(key, val); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadReputation returns the persisted scores as a map keyed by
// peer-id hex. It does not rebuild a reputation.Tracker, which has no
// direct score setter.
func (d *DB) LoadReputation() (map[string]float64, error) {
	out := make(map[string]float64)
	err := d.bolt.View(func(tx *bbolt.Tx) error {
		bkt := tx.Bucket(reputationBucket)
		return bkt.ForEach(func(k, v []byte) error {
			var score float64
			if err := json.Unmarshal(v, &score); err != nil {
				return err
			}
			out[string(k)] = score
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("store: load reputation: %w", err)
	}
	return out, nil
}

// ExportReputationJSON renders the persisted reputation table as the
// flat `{peer_hex: score}` JSON document.
func (d *DB) ExportReputationJSON() ([]byte, error) {
	m, err := d.LoadReputation()
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(m, "", "  ")
}

// SaveGene stores an opaque per-peer byte payload from the learning
// layer, keyed by peer-id hex.
func (d *DB) SaveGene(peer reputation.PeerID, payload []byte) error {
	key := []byte(hex.EncodeToString(peer[:]))
	return d.bolt.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(geneBucket).Put(key, payload)
	})
}

// LoadGene retrieves a peer's gene blob, returning (nil, false) if
// none is stored.
func (d *DB) LoadGene(peer reputation.PeerID) ([]byte, bool, error) {
	var out []byte
	key := []byte(hex.EncodeToString(peer[:]))
	err := d.bolt.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(geneBucket).Get(key)
		if v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("store: load gene: %w", err)
	}
	return out, out != nil, nil
}
