package packet

import (
	"encoding/binary"
	"time"

	"github.com/edgeswarm/core/xcrypto"
	"github.com/edgeswarm/core/zkproof"
)

// AuditChallenge is the auditor -> challenged peer tuple.
type AuditChallenge struct {
	AuditorID   xcrypto.PeerID
	ChallengedID xcrypto.PeerID
	Round       uint64
	Nonce       [32]byte
	Timestamp   time.Time
}

// ChallengeTimeout is the audit response window.
const ChallengeTimeout = 10 * time.Second

// IsExpired reports whether more than 10s have elapsed since issuance.
func (c AuditChallenge) IsExpired(now time.Time) bool {
	return now.Sub(c.Timestamp) > ChallengeTimeout
}

// Encode serialises the challenge to its canonical wire form:
// auditor_id[32] || challenged_id[32] || round_u64 || nonce[32] ||
// timestamp_u64.
func (c AuditChallenge) Encode() []byte {
	buf := make([]byte, 0, 32+32+8+32+8)
	buf = append(buf, c.AuditorID[:]...)
	buf = append(buf, c.ChallengedID[:]...)
	buf = appendUint64(buf, c.Round)
	buf = append(buf, c.Nonce[:]...)
	buf = appendUint64(buf, uint64(c.Timestamp.UnixMilli()))
	return buf
}

func appendUint64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}

// AuditResponse is a challenged peer's reply.
type AuditResponse struct {
	PeerID          xcrypto.PeerID
	RawPrediction   []int32
	LocalDataHash   [32]byte
	SubmittedGradient []int32
	Nonce           [32]byte
	ZKProof         *zkproof.Proof // optional
}

// Encode serialises the response to its canonical wire form:
// peer_id[32] || raw_pred_len_u32 || raw_pred[i32*n] || data_hash[32]
// || grad_len_u32 || grad[i32*n] || nonce[32] || zk_proof?.
func (r AuditResponse) Encode() []byte {
	buf := make([]byte, 0, 32+4+len(r.RawPrediction)*4+32+4+len(r.SubmittedGradient)*4+32)
	buf = append(buf, r.PeerID[:]...)
	buf = appendI32Slice(buf, r.RawPrediction)
	buf = append(buf, r.LocalDataHash[:]...)
	buf = appendI32Slice(buf, r.SubmittedGradient)
	buf = append(buf, r.Nonce[:]...)
	if r.ZKProof != nil {
		buf = append(buf, r.ZKProof.Commitment[:]...)
		buf = append(buf, r.ZKProof.Announcement[:]...)
		buf = append(buf, r.ZKProof.Z1[:]...)
		buf = append(buf, r.ZKProof.Z2[:]...)
	}
	return buf
}

func appendI32Slice(buf []byte, values []int32) []byte {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(values)))
	buf = append(buf, lenBuf[:]...)
	for _, v := range values {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(v))
		buf = append(buf, b[:]...)
	}
	return buf
}
