package packet

import (
	"encoding/binary"
	"hash/crc32"
	"sort"
)

const (
	// SafeMTU is the safe MTU in bytes for the radio transports this
	// system targets.
	SafeMTU = 1024
	// FragmentHeaderSize is seq(4) + index(2) + total(2) + crc32(4).
	FragmentHeaderSize = 12
	// MaxPayload is the largest payload a single fragment may carry.
	MaxPayload = SafeMTU - FragmentHeaderSize
)

// Fragment is one MTU-safe piece of a larger serialised message.
type Fragment struct {
	SequenceID     uint32
	FragmentIndex  uint16
	TotalFragments uint16
	CRC32          uint32
	Payload        []byte
}

// Encode serialises a fragment to its wire form.
func (f Fragment) Encode() []byte {
	buf := make([]byte, FragmentHeaderSize+len(f.Payload))
	binary.LittleEndian.PutUint32(buf[0:4], f.SequenceID)
	binary.LittleEndian.PutUint16(buf[4:6], f.FragmentIndex)
	binary.LittleEndian.PutUint16(buf[6:8], f.TotalFragments)
	binary.LittleEndian.PutUint32(buf[8:12], f.CRC32)
	copy(buf[12:], f.Payload)
	return buf
}

// DecodeFragment parses a fragment from its wire form.
func DecodeFragment(b []byte) (Fragment, bool) {
	if len(b) < FragmentHeaderSize {
		return Fragment{}, false
	}
	f := Fragment{
		SequenceID:     binary.LittleEndian.Uint32(b[0:4]),
		FragmentIndex:  binary.LittleEndian.Uint16(b[4:6]),
		TotalFragments: binary.LittleEndian.Uint16(b[6:8]),
		CRC32:          binary.LittleEndian.Uint32(b[8:12]),
		Payload:        append([]byte(nil), b[12:]...),
	}
	return f, true
}

// Split chunks a message into MTU-safe fragments, each carrying an
// IEEE CRC32 of its own payload.
func Split(message []byte, sequenceID uint32) []Fragment {
	if len(message) == 0 {
		return []Fragment{{
			SequenceID:     sequenceID,
			FragmentIndex:  0,
			TotalFragments: 1,
			CRC32:          crc32.ChecksumIEEE(nil),
			Payload:        nil,
		}}
	}
	total := (len(message) + MaxPayload - 1) / MaxPayload
	fragments := make([]Fragment, 0, total)
	for i := 0; i < total; i++ {
		start := i * MaxPayload
		end := start + MaxPayload
		if end > len(message) {
			end = len(message)
		}
		payload := message[start:end]
		fragments = append(fragments, Fragment{
			SequenceID:     sequenceID,
			FragmentIndex:  uint16(i),
			TotalFragments: uint16(total),
			CRC32:          crc32.ChecksumIEEE(payload),
			Payload:        payload,
		})
	}
	return fragments
}

// Reassembler buffers fragments for one sequence_id and produces the
// original message once all fragments have arrived intact. Any
// mismatch (count, CRC) drops the whole message: callers get (nil,
// false), never a partial result.
type Reassembler struct {
	fragments map[uint16]Fragment
	total     uint16
	haveTotal bool
}

// NewReassembler creates an empty per-sequence reassembly buffer.
func NewReassembler() *Reassembler {
	return &Reassembler{fragments: make(map[uint16]Fragment)}
}

// Add ingests one fragment, verifying its own CRC immediately; a
// corrupt fragment, or one whose index is outside 0..total-1, is
// rejected (not buffered) and the call returns false.
func (r *Reassembler) Add(f Fragment) bool {
	if crc32.ChecksumIEEE(f.Payload) != f.CRC32 {
		return false
	}
	if r.haveTotal && f.TotalFragments != r.total {
		return false
	}
	if f.FragmentIndex >= f.TotalFragments {
		return false
	}
	r.total = f.TotalFragments
	r.haveTotal = true
	r.fragments[f.FragmentIndex] = f
	return true
}

// Complete reports whether every fragment 0..total-1 has arrived.
func (r *Reassembler) Complete() bool {
	if !r.haveTotal {
		return false
	}
	return len(r.fragments) == int(r.total)
}

// Reassemble sorts fragments by index, verifies the count matches
// total, and concatenates payloads. Any mismatch drops the whole
// message rather than returning a partial result.
func (r *Reassembler) Reassemble() ([]byte, bool) {
	if !r.Complete() {
		return nil, false
	}
	indices := make([]uint16, 0, len(r.fragments))
	for idx := range r.fragments {
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	var out []byte
	for _, idx := range indices {
		out = append(out, r.fragments[idx].Payload...)
	}
	return out, true
}

// Reassemble is a convenience one-shot helper for tests and simple
// callers: split(m) piped straight back through a fresh reassembler.
func Reassemble(fragments []Fragment) ([]byte, bool) {
	r := NewReassembler()
	for _, f := range fragments {
		if !r.Add(f) {
			return nil, false
		}
	}
	return r.Reassemble()
}
