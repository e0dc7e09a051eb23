package packet

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFragmentationRoundTrip(t *testing.T) {
	message := bytes.Repeat([]byte{0xAB}, 3000)
	fragments := Split(message, 1)
	require.Len(t, fragments, 3)
	require.EqualValues(t, 3, fragments[0].TotalFragments)

	got, ok := Reassemble(fragments)
	require.True(t, ok)
	require.Equal(t, message, got)
}

func TestFragmentationBitFlipDropsMessage(t *testing.T) {
	message := bytes.Repeat([]byte{0xCD}, 3000)
	fragments := Split(message, 1)
	fragments[1].Payload[0] ^= 0x01

	_, ok := Reassemble(fragments)
	require.False(t, ok)
}

func TestFragmentationEmptyMessage(t *testing.T) {
	fragments := Split(nil, 1)
	got, ok := Reassemble(fragments)
	require.True(t, ok)
	require.Empty(t, got)
}

func TestFragmentEncodeDecode(t *testing.T) {
	f := Fragment{SequenceID: 5, FragmentIndex: 1, TotalFragments: 3, CRC32: 0xdeadbeef, Payload: []byte("hi")}
	encoded := f.Encode()
	decoded, ok := DecodeFragment(encoded)
	require.True(t, ok)
	require.Equal(t, f.SequenceID, decoded.SequenceID)
	require.Equal(t, f.Payload, decoded.Payload)
}

func TestAuditChallengeExpiry(t *testing.T) {
	c := AuditChallenge{Timestamp: time.Now()}
	require.False(t, c.IsExpired(c.Timestamp))
	require.True(t, c.IsExpired(c.Timestamp.Add(ChallengeTimeout+1)))
}
