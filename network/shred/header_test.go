package shred

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeHeader(t *testing.T) {
	hdr := &FragmentHeader{
		MessageID:     7,
		FragmentIndex: 1,
		FragmentCount: 3,
		TotalSize:     4096,
	}

	buf := EncodeHeader(hdr)
	require.Len(t, buf, HeaderSize)
	assert.Equal(t, Magic[:], buf[:4])

	got, err := DecodeHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, hdr, got)
}

func TestDecodeHeaderWireLayout(t *testing.T) {
	// Hand-built little-endian datagram, independent of EncodeHeader.
	buf := make([]byte, HeaderSize)
	copy(buf, "SHRD")
	binary.LittleEndian.PutUint32(buf[4:], 0xDEADBEEF)
	binary.LittleEndian.PutUint16(buf[8:], 2)
	binary.LittleEndian.PutUint16(buf[10:], 5)
	binary.LittleEndian.PutUint32(buf[12:], 12345)

	hdr, err := DecodeHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), hdr.MessageID)
	assert.Equal(t, uint16(2), hdr.FragmentIndex)
	assert.Equal(t, uint16(5), hdr.FragmentCount)
	assert.Equal(t, uint32(12345), hdr.TotalSize)
}

func TestDecodeHeaderErrors(t *testing.T) {
	_, err := DecodeHeader([]byte("SHRD too short"))
	assert.Error(t, err)

	junk := make([]byte, HeaderSize)
	copy(junk, "JUNK")
	_, err = DecodeHeader(junk)
	assert.Error(t, err)
}

func TestHasMagic(t *testing.T) {
	assert.True(t, HasMagic([]byte("SHRDxxxx")))
	assert.False(t, HasMagic([]byte("SHR")))
	assert.False(t, HasMagic([]byte("shrdxxxx")))
	assert.False(t, HasMagic(nil))
}

func TestSplitRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAB}, 3000)

	frags, err := Split(42, payload, 1200)
	require.NoError(t, err)
	// 1200 - 16 = 1184 payload bytes per fragment, 3000/1184 rounds up to 3.
	require.Len(t, frags, 3)

	var assembled []byte
	for i, f := range frags {
		require.LessOrEqual(t, len(f), 1200)
		hdr, err := DecodeHeader(f)
		require.NoError(t, err)
		assert.Equal(t, uint32(42), hdr.MessageID)
		assert.Equal(t, uint16(i), hdr.FragmentIndex)
		assert.Equal(t, uint16(3), hdr.FragmentCount)
		assert.Equal(t, uint32(3000), hdr.TotalSize)
		assembled = append(assembled, Payload(f)...)
	}
	assert.Equal(t, payload, assembled)
}

func TestSplitSingleFragment(t *testing.T) {
	frags, err := Split(1, []byte("tiny"), 1200)
	require.NoError(t, err)
	require.Len(t, frags, 1)

	hdr, err := DecodeHeader(frags[0])
	require.NoError(t, err)
	assert.Equal(t, uint16(0), hdr.FragmentIndex)
	assert.Equal(t, uint16(1), hdr.FragmentCount)
	assert.Equal(t, []byte("tiny"), Payload(frags[0]))
}

func TestSplitEmptyPayload(t *testing.T) {
	frags, err := Split(9, nil, 1200)
	require.NoError(t, err)
	require.Len(t, frags, 1)

	hdr, err := DecodeHeader(frags[0])
	require.NoError(t, err)
	assert.Equal(t, uint16(1), hdr.FragmentCount)
	assert.Equal(t, uint32(0), hdr.TotalSize)
	assert.Empty(t, Payload(frags[0]))
}

func TestSplitMTUTooSmall(t *testing.T) {
	_, err := Split(1, []byte("data"), HeaderSize)
	assert.Error(t, err)
}
