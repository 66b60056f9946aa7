// Package shred specifies the wire format of fragmented stream datagrams.
// A fragmented datagram carries a fixed-size FragmentHeader followed by the
// fragment payload; datagrams without the magic tag are complete payloads
// and bypass reassembly entirely.
package shred

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// HeaderSize is the fixed size in bytes of the FragmentHeader:
// 4 bytes magic + 4 bytes message id + 2 bytes fragment index +
// 2 bytes fragment count + 4 bytes total size.
const HeaderSize = 16

// Magic is the 4-byte tag opening every fragmented datagram.
var Magic = [4]byte{'S', 'H', 'R', 'D'}

// FragmentHeader describes one fragment of a logical message. All integer
// fields are little-endian on the wire.
type FragmentHeader struct {
	MessageID     uint32 // Identifier shared by all fragments of one message.
	FragmentIndex uint16 // Position of this fragment, zero-based.
	FragmentCount uint16 // Total fragments in the message.
	TotalSize     uint32 // Size in bytes of the fully assembled payload.
}

// HasMagic reports whether buf opens with the fragment magic tag.
// Datagrams without it are complete payloads, not an error.
func HasMagic(buf []byte) bool {
	return len(buf) >= len(Magic) &&
		buf[0] == Magic[0] && buf[1] == Magic[1] &&
		buf[2] == Magic[2] && buf[3] == Magic[3]
}

// DecodeHeader parses a FragmentHeader from the front of buf. The caller
// is expected to have checked HasMagic first; a short or tagless buffer
// is an error here.
func DecodeHeader(buf []byte) (*FragmentHeader, error) {
	if len(buf) < HeaderSize {
		return nil, errors.Errorf("datagram too short for fragment header: %d < %d", len(buf), HeaderSize)
	}
	if !HasMagic(buf) {
		return nil, errors.New("fragment magic missing")
	}
	return &FragmentHeader{
		MessageID:     binary.LittleEndian.Uint32(buf[4:8]),
		FragmentIndex: binary.LittleEndian.Uint16(buf[8:10]),
		FragmentCount: binary.LittleEndian.Uint16(buf[10:12]),
		TotalSize:     binary.LittleEndian.Uint32(buf[12:16]),
	}, nil
}

// EncodeHeader serializes hdr into a fresh HeaderSize byte slice.
func EncodeHeader(hdr *FragmentHeader) []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[0:4], Magic[:])
	binary.LittleEndian.PutUint32(buf[4:8], hdr.MessageID)
	binary.LittleEndian.PutUint16(buf[8:10], hdr.FragmentIndex)
	binary.LittleEndian.PutUint16(buf[10:12], hdr.FragmentCount)
	binary.LittleEndian.PutUint32(buf[12:16], hdr.TotalSize)
	return buf
}

// Payload returns the fragment payload following the header.
// Valid only on buffers DecodeHeader accepted.
func Payload(buf []byte) []byte {
	return buf[HeaderSize:]
}
