package shred

import (
	"github.com/pkg/errors"
)

// MaxFragments bounds the fragment count of one message. With a u16 index
// the wire format allows more, but anything past this is a sign of a
// broken sender rather than a large payload.
const MaxFragments = 1 << 14

// Split fragments payload into datagrams of at most mtu bytes each,
// every one carrying a FragmentHeader for msgID. A payload that fits in
// one datagram under the mtu is still wrapped so the receiver sees a
// consistent message id. Used by feed relays and tests; the ingest side
// never splits.
func Split(msgID uint32, payload []byte, mtu int) ([][]byte, error) {
	maxFrag := mtu - HeaderSize
	if maxFrag <= 0 {
		return nil, errors.Errorf("mtu %d leaves no room for payload", mtu)
	}

	total := len(payload)
	count := (total + maxFrag - 1) / maxFrag
	if count == 0 {
		count = 1
	}
	if count > MaxFragments {
		return nil, errors.Errorf("payload needs %d fragments, limit %d", count, MaxFragments)
	}

	out := make([][]byte, 0, count)
	for i := 0; i < count; i++ {
		offset := i * maxFrag
		end := offset + maxFrag
		if end > total {
			end = total
		}

		hdr := &FragmentHeader{
			MessageID:     msgID,
			FragmentIndex: uint16(i),
			FragmentCount: uint16(count),
			TotalSize:     uint32(total),
		}

		datagram := make([]byte, 0, HeaderSize+(end-offset))
		datagram = append(datagram, EncodeHeader(hdr)...)
		datagram = append(datagram, payload[offset:end]...)
		out = append(out, datagram)
	}

	return out, nil
}
