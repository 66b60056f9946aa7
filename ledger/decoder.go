package ledger

import (
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/solwatch/shredscan/metrics"
)

// Decoder parses one assembled stream payload into ledger entries.
// Implementations must be safe for reuse across payloads; the pipeline
// holds a single instance.
type Decoder interface {
	Decode(payload []byte) ([]Entry, error)
}

// MsgpackDecoder decodes payloads holding a msgpack-encoded entry batch.
type MsgpackDecoder struct{}

// NewMsgpackDecoder creates the stream's default decoder.
func NewMsgpackDecoder() *MsgpackDecoder {
	return &MsgpackDecoder{}
}

// Decode parses payload into entries. An empty payload is an empty
// batch, not an error.
func (d *MsgpackDecoder) Decode(payload []byte) ([]Entry, error) {
	if len(payload) == 0 {
		return nil, nil
	}

	var entries []Entry
	if err := msgpack.Unmarshal(payload, &entries); err != nil {
		metrics.IncrCounterWithGroup(metrics.NameDecodeFailTotal, metrics.GroupShredscan, 1)
		return nil, errors.Wrap(err, "decode entry batch")
	}

	metrics.IncrCounterWithGroup(metrics.NameDecodeEntryTotal, metrics.GroupShredscan, metrics.Value(len(entries)))
	return entries, nil
}

// EncodeEntries serializes an entry batch with the same codec Decode
// expects. Feed relays and tests use it to produce payloads.
func EncodeEntries(entries []Entry) ([]byte, error) {
	buf, err := msgpack.Marshal(entries)
	if err != nil {
		return nil, errors.Wrap(err, "encode entry batch")
	}
	return buf, nil
}
