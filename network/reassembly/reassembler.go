// Package reassembly rebuilds logical messages from fragmented datagrams.
//
// The Reassembler is single-mutator: exactly one goroutine, the ingest
// pipeline worker, calls Accept and EvictStale. It therefore carries no
// internal locking.
package reassembly

import (
	"time"

	"github.com/pkg/errors"

	"github.com/solwatch/shredscan/metrics"
	"github.com/solwatch/shredscan/network/shred"
)

// Status reports what Accept produced for one datagram.
type Status int

const (
	// StatusPending means the datagram was buffered; its message is still
	// missing fragments.
	StatusPending Status = iota
	// StatusReady means a complete payload is available in Result.Payload.
	StatusReady
)

// Result is the outcome of accepting one datagram.
type Result struct {
	Status     Status
	Payload    []byte // Complete payload; set only when Status is StatusReady.
	MessageID  uint32 // Message id of the fragment; zero for passthrough datagrams.
	Fragmented bool   // Whether the datagram carried a fragment header.
}

// Reject reasons recorded on the ingest_reject_total counter.
const (
	reasonBadIndex     = "bad_index"
	reasonMetaMismatch = "meta_mismatch"
	reasonSizeMismatch = "size_mismatch"
	reasonBadHeader    = "bad_header"

	reasonStale    = "stale"
	reasonCapacity = "capacity"
)

// pendingMessage buffers the fragments of one incomplete message.
type pendingMessage struct {
	fragmentCount uint16
	totalSize     uint32
	receivedCount uint16
	slots         [][]byte
	createdAt     time.Time
}

// Reassembler rebuilds messages keyed by message id. Pending state is
// bounded by maxPending; the oldest pending message by creation time is
// dropped when a new id would exceed the bound.
type Reassembler struct {
	pending    map[uint32]*pendingMessage
	maxPending int
	now        func() time.Time
}

// DefaultMaxPending bounds concurrently pending message ids when the
// caller does not choose a cap.
const DefaultMaxPending = 1024

// New creates a Reassembler holding at most maxPending incomplete
// messages. A non-positive cap falls back to DefaultMaxPending.
func New(maxPending int) *Reassembler {
	if maxPending <= 0 {
		maxPending = DefaultMaxPending
	}
	return &Reassembler{
		pending:    make(map[uint32]*pendingMessage),
		maxPending: maxPending,
		now:        time.Now,
	}
}

// PendingCount returns the number of incomplete messages buffered.
func (r *Reassembler) PendingCount() int {
	return len(r.pending)
}

// Accept consumes one datagram. Datagrams without the fragment magic are
// complete payloads and come back StatusReady untouched. Fragments are
// buffered until their message completes; the returned error marks the
// datagram as rejected, never the whole stream.
func (r *Reassembler) Accept(datagram []byte) (*Result, error) {
	if !shred.HasMagic(datagram) {
		metrics.IncrCounterWithGroup(metrics.NameIngestPassthroughTotal, metrics.GroupShredscan, 1)
		return &Result{Status: StatusReady, Payload: datagram}, nil
	}

	hdr, err := shred.DecodeHeader(datagram)
	if err != nil {
		r.reject(reasonBadHeader)
		return nil, err
	}
	metrics.IncrCounterWithGroup(metrics.NameIngestFragmentTotal, metrics.GroupShredscan, 1)

	if hdr.FragmentIndex >= hdr.FragmentCount {
		r.reject(reasonBadIndex)
		return nil, errors.Errorf("fragment index %d out of range for count %d (msg %d)",
			hdr.FragmentIndex, hdr.FragmentCount, hdr.MessageID)
	}

	pm, ok := r.pending[hdr.MessageID]
	if !ok {
		r.evictForCapacity()
		pm = &pendingMessage{
			fragmentCount: hdr.FragmentCount,
			totalSize:     hdr.TotalSize,
			slots:         make([][]byte, hdr.FragmentCount),
			createdAt:     r.now(),
		}
		r.pending[hdr.MessageID] = pm
		r.updatePendingGauge()
	} else if pm.fragmentCount != hdr.FragmentCount || pm.totalSize != hdr.TotalSize {
		// Conflicting metadata rejects the datagram but leaves the
		// buffered fragments intact.
		r.reject(reasonMetaMismatch)
		return nil, errors.Errorf("fragment metadata mismatch for msg %d: have count=%d size=%d, got count=%d size=%d",
			hdr.MessageID, pm.fragmentCount, pm.totalSize, hdr.FragmentCount, hdr.TotalSize)
	}

	payload := make([]byte, len(shred.Payload(datagram)))
	copy(payload, shred.Payload(datagram))

	// Duplicates overwrite the slot without advancing the received count.
	if pm.slots[hdr.FragmentIndex] == nil {
		pm.receivedCount++
	}
	pm.slots[hdr.FragmentIndex] = payload

	if pm.receivedCount < pm.fragmentCount {
		return &Result{Status: StatusPending, MessageID: hdr.MessageID, Fragmented: true}, nil
	}

	delete(r.pending, hdr.MessageID)
	r.updatePendingGauge()

	assembled := make([]byte, 0, pm.totalSize)
	for _, slot := range pm.slots {
		assembled = append(assembled, slot...)
	}
	if uint32(len(assembled)) != pm.totalSize {
		r.reject(reasonSizeMismatch)
		return nil, errors.Errorf("assembled %d bytes for msg %d, header promised %d",
			len(assembled), hdr.MessageID, pm.totalSize)
	}

	metrics.IncrCounterWithGroup(metrics.NameIngestReadyTotal, metrics.GroupShredscan, 1)
	metrics.UpdateAvgGaugeWithGroup(metrics.NameIngestPayloadBytesAvg, metrics.GroupShredscan, metrics.Value(len(assembled)))
	return &Result{Status: StatusReady, Payload: assembled, MessageID: hdr.MessageID, Fragmented: true}, nil
}

// EvictStale drops every pending message created more than maxAge before
// now, and returns how many were dropped. The pipeline calls this on a
// timer with its own clock so tests can drive time explicitly.
func (r *Reassembler) EvictStale(now time.Time, maxAge time.Duration) int {
	evicted := 0
	for id, pm := range r.pending {
		if now.Sub(pm.createdAt) > maxAge {
			delete(r.pending, id)
			evicted++
		}
	}
	if evicted > 0 {
		metrics.IncrCounterWithDimGroup(metrics.NameIngestEvictTotal, metrics.GroupShredscan,
			metrics.Value(evicted), metrics.Dimension{metrics.DimReason: reasonStale})
		r.updatePendingGauge()
	}
	return evicted
}

// evictForCapacity makes room for one more pending id by dropping the
// oldest pending message when the cap is reached.
func (r *Reassembler) evictForCapacity() {
	for len(r.pending) >= r.maxPending {
		var oldestID uint32
		var oldest time.Time
		first := true
		for id, pm := range r.pending {
			if first || pm.createdAt.Before(oldest) {
				oldestID = id
				oldest = pm.createdAt
				first = false
			}
		}
		delete(r.pending, oldestID)
		metrics.IncrCounterWithDimGroup(metrics.NameIngestEvictTotal, metrics.GroupShredscan,
			1, metrics.Dimension{metrics.DimReason: reasonCapacity})
	}
}

func (r *Reassembler) reject(reason string) {
	metrics.IncrCounterWithDimGroup(metrics.NameIngestRejectTotal, metrics.GroupShredscan,
		1, metrics.Dimension{metrics.DimReason: reason})
}

func (r *Reassembler) updatePendingGauge() {
	metrics.UpdateGaugeWithGroup(metrics.NameIngestPendingGauge, metrics.GroupShredscan, metrics.Value(len(r.pending)))
}
