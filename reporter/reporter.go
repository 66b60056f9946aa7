// Package reporter defines how detections leave the process. A Reporter
// delivers one detection to a downstream sink; the Fanout aggregates the
// configured reporters and is what the pipeline talks to.
package reporter

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/solwatch/shredscan/log"
	"github.com/solwatch/shredscan/metrics"
	"github.com/solwatch/shredscan/scan"
)

// Reporter delivers detections to one downstream sink.
type Reporter interface {
	// Name identifies the reporter in logs and metrics.
	Name() string
	// Report delivers one detection. Delivery failures are the
	// reporter's own to retry; a returned error means the detection was
	// dropped by this sink.
	Report(ctx context.Context, det *scan.Detection) error
	// Close flushes and releases the sink.
	Close() error
}

// Record is the serialized form of a detection shared by the JSON
// reporters. Pubkeys are lowercase hex.
type Record struct {
	Rule         string `json:"rule"`
	Token        string `json:"token"`
	BondingCurve string `json:"bonding_curve"`
	Creator      string `json:"creator"`
	Seq          uint64 `json:"seq"`
	EntryCount   int    `json:"entry_count"`
	TxCount      int    `json:"tx_count"`
	DetectedAt   int64  `json:"detected_at_ms"`
}

// NewRecord converts a detection into its wire form, stamping the
// current time.
func NewRecord(det *scan.Detection) *Record {
	return &Record{
		Rule:         det.Rule,
		Token:        hex.EncodeToString(det.Token[:]),
		BondingCurve: hex.EncodeToString(det.BondingCurve[:]),
		Creator:      hex.EncodeToString(det.Creator[:]),
		Seq:          det.Seq,
		EntryCount:   det.EntryCount,
		TxCount:      det.TxCount,
		DetectedAt:   time.Now().UnixMilli(),
	}
}

// EncodeDetection renders a detection as the JSON record format.
func EncodeDetection(det *scan.Detection) ([]byte, error) {
	return json.Marshal(NewRecord(det))
}

// Fanout delivers every detection to all registered reporters. Failures
// are counted and logged per reporter; one failing sink never blocks the
// others.
type Fanout struct {
	reporters []Reporter
}

// NewFanout creates an empty fanout.
func NewFanout() *Fanout {
	return &Fanout{}
}

// Add registers a reporter.
func (f *Fanout) Add(r Reporter) {
	f.reporters = append(f.reporters, r)
}

// Len returns the number of registered reporters.
func (f *Fanout) Len() int {
	return len(f.reporters)
}

// Report delivers det to every reporter, best effort.
func (f *Fanout) Report(ctx context.Context, det *scan.Detection) {
	for _, r := range f.reporters {
		if err := r.Report(ctx, det); err != nil {
			metrics.IncrCounterWithDimGroup(metrics.NameReportFailTotal, metrics.GroupShredscan,
				1, metrics.Dimension{metrics.DimReporter: r.Name()})
			log.Error().Err(err).Str("reporter", r.Name()).Str("rule", det.Rule).Msg("detection delivery failed")
		}
	}
}

// Close closes every reporter, returning the first error seen.
func (f *Fanout) Close() error {
	var first error
	for _, r := range f.reporters {
		if err := r.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
