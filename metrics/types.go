// Package metrics defines the types and constants used for metric
// collection and reporting across the ingest pipeline.
package metrics

// Policy defines the aggregation policy for metric values.
// It determines how multiple values for the same metric combine over a
// reporting window.
type Policy int

const (
	Policy_None      Policy = iota // No specific policy; the reporting system may use a default.
	Policy_Set                     // Instantaneous value; the last reported value wins.
	Policy_Sum                     // Cumulative value, summing all reported values.
	Policy_Avg                     // Average of all reported values.
	Policy_Max                     // Maximum value among all reported values.
	Policy_Min                     // Minimum value among all reported values.
	Policy_Stopwatch               // Timing metric measuring event durations.
)

// Value represents a metric value as a float64.
type Value float64

// Dimension represents metric dimensions as key-value pairs.
// Dimensions provide context such as rule name, transport, or reject reason.
type Dimension map[string]string

const (
	// KB represents a kilobyte (1024 bytes).
	KB = 1024.0
	// MB represents a megabyte (1024 * 1024 bytes).
	MB = 1024.0 * 1024.0
)

// Group related constants, prefixed with Group.
const (
	// GroupShredscan is the group name for shredscan metrics.
	GroupShredscan = "shredscan"
)

// Metric name constants.
const (
	// NamePoolCreateTotal: objects created by a pool because it was empty.
	// group:shredscan dimension:poolname
	NamePoolCreateTotal = "pool_create_total"

	// NameIngestDatagramTotal: datagrams accepted from a transport.
	// group:shredscan dimension:transport
	NameIngestDatagramTotal = "ingest_datagram_total"

	// NameIngestFragmentTotal: datagrams carrying a valid fragment header.
	// group:shredscan
	NameIngestFragmentTotal = "ingest_fragment_total"

	// NameIngestPassthroughTotal: unfragmented datagrams forwarded as-is.
	// group:shredscan
	NameIngestPassthroughTotal = "ingest_passthrough_total"

	// NameIngestReadyTotal: messages completed by the reassembler.
	// group:shredscan
	NameIngestReadyTotal = "ingest_ready_total"

	// NameIngestRejectTotal: datagrams rejected by the reassembler.
	// group:shredscan dimension:reason
	NameIngestRejectTotal = "ingest_reject_total"

	// NameIngestEvictTotal: pending messages evicted before completion.
	// group:shredscan dimension:reason (stale|capacity)
	NameIngestEvictTotal = "ingest_evict_total"

	// NameIngestPendingGauge: pending messages currently buffered.
	// group:shredscan
	NameIngestPendingGauge = "ingest_pending_messages"

	// NameIngestPayloadBytesAvg: average assembled payload size in bytes.
	// group:shredscan
	NameIngestPayloadBytesAvg = "ingest_payload_bytes_avg"

	// NameDecodeFailTotal: payloads the entry decoder could not parse.
	// group:shredscan
	NameDecodeFailTotal = "decode_fail_total"

	// NameDecodeEntryTotal: ledger entries decoded from completed payloads.
	// group:shredscan
	NameDecodeEntryTotal = "decode_entry_total"

	// NameScanDetectionTotal: detections produced by the scanner.
	// group:shredscan dimension:rule
	NameScanDetectionTotal = "scan_detection_total"

	// NameScanBatchMS: time spent scanning one decoded batch, milliseconds.
	// group:shredscan
	NameScanBatchMS = "scan_batch_ms"

	// NameReportFailTotal: detection reports that failed delivery.
	// group:shredscan dimension:reporter
	NameReportFailTotal = "report_fail_total"
)

// Dimension keys, prefixed with Dim.
const (
	// DimPoolName is the dimension for pool name.
	// group:shredscan
	DimPoolName = "poolname"
	// DimTransport is the dimension for the ingesting transport.
	// group:shredscan
	DimTransport = "transport"
	// DimReason is the dimension for reject/evict reasons.
	// group:shredscan
	DimReason = "reason"
	// DimRule is the dimension for the matched scan rule.
	// group:shredscan
	DimRule = "rule"
	// DimReporter is the dimension for the reporter name.
	// group:shredscan
	DimReporter = "reporter"
)
