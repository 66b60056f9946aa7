package log

import "strings"

// Level defines the severity levels used for log filtering.
// Levels are ordered by severity; higher values are more critical.
type Level int32

// Level constants, ordered from most to least verbose.
const (
	// TraceLevel carries per-datagram diagnostics. Extremely noisy on a live
	// shred feed; enable only when chasing a specific wire issue.
	TraceLevel Level = iota + 1

	// DebugLevel contains debugging detail such as reassembly state changes
	// and per-message decode outcomes.
	DebugLevel

	// InfoLevel covers normal operation: startup, stream stats, detections.
	InfoLevel

	// WarnLevel flags recoverable anomalies such as rejected fragments or
	// decode failures that the pipeline absorbs.
	WarnLevel

	// ErrorLevel reports failed operations that need attention, such as a
	// reporter losing its downstream connection.
	ErrorLevel

	// FatalLevel is reserved for unrecoverable failures that terminate the
	// process after logging.
	FatalLevel
)

// String returns the uppercase name of the level.
func (l Level) String() string {
	switch l {
	case TraceLevel:
		return "TRACE"
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	case FatalLevel:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name to a Level, case-insensitively.
// Unrecognized input falls back to InfoLevel so a bad config value
// never silences the log entirely.
func ParseLevel(levelStr string) Level {
	switch strings.ToUpper(levelStr) {
	case "TRACE":
		return TraceLevel
	case "DEBUG":
		return DebugLevel
	case "INFO":
		return InfoLevel
	case "WARN":
		return WarnLevel
	case "ERROR":
		return ErrorLevel
	case "FATAL":
		return FatalLevel
	}
	return InfoLevel
}
