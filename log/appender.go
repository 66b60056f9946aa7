package log

// LogAppender is the destination abstraction for formatted log output
// (console, file, or anything else that accepts byte streams).
//
// Implementations must be goroutine-safe: a busy ingest pipeline logs from
// several goroutines at once.
type LogAppender interface {
	// Write outputs one formatted log entry. Implementations should handle
	// backpressure gracefully rather than block the logging caller forever.
	Write(buf []byte) (n int, err error)

	// Refresh forces buffered entries to be written immediately. Important
	// for asynchronous appenders before shutdown or diagnostics collection.
	Refresh() error

	// Close flushes buffered entries and releases underlying resources.
	Close() error
}
