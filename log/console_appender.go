package log

import (
	"os"
)

// ConsoleAppender writes log entries directly to stdout without buffering.
// Suitable for development and containerized deployments where the runtime
// collects stdout.
type ConsoleAppender struct {
}

// NewConsoleAppender creates a stateless console appender. Safe for
// concurrent use.
func NewConsoleAppender() *ConsoleAppender {
	return &ConsoleAppender{}
}

// Write writes the log buffer to stdout.
func (ca *ConsoleAppender) Write(buf []byte) (int, error) {
	return os.Stdout.Write(buf)
}

// Refresh is a no-op: console writes are unbuffered.
func (ca *ConsoleAppender) Refresh() error {
	return nil
}

// Close is a no-op for ConsoleAppender as there are no resources to release.
func (ca *ConsoleAppender) Close() error {
	return nil
}
