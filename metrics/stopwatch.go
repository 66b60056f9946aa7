package metrics

import (
	"time"
)

// StopWatch is the interface for timing metrics, measuring how long
// operations take (scan passes, reporter round trips).
type StopWatch interface {
	Metrics
	// RecordWithDim records the duration since startTime with dimensions.
	RecordWithDim(dimensions Dimension, startTime time.Time) time.Duration
}

// stopwatch implements StopWatch.
type stopwatch struct {
	name  string
	group string
}

// Name returns the stopwatch name.
func (s *stopwatch) Name() string {
	return s.name
}

// Group returns the stopwatch group.
func (s *stopwatch) Group() string {
	return s.group
}

// Policy returns Policy_Stopwatch.
func (s *stopwatch) Policy() Policy {
	return Policy_Stopwatch
}

// RecordWithDim records the elapsed time since startTime, in milliseconds,
// and reports it to every registered reporter. Returns the duration.
func (s *stopwatch) RecordWithDim(dimensions Dimension, startTime time.Time) time.Duration {
	duration := time.Since(startTime)
	r := Record{
		metrics:    s,
		value:      Value(float64(duration.Microseconds()) / 1000),
		cnt:        1,
		dimensions: dimensions,
	}

	for _, reporter := range _Reporters {
		reporter.Report(r)
	}
	return duration
}
