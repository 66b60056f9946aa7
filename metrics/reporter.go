package metrics

var _Reporters []Reporter

// Reporter is the interface for metric reporting backends
// (Prometheus, logs, or anything else that consumes Records).
type Reporter interface {
	Report(r Record)
}
