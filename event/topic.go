package event

import "time"

// Default topics published by the ingest runtime.
const (
	// ReloadConfig fires when the process configuration is reloaded.
	ReloadConfig = "ReloadConfig"
	// StreamStats fires with each periodic ingest statistics snapshot.
	StreamStats = "StreamStats"
)

// Subscriber is a callback invoked with the published payload.
type Subscriber func(param any)

// Topic holds the subscription list for a single topic.
type Topic struct {
	timeout     time.Duration // Publish timeout.
	subscribers []Subscriber  // Subscription queue.
}
