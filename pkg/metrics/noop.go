package metrics

import "time"

// NoopSink is used when metrics are disabled to avoid nil checks.
type NoopSink struct{}

// NewNoopSink returns a no-op metrics sink.
func NewNoopSink() *NoopSink {
	return &NoopSink{}
}

func (n *NoopSink) BatchReceived(size int)                           {}
func (n *NoopSink) EventSkipped()                                    {}
func (n *NoopSink) EventSucceeded(duration time.Duration)            {}
func (n *NoopSink) EventFailed(stage string, duration time.Duration) {}
