package metrics

import "time"

// Sink records pipeline metrics.
// All methods are fire-and-forget: implementations must not block or return errors.
type Sink interface {
	BatchReceived(size int)
	EventSkipped()
	EventSucceeded(duration time.Duration)
	EventFailed(stage string, duration time.Duration)
}
