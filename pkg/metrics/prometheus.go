package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// PrometheusSink implements Sink using the Prometheus client library.
// Registration errors are logged but never propagated.
type PrometheusSink struct {
	batchesTotal  prometheus.Counter
	batchSize     prometheus.Histogram
	eventsTotal   *prometheus.CounterVec
	eventDuration prometheus.Histogram
	failuresTotal *prometheus.CounterVec
	logger        *zap.Logger
}

// NewPrometheusSink creates a sink whose collectors are registered on reg.
func NewPrometheusSink(reg prometheus.Registerer, logger *zap.Logger) *PrometheusSink {
	s := &PrometheusSink{logger: logger}

	s.batchesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "imagemeta_batches_total",
		Help: "Total number of upload batches received.",
	})
	s.batchSize = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "imagemeta_batch_size",
		Help:    "Number of upload events per batch.",
		Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
	})
	s.eventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "imagemeta_events_total",
		Help: "Upload events by outcome (succeeded, failed, skipped).",
	}, []string{"outcome"})
	s.eventDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "imagemeta_event_duration_seconds",
		Help:    "Time spent extracting, writing and publishing one upload.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	})
	s.failuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "imagemeta_event_failures_total",
		Help: "Failed upload events by pipeline stage.",
	}, []string{"stage"})

	s.register(reg, s.batchesTotal, "imagemeta_batches_total")
	s.register(reg, s.batchSize, "imagemeta_batch_size")
	s.register(reg, s.eventsTotal, "imagemeta_events_total")
	s.register(reg, s.eventDuration, "imagemeta_event_duration_seconds")
	s.register(reg, s.failuresTotal, "imagemeta_event_failures_total")
	return s
}

func (s *PrometheusSink) register(reg prometheus.Registerer, c prometheus.Collector, name string) {
	if err := reg.Register(c); err != nil {
		s.logger.Warn("metrics: failed to register collector", zap.String("name", name), zap.Error(err))
	}
}

func (s *PrometheusSink) BatchReceived(size int) {
	s.batchesTotal.Inc()
	s.batchSize.Observe(float64(size))
}

func (s *PrometheusSink) EventSkipped() {
	s.eventsTotal.WithLabelValues("skipped").Inc()
}

func (s *PrometheusSink) EventSucceeded(duration time.Duration) {
	s.eventsTotal.WithLabelValues("succeeded").Inc()
	s.eventDuration.Observe(duration.Seconds())
}

func (s *PrometheusSink) EventFailed(stage string, duration time.Duration) {
	s.eventsTotal.WithLabelValues("failed").Inc()
	s.failuresTotal.WithLabelValues(stage).Inc()
	s.eventDuration.Observe(duration.Seconds())
}
