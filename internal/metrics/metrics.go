// internal/metrics/metrics.go
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// EventsTotal counts decoded events received from the stream.
	EventsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "marketstream",
		Subsystem: "stream",
		Name:      "events_total",
		Help:      "Total number of events received from the stream",
	})

	// StreamErrors counts failure outcomes delivered by the stream.
	StreamErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "marketstream",
		Subsystem: "stream",
		Name:      "errors_total",
		Help:      "Total number of stream failure outcomes",
	})

	// ConnectsTotal counts connection attempts by status.
	ConnectsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marketstream",
		Subsystem: "stream",
		Name:      "connects_total",
		Help:      "Total stream connection attempts",
	}, []string{"status"})

	// PublishErrors counts Kafka publish errors in the sink.
	PublishErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "marketstream",
		Subsystem: "sink",
		Name:      "publish_errors_total",
		Help:      "Total number of errors when publishing to Kafka",
	})

	// PublishLatency measures the delay from receiving an event to publishing it.
	PublishLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "marketstream",
		Subsystem: "sink",
		Name:      "publish_latency_seconds",
		Help:      "Latency from receiving an event to publishing to Kafka (seconds)",
		Buckets:   prometheus.DefBuckets,
	})
)

// Register registers all metrics in the given registry.
// Call with no arguments to use the DefaultRegisterer.
func Register(registerers ...prometheus.Registerer) {
	once.Do(func() {
		var reg prometheus.Registerer
		if len(registerers) > 0 && registerers[0] != nil {
			reg = registerers[0]
		} else {
			reg = prometheus.DefaultRegisterer
		}
		reg.MustRegister(
			EventsTotal,
			StreamErrors,
			ConnectsTotal,
			PublishErrors,
			PublishLatency,
		)
	})
}
