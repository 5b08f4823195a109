package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// BroadcastsTotal counts broadcast envelopes received from the feed.
	BroadcastsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "collector",
		Subsystem: "feed",
		Name:      "broadcasts_total",
		Help:      "Total number of broadcast envelopes received",
	})

	// EventsTotal counts dispatched payloads by variant.
	EventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "collector",
		Subsystem: "feed",
		Name:      "events_total",
		Help:      "Total number of dispatched payloads by type",
	}, []string{"type"})

	// Reconnects counts feed reconnection attempts after a closed stream.
	Reconnects = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "collector",
		Subsystem: "feed",
		Name:      "reconnects_total",
		Help:      "Number of reconnects after the stream was closed",
	})

	// SerializeErrors counts events that could not be encoded for Kafka.
	SerializeErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "collector",
		Subsystem: "kafka",
		Name:      "serialize_errors_total",
		Help:      "Total number of events that failed to serialize",
	})

	// PublishErrors counts failed publishes to Kafka.
	PublishErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "collector",
		Subsystem: "kafka",
		Name:      "publish_errors_total",
		Help:      "Total number of errors when publishing to Kafka",
	})

	// PublishLatency measures time from callback invocation to publish.
	PublishLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "collector",
		Subsystem: "pipeline",
		Name:      "publish_latency_seconds",
		Help:      "Latency from receiving a feed event to publishing to Kafka (seconds)",
		Buckets:   prometheus.DefBuckets,
	})
)

// Register registers all metrics in the given registry. Call with no
// arguments to use the DefaultRegisterer.
func Register(registerers ...prometheus.Registerer) {
	once.Do(func() {
		var reg prometheus.Registerer
		if len(registerers) > 0 && registerers[0] != nil {
			reg = registerers[0]
		} else {
			reg = prometheus.DefaultRegisterer
		}
		reg.MustRegister(
			BroadcastsTotal,
			EventsTotal,
			Reconnects,
			SerializeErrors,
			PublishErrors,
			PublishLatency,
		)
	})
}
