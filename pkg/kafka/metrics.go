package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcomes recorded on the handled and published counters.
const (
	outcomeApplied      = "applied"
	outcomeDuplicate    = "duplicate"
	outcomeFailed       = "failed"
	outcomeDeadLettered = "dead_lettered"
	outcomeOK           = "ok"
	outcomeError        = "error"
)

var busBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}

var (
	busReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hoppyhub",
		Subsystem: "bus",
		Name:      "messages_received_total",
		Help:      "Messages fetched from the broker before any handling.",
	}, []string{"topic", "group"})

	// A failed message that also reached the dead-letter topic is counted
	// under both failed and dead_lettered.
	busHandled = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hoppyhub",
		Subsystem: "bus",
		Name:      "messages_handled_total",
		Help:      "Fetched messages by outcome (applied, duplicate, failed, dead_lettered).",
	}, []string{"topic", "group", "outcome"})

	busHandleSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "hoppyhub",
		Subsystem: "bus",
		Name:      "handle_duration_seconds",
		Help:      "Time spent in a subscriber handler including retries.",
		Buckets:   busBuckets,
	}, []string{"topic", "group"})

	busPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hoppyhub",
		Subsystem: "bus",
		Name:      "events_published_total",
		Help:      "Events written to the broker by outcome (ok, error).",
	}, []string{"topic", "outcome"})

	busPublishSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "hoppyhub",
		Subsystem: "bus",
		Name:      "publish_duration_seconds",
		Help:      "Time spent writing one event to the broker.",
		Buckets:   busBuckets,
	}, []string{"topic"})
)

func recordHandled(topic, group, outcome string) {
	busHandled.WithLabelValues(topic, group, outcome).Inc()
}

func recordPublished(topic string, err error) {
	outcome := outcomeOK
	if err != nil {
		outcome = outcomeError
	}
	busPublished.WithLabelValues(topic, outcome).Inc()
}
