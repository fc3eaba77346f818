package httpclient

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"
)

const (
	outcomeSuccess     = "success"
	outcomeClientError = "client_error"
	outcomeServerError = "server_error"
	outcomeRetried     = "retried"
	outcomeError       = "error"
)

var (
	clientRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hoppyhub",
		Subsystem: "http_client",
		Name:      "requests_total",
		Help:      "Outbound request attempts by target host and outcome. Retried attempts are counted separately from the final one.",
	}, []string{"target", "outcome"})

	breakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "hoppyhub",
		Subsystem: "http_client",
		Name:      "breaker_state",
		Help:      "Circuit breaker state: 0 closed, 1 half-open, 2 open.",
	}, []string{"breaker"})

	breakerRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hoppyhub",
		Subsystem: "http_client",
		Name:      "breaker_rejected_total",
		Help:      "Requests refused without being sent because the breaker was open or saturated.",
	}, []string{"breaker"})
)

func init() {
	prometheus.MustRegister(clientRequests, breakerState, breakerRejected)
}

func observeRequest(target, outcome string) {
	clientRequests.WithLabelValues(target, outcome).Inc()
}

func statusOutcome(code int) string {
	switch {
	case code >= 500:
		return outcomeServerError
	case code >= 400:
		return outcomeClientError
	default:
		return outcomeSuccess
	}
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
