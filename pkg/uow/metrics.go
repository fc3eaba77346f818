package uow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeCommitted  = "committed"
	outcomeRolledBack = "rolled_back"
)

var (
	// UnitOfWorkTotal counts finished units of work by outcome.
	UnitOfWorkTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hoppyhub_unit_of_work_total",
			Help: "Units of work by name and outcome (committed, rolled_back)",
		},
		[]string{"name", "outcome"},
	)

	// UnitOfWorkDuration observes committed units of work, publish included.
	UnitOfWorkDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hoppyhub_unit_of_work_duration_seconds",
			Help:    "Duration of committed units of work in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"name"},
	)

	// PublishFailures counts events lost after their transaction committed.
	PublishFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hoppyhub_unit_of_work_publish_failures_total",
			Help: "Events that failed to publish after a successful commit",
		},
		[]string{"name", "topic"},
	)

	// CompensationFailures counts compensating actions that returned an error.
	CompensationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hoppyhub_unit_of_work_compensation_failures_total",
			Help: "Compensating actions that failed during rollback",
		},
		[]string{"name"},
	)

	// CleanupFailures counts post-commit cleanups that returned an error.
	CleanupFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hoppyhub_unit_of_work_cleanup_failures_total",
			Help: "Post-commit cleanups that failed; the data they meant to remove is left behind",
		},
		[]string{"name"},
	)
)
