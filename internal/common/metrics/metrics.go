// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rating_evaluations_total",
			Help: "Total number of rating evaluations by fallback tier",
		},
		[]string{"tier", "hybrid"},
	)

	EvaluationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "rating_evaluation_duration_seconds",
			Help: "Duration of rating evaluations in seconds",
		},
		[]string{"tier"},
	)

	RemoteCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mistral_remote_calls_total",
			Help: "Total number of remote judgment calls by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	RemoteCallErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mistral_remote_call_errors_total",
			Help: "Total number of failed remote judgment calls by error code",
		},
		[]string{"operation", "error_code"},
	)

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "response_cache_hits_total",
			Help: "Total number of response cache hits",
		},
		[]string{"backend"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "response_cache_misses_total",
			Help: "Total number of response cache misses",
		},
		[]string{"backend"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "response_cache_evictions_total",
			Help: "Total number of entries dropped by cache eviction",
		},
		[]string{"backend"},
	)
)
