package llm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	retriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finai_llm_retries_total",
			Help: "Rate-limited provider calls that were retried after backoff",
		},
		[]string{"feature"},
	)

	fallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finai_llm_fallbacks_total",
			Help: "Calls answered by the offline fallback instead of a provider",
		},
		[]string{"feature", "reason"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "finai_llm_request_duration_seconds",
			Help:    "Latency of individual provider calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "feature"},
	)
)
