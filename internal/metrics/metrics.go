// Package metrics declares the Prometheus collectors of the engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// VendorCalls counts vendor requests by operation and outcome
	// (ok, rate_limited, error).
	VendorCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rateshop_vendor_calls_total",
			Help: "Total number of vendor API calls",
		},
		[]string{"op", "outcome"},
	)

	VendorCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rateshop_vendor_call_duration_seconds",
			Help:    "Vendor API call latency in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 20},
		},
		[]string{"op"},
	)

	// Refreshes counts orchestrated refreshes by trigger (manual, scheduler)
	// and outcome (success, coalesced, failed).
	Refreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rateshop_refresh_total",
			Help: "Total number of cache refresh attempts",
		},
		[]string{"trigger", "outcome"},
	)

	CacheReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rateshop_cache_reads_total",
			Help: "Cache reads by derived SWR status",
		},
		[]string{"status"},
	)

	JobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rateshop_job_runs_total",
			Help: "Periodic job runs by job and outcome",
		},
		[]string{"job", "outcome"},
	)

	QuotaRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rateshop_quota_rejections_total",
			Help: "Requests rejected by a quota or budget check",
		},
		[]string{"check"},
	)
)
