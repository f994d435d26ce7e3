// Package metrics holds the Prometheus collectors shared by services and
// HTTP handlers. Collectors exist from package init so callers never need a
// nil check; Register exposes them on the default registry.
package metrics

import (
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus collectors for the TikTokFinder API.
var Metrics = struct {
	RequestDuration         *prometheus.HistogramVec
	RequestsInFlight        prometheus.Gauge
	CacheHits               *prometheus.CounterVec
	CacheMisses             *prometheus.CounterVec
	SampleBuildDuration     prometheus.Histogram
	SampleSize              prometheus.Histogram
	UpstreamErrors          *prometheus.CounterVec
	SubscriptionTransitions *prometheus.CounterVec
	PoolRefreshes           *prometheus.CounterVec
}{
	RequestDuration: prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tiktokfinder_api_request_duration_seconds",
			Help:    "HTTP request duration in seconds, by endpoint and method.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	),
	RequestsInFlight: prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tiktokfinder_requests_in_flight",
			Help: "Number of HTTP requests currently being served.",
		},
	),
	CacheHits: prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tiktokfinder_cache_hits_total",
			Help: "Total Redis cache hits, by key kind.",
		},
		[]string{"kind"},
	),
	CacheMisses: prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tiktokfinder_cache_misses_total",
			Help: "Total Redis cache misses, by key kind.",
		},
		[]string{"kind"},
	),
	SampleBuildDuration: prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tiktokfinder_sample_build_duration_seconds",
			Help:    "Duration of balanced preview sample builds.",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
		},
	),
	SampleSize: prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tiktokfinder_sample_size",
			Help:    "Number of records in built preview samples.",
			Buckets: []float64{0, 10, 20, 30, 40, 50},
		},
	),
	UpstreamErrors: prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tiktokfinder_upstream_errors_total",
			Help: "Failed calls to remote services, by upstream.",
		},
		[]string{"upstream"},
	),
	SubscriptionTransitions: prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tiktokfinder_subscription_transitions_total",
			Help: "Subscription transitions, by phase.",
		},
		[]string{"phase"},
	),
	PoolRefreshes: prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tiktokfinder_pool_refreshes_total",
			Help: "Background preview pool refreshes, by outcome.",
		},
		[]string{"outcome"},
	),
}

var registerOnce sync.Once

// Register adds all collectors to the default registry, plus pgx pool
// gauges when pool is non-nil. Only the first call has any effect.
func Register(pool *pgxpool.Pool) {
	registerOnce.Do(func() {
		if pool != nil {
			prometheus.MustRegister(
				prometheus.NewGaugeFunc(
					prometheus.GaugeOpts{
						Name: "tiktokfinder_db_connection_pool_active",
						Help: "Number of active database connections.",
					},
					func() float64 {
						return float64(pool.Stat().AcquiredConns())
					},
				),
				prometheus.NewGaugeFunc(
					prometheus.GaugeOpts{
						Name: "tiktokfinder_db_connection_pool_idle",
						Help: "Number of idle database connections.",
					},
					func() float64 {
						return float64(pool.Stat().IdleConns())
					},
				),
			)
		}

		prometheus.MustRegister(
			Metrics.RequestDuration,
			Metrics.RequestsInFlight,
			Metrics.CacheHits,
			Metrics.CacheMisses,
			Metrics.SampleBuildDuration,
			Metrics.SampleSize,
			Metrics.UpstreamErrors,
			Metrics.SubscriptionTransitions,
			Metrics.PoolRefreshes,
		)
	})
}
