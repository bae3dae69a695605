package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the fetch pipeline and surface protocol.
type Metrics struct {
	// Provider round trips.
	ProviderRequests *prometheus.CounterVec   // labels: kind={current,forecast}, outcome={success,invalid_input,transport,malformed,provider}
	ProviderDuration *prometheus.HistogramVec // labels: kind

	// Session result application.
	ResultsApplied   *prometheus.CounterVec // labels: outcome={success,failure,suppressed}
	ResultsDiscarded prometheus.Counter

	// Refresh scheduling.
	RefreshFires     *prometheus.CounterVec // labels: trigger={interval,forced}
	RefreshCoalesced *prometheus.CounterVec // labels: trigger
	RefreshFailures  prometheus.Counter

	// Cross-surface bus.
	BusPublished *prometheus.CounterVec // labels: kind
	BusDropped   *prometheus.CounterVec // labels: kind

	// Favorites.
	FavoritesCount         prometheus.Gauge
	FavoritesPersistErrors prometheus.Counter
}

func newMetrics() *Metrics {
	return &Metrics{
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "openwx",
			Name:      "provider_requests_total",
			Help:      "Provider round trips by kind and outcome.",
		}, []string{"kind", "outcome"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "openwx",
			Name:      "provider_request_duration_seconds",
			Help:      "Provider round trip duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"kind"}),
		ResultsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "openwx",
			Name:      "session_results_applied_total",
			Help:      "Fetch results applied to a session by outcome.",
		}, []string{"outcome"}),
		ResultsDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "openwx",
			Name:      "session_results_discarded_total",
			Help:      "Fetch results discarded by the stale-response guard.",
		}),
		RefreshFires: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "openwx",
			Name:      "refresh_fires_total",
			Help:      "Refresh scheduler fires by trigger.",
		}, []string{"trigger"}),
		RefreshCoalesced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "openwx",
			Name:      "refresh_coalesced_total",
			Help:      "Refresh triggers merged into an in-flight fetch.",
		}, []string{"trigger"}),
		RefreshFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "openwx",
			Name:      "refresh_failures_total",
			Help:      "Background refreshes that failed.",
		}),
		BusPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "openwx",
			Name:      "bus_messages_published_total",
			Help:      "Messages published on the cross-surface bus.",
		}, []string{"kind"}),
		BusDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "openwx",
			Name:      "bus_messages_dropped_total",
			Help:      "Deliveries skipped because a subscriber buffer was full.",
		}, []string{"kind"}),
		FavoritesCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "openwx",
			Name:      "favorites",
			Help:      "Number of saved favorite locations.",
		}),
		FavoritesPersistErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "openwx",
			Name:      "favorites_persist_errors_total",
			Help:      "Favorites writes that could not be persisted.",
		}),
	}
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics returns the process-wide metrics, registering them with the default
// Prometheus registry on first use.
func NewMetrics() *Metrics {
	defaultOnce.Do(func() {
		defaultMetrics = register(newMetrics())
	})
	return defaultMetrics
}

func register(m *Metrics) *Metrics {
	prometheus.MustRegister(
		m.ProviderRequests,
		m.ProviderDuration,
		m.ResultsApplied,
		m.ResultsDiscarded,
		m.RefreshFires,
		m.RefreshCoalesced,
		m.RefreshFailures,
		m.BusPublished,
		m.BusDropped,
		m.FavoritesCount,
		m.FavoritesPersistErrors,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid "already registered"
// panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
