package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "address_forecast"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// resolution pipeline and its upstream clients.
type Metrics struct {
	Runs          *prometheus.CounterVec   // labels: outcome={ready,failed,superseded}
	StageDuration *prometheus.HistogramVec // labels: stage={geocode,zone,forecast}
	StageErrors   *prometheus.CounterVec   // labels: stage, kind={input,upstream,no_data,unknown}
	State         prometheus.Gauge

	// Upstream client metrics.
	UpstreamRequests *prometheus.CounterVec   // labels: service={census,points,forecast}, outcome
	UpstreamDuration *prometheus.HistogramVec // labels: service

	// Observer fan-out and outcome publishing.
	SubscriberDrops prometheus.Counter
	EventsPublished prometheus.Counter
	PublishErrors   prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.Runs,
		m.StageDuration,
		m.StageErrors,
		m.State,
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.SubscriberDrops,
		m.EventsPublished,
		m.PublishErrors,
	)

	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

// NewUnregisteredMetrics creates Metrics for one-shot tools that never
// expose a /metrics endpoint.
func NewUnregisteredMetrics() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"outcome"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"stage"}),
		StageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_errors_total",
			Help:      "Pipeline stage failures by stage and error kind.",
		}, []string{"stage", "kind"}),
		State: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "state",
			Help:      "Current pipeline state (0 idle, 1 resolving_address, 2 resolving_zone, 3 fetching_forecast, 4 ready, 5 failed).",
		}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Upstream API requests by service and outcome.",
		}, []string{"service", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_duration_seconds",
			Help:      "Upstream API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"service"}),
		SubscriberDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscriber_drops_total",
			Help:      "State updates dropped because a subscriber was not keeping up.",
		}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Resolution outcome events written to Kafka.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Resolution outcome events that failed to publish.",
		}),
	}
}
