package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	FetchDecisions    *prometheus.CounterVec
	EventsAppended    prometheus.Counter
	ReadersRegistered prometheus.Counter
	ConsentChanges    *prometheus.CounterVec
	RequestLatency    *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		FetchDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "drivelog_fetch_decisions_total",
			Help: "Gateway fetch decisions partitioned by outcome",
		}, []string{"outcome"}),
		EventsAppended: promauto.NewCounter(prometheus.CounterOpts{
			Name: "drivelog_events_appended_total",
			Help: "Total number of event records appended to the ledger",
		}),
		ReadersRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "drivelog_readers_registered_total",
			Help: "Total number of reader role registrations",
		}),
		ConsentChanges: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "drivelog_consent_changes_total",
			Help: "Grant/deny edge mutations partitioned by kind",
		}, []string{"kind"}),
		RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "drivelog_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

// ObserveFetch records a gateway decision outcome ("allowed", "denied",
// "not_registered", "access_blocked", "error").
func (m *Metrics) ObserveFetch(outcome string) {
	m.FetchDecisions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementEventsAppended() {
	m.EventsAppended.Inc()
}

func (m *Metrics) IncrementReadersRegistered() {
	m.ReadersRegistered.Inc()
}

func (m *Metrics) IncrementConsentChange(kind string) {
	m.ConsentChanges.WithLabelValues(kind).Inc()
}
