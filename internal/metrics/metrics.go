package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry carries the core's counters on a private prometheus
// registry.
type Registry struct {
	reg *prometheus.Registry

	ConversionsTotal  *prometheus.CounterVec // label: outcome
	ConversionSeconds prometheus.Histogram
	DeletesTotal      *prometheus.CounterVec // label: entity_type
	SnapshotFailures  prometheus.Counter
	RestoresTotal     *prometheus.CounterVec // label: outcome
	EventsDropped     prometheus.Counter
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	conversions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "labtrack_conversions_total",
		Help: "Lead conversion attempts by outcome.",
	}, []string{"outcome"})
	conversionSeconds := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "labtrack_conversion_seconds",
		Help:    "Conversion transaction latency.",
		Buckets: prometheus.DefBuckets,
	})
	deletes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "labtrack_recycle_deletes_total",
		Help: "Capture-and-delete operations by entity type.",
	}, []string{"entity_type"})
	snapshotFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "labtrack_recycle_snapshot_failures_total",
		Help: "Deletes whose pre-delete snapshot could not be written.",
	})
	restores := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "labtrack_recycle_restores_total",
		Help: "Restore attempts by outcome.",
	}, []string{"outcome"})
	eventsDropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "labtrack_events_dropped_total",
		Help: "Post-commit notifications that failed to emit.",
	})

	r.MustRegister(conversions, conversionSeconds, deletes, snapshotFailures, restores, eventsDropped)
	return &Registry{
		reg:               r,
		ConversionsTotal:  conversions,
		ConversionSeconds: conversionSeconds,
		DeletesTotal:      deletes,
		SnapshotFailures:  snapshotFailures,
		RestoresTotal:     restores,
		EventsDropped:     eventsDropped,
	}
}

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
