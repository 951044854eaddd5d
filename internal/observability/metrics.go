// Package observability provides Prometheus metrics for the refresh cycles.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"predictionScope/internal/model"
)

const namespace = "prediction_scope"

// Metrics holds the refresh, fetch and classification metrics. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	// Refresh metrics
	RefreshesTotal  *prometheus.CounterVec
	RefreshDuration *prometheus.HistogramVec
	LastRefresh     *prometheus.GaugeVec

	// Fetch metrics
	PagesFetched     prometheus.Counter
	EventsFetched    prometheus.Counter
	TruncatedFetches prometheus.Counter

	// Normalization metrics
	EventsClassified *prometheus.CounterVec

	// Cache metrics
	MetadataLookups *prometheus.CounterVec
}

// NewMetrics registers every metric on reg. Tests pass a fresh prometheus.NewRegistry().
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RefreshesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "runs_total",
			Help:      "Total number of refresh cycles by view and result",
		}, []string{"view", "result"}),
		RefreshDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "duration_seconds",
			Help:      "Refresh cycle duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"view"}),
		LastRefresh: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "last_success_timestamp",
			Help:      "Unix timestamp of the last successful refresh by view",
		}, []string{"view"}),

		PagesFetched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "pages_total",
			Help:      "Total number of event pages read",
		}),
		EventsFetched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "events_total",
			Help:      "Total number of unique events read",
		}),
		TruncatedFetches: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "truncated_total",
			Help:      "Total number of event scans stopped by the page cap",
		}),

		EventsClassified: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "normalize",
			Name:      "events_total",
			Help:      "Total number of normalized events by kind",
		}, []string{"kind"}),

		MetadataLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "metadata",
			Name:      "lookups_total",
			Help:      "Round metadata lookups by source",
		}, []string{"source"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObservePages records one event scan.
func (m *Metrics) ObservePages(pages, events int, truncated bool) {
	if m == nil {
		return
	}
	m.PagesFetched.Add(float64(pages))
	m.EventsFetched.Add(float64(events))
	if truncated {
		m.TruncatedFetches.Inc()
	}
}

// ObserveEvents counts normalized events by kind.
func (m *Metrics) ObserveEvents(events []model.NormalizedEvent) {
	if m == nil {
		return
	}
	for _, evt := range events {
		m.EventsClassified.WithLabelValues(string(evt.Kind)).Inc()
	}
}

// ObserveMetadata records how many metadata entries came from the cache and from the node.
func (m *Metrics) ObserveMetadata(cached, fetched int) {
	if m == nil {
		return
	}
	m.MetadataLookups.WithLabelValues("cache").Add(float64(cached))
	m.MetadataLookups.WithLabelValues("node").Add(float64(fetched))
}

// ObserveRefresh records one refresh cycle of a view.
func (m *Metrics) ObserveRefresh(view string, started time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	} else {
		m.LastRefresh.WithLabelValues(view).SetToCurrentTime()
	}
	m.RefreshesTotal.WithLabelValues(view, result).Inc()
	m.RefreshDuration.WithLabelValues(view).Observe(time.Since(started).Seconds())
}
