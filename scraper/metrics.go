package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the harvester.
type Metrics struct {
	Registry               *prometheus.Registry
	RequestsTotal          *prometheus.CounterVec
	RequestDuration        prometheus.Histogram
	PagesScannedTotal      prometheus.Counter
	ArticlesHarvestedTotal prometheus.Counter
	ErrorsTotal            *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvester_requests_total",
			Help: "Total HTTP requests issued by the harvester.",
		},
		[]string{"phase"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "harvester_request_duration_seconds",
			Help:    "HTTP request latency for listing fetches.",
			Buckets: prometheus.DefBuckets,
		},
	)
	pagesScanned := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "harvester_listing_pages_total",
			Help: "Total listing pages fetched and scanned.",
		},
	)
	articlesHarvested := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "harvester_articles_total",
			Help: "Total articles appended to the harvest set.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvester_errors_total",
			Help: "Total harvester errors by type.",
		},
		[]string{"error_type"},
	)

	registry.MustRegister(requests, requestDuration, pagesScanned, articlesHarvested, errorsTotal)

	return &Metrics{
		Registry:               registry,
		RequestsTotal:          requests,
		RequestDuration:        requestDuration,
		PagesScannedTotal:      pagesScanned,
		ArticlesHarvestedTotal: articlesHarvested,
		ErrorsTotal:            errorsTotal,
	}
}

// IncRequest increments the requests total counter for a phase.
func (m *Metrics) IncRequest(phase string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(phase).Inc()
}

// ObserveDuration records a listing request duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// IncPages increments the listing pages counter.
func (m *Metrics) IncPages() {
	if m == nil {
		return
	}
	m.PagesScannedTotal.Inc()
}

// IncArticles increments the harvested articles counter.
func (m *Metrics) IncArticles() {
	if m == nil {
		return
	}
	m.ArticlesHarvestedTotal.Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}
