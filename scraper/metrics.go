package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the scraper.
type Metrics struct {
	Registry          *prometheus.Registry
	ListingPagesTotal prometheus.Counter
	StubsTotal        prometheus.Counter
	DetailsTotal      *prometheus.CounterVec
	RetriesTotal      prometheus.Counter
	ErrorsTotal       *prometheus.CounterVec
	NavDuration       prometheus.Histogram
	BatchesTotal      prometheus.Counter
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	listingPages := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_listing_pages_total",
			Help: "Listing pages walked by the paginator.",
		},
	)
	stubs := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_stubs_total",
			Help: "Team stubs extracted from listing rows.",
		},
	)
	details := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_details_total",
			Help: "Detail page outcomes by result.",
		},
		[]string{"result"},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_retries_total",
			Help: "Retry attempts scheduled for navigations.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_errors_total",
			Help: "Scraper errors by type.",
		},
		[]string{"error_type"},
	)
	navDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scraper_navigation_duration_seconds",
			Help:    "Page navigation latency.",
			Buckets: prometheus.DefBuckets,
		},
	)
	batches := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_batches_checkpointed_total",
			Help: "Batches durably checkpointed.",
		},
	)

	registry.MustRegister(listingPages, stubs, details, retries, errorsTotal, navDuration, batches)

	return &Metrics{
		Registry:          registry,
		ListingPagesTotal: listingPages,
		StubsTotal:        stubs,
		DetailsTotal:      details,
		RetriesTotal:      retries,
		ErrorsTotal:       errorsTotal,
		NavDuration:       navDuration,
		BatchesTotal:      batches,
	}
}

// IncListingPage counts one walked listing page.
func (m *Metrics) IncListingPage() {
	if m == nil {
		return
	}
	m.ListingPagesTotal.Inc()
}

// AddStubs counts stubs extracted from a listing page.
func (m *Metrics) AddStubs(n int) {
	if m == nil {
		return
	}
	m.StubsTotal.Add(float64(n))
}

// IncDetail counts a detail page outcome: filled, partial, skipped, or failed.
func (m *Metrics) IncDetail(result string) {
	if m == nil {
		return
	}
	m.DetailsTotal.WithLabelValues(result).Inc()
}

// IncRetries counts a scheduled retry attempt.
func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

// IncError counts an error by classified type.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// ObserveNav records one navigation's latency.
func (m *Metrics) ObserveNav(d time.Duration) {
	if m == nil {
		return
	}
	m.NavDuration.Observe(d.Seconds())
}

// IncBatch counts a checkpointed batch.
func (m *Metrics) IncBatch() {
	if m == nil {
		return
	}
	m.BatchesTotal.Inc()
}
