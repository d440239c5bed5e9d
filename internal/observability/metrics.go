package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pitabwire/obsthemes/model"
)

// Histogram bucket definitions.
var (
	httpDurationBuckets       = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	validationDurationBuckets = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5}
)

// Validation outcomes.
const (
	OutcomeValid   = "valid"
	OutcomeInvalid = "invalid"
)

// Metrics holds all Prometheus metric instruments for the service.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Validation metrics
	ValidationsTotal   *prometheus.CounterVec
	DiagnosticsTotal   *prometheus.CounterVec
	ValidationDuration prometheus.Histogram

	// Catalog metrics
	CatalogScansTotal       *prometheus.CounterVec
	ListingCacheHitsTotal   prometheus.Counter
	ListingCacheMissesTotal prometheus.Counter
	ThemesListed            prometheus.Gauge
}

// InitMetrics creates and registers all Prometheus metric instruments.
func InitMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "obsthemes_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path_pattern", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "obsthemes_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: httpDurationBuckets,
		}, []string{"method", "path_pattern"}),

		ValidationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "obsthemes_validations_total",
			Help: "Total number of theme documents validated.",
		}, []string{"outcome"}),
		DiagnosticsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "obsthemes_diagnostics_total",
			Help: "Total number of diagnostics reported, by code and severity.",
		}, []string{"code", "severity"}),
		ValidationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "obsthemes_validation_duration_seconds",
			Help:    "Theme document validation duration in seconds.",
			Buckets: validationDurationBuckets,
		}),

		CatalogScansTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "obsthemes_catalog_scans_total",
			Help: "Total theme directory scans.",
		}, []string{"status"}),
		ListingCacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "obsthemes_listing_cache_hits_total",
			Help: "Total theme listing cache hits.",
		}),
		ListingCacheMissesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "obsthemes_listing_cache_misses_total",
			Help: "Total theme listing cache misses.",
		}),
		ThemesListed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "obsthemes_themes_listed",
			Help: "Number of theme files found by the last directory scan.",
		}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ValidationsTotal,
		m.DiagnosticsTotal,
		m.ValidationDuration,
		m.CatalogScansTotal,
		m.ListingCacheHitsTotal,
		m.ListingCacheMissesTotal,
		m.ThemesListed,
	)

	return m
}

// --- Recording helpers ---

// RecordHTTPRequest records HTTP request metrics.
func (m *Metrics) RecordHTTPRequest(method, pathPattern string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, pathPattern, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, pathPattern).Observe(duration.Seconds())
}

// RecordValidation records the outcome of one document validation and counts
// its diagnostics.
func (m *Metrics) RecordValidation(report model.Report, duration time.Duration) {
	outcome := OutcomeValid
	if !report.Valid() {
		outcome = OutcomeInvalid
	}
	m.ValidationsTotal.WithLabelValues(outcome).Inc()
	m.ValidationDuration.Observe(duration.Seconds())

	for _, d := range report.Errors {
		m.DiagnosticsTotal.WithLabelValues(d.Code, string(model.SeverityError)).Inc()
	}
	for _, d := range report.Warnings {
		m.DiagnosticsTotal.WithLabelValues(d.Code, string(model.SeverityWarning)).Inc()
	}
}

// RecordCatalogScan records a theme directory scan and, on success, the
// number of themes found.
func (m *Metrics) RecordCatalogScan(status string, themes int) {
	m.CatalogScansTotal.WithLabelValues(status).Inc()
	if status == "success" {
		m.ThemesListed.Set(float64(themes))
	}
}

// RecordListingCacheHit records a listing cache hit.
func (m *Metrics) RecordListingCacheHit() {
	m.ListingCacheHitsTotal.Inc()
}

// RecordListingCacheMiss records a listing cache miss.
func (m *Metrics) RecordListingCacheMiss() {
	m.ListingCacheMissesTotal.Inc()
}

// --- HTTP Middleware ---

// MetricsMiddleware returns HTTP middleware that records request metrics using
// chi's route pattern (not the actual URL path) to avoid label cardinality
// explosion.
func (m *Metrics) MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &metricsResponseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		m.RecordHTTPRequest(r.Method, routePattern(r), sw.status, time.Since(start))
	})
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// HandlerFor returns a /metrics handler serving the given gatherer.
func HandlerFor(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// routePattern extracts chi's route pattern from the request context.
// Falls back to the raw URL path if no pattern is found.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return r.URL.Path
	}
	pattern := strings.Join(rctx.RoutePatterns, "")
	// chi route patterns have trailing /*, remove it.
	pattern = strings.TrimSuffix(pattern, "/*")
	if pattern == "" {
		return r.URL.Path
	}
	return pattern
}

// metricsResponseWriter wraps http.ResponseWriter to capture the status code.
type metricsResponseWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

func (w *metricsResponseWriter) WriteHeader(code int) {
	if !w.written {
		w.status = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *metricsResponseWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.written = true
	}
	return w.ResponseWriter.Write(b)
}
