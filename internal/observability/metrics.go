package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Histogram bucket definitions.
var (
	httpDurationBuckets   = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	reduceDurationBuckets = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5}
	bodySizeBuckets       = []float64{100, 1024, 10240, 102400, 1048576}
	rowCountBuckets       = []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000}
)

// Metrics holds all Prometheus metric instruments of the comparison service.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestSizeBytes  *prometheus.HistogramVec
	HTTPResponseSizeBytes *prometheus.HistogramVec

	// Action metrics
	ActionsTotal     *prometheus.CounterVec
	ReduceDuration   *prometheus.HistogramVec
	VisibleRows      prometheus.Histogram
	RateLimitedTotal prometheus.Counter

	// Session metrics
	SessionsActive        prometheus.Gauge
	SessionsCreatedTotal  prometheus.Counter
	SessionsExpiredTotal  prometheus.Counter
	SessionsRejectedTotal prometheus.Counter

	// Dataset metrics
	DatasetReloadTotal *prometheus.CounterVec
	EntitiesLoaded     prometheus.Gauge
	CriteriaLoaded     prometheus.Gauge
}

// InitMetrics creates and registers all Prometheus metric instruments.
func InitMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		// HTTP
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ucomparison_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path_pattern", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ucomparison_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: httpDurationBuckets,
		}, []string{"method", "path_pattern"}),
		HTTPRequestSizeBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ucomparison_http_request_size_bytes",
			Help:    "HTTP request body size in bytes.",
			Buckets: bodySizeBuckets,
		}, []string{"method", "path_pattern"}),
		HTTPResponseSizeBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ucomparison_http_response_size_bytes",
			Help:    "HTTP response body size in bytes.",
			Buckets: bodySizeBuckets,
		}, []string{"method", "path_pattern"}),

		// Actions
		ActionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ucomparison_actions_total",
			Help: "Total number of dispatched state actions.",
		}, []string{"action", "status"}),
		ReduceDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ucomparison_reduce_duration_seconds",
			Help:    "Time spent reducing one action in seconds.",
			Buckets: reduceDurationBuckets,
		}, []string{"action"}),
		VisibleRows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ucomparison_visible_rows",
			Help:    "Number of visible rows after a dispatch.",
			Buckets: rowCountBuckets,
		}),
		RateLimitedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ucomparison_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter.",
		}),

		// Sessions
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ucomparison_sessions_active",
			Help: "Number of live view sessions.",
		}),
		SessionsCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ucomparison_sessions_created_total",
			Help: "Total number of created view sessions.",
		}),
		SessionsExpiredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ucomparison_sessions_expired_total",
			Help: "Total number of view sessions removed after their TTL.",
		}),
		SessionsRejectedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ucomparison_sessions_rejected_total",
			Help: "Total number of session creations rejected at capacity.",
		}),

		// Dataset
		DatasetReloadTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ucomparison_dataset_reload_total",
			Help: "Total dataset loads by outcome.",
		}, []string{"status"}),
		EntitiesLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ucomparison_entities_loaded",
			Help: "Number of entities in the published dataset.",
		}),
		CriteriaLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ucomparison_criteria_loaded",
			Help: "Number of criteria in the published dataset.",
		}),
	}

	reg.MustRegister(
		// HTTP
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestSizeBytes,
		m.HTTPResponseSizeBytes,
		// Actions
		m.ActionsTotal,
		m.ReduceDuration,
		m.VisibleRows,
		m.RateLimitedTotal,
		// Sessions
		m.SessionsActive,
		m.SessionsCreatedTotal,
		m.SessionsExpiredTotal,
		m.SessionsRejectedTotal,
		// Dataset
		m.DatasetReloadTotal,
		m.EntitiesLoaded,
		m.CriteriaLoaded,
	)

	return m
}

// --- Recording helpers ---

// RecordHTTPRequest records HTTP request metrics.
func (m *Metrics) RecordHTTPRequest(method, pathPattern string, status int, duration time.Duration, reqSize, respSize int) {
	statusStr := strconv.Itoa(status)
	m.HTTPRequestsTotal.WithLabelValues(method, pathPattern, statusStr).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, pathPattern).Observe(duration.Seconds())
	m.HTTPRequestSizeBytes.WithLabelValues(method, pathPattern).Observe(float64(reqSize))
	m.HTTPResponseSizeBytes.WithLabelValues(method, pathPattern).Observe(float64(respSize))
}

// RecordAction records one dispatched action and the resulting row count.
func (m *Metrics) RecordAction(action, status string, duration time.Duration, visibleRows int) {
	m.ActionsTotal.WithLabelValues(action, status).Inc()
	m.ReduceDuration.WithLabelValues(action).Observe(duration.Seconds())
	if status == "ok" {
		m.VisibleRows.Observe(float64(visibleRows))
	}
}

// RecordRateLimited records a rejected request.
func (m *Metrics) RecordRateLimited() {
	m.RateLimitedTotal.Inc()
}

// RecordSessionCreated records a new session.
func (m *Metrics) RecordSessionCreated() {
	m.SessionsCreatedTotal.Inc()
	m.SessionsActive.Inc()
}

// RecordSessionRemoved records an explicitly deleted session.
func (m *Metrics) RecordSessionRemoved() {
	m.SessionsActive.Dec()
}

// RecordSessionsExpired records sessions dropped by the sweeper.
func (m *Metrics) RecordSessionsExpired(n int) {
	m.SessionsExpiredTotal.Add(float64(n))
	m.SessionsActive.Sub(float64(n))
}

// RecordSessionRejected records a creation refused at capacity.
func (m *Metrics) RecordSessionRejected() {
	m.SessionsRejectedTotal.Inc()
}

// RecordDatasetReload records a dataset load attempt.
func (m *Metrics) RecordDatasetReload(status string) {
	m.DatasetReloadTotal.WithLabelValues(status).Inc()
}

// SetDatasetSize sets the entity and criteria gauges.
func (m *Metrics) SetDatasetSize(entities, criteria int) {
	m.EntitiesLoaded.Set(float64(entities))
	m.CriteriaLoaded.Set(float64(criteria))
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

		duration := time.Since(start)
		pathPattern := routePattern(r)
		reqSize := 0
		if r.ContentLength > 0 {
			reqSize = int(r.ContentLength)
		}

		m.RecordHTTPRequest(r.Method, pathPattern, sw.status, duration, reqSize, sw.bytes)
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
	pattern = strings.TrimSuffix(pattern, "/*")
	if pattern == "" {
		return r.URL.Path
	}
	return pattern
}

// metricsResponseWriter wraps http.ResponseWriter to capture status and bytes.
type metricsResponseWriter struct {
	http.ResponseWriter
	status  int
	bytes   int
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
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}
