package obs

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Shared HTTP metrics.
var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	readyGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "service_ready",
		Help: "1 when the service considers itself ready, 0 otherwise.",
	})
)

// Engine metrics.
var (
	engineOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docs_operations_total",
			Help: "Document engine operations by outcome.",
		},
		[]string{"operation", "outcome"},
	)

	auditEntriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docs_audit_entries_total",
			Help: "Audit ledger entries written, by action.",
		},
		[]string{"action"},
	)

	rateLimitedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docs_rate_limited_total",
			Help: "Requests rejected by the engine rate limiter, by class.",
		},
		[]string{"class"},
	)
)

// Init registers all metrics in the default registry.
func Init() {
	prometheus.MustRegister(
		httpInFlight, httpRequestsTotal, httpRequestDuration, readyGauge,
		engineOperationsTotal, auditEntriesTotal, rateLimitedTotal,
	)
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// SetReady flips the readiness gauge.
func SetReady(ready bool) {
	if ready {
		readyGauge.Set(1)
		return
	}
	readyGauge.Set(0)
}

// ObserveOperation counts one engine operation with its terminal outcome.
func ObserveOperation(operation, outcome string) {
	engineOperationsTotal.WithLabelValues(operation, outcome).Inc()
}

// ObserveAuditEntry counts one committed audit entry.
func ObserveAuditEntry(action string) {
	auditEntriesTotal.WithLabelValues(action).Inc()
}

// ObserveRateLimited counts one engine-level rate limit rejection.
func ObserveRateLimited(class string) {
	rateLimitedTotal.WithLabelValues(class).Inc()
}

// CanonicalPath collapses resource identifiers so metric cardinality stays
// bounded. Query strings are stripped before matching.
func CanonicalPath(path string) string {
	if path == "" {
		return "/"
	}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	parts := strings.Split(strings.TrimSuffix(path, "/"), "/")
	switch {
	case len(parts) >= 3 && parts[1] == "v1" && parts[2] == "documents" && len(parts) == 4:
		return "/v1/documents/:id"
	case len(parts) >= 3 && parts[1] == "v1" && parts[2] == "documents" && len(parts) > 4:
		// /v1/documents/:id/{archive|sections/:sid|comments}
		rest := strings.Join(parts[4:], "/")
		if strings.HasPrefix(rest, "sections/") {
			return "/v1/documents/:id/sections/:sid"
		}
		return "/v1/documents/:id/" + rest
	case len(parts) >= 3 && parts[1] == "v1" && parts[2] == "comments" && len(parts) == 4:
		return "/v1/comments/:id"
	}
	return path
}

// Instrument wraps a handler with RPS/latency/in-flight accounting.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := CanonicalPath(r.URL.Path)
		method := r.Method

		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: 200}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpInFlight.Dec()
	})
}

// statusWriter records the response code for metric labels.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE working through the wrapper.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
