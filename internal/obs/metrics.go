package obs

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP metrics shared by every handler.
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
)

// Security metrics. Labels carry only coarse categories, never token
// values or account identifiers.
var (
	csrfFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "csrf_validation_failures_total",
			Help: "CSRF double-submit validation failures by reason.",
		},
		[]string{"reason"},
	)

	loginRateLimitedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "login_rate_limited_total",
			Help: "Login attempts blocked by the sliding-window limiter.",
		},
		[]string{"key_type"},
	)

	cookieDomainFallbackTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "csrf_cookie_domain_fallback_total",
		Help: "CSRF cookies minted host-only because the request host did not match the configured domain.",
	})
)

// Init registers all metrics in the default registry.
func Init() {
	prometheus.MustRegister(
		httpInFlight, httpRequestsTotal, httpRequestDuration,
		csrfFailuresTotal, loginRateLimitedTotal, cookieDomainFallbackTotal,
	)
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// IncCSRFFailure counts one validation failure for the given reason category.
func IncCSRFFailure(reason string) {
	csrfFailuresTotal.WithLabelValues(reason).Inc()
}

// IncLoginRateLimited counts one blocked login attempt. key_type is "ip" or "ipuser".
func IncLoginRateLimited(keyType string) {
	loginRateLimitedTotal.WithLabelValues(keyType).Inc()
}

// IncCookieDomainFallback counts one host-only CSRF cookie mint.
func IncCookieDomainFallback() {
	cookieDomainFallbackTotal.Inc()
}

// CanonicalPath collapses per-request path segments so metric cardinality
// stays bounded. The API has no embedded resource IDs today; this strips
// query strings and trailing slashes so ad-hoc clients cannot mint labels.
func CanonicalPath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}

// Instrument wraps a handler with RPS/latency/in-flight measurements.
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

// statusWriter captures the response code for metrics.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
