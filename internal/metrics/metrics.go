package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redactyl/textredact/pkg/redaction"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "textredact",
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by method, route, and status code.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "textredact",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})

	RedactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "textredact",
		Name:      "redactions_total",
		Help:      "Redaction calls by input kind and outcome.",
	}, []string{"kind", "outcome"})

	CapturesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "textredact",
		Name:      "captures_total",
		Help:      "Values replaced by the pattern engine, by input kind.",
	}, []string{"kind"})

	RedactionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "textredact",
		Name:      "redaction_duration_seconds",
		Help:      "Time spent redacting one input.",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"kind"})
)

// Input kinds.
const (
	KindText = "text"
	KindJSON = "json"
	KindYAML = "yaml"
	KindFile = "file"
)

// Handler returns an http.Handler that serves the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRedaction records one redaction of kind that started at start.
func ObserveRedaction(kind string, captures int, start time.Time, err error) {
	RedactionDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	RedactionsTotal.WithLabelValues(kind, outcome(err)).Inc()
	if captures > 0 {
		CapturesTotal.WithLabelValues(kind).Add(float64(captures))
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, redaction.ErrParse):
		return "parse_error"
	case errors.Is(err, redaction.ErrEncoding):
		return "encoding_error"
	default:
		return "error"
	}
}

// Middleware wraps an http.Handler to record request metrics. Routes are
// labelled by their chi pattern to keep cardinality bounded.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		duration := time.Since(start).Seconds()

		path := routePattern(r)
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rw.statusCode)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
