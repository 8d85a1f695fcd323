package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/desertthunder/incommon/internal/models"
	"github.com/desertthunder/incommon/internal/tasks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "incommon"

// Metrics holds the Prometheus collectors for the HTTP API on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	comparisons         *prometheus.CounterVec
	comparisonDuration  prometheus.Histogram
	filmsInCommon       prometheus.Histogram
}

// NewMetrics registers every collector on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	auto := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status"}),
		httpRequestDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		comparisons: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "comparisons_total",
			Help:      "Comparisons run, by outcome.",
		}, []string{"outcome"}),
		comparisonDuration: auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "comparison_duration_seconds",
			Help:      "Wall time of a full comparison including enrichment.",
			Buckets:   []float64{1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		filmsInCommon: auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "films_in_common",
			Help:      "Number of shared films per successful comparison.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Instrument counts requests and observes their latency by matched route pattern.
func (m *Metrics) Instrument() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}

			next.ServeHTTP(rec, r)

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			m.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
			m.httpRequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
		})
	}
}

// Comparer wraps c so each comparison's outcome, duration and size are recorded.
func (m *Metrics) Comparer(c tasks.Comparer) tasks.Comparer {
	return &instrumentedComparer{next: c, metrics: m}
}

type instrumentedComparer struct {
	next    tasks.Comparer
	metrics *Metrics
}

func (c *instrumentedComparer) Compare(ctx context.Context, progress chan<- tasks.ProgressUpdate, a, b string) (*models.ComparisonResult, error) {
	start := time.Now()
	result, err := c.next.Compare(ctx, progress, a, b)
	c.metrics.comparisonDuration.Observe(time.Since(start).Seconds())

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.metrics.comparisons.WithLabelValues("canceled").Inc()
	case err != nil:
		c.metrics.comparisons.WithLabelValues("failed").Inc()
	default:
		c.metrics.comparisons.WithLabelValues("succeeded").Inc()
		c.metrics.filmsInCommon.Observe(float64(len(result.Pairs)))
	}
	return result, err
}

// MetricsHandler serves the registry in the Prometheus text format.
type MetricsHandler struct {
	handler http.Handler
}

func NewMetricsHandler(m *Metrics) MetricsHandler {
	return MetricsHandler{handler: promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})}
}

func (h MetricsHandler) Routes() []string  { return []string{"/metrics"} }
func (h MetricsHandler) Methods() []string { return []string{http.MethodGet} }

func (h MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.handler.ServeHTTP(w, r)
}
