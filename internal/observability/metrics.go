package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the service and the pricing engine.
type Metrics struct {
	registry          *prometheus.Registry
	handler           http.Handler
	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	recomputeDuration prometheus.Histogram
	editsTotal        *prometheus.CounterVec
	cacheTotal        *prometheus.CounterVec
	jobsTotal         *prometheus.CounterVec
}

// NewMetrics initialises the registry and all collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cotacao_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cotacao_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	recompute := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cotacao_recompute_duration_seconds",
		Help:    "Time spent running the pricing pipeline over one quotation.",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
	})
	edits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cotacao_edits_total",
		Help: "Draft edits applied by kind.",
	}, []string{"kind"})
	cache := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cotacao_comparison_cache_total",
		Help: "Comparison cache lookups by result.",
	}, []string{"result"})
	jobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cotacao_jobs_total",
		Help: "Background jobs processed by task and status.",
	}, []string{"task", "status"})
	registry.MustRegister(requests, duration, recompute, edits, cache, jobs)
	return &Metrics{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:     requests,
		requestDuration:   duration,
		recomputeDuration: recompute,
		editsTotal:        edits,
		cacheTotal:        cache,
		jobsTotal:         jobs,
	}
}

// Handler returns the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records count and latency of every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveRecompute records one pricing pipeline run.
func (m *Metrics) ObserveRecompute(d time.Duration) {
	if m == nil {
		return
	}
	m.recomputeDuration.Observe(d.Seconds())
}

// IncEdit counts an applied draft edit.
func (m *Metrics) IncEdit(kind string) {
	if m == nil {
		return
	}
	m.editsTotal.WithLabelValues(kind).Inc()
}

// CacheResult counts a comparison cache hit or miss.
func (m *Metrics) CacheResult(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheTotal.WithLabelValues(result).Inc()
}

// JobProcessed counts a finished background job.
func (m *Metrics) JobProcessed(task string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.jobsTotal.WithLabelValues(task, status).Inc()
}

// Registerer exposes the registry for custom collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
