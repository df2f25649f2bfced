package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/DachengChen/paiERP/applog"
	"github.com/DachengChen/paiERP/assistant"
	"github.com/DachengChen/paiERP/query"
)

// Metrics holds the server's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	queriesTotal        *prometheus.CounterVec
	queryDuration       *prometheus.HistogramVec
	llmTokens           *prometheus.HistogramVec
	estimatedCost       *prometheus.CounterVec
	fetchFailures       *prometheus.CounterVec
}

// NewMetrics registers every collector on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		httpRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"status", "route"}),
		httpRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		queriesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "paierp_queries_total",
			Help: "Answered questions by intent category",
		}, []string{"category"}),
		queryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "paierp_query_duration_seconds",
			Help:    "End-to-end question processing time by provider",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 20, 40},
		}, []string{"provider"}),
		llmTokens: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "paierp_llm_tokens",
			Help:    "Number of LLM tokens per completion",
			Buckets: prometheus.LinearBuckets(0, 250, 16),
		}, []string{"provider"}),
		estimatedCost: f.NewCounterVec(prometheus.CounterOpts{
			Name: "paierp_estimated_cost_total",
			Help: "Estimated provider cost (tokens x cost per token)",
		}, []string{"provider"}),
		fetchFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "paierp_backend_fetch_failures_total",
			Help: "ERP backend queries that failed, by data type",
		}, []string{"data_type"}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveQuery records an answered question.
func (m *Metrics) ObserveQuery(qa assistant.QueryAnalytics) {
	m.queriesTotal.WithLabelValues(string(qa.Category)).Inc()
	m.queryDuration.WithLabelValues(qa.Provider).Observe(qa.ProcessingTime.Seconds())
	m.llmTokens.WithLabelValues(qa.Provider).Observe(float64(qa.Tokens))
	m.estimatedCost.WithLabelValues(qa.Provider).Add(qa.Cost)
}

// ObserveFetchFailure records a failed backend query.
func (m *Metrics) ObserveFetchFailure(q query.Query, _ error) {
	m.fetchFailures.WithLabelValues(string(q.DataType)).Inc()
}

// instrument records request metrics and logs each request once routed.
func (m *Metrics) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)

		m.httpRequestsTotal.WithLabelValues(strconv.Itoa(status), route).Inc()
		m.httpRequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())

		applog.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("elapsed", elapsed),
			zap.String("request_id", chimiddleware.GetReqID(r.Context())),
		)
	})
}
