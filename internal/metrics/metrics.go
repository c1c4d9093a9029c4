// Package metrics exposes Prometheus collectors for lead searches and the
// HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	searchesTotal          *prometheus.CounterVec
	industryFailuresTotal  prometheus.Counter
	candidateFailuresTotal prometheus.Counter
	qualityChecksTotal     *prometheus.CounterVec
	resultsTotal           *prometheus.CounterVec
	providerDuration       *prometheus.HistogramVec
	circuitState           *prometheus.GaugeVec
	httpRequestsTotal      *prometheus.CounterVec
	httpRequestDuration    *prometheus.HistogramVec

	once sync.Once
)

// Init registers the collectors with the default registry. It is safe to
// call more than once, and every Observe helper calls it.
func Init() {
	once.Do(func() {
		searchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leads_searches_total",
				Help: "Lead searches run, labeled by status.",
			},
			[]string{"status"},
		)

		industryFailuresTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "leads_industry_failures_total",
				Help: "Industries dropped because the candidate search failed.",
			},
		)

		candidateFailuresTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "leads_candidate_failures_total",
				Help: "Candidates dropped because the detail lookup failed.",
			},
		)

		qualityChecksTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leads_quality_checks_total",
				Help: "Website analyses, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		resultsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leads_results_total",
				Help: "Leads produced, labeled by category.",
			},
			[]string{"category"},
		)

		providerDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "leads_provider_request_duration_seconds",
				Help:    "Latency of external provider calls, labeled by provider and result.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"provider", "result"},
		)

		circuitState = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "leads_circuit_state",
				Help: "Circuit breaker state per provider (0 closed, 1 open, 2 half-open).",
			},
			[]string{"provider"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15, 60},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}

// ObserveSearch counts a finished search. status is "ok", "invalid" or
// "error".
func ObserveSearch(status string) {
	Init()
	searchesTotal.WithLabelValues(status).Inc()
}

// ObserveIndustryFailure counts an industry whose candidate search failed.
func ObserveIndustryFailure() {
	Init()
	industryFailuresTotal.Inc()
}

// ObserveCandidateFailure counts a candidate whose detail lookup failed.
func ObserveCandidateFailure() {
	Init()
	candidateFailuresTotal.Inc()
}

// ObserveQualityCheck counts a website analysis by outcome.
func ObserveQualityCheck(outcome string) {
	Init()
	qualityChecksTotal.WithLabelValues(outcome).Inc()
}

// ObserveResult counts an emitted lead by category.
func ObserveResult(category string) {
	Init()
	resultsTotal.WithLabelValues(category).Inc()
}

// ObserveProviderCall records the latency of one provider call.
func ObserveProviderCall(provider string, err error, d time.Duration) {
	Init()
	result := "ok"
	if err != nil {
		result = "error"
	}
	providerDuration.WithLabelValues(provider, result).Observe(d.Seconds())
}

// SetCircuitState publishes a breaker state as a gauge value.
func SetCircuitState(provider string, state int) {
	Init()
	circuitState.WithLabelValues(provider).Set(float64(state))
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Middleware records request counts and latency labeled by chi route
// pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		ObserveHTTPRequest(r.Method, route, rec.statusCode, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.statusCode = code
	rec.ResponseWriter.WriteHeader(code)
}
