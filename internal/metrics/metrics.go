// Package metrics exposes Prometheus metrics for the dashboard server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Metrics owns a private registry so several servers (and tests) can
// coexist in one process.
type Metrics struct {
	reg             *prometheus.Registry
	datasetLoads    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	feedbackAppends *prometheus.CounterVec
	judgeCalls      *prometheus.CounterVec
	judgeDuration   prometheus.Histogram
}

// New creates and registers all collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		datasetLoads: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tutorlens_dataset_loads_total",
				Help: "Dataset loads by dataset kind and outcome.",
			},
			[]string{"kind", "outcome"},
		),
		requestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tutorlens_http_request_duration_seconds",
				Help:    "HTTP request latency by route pattern and status.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		feedbackAppends: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tutorlens_feedback_appends_total",
				Help: "Feedback appends by outcome.",
			},
			[]string{"outcome"},
		),
		judgeCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tutorlens_judge_evaluations_total",
				Help: "Live judge evaluations by mode and outcome.",
			},
			[]string{"mode", "outcome"},
		),
		judgeDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "tutorlens_judge_evaluation_duration_seconds",
			Help:    "Wall time of a live judge evaluation.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
		}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// DatasetLoad counts one dataset load.
func (m *Metrics) DatasetLoad(kind, outcome string) {
	m.datasetLoads.WithLabelValues(kind, outcome).Inc()
}

// FeedbackAppend counts one feedback append.
func (m *Metrics) FeedbackAppend(err error) {
	m.feedbackAppends.WithLabelValues(outcome(err)).Inc()
}

// JudgeCall records one live judge evaluation.
func (m *Metrics) JudgeCall(mode string, d time.Duration, err error) {
	m.judgeCalls.WithLabelValues(mode, outcome(err)).Inc()
	m.judgeDuration.Observe(d.Seconds())
}

// Middleware records request latency labelled by the chi route pattern,
// so path parameters do not explode cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requestDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}
