package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/warp/carbon-engine/energy"
)

// Metrics owns a private registry so several servers (tests) can coexist
// in one process. It also serves as the ledger and alerts observer.
type Metrics struct {
	registry          *prometheus.Registry
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	recordsAppended   *prometheus.CounterVec
	rowsRejected      prometheus.Counter
	alertsEmitted     prometheus.Counter
	alertEvaluations  prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		recordsAppended: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "energy_records_appended_total",
			Help: "Energy records appended to the ledger by data source.",
		}, []string{"source"}),
		rowsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "energy_import_rows_rejected_total",
			Help: "CSV import rows rejected.",
		}),
		alertsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alerts_emitted_total",
			Help: "Alerts produced by threshold evaluations.",
		}),
		alertEvaluations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alert_evaluations_total",
			Help: "Threshold evaluations performed.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpDuration,
		m.recordsAppended,
		m.rowsRejected,
		m.alertsEmitted,
		m.alertEvaluations,
	)
	return m
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// Middleware records request count and latency labelled by the matched
// route pattern, never the raw path.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		if m == nil {
			return
		}
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry (tests gather from it).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordsAppended(source energy.DataSource, n int) {
	if m == nil {
		return
	}
	m.recordsAppended.WithLabelValues(string(source)).Add(float64(n))
}

func (m *Metrics) RowsRejected(n int) {
	if m == nil {
		return
	}
	m.rowsRejected.Add(float64(n))
}

func (m *Metrics) AlertsEvaluated(emitted int) {
	if m == nil {
		return
	}
	m.alertEvaluations.Inc()
	m.alertsEmitted.Add(float64(emitted))
}
