package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	bookingsCreated    prometheus.Counter
	bookingsCancelled  prometheus.Counter
	admissionConflicts prometheus.Counter
	sideEffectFailures *prometheus.CounterVec
}

func New(service string) *Metrics {
	labels := prometheus.Labels{"service": service}
	return &Metrics{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "HTTP requests by method, route and status code.",
			ConstLabels: labels,
		}, []string{"method", "route", "status"}),
		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latency by method and route.",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "route"}),
		bookingsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name:        "bookings_created_total",
			Help:        "Bookings admitted with status confirmed.",
			ConstLabels: labels,
		}),
		bookingsCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Name:        "bookings_cancelled_total",
			Help:        "Bookings flipped to cancelled.",
			ConstLabels: labels,
		}),
		admissionConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name:        "booking_admission_conflicts_total",
			Help:        "Commit-time conflicts detected during admission.",
			ConstLabels: labels,
		}),
		sideEffectFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "booking_side_effect_failures_total",
			Help:        "Post-commit side effects (email, calendar) that failed.",
			ConstLabels: labels,
		}, []string{"kind"}),
	}
}

func (m *Metrics) BookingCreated()    { m.bookingsCreated.Inc() }
func (m *Metrics) BookingCancelled()  { m.bookingsCancelled.Inc() }
func (m *Metrics) AdmissionConflict() { m.admissionConflicts.Inc() }

func (m *Metrics) SideEffectFailure(kind string) {
	m.sideEffectFailures.WithLabelValues(kind).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Middleware records request counts and latency per mux route template.
func (m *Metrics) Middleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := "unknown"
			if cur := mux.CurrentRoute(r); cur != nil {
				if tmpl, err := cur.GetPathTemplate(); err == nil {
					route = tmpl
				}
			}

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r)

			m.requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
			m.requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}
