package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rikster-r/booking-calendar/backend/shared/go-middleware"
)

const namespace = "booking_calendar"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Count of HTTP requests by route template, method and status.",
		},
		[]string{"route", "method", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route template.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	bookingConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_conflicts_total",
			Help:      "Count of booking writes rejected as overlapping.",
		},
	)

	avitoSyncRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "avito_sync_runs_total",
			Help:      "Count of Avito sync runs by outcome.",
		},
		[]string{"outcome"},
	)

	avitoSyncBookings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "avito_sync_bookings_total",
			Help:      "Bookings touched by Avito sync by result.",
		},
		[]string{"result"},
	)

	presenceOnline = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "presence_online_connections",
			Help:      "Open presence websocket connections on this instance.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			bookingConflicts,
			avitoSyncRuns,
			avitoSyncBookings,
			presenceOnline,
		)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request count and latency labelled by the mux route
// template, keeping ids out of label values.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &middleware.StatusRecorder{ResponseWriter: w, Status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if cr := mux.CurrentRoute(r); cr != nil {
			if tpl, err := cr.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(rec.Status)).Inc()
		httpDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

func IncBookingConflict() {
	bookingConflicts.Inc()
}

func IncAvitoSyncRun(outcome string) {
	avitoSyncRuns.WithLabelValues(outcome).Inc()
}

func AddAvitoSyncBookings(inserted, updated, skipped int) {
	avitoSyncBookings.WithLabelValues("inserted").Add(float64(inserted))
	avitoSyncBookings.WithLabelValues("updated").Add(float64(updated))
	avitoSyncBookings.WithLabelValues("skipped").Add(float64(skipped))
}

func PresenceConnected() {
	presenceOnline.Inc()
}

func PresenceDisconnected() {
	presenceOnline.Dec()
}
