package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "club_service"

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	registrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Event registrations by resulting role",
		},
		[]string{"role"},
	)

	unregistrationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unregistrations_total",
			Help:      "Event unregistrations",
		},
	)

	promotionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promotions_total",
			Help:      "Waitlist promotions by trigger (unregister, window)",
		},
		[]string{"trigger"},
	)

	catalogOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_operations_total",
			Help:      "Catalog mutations by operation",
		},
		[]string{"op"},
	)

	syncTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_sync_total",
			Help:      "State saves by result",
		},
		[]string{"result"},
	)

	syncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "state_sync_duration_seconds",
			Help:      "State save duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
	)

	syncPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "state_sync_pending",
			Help:      "1 while in-memory state has not reached the store",
		},
	)

	bggRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bgg_requests_total",
			Help:      "BoardGameGeek lookups by kind and source (cache, api, error)",
		},
		[]string{"kind", "source"},
	)
)

func RecordRegistration(role string) {
	registrationsTotal.WithLabelValues(role).Inc()
}

func RecordUnregistration() {
	unregistrationsTotal.Inc()
}

func RecordPromotions(trigger string, n int) {
	if n > 0 {
		promotionsTotal.WithLabelValues(trigger).Add(float64(n))
	}
}

func RecordCatalogOp(op string) {
	catalogOpsTotal.WithLabelValues(op).Inc()
}

// RecordSync records one save attempt and updates the pending gauge.
func RecordSync(err error, duration time.Duration) {
	syncDuration.Observe(duration.Seconds())
	if err != nil {
		syncTotal.WithLabelValues("error").Inc()
		syncPending.Set(1)
		return
	}
	syncTotal.WithLabelValues("ok").Inc()
	syncPending.Set(0)
}

func RecordBGG(kind, source string) {
	bggRequestsTotal.WithLabelValues(kind, source).Inc()
}

// Middleware records HTTP RED metrics keyed by chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}

		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

type responseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func Handler() http.Handler {
	return promhttp.Handler()
}
