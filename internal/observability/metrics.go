// Package observability exposes the Prometheus metrics of the tracker.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	usersCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "directory",
		Name:      "users_created_total",
		Help:      "Number of users registered.",
	})
	exercisesAppended = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "log",
		Name:      "exercises_appended_total",
		Help:      "Number of exercises appended to user logs.",
	})
	logEntriesReturned = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "exercise_tracker",
		Subsystem: "log",
		Name:      "query_entries_returned",
		Help:      "Number of log entries returned per log query.",
		Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 500},
	})
	httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "exercise_tracker",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests by route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

func init() {
	prometheus.MustRegister(usersCreated, exercisesAppended, logEntriesReturned, httpRequestDuration)
}

// RecordUserCreated counts a successful user registration.
func RecordUserCreated() {
	usersCreated.Inc()
}

// RecordExerciseAppended counts a successful log append.
func RecordExerciseAppended() {
	exercisesAppended.Inc()
}

// RecordLogQueried observes the size of a log query answer.
func RecordLogQueried(entries int) {
	logEntriesReturned.Observe(float64(entries))
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.status = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

// WithMetricsHTTPMiddleware observes the duration of every request labelled
// by its chi route pattern, so ids in paths do not explode the cardinality.
func WithMetricsHTTPMiddleware(h http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		h.ServeHTTP(recorder, r)

		route := "unmatched"
		if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
			if pattern := routeCtx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		httpRequestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(recorder.status)).
			Observe(time.Since(start).Seconds())
	}

	return http.HandlerFunc(fn)
}
