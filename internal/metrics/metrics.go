// Package metrics holds the Prometheus collectors of the service and the
// HTTP middleware that feeds them.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Token outcomes observed by the authentication pipeline.
const (
	TokenAbsent        = "absent"
	TokenInvalid       = "invalid"
	TokenExpired       = "expired"
	TokenAuthenticated = "authenticated"
)

var (
	// AuthOperations counts lifecycle operations by outcome. The result label
	// is either "success" or the short error kind.
	AuthOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenant_auth_operations_total",
			Help: "Account lifecycle operations",
		},
		[]string{"operation", "result"},
	)

	// TokenChecks counts what the authentication pipeline made of each request.
	TokenChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenant_token_checks_total",
			Help: "Bearer token outcomes",
		},
		[]string{"outcome"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenant_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tenant_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

func init() {
	prometheus.MustRegister(
		AuthOperations,
		TokenChecks,
		RequestsTotal,
		RequestDuration,
	)
}

// Middleware records request count and latency per chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}
