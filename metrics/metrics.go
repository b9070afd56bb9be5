// Package metrics exposes Prometheus collectors for the HTTP layer and for
// domain events (rent changes, lease transitions, computed alerts).
//
// Collectors are created once by Register. Until then every recording
// function is a no-op, so domain packages can call them unconditionally.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce sync.Once
	registerErr  error

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInflight        *prometheus.GaugeVec

	// Domain metrics
	rentChangesTotal      *prometheus.CounterVec
	leaseTransitionsTotal *prometheus.CounterVec
	rentAdjustmentsTotal  *prometheus.CounterVec
	alertsComputedTotal   *prometheus.CounterVec
)

// Register creates the collectors on registry (the default registerer when
// nil) and returns the handler serving /metrics.
func Register(registry prometheus.Registerer) (http.Handler, error) {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of processed HTTP requests",
		}, []string{"method", "path", "status"})

		httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"})

		httpInflight = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "In-flight requests by method",
		}, []string{"method"})

		rentChangesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "immocare_rent_changes_total",
			Help: "Rent ledger mutations by operation",
		}, []string{"operation"}) // add|update|delete

		leaseTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "immocare_lease_transitions_total",
			Help: "Lease status transitions",
		}, []string{"from", "to"})

		rentAdjustmentsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "immocare_rent_adjustments_total",
			Help: "Recorded in-lease rent and charges adjustments",
		}, []string{"field"})

		alertsComputedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "immocare_alerts_computed_total",
			Help: "Due alerts returned by alert listings",
		}, []string{"type"})

		for _, c := range []prometheus.Collector{
			httpRequestsTotal, httpRequestDuration, httpInflight,
			rentChangesTotal, leaseTransitionsTotal, rentAdjustmentsTotal, alertsComputedTotal,
		} {
			if err := registerCollector(registry, c); err != nil {
				registerErr = err
				return
			}
		}
	})
	if registerErr != nil {
		return nil, registerErr
	}

	if g, ok := registry.(prometheus.Gatherer); ok {
		return promhttp.HandlerFor(g, promhttp.HandlerOpts{}), nil
	}
	return promhttp.Handler(), nil
}

func registerCollector(registry prometheus.Registerer, c prometheus.Collector) error {
	if err := registry.Register(c); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return nil
		}
		return err
	}
	return nil
}

// =============================================================================
// DOMAIN EVENTS
// =============================================================================

func RentChanged(operation string) {
	if rentChangesTotal != nil {
		rentChangesTotal.WithLabelValues(operation).Inc()
	}
}

func LeaseTransition(from, to string) {
	if leaseTransitionsTotal != nil {
		leaseTransitionsTotal.WithLabelValues(from, to).Inc()
	}
}

func RentAdjusted(field string) {
	if rentAdjustmentsTotal != nil {
		rentAdjustmentsTotal.WithLabelValues(field).Inc()
	}
}

func AlertsComputed(alertType string, n int) {
	if alertsComputedTotal != nil && n > 0 {
		alertsComputedTotal.WithLabelValues(alertType).Add(float64(n))
	}
}

// =============================================================================
// HTTP MIDDLEWARE
// =============================================================================

// Middleware instruments requests with counters, latency and in-flight
// gauges. Paths are labelled by chi route pattern to keep cardinality low.
func Middleware(next http.Handler) http.Handler {
	if httpRequestsTotal == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := strings.ToUpper(r.Method)
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}

		httpInflight.WithLabelValues(method).Inc()
		defer func() {
			httpInflight.WithLabelValues(method).Dec()

			path := routePattern(r)
			httpRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		}()

		next.ServeHTTP(rec, r)
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
