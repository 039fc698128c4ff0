// Package metrics exposes Prometheus collectors for the planning pipeline:
// plan durations and outcomes, compliance violations, geo provider latency
// and cache hit rate.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the process-wide metrics container.
type Metrics struct {
	PlanOperationsTotal *prometheus.CounterVec
	PlanDuration        *prometheus.HistogramVec
	PlanStopsTotal      *prometheus.HistogramVec
	PlanDrivingHours    *prometheus.HistogramVec

	ComplianceViolationsTotal *prometheus.CounterVec

	GeoProviderRequestsTotal   *prometheus.CounterVec
	GeoProviderRequestDuration *prometheus.HistogramVec
	GeoCacheHitsTotal          *prometheus.CounterVec

	PersistOperationsTotal *prometheus.CounterVec
	PersistDuration        *prometheus.HistogramVec

	ServiceInfo *prometheus.GaugeVec
}

var defaultMetrics *Metrics

// InitMetrics creates and registers all collectors under the given
// namespace/subsystem.
func InitMetrics(namespace, subsystem string) *Metrics {
	m := &Metrics{
		PlanOperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "plan_operations_total",
				Help:      "Total number of trip planning operations",
			},
			[]string{"status"},
		),

		PlanDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "plan_duration_seconds",
				Help:      "Duration of trip planning operations",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"status"},
		),

		PlanStopsTotal: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "plan_stops_total",
				Help:      "Number of stops produced by a plan",
				Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
			},
			[]string{"stop_type"},
		),

		PlanDrivingHours: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "plan_driving_hours",
				Help:      "Total driving hours in a produced plan",
				Buckets:   []float64{1, 5, 11, 22, 33, 44, 55, 70},
			},
			[]string{},
		),

		ComplianceViolationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "compliance_violations_total",
				Help:      "Total number of compliance violations detected",
			},
			[]string{"rule"},
		),

		GeoProviderRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "geo_provider_requests_total",
				Help:      "Total number of outbound geo provider requests",
			},
			[]string{"operation", "status"},
		),

		GeoProviderRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "geo_provider_request_duration_seconds",
				Help:      "Duration of outbound geo provider requests",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"operation"},
		),

		GeoCacheHitsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "geo_cache_hits_total",
				Help:      "Total geo provider cache lookups by outcome",
			},
			[]string{"operation", "outcome"},
		),

		PersistOperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "persist_operations_total",
				Help:      "Total number of plan persistence operations",
			},
			[]string{"status"},
		),

		PersistDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "persist_duration_seconds",
				Help:      "Duration of plan persistence operations",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"status"},
		),

		ServiceInfo: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "service_info",
				Help:      "Service information",
			},
			[]string{"version", "environment"},
		),
	}

	defaultMetrics = m
	return m
}

// Get returns the process-wide metrics, initializing defaults if needed.
func Get() *Metrics {
	if defaultMetrics == nil {
		return InitMetrics("hos_planner", "")
	}
	return defaultMetrics
}

// RecordPlanOperation records the outcome and duration of a planning run.
func (m *Metrics) RecordPlanOperation(success bool, duration time.Duration, totalStops int, drivingHours float64) {
	status := "success"
	if !success {
		status = "error"
	}

	m.PlanOperationsTotal.WithLabelValues(status).Inc()
	m.PlanDuration.WithLabelValues(status).Observe(duration.Seconds())
	if success {
		m.PlanStopsTotal.WithLabelValues("total").Observe(float64(totalStops))
		m.PlanDrivingHours.WithLabelValues().Observe(drivingHours)
	}
}

// RecordStopType records one stop of the given type being inserted into a plan.
func (m *Metrics) RecordStopType(stopType string) {
	m.PlanStopsTotal.WithLabelValues(stopType).Observe(1)
}

// RecordComplianceViolation records one violation of the named rule.
func (m *Metrics) RecordComplianceViolation(rule string) {
	m.ComplianceViolationsTotal.WithLabelValues(rule).Inc()
}

// RecordGeoProviderRequest records an outbound geocode/route request.
func (m *Metrics) RecordGeoProviderRequest(operation string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}

	m.GeoProviderRequestsTotal.WithLabelValues(operation, status).Inc()
	m.GeoProviderRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordGeoCacheLookup records a cache hit or miss for a geo provider operation.
func (m *Metrics) RecordGeoCacheLookup(operation string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.GeoCacheHitsTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordPersistOperation records the outcome and duration of a persistence run.
func (m *Metrics) RecordPersistOperation(success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}

	m.PersistOperationsTotal.WithLabelValues(status).Inc()
	m.PersistDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// SetServiceInfo publishes a static gauge describing the running version.
func (m *Metrics) SetServiceInfo(version, environment string) {
	m.ServiceInfo.WithLabelValues(version, environment).Set(1)
}

// Handler returns the HTTP handler serving /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// StartMetricsServer starts a minimal HTTP server exposing /metrics and /health.
func StartMetricsServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return server.ListenAndServe()
}
