package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestInitMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg

	m := InitMetrics("test", "service")

	if m == nil {
		t.Fatal("InitMetrics returned nil")
	}
	if m.PlanOperationsTotal == nil {
		t.Error("PlanOperationsTotal should not be nil")
	}
	if m.ComplianceViolationsTotal == nil {
		t.Error("ComplianceViolationsTotal should not be nil")
	}
	if m.GeoProviderRequestsTotal == nil {
		t.Error("GeoProviderRequestsTotal should not be nil")
	}
}

func TestGet(t *testing.T) {
	defaultMetrics = nil

	m := Get()
	if m == nil {
		t.Fatal("Get() should not return nil")
	}

	if m2 := Get(); m2 != m {
		t.Error("Get() should return the same instance on a second call")
	}
}

func TestRecordPlanOperation(t *testing.T) {
	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg

	m := InitMetrics("test", "plan")

	m.RecordPlanOperation(true, 120*time.Millisecond, 5, 10.5)
	m.RecordPlanOperation(false, 5*time.Millisecond, 0, 0)
}

func TestRecordComplianceViolation(t *testing.T) {
	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg

	m := InitMetrics("test", "compliance")
	m.RecordComplianceViolation("max_driving_hours")
}

func TestRecordGeoProviderRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg

	m := InitMetrics("test", "geo")
	m.RecordGeoProviderRequest("geocode", true, 200*time.Millisecond)
	m.RecordGeoCacheLookup("geocode", true)
	m.RecordGeoCacheLookup("geocode", false)
}

func TestRecordPersistOperation(t *testing.T) {
	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg

	m := InitMetrics("test", "persist")
	m.RecordPersistOperation(true, 15*time.Millisecond)
}
