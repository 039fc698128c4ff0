package main

import (
	"testing"
	"time"
)

func TestTripFlags_ToRequest(t *testing.T) {
	f := tripFlags{
		origin: "Chicago, IL", destination: "Dallas, TX",
		startTime: "2026-01-27T06:00:00Z", cycleHours: 12, speedMPH: 55,
		includePickup: true, includeDropoff: true,
	}

	req, err := f.toRequest()
	if err != nil {
		t.Fatalf("toRequest() error = %v", err)
	}
	if req.OriginQuery != "Chicago, IL" || req.DestinationQuery != "Dallas, TX" {
		t.Errorf("unexpected origin/destination: %+v", req)
	}
	want := time.Date(2026, 1, 27, 6, 0, 0, 0, time.UTC)
	if !req.StartTime.Equal(want) {
		t.Errorf("StartTime = %v, want %v", req.StartTime, want)
	}
	if req.CurrentCycleHours != 12 {
		t.Errorf("CurrentCycleHours = %v, want 12", req.CurrentCycleHours)
	}
}

func TestTripFlags_ToRequest_InvalidStartTime(t *testing.T) {
	f := tripFlags{origin: "A", destination: "B", startTime: "not-a-time"}
	if _, err := f.toRequest(); err == nil {
		t.Fatal("expected an error for an unparseable start time")
	}
}
