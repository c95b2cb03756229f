package metrics

import (
	"testing"
	"time"
)

func TestSnapshotCounts(t *testing.T) {
	c := NewCollector()

	c.ObserveRequest("GET", 200, 10*time.Millisecond)
	c.ObserveRequest("GET", 200, 20*time.Millisecond)
	c.ObserveRequest("POST", 400, 5*time.Millisecond)
	c.ObserveError("invalid_request")
	c.ObserveError("invalid_request")
	c.ObserveError("server_error")

	snap := c.Snapshot()
	if snap.TotalRequests != 3 {
		t.Fatalf("expected 3 requests, got %d", snap.TotalRequests)
	}
	if snap.Requests["GET 200"] != 2 {
		t.Fatalf("expected 2 GET 200, got %d", snap.Requests["GET 200"])
	}
	if snap.Requests["POST 400"] != 1 {
		t.Fatalf("expected 1 POST 400, got %d", snap.Requests["POST 400"])
	}
	if snap.Errors["invalid_request"] != 2 || snap.Errors["server_error"] != 1 {
		t.Fatalf("unexpected error counts: %v", snap.Errors)
	}
}

func TestSnapshotPercentiles(t *testing.T) {
	c := NewCollector()
	for i := 1; i <= 100; i++ {
		c.ObserveRequest("GET", 200, time.Duration(i)*time.Millisecond)
	}

	snap := c.Snapshot()
	if snap.LatencyP50Ms < 49 || snap.LatencyP50Ms > 51 {
		t.Fatalf("expected p50 near 50ms, got %.1f", snap.LatencyP50Ms)
	}
	if snap.LatencyP95Ms < 94 || snap.LatencyP95Ms > 96 {
		t.Fatalf("expected p95 near 95ms, got %.1f", snap.LatencyP95Ms)
	}
	if snap.LatencyP99Ms < snap.LatencyP95Ms {
		t.Fatalf("expected p99 >= p95")
	}
}

func TestInFlightGauge(t *testing.T) {
	c := NewCollector()
	c.IncInFlight()
	c.IncInFlight()
	c.DecInFlight()

	if snap := c.Snapshot(); snap.InFlight != 1 {
		t.Fatalf("expected 1 in flight, got %d", snap.InFlight)
	}
}
