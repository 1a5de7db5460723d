package observability

import (
	"sync"
	"testing"
	"time"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordRequest("/tickets", "GET", 200, 2*time.Millisecond)
		}()
	}
	wg.Wait()
	m.RecordError("/tickets/:id/complete", "POST", "UNAUTHORIZED")
	m.RecordTransition("Assigned")
	m.RecordNotification("otp", false)

	snap := m.Snapshot()
	if got := snap.Requests["/tickets|GET|200"]; got != 50 {
		t.Fatalf("requests = %d", got)
	}
	if snap.Errors["/tickets/:id/complete|POST|UNAUTHORIZED"] != 1 {
		t.Fatalf("errors = %v", snap.Errors)
	}
	if snap.Transitions["Assigned"] != 1 {
		t.Fatalf("transitions = %v", snap.Transitions)
	}
	if snap.Notifications["otp|failed"] != 1 {
		t.Fatalf("notifications = %v", snap.Notifications)
	}
	if snap.AvgLatencyMS != 2 {
		t.Fatalf("avg latency = %v", snap.AvgLatencyMS)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordTransition("Done")
	if snap := m.Snapshot(); snap.Requests != nil {
		t.Fatalf("unexpected snapshot %v", snap)
	}
}
