package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// switchableBackend serves /health and can be flipped between answering and
// refusing connections mid-test.
type switchableBackend struct {
	server  *httptest.Server
	healthy atomic.Bool
}

func newSwitchableBackend(t *testing.T) *switchableBackend {
	t.Helper()
	b := &switchableBackend{}
	b.healthy.Store(true)
	b.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !b.healthy.Load() {
			// Hijack and drop the connection to simulate a transport fault
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Error("response writer does not support hijacking")
				return
			}
			conn, _, err := hj.Hijack()
			if err != nil {
				t.Errorf("hijack failed: %v", err)
				return
			}
			_ = conn.Close()
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(b.server.Close)
	return b
}

func TestHealthMonitor_ThreeFailuresForceExactlyOneLogout(t *testing.T) {
	backend := newSwitchableBackend(t)
	backend.healthy.Store(false)

	logouts := 0
	monitor := NewHealthMonitor(NewBackendClient(backend.server.URL), func() { logouts++ })

	ctx := context.Background()
	for i := 1; i <= 2; i++ {
		if done := monitor.Probe(ctx); done {
			t.Fatalf("Unreachable after %d failures, threshold is 3", i)
		}
		if monitor.ConsecutiveFailures() != i {
			t.Errorf("Expected %d consecutive failures, got %d", i, monitor.ConsecutiveFailures())
		}
	}

	if done := monitor.Probe(ctx); !done {
		t.Fatal("Expected unreachable state after the third failure")
	}
	if !monitor.Unreachable() {
		t.Error("Unreachable() should report true")
	}
	if logouts != 1 {
		t.Errorf("Expected exactly one forced logout, got %d", logouts)
	}

	// Absorbing state: further probes never fire the callback again
	_ = monitor.Probe(ctx)
	_ = monitor.Probe(ctx)
	if logouts != 1 {
		t.Errorf("Forced logout fired again in the absorbing state: %d", logouts)
	}
}

func TestHealthMonitor_SuccessResetsCounter(t *testing.T) {
	backend := newSwitchableBackend(t)
	monitor := NewHealthMonitor(NewBackendClient(backend.server.URL), func() {
		t.Error("Forced logout must not fire in this scenario")
	})

	ctx := context.Background()

	backend.healthy.Store(false)
	_ = monitor.Probe(ctx)
	_ = monitor.Probe(ctx)
	if monitor.ConsecutiveFailures() != 2 {
		t.Fatalf("Expected 2 failures, got %d", monitor.ConsecutiveFailures())
	}

	backend.healthy.Store(true)
	_ = monitor.Probe(ctx)
	if monitor.ConsecutiveFailures() != 0 {
		t.Errorf("A successful probe should reset the counter, got %d", monitor.ConsecutiveFailures())
	}

	// Two more failures after the reset still stay under the threshold
	backend.healthy.Store(false)
	_ = monitor.Probe(ctx)
	_ = monitor.Probe(ctx)
	if monitor.Unreachable() {
		t.Error("Monitor escalated even though the counter was reset in between")
	}
}

// A non-2xx status still proves the server is alive. The old portal client
// also reset the counter on errors it could not classify; here every probe
// error counts as a failure instead, so only a completed response resets.
func TestHealthMonitor_ErrorStatusCountsAsAlive(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	monitor := NewHealthMonitor(NewBackendClient(server.URL), func() {
		t.Error("Forced logout must not fire for a reachable server")
	})

	ctx := context.Background()
	for i := 0; i < healthFailureThreshold+1; i++ {
		_ = monitor.Probe(ctx)
	}
	if monitor.ConsecutiveFailures() != 0 {
		t.Errorf("Expected counter 0 for a responding server, got %d", monitor.ConsecutiveFailures())
	}
	if monitor.Unreachable() {
		t.Error("Monitor escalated on HTTP error statuses")
	}
}
