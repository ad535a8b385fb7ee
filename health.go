package main

import (
	"context"
	"log/slog"
	"time"
)

// Health monitor defaults: a probe every 30 seconds, forced logout after
// three consecutive failures.
const (
	healthInterval         = 30 * time.Second
	healthFailureThreshold = 3
)

// HealthMonitor periodically probes the backend's liveness endpoint and
// escalates to a forced logout once the consecutive-failure threshold is
// reached. Probes run sequentially in one goroutine and never overlap.
//
// Classification: any completed HTTP response, whatever its status code,
// counts as "server alive" and resets the counter. Any probe error (timeout,
// connection refused, anything else) counts as a failure. The portal's old
// behavior of resetting the counter on unclassified errors conflated
// "unknown" with "alive"; that is deliberately not preserved here.
type HealthMonitor struct {
	client        *BackendClient
	interval      time.Duration
	threshold     int
	onUnreachable func()

	failures    int
	unreachable bool
}

// NewHealthMonitor creates a monitor that calls onUnreachable exactly once
// when the backend is declared unreachable.
func NewHealthMonitor(client *BackendClient, onUnreachable func()) *HealthMonitor {
	return &HealthMonitor{
		client:        client,
		interval:      healthInterval,
		threshold:     healthFailureThreshold,
		onUnreachable: onUnreachable,
	}
}

// ConsecutiveFailures returns the current failure count.
func (m *HealthMonitor) ConsecutiveFailures() int {
	return m.failures
}

// Unreachable reports whether the monitor has reached its absorbing state.
func (m *HealthMonitor) Unreachable() bool {
	return m.unreachable
}

// Probe runs a single liveness check and updates the failure count. It
// returns true once the unreachable threshold has been crossed. Calling
// Probe after that is a no-op; Unreachable is absorbing.
func (m *HealthMonitor) Probe(ctx context.Context) bool {
	if m.unreachable {
		return true
	}

	if err := m.client.Health(ctx); err != nil {
		m.failures++
		slog.Warn("Backend health probe failed", "error", err, "consecutiveFailures", m.failures)
		if m.failures >= m.threshold {
			m.unreachable = true
			slog.Error("Backend declared unreachable, forcing logout", "failures", m.failures)
			if m.onUnreachable != nil {
				m.onUnreachable()
			}
			return true
		}
		return false
	}

	if m.failures > 0 {
		slog.Info("Backend recovered", "previousFailures", m.failures)
	}
	m.failures = 0
	return false
}

// Run probes immediately, then on a fixed interval until the backend is
// declared unreachable or ctx is cancelled. No backoff: the interval is the
// same whatever the classification.
func (m *HealthMonitor) Run(ctx context.Context) {
	if m.Probe(ctx) {
		return
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if m.Probe(ctx) {
				return
			}
		}
	}
}
