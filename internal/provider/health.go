package provider

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mudancasja/leadqueue/internal/metrics"
)

// HealthStatus is the last known state of one adapter.
type HealthStatus struct {
	Healthy             bool
	LastCheck           time.Time
	ConsecutiveFailures int
	LastError           string
}

// HealthMonitor probes every adapter in a Registry on an interval and
// publishes the result to the provider_healthy gauge. An adapter turns
// unhealthy after FailureThreshold consecutive failed probes and recovers on
// the first success.
type HealthMonitor struct {
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold int

	registry *Registry
	log      zerolog.Logger

	mu       sync.RWMutex
	statuses map[string]HealthStatus
}

func NewHealthMonitor(registry *Registry, log zerolog.Logger) *HealthMonitor {
	return &HealthMonitor{
		Interval:         30 * time.Second,
		Timeout:          10 * time.Second,
		FailureThreshold: 3,
		registry:         registry,
		log:              log.With().Str("component", "provider_health").Logger(),
		statuses:         map[string]HealthStatus{},
	}
}

// Run probes immediately and then on every tick until ctx is done.
func (m *HealthMonitor) Run(ctx context.Context) {
	m.probeAll(ctx)

	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.probeAll(ctx)
		}
	}
}

// Healthy reports false for adapters that were never probed.
func (m *HealthMonitor) Healthy(name string) bool {
	s, ok := m.Status(name)
	return ok && s.Healthy
}

func (m *HealthMonitor) Status(name string) (HealthStatus, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.statuses[name]
	return s, ok
}

// Statuses returns a copy of every known status.
func (m *HealthMonitor) Statuses() map[string]HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]HealthStatus, len(m.statuses))
	for k, v := range m.statuses {
		out[k] = v
	}
	return out
}

func (m *HealthMonitor) probeAll(ctx context.Context) {
	for _, p := range m.registry.All() {
		if ctx.Err() != nil {
			return
		}
		pctx, cancel := context.WithTimeout(ctx, m.Timeout)
		err := p.HealthCheck(pctx)
		cancel()
		m.record(p.GetName(), err, time.Now())
	}
}

func (m *HealthMonitor) record(name string, err error, at time.Time) {
	m.mu.Lock()
	prev, seen := m.statuses[name]
	next := HealthStatus{Healthy: true, LastCheck: at}
	if err != nil {
		next.ConsecutiveFailures = prev.ConsecutiveFailures + 1
		next.LastError = err.Error()
		next.Healthy = next.ConsecutiveFailures < m.FailureThreshold
	}
	m.statuses[name] = next
	m.mu.Unlock()

	if seen && prev.Healthy != next.Healthy {
		m.log.Warn().
			Str("provider", name).
			Bool("healthy", next.Healthy).
			Str("last_error", next.LastError).
			Msg("provider health changed")
	}

	v := 0.0
	if next.Healthy {
		v = 1
	}
	metrics.ProviderHealthy.WithLabelValues(name).Set(v)
}
