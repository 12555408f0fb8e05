package metrics

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// API metrics
var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	APIAuthFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "api_auth_failures_total",
			Help: "Total number of API authentication failures",
		},
	)
)

// Database metrics
var (
	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	DBErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_errors_total",
			Help: "Total number of database errors",
		},
		[]string{"op"},
	)
)

// Matching metrics
var (
	LeadsMatchedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadqueue_leads_matched_total",
			Help: "Total number of leads run through campaign matching",
		},
	)

	CampaignsPerLead = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "leadqueue_campaigns_per_lead",
			Help:    "Number of eligible campaigns found per lead",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)
)

// Delivery metrics
var (
	DeliveryTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadqueue_delivery_transitions_total",
			Help: "Total number of delivery record transitions by target status",
		},
		[]string{"status"}, // enviando, enviado, erro, na_fila
	)

	DeliveryAttemptDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leadqueue_delivery_attempt_duration_seconds",
			Help:    "Duration of provider send attempts",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	DeliveriesDispatchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadqueue_deliveries_dispatched_total",
			Help: "Total number of delivery records handed to the dispatcher",
		},
		[]string{"mode"}, // sync, async
	)

	StaleDeliveriesRepublishedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadqueue_stale_deliveries_republished_total",
			Help: "Total number of queued records republished by the sweeper",
		},
	)

	RequeuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadqueue_requeued_total",
			Help: "Total number of delivery records returned to the queue",
		},
		[]string{"scope"}, // single, bulk
	)

	TestModeCapturedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadqueue_test_mode_captured_total",
			Help: "Total number of emails captured instead of sent",
		},
	)

	ProviderHealthy = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "leadqueue_provider_healthy",
			Help: "Whether the provider passed its last health checks (1) or not (0)",
		},
		[]string{"provider"},
	)
)

// Expiration scan metrics
var (
	RemindersCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadqueue_reminders_created_total",
			Help: "Total number of expiry reminder records created",
		},
	)

	ScanFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadqueue_scan_failures_total",
			Help: "Total number of campaigns the expiration scan could not process",
		},
	)

	ScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "leadqueue_scan_duration_seconds",
			Help:    "Duration of expiration scan runs",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// PoolStater is satisfied by *pgxpool.Pool.
type PoolStater interface {
	Stat() *pgxpool.Stat
}

// RecordPoolStats copies the pool's connection counts into the DB gauges.
func RecordPoolStats(p PoolStater) {
	s := p.Stat()
	DBConnectionsActive.Set(float64(s.AcquiredConns()))
	DBConnectionsIdle.Set(float64(s.IdleConns()))
}

// WatchPool records pool stats every interval until ctx is done.
func WatchPool(ctx context.Context, p PoolStater, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	RecordPoolStats(p)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			RecordPoolStats(p)
		}
	}
}
