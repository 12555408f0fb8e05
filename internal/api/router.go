package api

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/mudancasja/leadqueue/internal/auth"
	"github.com/mudancasja/leadqueue/internal/campaign"
	"github.com/mudancasja/leadqueue/internal/matcher"
	"github.com/mudancasja/leadqueue/internal/scanner"
	"github.com/mudancasja/leadqueue/internal/settings"
	"github.com/mudancasja/leadqueue/internal/storage"
	"github.com/mudancasja/leadqueue/internal/testmode"
)

// CampaignService administers campaigns.
type CampaignService interface {
	Create(ctx context.Context, in campaign.CreateInput) (storage.Campaign, error)
	Update(ctx context.Context, id uuid.UUID, in campaign.UpdateInput) (storage.Campaign, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ScanRunner runs one expiration scan.
type ScanRunner interface {
	Run(ctx context.Context) scanner.Result
}

// Requeuer resets delivery records back to the queue.
type Requeuer interface {
	Requeue(ctx context.Context, leadID, recordID uuid.UUID) (storage.DeliveryRecord, error)
	RequeueAll(ctx context.Context, leadID uuid.UUID) (int, error)
}

// LeadStore is the lead persistence the handlers need.
type LeadStore interface {
	CreateLead(ctx context.Context, arg storage.CreateLeadParams) (storage.Lead, error)
	GetLead(ctx context.Context, id uuid.UUID) (storage.Lead, error)
	ListDeliveriesByLead(ctx context.Context, leadID uuid.UUID) ([]storage.DeliveryRecord, error)
}

// LeadMatcher fans a lead out to its eligible campaigns.
type LeadMatcher interface {
	Match(ctx context.Context, leadID uuid.UUID) (*matcher.Result, error)
}

// TestModeLog exposes the captured sends.
type TestModeLog interface {
	Log(ctx context.Context) (testmode.Report, error)
	Clear(ctx context.Context) error
}

// TestModeSettings reads and persists the test-mode flag.
type TestModeSettings interface {
	Load(ctx context.Context) (settings.Snapshot, error)
	SetTestMode(ctx context.Context, enabled bool) error
}

// Deps groups everything the router serves. Nil fields disable nothing;
// every admin route expects its dependency to be set.
type Deps struct {
	DB Pinger
	// Redis is probed by /readyz when set.
	Redis     Pinger
	Campaigns CampaignService
	Scanner   ScanRunner
	Requeue   Requeuer
	Leads     LeadStore
	Matcher   LeadMatcher
	TestLog   TestModeLog
	Settings  TestModeSettings

	// AdminToken protects every route except health and metrics. Empty
	// disables the check.
	AdminToken string
	Lockout    *auth.Lockout

	MetricsEnabled bool
	MetricsPath    string
}

// NewRouter creates a chi.Mux with all routes, middleware, and handlers configured.
func NewRouter(d Deps, log zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(CorrelationIDMiddleware)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware(log))
	r.Use(MetricsMiddleware)
	r.Use(RecoverMiddleware(log))

	// Health endpoints (no auth required)
	r.Get("/healthz", HealthzHandler())
	checks := map[string]Pinger{"database": d.DB}
	if d.Redis != nil {
		checks["redis"] = d.Redis
	}
	r.Get("/readyz", ReadyzHandler(checks))

	if d.MetricsEnabled {
		path := d.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, promhttp.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(auth.AdminToken(d.AdminToken, d.Lockout, log))

		// Campaigns
		r.Post("/campaigns", CreateCampaignHandler(d.Campaigns, log))
		r.Post("/campaigns/expiration-scan", ExpirationScanHandler(d.Scanner))
		r.Patch("/campaigns/{id}", UpdateCampaignHandler(d.Campaigns, log))
		r.Delete("/campaigns/{id}", DeleteCampaignHandler(d.Campaigns, log))

		// Deliveries
		r.Post("/deliveries/requeue", RequeueHandler(d.Requeue, log))

		// Leads
		r.Post("/leads/simulate", SimulateLeadHandler(d.Leads, d.Matcher, log))
		r.Post("/leads/{id}/match", MatchLeadHandler(d.Matcher, log))
		r.Get("/leads/{id}/deliveries", ListLeadDeliveriesHandler(d.Leads, log))

		// Test mode
		r.Get("/test-mode", GetTestModeHandler(d.Settings, log))
		r.Put("/test-mode", SetTestModeHandler(d.Settings, log))
		r.Get("/test-mode/log", TestModeLogHandler(d.TestLog, log))
		r.Delete("/test-mode/log", ClearTestModeLogHandler(d.TestLog, log))
	})

	return r
}
