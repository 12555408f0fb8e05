// Package scanner creates renewal-reminder delivery records for campaigns
// about to expire.
package scanner

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/mudancasja/leadqueue/internal/apperr"
	"github.com/mudancasja/leadqueue/internal/clock"
	"github.com/mudancasja/leadqueue/internal/delivery"
	"github.com/mudancasja/leadqueue/internal/metrics"
	"github.com/mudancasja/leadqueue/internal/storage"
)

// Store is the subset of storage.Querier the scanner runs.
type Store interface {
	ListCampaignsEndingBetween(ctx context.Context, from, to time.Time) ([]storage.Campaign, error)
	InsertReminderDelivery(ctx context.Context, campaignID uuid.UUID, cycle time.Time) (storage.DeliveryRecord, error)
}

// Failure records a campaign the scan could not process. CampaignID is nil
// when the campaign listing itself failed.
type Failure struct {
	CampaignID uuid.UUID `json:"campaignId"`
	Error      string    `json:"error"`
}

// Result summarizes one scan.
type Result struct {
	Created     int
	DeliveryIDs []uuid.UUID
	ExecutedAt  time.Time
	Failures    []Failure

	clock *clock.Regional
}

// FormattedExecutedAt renders ExecutedAt in the regional zone as
// dd/mm/yyyy hh:mm:ss.
func (r Result) FormattedExecutedAt() string {
	if r.clock == nil {
		return r.ExecutedAt.Format(clock.ReportLayout)
	}
	return r.clock.Format(r.ExecutedAt)
}

// Scanner finds campaigns ending today or tomorrow and queues one reminder
// per campaign per day.
type Scanner struct {
	store    Store
	dispatch delivery.Service
	clock    *clock.Regional
	log      zerolog.Logger
}

// New creates a Scanner. dispatch may be nil.
func New(store Store, dispatch delivery.Service, clk *clock.Regional, log zerolog.Logger) *Scanner {
	return &Scanner{
		store:    store,
		dispatch: dispatch,
		clock:    clk,
		log:      log,
	}
}

// Run performs one scan. It never fails as a whole; problems are listed in
// Result.Failures. Rerunning on the same regional day creates nothing new.
func (s *Scanner) Run(ctx context.Context) Result {
	start := s.clock.Now()
	res := Result{ExecutedAt: start, DeliveryIDs: []uuid.UUID{}, clock: s.clock}
	defer func() {
		metrics.ScanDuration.Observe(time.Since(start).Seconds())
	}()

	today := s.clock.Today()
	tomorrow := today.AddDate(0, 0, 1)

	campaigns, err := s.store.ListCampaignsEndingBetween(ctx, today, tomorrow)
	if err != nil {
		err = apperr.Storage("list expiring campaigns", err)
		s.log.Error().Err(err).Msg("expiration scan failed")
		metrics.ScanFailuresTotal.Inc()
		res.Failures = append(res.Failures, Failure{Error: err.Error()})
		return res
	}

	for _, c := range campaigns {
		rec, err := s.store.InsertReminderDelivery(ctx, c.ID, today)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			err = apperr.Storage("insert reminder delivery", err)
			s.log.Error().Err(err).
				Stringer("campaign_id", c.ID).
				Msg("failed to create reminder")
			metrics.ScanFailuresTotal.Inc()
			res.Failures = append(res.Failures, Failure{CampaignID: c.ID, Error: err.Error()})
			continue
		}
		res.DeliveryIDs = append(res.DeliveryIDs, rec.ID)
	}
	res.Created = len(res.DeliveryIDs)
	metrics.RemindersCreatedTotal.Add(float64(res.Created))

	if res.Created > 0 && s.dispatch != nil {
		if err := s.dispatch.Dispatch(ctx, res.DeliveryIDs...); err != nil {
			s.log.Warn().Err(err).Msg("dispatch incomplete")
		}
	}

	s.log.Info().
		Int("expiring", len(campaigns)).
		Int("created", res.Created).
		Int("failures", len(res.Failures)).
		Str("executed_at", res.FormattedExecutedAt()).
		Msg("expiration scan finished")
	return res
}

// Every runs Run on interval until ctx is cancelled.
func (s *Scanner) Every(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Run(ctx)
		}
	}
}
