package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mudancasja/leadqueue/internal/apperr"
	"github.com/mudancasja/leadqueue/internal/delivery"
	"github.com/mudancasja/leadqueue/internal/metrics"
)

// StaleToucher picks records that have sat in na_fila too long and stamps
// them so the next pass skips them until they go stale again.
type StaleToucher interface {
	TouchStaleQueuedDeliveries(ctx context.Context, queuedBefore time.Time, limit int32) ([]uuid.UUID, error)
}

// Sweeper republishes na_fila records whose queue message was lost or never
// published. Duplicate messages are harmless since the claim is exclusive.
type Sweeper struct {
	store    StaleToucher
	dispatch delivery.Service
	grace    time.Duration
	batch    int32
	log      zerolog.Logger
	now      func() time.Time
}

// NewSweeper creates a Sweeper that republishes up to batch records older
// than grace per pass.
func NewSweeper(store StaleToucher, dispatch delivery.Service, grace time.Duration, batch int32, log zerolog.Logger) *Sweeper {
	if batch <= 0 {
		batch = 200
	}
	return &Sweeper{
		store:    store,
		dispatch: dispatch,
		grace:    grace,
		batch:    batch,
		log:      log,
		now:      time.Now,
	}
}

// SweepOnce performs a single pass and returns how many records it
// republished.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	ids, err := s.store.TouchStaleQueuedDeliveries(ctx, s.now().Add(-s.grace), s.batch)
	if err != nil {
		return 0, apperr.Storage("touch stale deliveries", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	if err := s.dispatch.Dispatch(ctx, ids...); err != nil {
		s.log.Warn().Err(err).Int("count", len(ids)).Msg("sweep republish incomplete")
	}
	metrics.StaleDeliveriesRepublishedTotal.Add(float64(len(ids)))
	s.log.Info().Int("count", len(ids)).Msg("republished stale deliveries")
	return len(ids), nil
}

// Run sweeps every interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				s.log.Error().Err(err).Msg("delivery sweep failed")
			}
		}
	}
}
