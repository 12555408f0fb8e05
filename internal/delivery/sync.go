package delivery

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mudancasja/leadqueue/internal/metrics"
	"github.com/mudancasja/leadqueue/internal/queue"
)

// SyncService delivers records inline with the same handler the queue
// worker runs. It suits single-process deployments and local development.
type SyncService struct {
	handler queue.MessageHandler
	log     zerolog.Logger
}

// NewSyncService creates a SyncService that sends through handler.
func NewSyncService(handler queue.MessageHandler, log zerolog.Logger) *SyncService {
	return &SyncService{
		handler: handler,
		log:     log,
	}
}

// Dispatch sends each record in order.
func (s *SyncService) Dispatch(ctx context.Context, ids ...uuid.UUID) error {
	var errs []error
	for _, id := range ids {
		metrics.DeliveriesDispatchedTotal.WithLabelValues("sync").Inc()
		if err := s.handler.HandleMessage(ctx, queue.NewMessage(id)); err != nil {
			s.log.Error().Err(err).
				Stringer("delivery_id", id).
				Msg("inline delivery failed")
			errs = append(errs, fmt.Errorf("deliver %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}
