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

// AsyncService enqueues record IDs for background delivery by the
// queue-worker process.
type AsyncService struct {
	enqueuer queue.Enqueuer
	log      zerolog.Logger
}

// NewAsyncService creates an AsyncService backed by the given Enqueuer.
func NewAsyncService(enqueuer queue.Enqueuer, log zerolog.Logger) *AsyncService {
	return &AsyncService{
		enqueuer: enqueuer,
		log:      log,
	}
}

// Dispatch publishes one queue message per record.
func (a *AsyncService) Dispatch(ctx context.Context, ids ...uuid.UUID) error {
	var errs []error
	for _, id := range ids {
		entryID, err := a.enqueuer.Enqueue(ctx, queue.NewMessage(id))
		if err != nil {
			a.log.Warn().Err(err).
				Stringer("delivery_id", id).
				Msg("failed to enqueue delivery, sweep will retry")
			errs = append(errs, fmt.Errorf("enqueue %s: %w", id, err))
			continue
		}
		metrics.DeliveriesDispatchedTotal.WithLabelValues("async").Inc()
		a.log.Debug().
			Stringer("delivery_id", id).
			Str("entry_id", entryID).
			Msg("delivery enqueued")
	}
	return errors.Join(errs...)
}
