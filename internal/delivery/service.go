package delivery

import (
	"context"

	"github.com/google/uuid"
)

// Service hands delivery records to whatever sends them. Two implementations
// exist: AsyncService publishes record IDs to the work queue for the
// queue-worker process, and SyncService runs the send in the calling
// process.
//
// Dispatch is best effort. It returns the joined errors of the records it
// could not hand off; callers log them and rely on the worker sweep to pick
// up records left in na_fila.
type Service interface {
	Dispatch(ctx context.Context, ids ...uuid.UUID) error
}
