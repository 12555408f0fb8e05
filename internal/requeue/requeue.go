// Package requeue resets delivery records back to na_fila so the worker
// sends them again.
package requeue

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/mudancasja/leadqueue/internal/apperr"
	"github.com/mudancasja/leadqueue/internal/delivery"
	"github.com/mudancasja/leadqueue/internal/metrics"
	"github.com/mudancasja/leadqueue/internal/storage"
)

// Store is the subset of storage.Querier the manager runs.
type Store interface {
	RequeueDelivery(ctx context.Context, id, leadID uuid.UUID) (storage.DeliveryRecord, error)
	RequeueLeadDeliveries(ctx context.Context, leadID uuid.UUID) ([]uuid.UUID, error)
}

// Manager performs targeted and bulk requeues.
type Manager struct {
	store    Store
	dispatch delivery.Service
	log      zerolog.Logger
}

// NewManager creates a Manager. dispatch may be nil.
func NewManager(store Store, dispatch delivery.Service, log zerolog.Logger) *Manager {
	return &Manager{store: store, dispatch: dispatch, log: log}
}

// Requeue resets one record of leadID, clearing its attempts and error. A
// record that is already na_fila is rewritten without error. It returns an
// apperr.NotFoundError when recordID does not exist or belongs to another
// lead.
func (m *Manager) Requeue(ctx context.Context, leadID, recordID uuid.UUID) (storage.DeliveryRecord, error) {
	rec, err := m.store.RequeueDelivery(ctx, recordID, leadID)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.DeliveryRecord{}, &apperr.NotFoundError{Resource: "delivery record", ID: recordID.String()}
	}
	if err != nil {
		return storage.DeliveryRecord{}, apperr.Storage("requeue delivery", err)
	}

	metrics.RequeuedTotal.WithLabelValues("single").Inc()
	metrics.DeliveryTransitionsTotal.WithLabelValues(string(storage.DeliveryQueued)).Inc()
	m.log.Info().
		Stringer("lead_id", leadID).
		Stringer("delivery_id", recordID).
		Msg("delivery requeued")

	m.republish(ctx, rec.ID)
	return rec, nil
}

// RequeueAll resets every enviado or erro record of leadID in one statement
// and returns how many it reset. Records in na_fila or enviando are left
// alone. It returns an apperr.NothingToRequeueError when nothing matched.
func (m *Manager) RequeueAll(ctx context.Context, leadID uuid.UUID) (int, error) {
	ids, err := m.store.RequeueLeadDeliveries(ctx, leadID)
	if err != nil {
		return 0, apperr.Storage("requeue lead deliveries", err)
	}
	if len(ids) == 0 {
		return 0, &apperr.NothingToRequeueError{LeadID: leadID.String()}
	}

	metrics.RequeuedTotal.WithLabelValues("bulk").Add(float64(len(ids)))
	metrics.DeliveryTransitionsTotal.WithLabelValues(string(storage.DeliveryQueued)).Add(float64(len(ids)))
	m.log.Info().
		Stringer("lead_id", leadID).
		Int("count", len(ids)).
		Msg("lead deliveries requeued")

	m.republish(ctx, ids...)
	return len(ids), nil
}

func (m *Manager) republish(ctx context.Context, ids ...uuid.UUID) {
	if m.dispatch == nil {
		return
	}
	if err := m.dispatch.Dispatch(ctx, ids...); err != nil {
		m.log.Warn().Err(err).Msg("republish incomplete")
	}
}
