// Package delivery owns the lifecycle of a delivery record: the allowed
// status transitions, the guarded updates that perform them, and the
// dispatch of record IDs to whatever sends them.
package delivery

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mudancasja/leadqueue/internal/apperr"
	"github.com/mudancasja/leadqueue/internal/metrics"
	"github.com/mudancasja/leadqueue/internal/storage"
)

// MaxErrorLength is the number of runes of a failure kept in
// ultimo_erro_envio.
const MaxErrorLength = 1000

var (
	// ErrNotClaimable is returned by Claim when the record is not in
	// na_fila, usually because another worker claimed it first.
	ErrNotClaimable = errors.New("delivery record is not queued")

	// ErrNotSending is returned by Complete and Fail when the record left
	// enviando before the outcome was written.
	ErrNotSending = errors.New("delivery record is not being sent")
)

var transitions = map[storage.DeliveryStatus][]storage.DeliveryStatus{
	storage.DeliveryQueued:  {storage.DeliverySending, storage.DeliveryQueued},
	storage.DeliverySending: {storage.DeliverySent, storage.DeliveryFailed},
	storage.DeliverySent:    {storage.DeliveryQueued},
	storage.DeliveryFailed:  {storage.DeliveryQueued},
}

// CanTransition reports whether a record may move from one status to
// another. Moves back to na_fila are requeues.
func CanTransition(from, to storage.DeliveryStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Store is the subset of storage.Querier the machine writes through.
type Store interface {
	ClaimDelivery(ctx context.Context, id uuid.UUID, at time.Time) (storage.DeliveryRecord, error)
	CompleteDelivery(ctx context.Context, id uuid.UUID) (storage.DeliveryRecord, error)
	FailDelivery(ctx context.Context, id uuid.UUID, lastError string) (storage.DeliveryRecord, error)
}

// Machine applies status transitions with guarded updates so concurrent
// workers cannot both own a record.
type Machine struct {
	store Store
	now   func() time.Time
}

// NewMachine creates a Machine backed by store.
func NewMachine(store Store) *Machine {
	return &Machine{store: store, now: time.Now}
}

// Claim moves a queued record to enviando and counts the attempt.
func (m *Machine) Claim(ctx context.Context, id uuid.UUID) (storage.DeliveryRecord, error) {
	rec, err := m.store.ClaimDelivery(ctx, id, m.now())
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.DeliveryRecord{}, ErrNotClaimable
	}
	if err != nil {
		return storage.DeliveryRecord{}, apperr.Storage("claim delivery", err)
	}
	metrics.DeliveryTransitionsTotal.WithLabelValues(string(storage.DeliverySending)).Inc()
	return rec, nil
}

// Complete records a successful send.
func (m *Machine) Complete(ctx context.Context, id uuid.UUID) (storage.DeliveryRecord, error) {
	rec, err := m.store.CompleteDelivery(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.DeliveryRecord{}, ErrNotSending
	}
	if err != nil {
		return storage.DeliveryRecord{}, apperr.Storage("complete delivery", err)
	}
	metrics.DeliveryTransitionsTotal.WithLabelValues(string(storage.DeliverySent)).Inc()
	return rec, nil
}

// Fail records a failed send with the cause's text.
func (m *Machine) Fail(ctx context.Context, id uuid.UUID, cause error) (storage.DeliveryRecord, error) {
	msg := "unknown error"
	if cause != nil {
		msg = TruncateError(cause.Error())
	}
	rec, err := m.store.FailDelivery(ctx, id, msg)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.DeliveryRecord{}, ErrNotSending
	}
	if err != nil {
		return storage.DeliveryRecord{}, apperr.Storage("fail delivery", err)
	}
	metrics.DeliveryTransitionsTotal.WithLabelValues(string(storage.DeliveryFailed)).Inc()
	return rec, nil
}

// TruncateError cuts s to MaxErrorLength runes.
func TruncateError(s string) string {
	if utf8.RuneCountInString(s) <= MaxErrorLength {
		return s
	}
	runes := []rune(s)
	return string(runes[:MaxErrorLength])
}
