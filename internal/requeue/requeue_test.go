package requeue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/mudancasja/leadqueue/internal/apperr"
	"github.com/mudancasja/leadqueue/internal/storage"
)

// fakeStore mirrors the SQL: the targeted reset is scoped by lead, the bulk
// reset only touches enviado and erro.
type fakeStore struct {
	records map[uuid.UUID]*storage.DeliveryRecord
	err     error
}

func (f *fakeStore) add(leadID uuid.UUID, status storage.DeliveryStatus) uuid.UUID {
	id := uuid.New()
	msg := "smtp: 550 mailbox unavailable"
	now := time.Now()
	f.records[id] = &storage.DeliveryRecord{
		ID:            id,
		LeadID:        &leadID,
		Status:        status,
		Attempts:      3,
		LastError:     &msg,
		LastAttemptAt: &now,
	}
	return id
}

func reset(r *storage.DeliveryRecord) {
	r.Status = storage.DeliveryQueued
	r.Attempts = 0
	r.LastError = nil
	r.LastAttemptAt = nil
}

func (f *fakeStore) RequeueDelivery(_ context.Context, id, leadID uuid.UUID) (storage.DeliveryRecord, error) {
	if f.err != nil {
		return storage.DeliveryRecord{}, f.err
	}
	r, ok := f.records[id]
	if !ok || *r.LeadID != leadID {
		return storage.DeliveryRecord{}, pgx.ErrNoRows
	}
	reset(r)
	return *r, nil
}

func (f *fakeStore) RequeueLeadDeliveries(_ context.Context, leadID uuid.UUID) ([]uuid.UUID, error) {
	if f.err != nil {
		return nil, f.err
	}
	var ids []uuid.UUID
	for id, r := range f.records {
		if *r.LeadID != leadID {
			continue
		}
		if r.Status == storage.DeliverySent || r.Status == storage.DeliveryFailed {
			reset(r)
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type fakeDispatch struct {
	ids []uuid.UUID
	err error
}

func (f *fakeDispatch) Dispatch(_ context.Context, ids ...uuid.UUID) error {
	f.ids = append(f.ids, ids...)
	return f.err
}

func newStore() *fakeStore {
	return &fakeStore{records: map[uuid.UUID]*storage.DeliveryRecord{}}
}

func TestRequeue_ResetsRecord(t *testing.T) {
	store := newStore()
	lead := uuid.New()
	id := store.add(lead, storage.DeliveryFailed)
	d := &fakeDispatch{}
	m := NewManager(store, d, zerolog.Nop())

	rec, err := m.Requeue(context.Background(), lead, id)
	if err != nil {
		t.Fatalf("Requeue() error = %v", err)
	}
	if rec.Status != storage.DeliveryQueued || rec.Attempts != 0 || rec.LastError != nil || rec.LastAttemptAt != nil {
		t.Errorf("record not reset: %+v", rec)
	}
	if len(d.ids) != 1 || d.ids[0] != id {
		t.Errorf("republished %v, want [%s]", d.ids, id)
	}
}

func TestRequeue_AlreadyQueuedIsNotAnError(t *testing.T) {
	store := newStore()
	lead := uuid.New()
	id := store.add(lead, storage.DeliveryQueued)
	m := NewManager(store, nil, zerolog.Nop())

	rec, err := m.Requeue(context.Background(), lead, id)
	if err != nil {
		t.Fatalf("Requeue() error = %v", err)
	}
	if rec.Status != storage.DeliveryQueued {
		t.Errorf("Status = %s", rec.Status)
	}
}

func TestRequeue_WrongLead(t *testing.T) {
	store := newStore()
	id := store.add(uuid.New(), storage.DeliverySent)
	m := NewManager(store, nil, zerolog.Nop())

	_, err := m.Requeue(context.Background(), uuid.New(), id)
	var nf *apperr.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("Requeue() error = %v, want NotFoundError", err)
	}
	if store.records[id].Status != storage.DeliverySent {
		t.Error("record of another lead was modified")
	}
}

func TestRequeue_StorageError(t *testing.T) {
	store := newStore()
	store.err = errors.New("conn closed")
	m := NewManager(store, nil, zerolog.Nop())

	_, err := m.Requeue(context.Background(), uuid.New(), uuid.New())
	var se *apperr.StorageError
	if !errors.As(err, &se) {
		t.Fatalf("Requeue() error = %v, want StorageError", err)
	}
}

func TestRequeueAll_OnlyTerminalRecords(t *testing.T) {
	store := newStore()
	lead := uuid.New()
	sent := store.add(lead, storage.DeliverySent)
	failed := store.add(lead, storage.DeliveryFailed)
	sending := store.add(lead, storage.DeliverySending)
	queued := store.add(lead, storage.DeliveryQueued)
	other := store.add(uuid.New(), storage.DeliveryFailed)
	d := &fakeDispatch{err: errors.New("redis down")}
	m := NewManager(store, d, zerolog.Nop())

	n, err := m.RequeueAll(context.Background(), lead)
	if err != nil {
		t.Fatalf("RequeueAll() error = %v", err)
	}
	if n != 2 {
		t.Errorf("RequeueAll() = %d, want 2", n)
	}
	for _, id := range []uuid.UUID{sent, failed} {
		if store.records[id].Status != storage.DeliveryQueued {
			t.Errorf("%s not reset", id)
		}
	}
	if store.records[sending].Status != storage.DeliverySending || store.records[sending].Attempts != 3 {
		t.Error("in-flight record was touched")
	}
	if store.records[queued].Attempts != 3 {
		t.Error("queued record was touched")
	}
	if store.records[other].Status != storage.DeliveryFailed {
		t.Error("record of another lead was touched")
	}
	if len(d.ids) != 2 {
		t.Errorf("republished %d, want 2", len(d.ids))
	}
}

func TestRequeueAll_NothingToRequeue(t *testing.T) {
	store := newStore()
	lead := uuid.New()
	store.add(lead, storage.DeliverySending)
	m := NewManager(store, nil, zerolog.Nop())

	_, err := m.RequeueAll(context.Background(), lead)
	var nothing *apperr.NothingToRequeueError
	if !errors.As(err, &nothing) {
		t.Fatalf("RequeueAll() error = %v, want NothingToRequeueError", err)
	}
}
