package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type fakeStaleToucher struct {
	ids    []uuid.UUID
	err    error
	before time.Time
	limit  int32
}

func (f *fakeStaleToucher) TouchStaleQueuedDeliveries(_ context.Context, before time.Time, limit int32) ([]uuid.UUID, error) {
	f.before, f.limit = before, limit
	return f.ids, f.err
}

type fakeDispatch struct{ ids []uuid.UUID }

func (f *fakeDispatch) Dispatch(_ context.Context, ids ...uuid.UUID) error {
	f.ids = append(f.ids, ids...)
	return nil
}

func TestSweeper_SweepOnce(t *testing.T) {
	lister := &fakeStaleToucher{ids: []uuid.UUID{uuid.New(), uuid.New()}}
	d := &fakeDispatch{}
	s := NewSweeper(lister, d, 2*time.Minute, 50, zerolog.Nop())
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	n, err := s.SweepOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 || len(d.ids) != 2 {
		t.Errorf("republished %d (dispatched %d), want 2", n, len(d.ids))
	}
	if !lister.before.Equal(now.Add(-2*time.Minute)) || lister.limit != 50 {
		t.Errorf("touched before=%v limit=%d", lister.before, lister.limit)
	}
}

func TestSweeper_NothingStale(t *testing.T) {
	d := &fakeDispatch{}
	s := NewSweeper(&fakeStaleToucher{}, d, time.Minute, 0, zerolog.Nop())

	n, err := s.SweepOnce(context.Background())
	if err != nil || n != 0 || len(d.ids) != 0 {
		t.Errorf("SweepOnce() = %d, %v; dispatched %v", n, err, d.ids)
	}
}

func TestSweeper_StoreError(t *testing.T) {
	s := NewSweeper(&fakeStaleToucher{err: errors.New("db down")}, &fakeDispatch{}, time.Minute, 10, zerolog.Nop())

	if _, err := s.SweepOnce(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
