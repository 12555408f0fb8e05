package clock

import (
	"testing"
	"time"
)

func TestRegional_TodayUsesRegionalDate(t *testing.T) {
	r, err := NewRegional("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("NewRegional failed: %v", err)
	}
	// 01:30 UTC on the 16th is still the 15th in São Paulo (UTC-3).
	r.now = func() time.Time { return time.Date(2026, 10, 16, 1, 30, 0, 0, time.UTC) }

	want := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	if got := r.Today(); !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestRegional_Format(t *testing.T) {
	r, err := NewRegional("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("NewRegional failed: %v", err)
	}
	got := r.Format(time.Date(2026, 10, 15, 15, 4, 5, 0, time.UTC))
	if got != "15/10/2026 12:04:05" {
		t.Errorf("expected 15/10/2026 12:04:05, got %s", got)
	}
}

func TestNewRegional_UnknownZone(t *testing.T) {
	if _, err := NewRegional("Mars/Olympus_Mons"); err == nil {
		t.Error("expected error for unknown zone")
	}
}

func TestFixed(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	r := Fixed(time.UTC, at)
	if !r.Now().Equal(at) {
		t.Errorf("expected %v, got %v", at, r.Now())
	}
	if r.Location() != time.UTC {
		t.Error("expected UTC location")
	}
}
