package auth

import (
	"testing"
	"time"
)

func TestLockout_NilClient(t *testing.T) {
	l := NewLockout(nil, LockoutConfig{MaxAttempts: 5, Window: 15 * time.Minute})
	ctx := t.Context()

	// All methods should gracefully handle nil client
	if err := l.Check(ctx, "10.0.0.1"); err != nil {
		t.Errorf("Check() with nil client error = %v", err)
	}
	if err := l.RecordFailure(ctx, "10.0.0.1"); err != nil {
		t.Errorf("RecordFailure() with nil client error = %v", err)
	}
	if err := l.Clear(ctx, "10.0.0.1"); err != nil {
		t.Errorf("Clear() with nil client error = %v", err)
	}
}

func TestLockout_NilReceiver(t *testing.T) {
	var l *Lockout
	if err := l.Check(t.Context(), "x"); err != nil {
		t.Errorf("Check() on nil Lockout error = %v", err)
	}
}

func TestLockoutKey(t *testing.T) {
	if got := lockoutKey("10.0.0.1"); got != "leadqueue:auth:fail:10.0.0.1" {
		t.Errorf("lockoutKey() = %q", got)
	}
}
