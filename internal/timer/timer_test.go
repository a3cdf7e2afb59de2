package timer

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestExpiryFiresExactlyOnce(t *testing.T) {
	var fired int32
	tm := New(30*time.Millisecond, func() { atomic.AddInt32(&fired, 1) })
	tm.tick = 5 * time.Millisecond

	tm.Start()
	time.Sleep(120 * time.Millisecond)

	if got := atomic.LoadInt32(&fired); got != 1 {
		t.Fatalf("expected expiry to fire once, fired %d times", got)
	}
	if tm.Running() {
		t.Error("timer still running after expiry")
	}
	if rem := tm.Remaining(); rem != 0 {
		t.Errorf("remaining = %v after expiry, want 0", rem)
	}
}

func TestPauseFreezesRemaining(t *testing.T) {
	tm := New(time.Hour, nil)
	tm.Start()
	tm.Pause()

	if tm.Running() {
		t.Fatal("timer running after Pause")
	}
	rem1 := tm.Remaining()
	time.Sleep(30 * time.Millisecond)
	rem2 := tm.Remaining()
	if rem1 != rem2 {
		t.Errorf("remaining drifted while paused: %v then %v", rem1, rem2)
	}
}

func TestRemainingDerivedFromDeadline(t *testing.T) {
	base := time.Now()
	current := base
	tm := New(10*time.Minute, nil)
	tm.now = func() time.Time { return current }

	tm.Start()
	current = base.Add(4 * time.Minute)

	if got, want := tm.Remaining(), 6*time.Minute; got != want {
		t.Errorf("remaining = %v, want %v", got, want)
	}
}

func TestResetRearmsExpiry(t *testing.T) {
	var fired int32
	tm := New(20*time.Millisecond, func() { atomic.AddInt32(&fired, 1) })
	tm.tick = 5 * time.Millisecond

	tm.Start()
	time.Sleep(80 * time.Millisecond)

	tm.ResetTo(20 * time.Millisecond)
	tm.Start()
	time.Sleep(80 * time.Millisecond)

	if got := atomic.LoadInt32(&fired); got != 2 {
		t.Fatalf("expected two expiries after reset, got %d", got)
	}
}

func TestStartNoopWhenElapsed(t *testing.T) {
	tm := New(0, func() { t.Error("expiry fired for zero-duration timer") })
	tm.Start()
	if tm.Running() {
		t.Error("zero-duration timer should not start")
	}
}

func TestThresholds(t *testing.T) {
	tests := []struct {
		name    string
		initial time.Duration
		warning bool
		danger  bool
	}{
		{"plenty of time", 10 * time.Minute, false, false},
		{"inside warning band", 4 * time.Minute, true, false},
		{"inside danger band", 30 * time.Second, true, true},
		{"expired", 0, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm := New(tt.initial, nil)
			if got := tm.Warning(); got != tt.warning {
				t.Errorf("Warning() = %v, want %v", got, tt.warning)
			}
			if got := tm.Danger(); got != tt.danger {
				t.Errorf("Danger() = %v, want %v", got, tt.danger)
			}
		})
	}
}
