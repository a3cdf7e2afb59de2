// Package timer provides a countdown abstraction for timed exams. Remaining
// time is always derived from a wall-clock deadline, never from decrementing
// a counter per tick, so suspended tabs and delayed wakeups do not drift.
package timer

import (
	"sync"
	"time"
)

const (
	// DefaultTickInterval is fine enough that displayed seconds update
	// within a second of real elapsed time without excess wakeups.
	DefaultTickInterval = 250 * time.Millisecond

	// WarningThreshold and DangerThreshold are display hints derived from
	// the remaining time.
	WarningThreshold = 5 * time.Minute
	DangerThreshold  = time.Minute
)

// Timer counts down from an initial duration and fires an expiry callback
// exactly once when the deadline is reached. All methods are safe for
// concurrent use.
type Timer struct {
	mu        sync.Mutex
	initial   time.Duration
	remaining time.Duration
	deadline  time.Time
	running   bool
	expired   bool
	stop      chan struct{}

	onExpire func()

	// Overridable for tests.
	tick time.Duration
	now  func() time.Time
}

// New creates a stopped timer with the given initial duration. onExpire may
// be nil. Call Start to begin counting down.
func New(initial time.Duration, onExpire func()) *Timer {
	return &Timer{
		initial:   initial,
		remaining: initial,
		onExpire:  onExpire,
		tick:      DefaultTickInterval,
		now:       time.Now,
	}
}

// Start begins counting down from the current remaining time. The deadline is
// computed as now + remaining. A no-op if already running or fully elapsed.
func (t *Timer) Start() {
	t.mu.Lock()
	if t.running || t.remaining <= 0 {
		t.mu.Unlock()
		return
	}
	t.deadline = t.now().Add(t.remaining)
	t.running = true
	t.stop = make(chan struct{})
	stop := t.stop
	t.mu.Unlock()

	go t.loop(stop)
}

// Pause stops ticking and freezes the remaining time at its current value.
func (t *Timer) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return
	}
	rem := t.deadline.Sub(t.now())
	if rem < 0 {
		rem = 0
	}
	t.remaining = rem
	t.running = false
	close(t.stop)
	t.stop = nil
}

// Reset stops the timer and restores the original initial duration.
func (t *Timer) Reset() {
	t.ResetTo(t.initial)
}

// ResetTo stops the timer and sets the remaining time to d. A subsequent
// Start counts down from d, and the expiry callback is re-armed.
func (t *Timer) ResetTo(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		close(t.stop)
		t.stop = nil
		t.running = false
	}
	t.remaining = d
	t.expired = false
}

// Remaining returns the time left on the clock.
func (t *Timer) Remaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		rem := t.deadline.Sub(t.now())
		if rem < 0 {
			rem = 0
		}
		return rem
	}
	return t.remaining
}

// Running reports whether the timer is actively ticking.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Warning reports whether the remaining time is inside the warning band.
func (t *Timer) Warning() bool {
	rem := t.Remaining()
	return rem > 0 && rem <= WarningThreshold
}

// Danger reports whether the remaining time is inside the danger band.
func (t *Timer) Danger() bool {
	rem := t.Remaining()
	return rem > 0 && rem <= DangerThreshold
}

func (t *Timer) loop(stop chan struct{}) {
	ticker := time.NewTicker(t.tick)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if t.advance() {
				if t.onExpire != nil {
					t.onExpire()
				}
				return
			}
		}
	}
}

// advance recomputes the remaining time and reports whether the expiry
// callback should fire. The expired flag guarantees a single fire per
// countdown even if a tick races a concurrent Pause/Start.
func (t *Timer) advance() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return false
	}
	rem := t.deadline.Sub(t.now())
	if rem > 0 {
		t.remaining = rem
		return false
	}
	t.remaining = 0
	t.running = false
	t.stop = nil
	if t.expired {
		return false
	}
	t.expired = true
	return true
}
