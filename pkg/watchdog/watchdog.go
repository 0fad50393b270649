// Package watchdog provides a re-armable one-shot timer.
//
// A Timer fires its callback at most once per Arm. Re-arming or stopping
// invalidates a pending expiry even if the underlying timer already fired and
// its goroutine is waiting to run, so callers never see a stale timeout.
package watchdog

import (
	"sync"
	"time"
)

// Timer is a re-armable one-shot timer. The zero value is ready to use.
type Timer struct {
	mu sync.Mutex

	timer    *time.Timer
	gen      uint64
	deadline time.Time
}

// Arm schedules fn to run after d, cancelling any previous schedule.
// fn runs on its own goroutine without the timer lock held.
func (t *Timer) Arm(d time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
	}
	t.gen++
	gen := t.gen
	t.deadline = time.Now().Add(d)
	t.timer = time.AfterFunc(d, func() {
		if t.expire(gen) {
			fn()
		}
	})
}

// Stop cancels a pending expiry. It reports whether one was pending.
func (t *Timer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer == nil {
		return false
	}
	t.timer.Stop()
	t.timer = nil
	t.gen++
	t.deadline = time.Time{}
	return true
}

// Armed reports whether an expiry is pending.
func (t *Timer) Armed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timer != nil
}

// Remaining returns the time left until expiry, or 0 if not armed.
func (t *Timer) Remaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer == nil {
		return 0
	}
	if r := time.Until(t.deadline); r > 0 {
		return r
	}
	return 0
}

func (t *Timer) expire(gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if gen != t.gen || t.timer == nil {
		return false
	}
	t.timer = nil
	t.deadline = time.Time{}
	return true
}
