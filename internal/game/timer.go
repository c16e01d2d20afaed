// internal/game/timer.go
package game

import (
	"math"
	"sync"
	"time"
)

// CountdownTimer is a single-shot countdown with one-second tick callbacks.
// Remaining time is sampled against a wall-clock deadline and reported as an
// integer ceiling, so tick values are monotone non-increasing. Pause keeps the
// ceiling of what is left and suppresses completion; Resume starts a fresh
// countdown of that remainder; Clear cancels all future callbacks.
//
// Callbacks are invoked from the timer's own goroutine. Callers that replace
// or clear timers concurrently should guard against late callbacks with a
// generation check of their own (see Session.startTimerLocked).
type CountdownTimer struct {
	mu        sync.Mutex
	onTick    func(remaining int)
	onExpire  func()
	deadline  time.Time
	remaining int
	running   bool
	done      bool
	stop      chan struct{}
}

// NewCountdownTimer builds a timer; either callback may be nil.
func NewCountdownTimer(onTick func(remaining int), onExpire func()) *CountdownTimer {
	return &CountdownTimer{onTick: onTick, onExpire: onExpire}
}

// Start begins a countdown of the given number of seconds. The initial tick,
// carrying the full duration, fires immediately from the timer goroutine. Any
// countdown already in flight is cancelled first.
func (t *CountdownTimer) Start(seconds int) {
	t.mu.Lock()
	t.stopLocked()
	t.remaining = seconds
	t.deadline = time.Now().Add(time.Duration(seconds) * time.Second)
	t.running = true
	t.done = false
	stop := make(chan struct{})
	t.stop = stop
	t.mu.Unlock()

	go t.run(stop, seconds)
}

func (t *CountdownTimer) run(stop chan struct{}, initial int) {
	// A Clear or restart can land before this goroutine is scheduled; the
	// initial tick must not outlive it.
	t.mu.Lock()
	live := t.running && t.stop == stop
	t.mu.Unlock()
	if !live {
		return
	}
	if t.onTick != nil {
		t.onTick(initial)
	}
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			t.mu.Lock()
			if !t.running || t.stop != stop {
				t.mu.Unlock()
				return
			}
			rem := ceilSeconds(time.Until(t.deadline))
			expired := rem <= 0
			if expired {
				t.running = false
				t.done = true
				t.remaining = 0
			}
			t.mu.Unlock()

			if expired {
				if t.onExpire != nil {
					t.onExpire()
				}
				return
			}
			if t.onTick != nil {
				t.onTick(rem)
			}
		}
	}
}

// Pause stops future ticks, records the integer ceiling of the time left, and
// suppresses the completion callback. No-op when not running.
func (t *CountdownTimer) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return
	}
	rem := ceilSeconds(time.Until(t.deadline))
	if rem < 0 {
		rem = 0
	}
	t.remaining = rem
	t.running = false
	t.stopLocked()
}

// Resume starts a fresh countdown of the paused remainder. No-op when already
// running, naturally completed, or nothing remains.
func (t *CountdownTimer) Resume() {
	t.mu.Lock()
	if t.running || t.done || t.remaining <= 0 {
		t.mu.Unlock()
		return
	}
	seconds := t.remaining
	t.mu.Unlock()
	t.Start(seconds)
}

// Clear cancels all future callbacks. Idempotent.
func (t *CountdownTimer) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.running = false
	t.done = true
}

// Remaining returns the integer ceiling of the time left, whether running or
// paused, and 0 after natural completion.
func (t *CountdownTimer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		rem := ceilSeconds(time.Until(t.deadline))
		if rem < 0 {
			rem = 0
		}
		return rem
	}
	return t.remaining
}

// stopLocked closes the stop channel if a run loop is active. Assumes lock is
// held.
func (t *CountdownTimer) stopLocked() {
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
}

func ceilSeconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}
