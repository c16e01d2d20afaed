// internal/game/timer_test.go
package game

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tickRecorder collects tick values and signals expiry.
type tickRecorder struct {
	mu      sync.Mutex
	ticks   []int
	expired chan struct{}
}

func newTickRecorder() *tickRecorder {
	return &tickRecorder{expired: make(chan struct{})}
}

func (r *tickRecorder) onTick(remaining int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticks = append(r.ticks, remaining)
}

func (r *tickRecorder) onExpire() {
	close(r.expired)
}

func (r *tickRecorder) tickValues() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.ticks...)
}

func TestTimerTicksAndExpires(t *testing.T) {
	rec := newTickRecorder()
	timer := NewCountdownTimer(rec.onTick, rec.onExpire)
	timer.Start(2)

	select {
	case <-rec.expired:
	case <-time.After(4 * time.Second):
		t.Fatal("timer did not expire")
	}

	ticks := rec.tickValues()
	require.NotEmpty(t, ticks)
	assert.Equal(t, 2, ticks[0], "initial tick carries the full duration")
	for _, v := range ticks {
		assert.Greater(t, v, 0, "zero is signalled by expiry, not a tick")
	}
	for i := 1; i < len(ticks); i++ {
		assert.LessOrEqual(t, ticks[i], ticks[i-1], "ticks must not increase")
	}
	assert.Equal(t, 0, timer.Remaining())
}

func TestTimerPauseResume(t *testing.T) {
	rec := newTickRecorder()
	timer := NewCountdownTimer(rec.onTick, rec.onExpire)
	timer.Start(3)

	time.Sleep(1200 * time.Millisecond)
	timer.Pause()
	rem := timer.Remaining()
	assert.GreaterOrEqual(t, rem, 1)
	assert.LessOrEqual(t, rem, 2)

	// Paused timers never complete.
	select {
	case <-rec.expired:
		t.Fatal("timer expired while paused")
	case <-time.After(2500 * time.Millisecond):
	}
	assert.Equal(t, rem, timer.Remaining(), "remaining frozen while paused")

	timer.Resume()
	select {
	case <-rec.expired:
	case <-time.After(4 * time.Second):
		t.Fatal("timer did not expire after resume")
	}
}

func TestTimerClearStopsCallbacks(t *testing.T) {
	rec := newTickRecorder()
	timer := NewCountdownTimer(rec.onTick, rec.onExpire)
	timer.Start(1)
	timer.Clear()

	select {
	case <-rec.expired:
		t.Fatal("cleared timer still expired")
	case <-time.After(2 * time.Second):
	}

	// Clear is terminal: Resume must not restart.
	timer.Resume()
	select {
	case <-rec.expired:
		t.Fatal("cleared timer resumed")
	case <-time.After(1500 * time.Millisecond):
	}
}

func TestTimerRestartReplacesCountdown(t *testing.T) {
	rec := newTickRecorder()
	timer := NewCountdownTimer(rec.onTick, rec.onExpire)
	timer.Start(30)
	timer.Start(1)

	select {
	case <-rec.expired:
	case <-time.After(3 * time.Second):
		t.Fatal("restarted timer did not expire")
	}
}

func TestTimerClearSuppressesInitialTick(t *testing.T) {
	rec := newTickRecorder()
	timer := NewCountdownTimer(rec.onTick, rec.onExpire)
	timer.Start(5)
	timer.Clear()
	seen := len(rec.tickValues())

	time.Sleep(200 * time.Millisecond)
	assert.Len(t, rec.tickValues(), seen, "no tick may fire after clear")
	select {
	case <-rec.expired:
		t.Fatal("cleared timer expired")
	default:
	}
}

func TestTimerPauseWhenIdleIsNoop(t *testing.T) {
	timer := NewCountdownTimer(nil, nil)
	timer.Pause()
	timer.Resume()
	assert.Equal(t, 0, timer.Remaining())
}
